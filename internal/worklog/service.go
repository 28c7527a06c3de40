package worklog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/signal"
)

// ErrDeleting is returned when a delete for the same work log is running.
var ErrDeleting = errors.New("work log is already being deleted")

// Source stores work logs and looks up issues.
type Source interface {
	ListWorklogs(ctx context.Context, r model.DateRange, user *model.User) ([]model.Worklog, error)
	CreateWorklog(ctx context.Context, issueID string, started time.Time, seconds int64, comment string) (model.Worklog, error)
	UpdateWorklog(ctx context.Context, issueID, id string, started time.Time, seconds int64, comment string) (model.Worklog, error)
	DeleteWorklog(ctx context.Context, issueID, id string) error
	SearchIssues(ctx context.Context, query string) ([]model.Issue, error)
	// GetIssue returns nil and no error when the issue does not exist.
	GetIssue(ctx context.Context, idOrKey string) (*model.Issue, error)
}

// Service keeps List in sync with a Source.
type Service struct {
	src  Source
	list *List
	log  *slog.Logger

	mu          sync.Mutex
	seq         uint64
	cancelFetch context.CancelFunc
	rng         model.DateRange
	user        *model.User
	deleting    map[string]bool
}

// NewService creates a service writing into list.
func NewService(src Source, list *List, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{src: src, list: list, log: log, deleting: map[string]bool{}}
}

// List returns the work-log list the service maintains.
func (s *Service) List() *List {
	return s.list
}

// Fetch loads the work logs of user in r and replaces the list. The
// fetching flag is raised while it runs. A newer Fetch or Refresh cancels
// this one, whose result is then dropped.
func (s *Service) Fetch(ctx context.Context, r model.DateRange, user *model.User) error {
	return s.fetch(ctx, r, user, true)
}

// Refresh reloads the last fetched range quietly, without the fetching flag.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	r, user := s.rng, s.user
	s.mu.Unlock()
	if user == nil || r.Start.IsZero() {
		return nil
	}
	return s.fetch(ctx, r, user, false)
}

func (s *Service) fetch(ctx context.Context, r model.DateRange, user *model.User, verbose bool) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	s.rng, s.user = r, user
	s.mu.Unlock()
	defer cancel()

	if verbose {
		s.list.setFetching(true)
	}
	start := time.Now()
	ws, err := s.src.ListWorklogs(ctx, r, user)

	s.mu.Lock()
	stale := seq != s.seq
	if !stale {
		s.cancelFetch = nil
	}
	s.mu.Unlock()
	if stale {
		s.log.Debug("dropping superseded fetch", "range", r.String())
		return nil
	}
	s.list.setFetching(false)
	if err != nil {
		return fmt.Errorf("fetching work logs for %s: %w", r, err)
	}
	s.list.Replace(ws)
	s.log.Debug("fetched work logs", "range", r.String(), "count", len(ws), "took", time.Since(start))
	return nil
}

// RangeChanged fetches newRange unless it lies within oldRange, whose work
// logs are already loaded. It reports whether it fetched.
func (s *Service) RangeChanged(ctx context.Context, oldRange, newRange model.DateRange, user *model.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	s.mu.Lock()
	s.rng = newRange
	s.mu.Unlock()
	if !oldRange.Start.IsZero() && oldRange.Covers(newRange) {
		return false, nil
	}
	return true, s.Fetch(ctx, newRange, user)
}

// Reset forgets the loaded range and clears the list, as after a logout.
func (s *Service) Reset() {
	s.mu.Lock()
	s.seq++
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.user = nil
	s.mu.Unlock()
	s.list.setFetching(false)
	s.list.Replace(nil)
}

// CreateWorklog stores a new work log and adds it to the list. The issue of
// w is kept when the source does not return one.
func (s *Service) CreateWorklog(ctx context.Context, w model.Worklog) (model.Worklog, error) {
	added, err := s.src.CreateWorklog(ctx, w.IssueID, w.Started, w.TimeSpentSeconds, w.Comment)
	if err != nil {
		return model.Worklog{}, fmt.Errorf("creating work log on %s: %w", w.IssueID, err)
	}
	merged := merge(w, added)
	s.list.Upsert(merged)
	return merged, nil
}

// UpdateWorklog stores changes of an existing work log and updates the list.
func (s *Service) UpdateWorklog(ctx context.Context, w model.Worklog) (model.Worklog, error) {
	updated, err := s.src.UpdateWorklog(ctx, w.IssueID, w.ID, w.Started, w.TimeSpentSeconds, w.Comment)
	if err != nil {
		return model.Worklog{}, fmt.Errorf("updating work log %s: %w", w.ID, err)
	}
	merged := merge(w, updated)
	s.list.Upsert(merged)
	return merged, nil
}

// Delete removes w from the source and, once that succeeded, from the list.
func (s *Service) Delete(ctx context.Context, w model.Worklog) error {
	s.mu.Lock()
	if s.deleting[w.ID] {
		s.mu.Unlock()
		return ErrDeleting
	}
	s.deleting[w.ID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.deleting, w.ID)
		s.mu.Unlock()
	}()

	if err := s.src.DeleteWorklog(ctx, w.IssueID, w.ID); err != nil {
		return fmt.Errorf("deleting work log %s: %w", w.ID, err)
	}
	s.list.Remove(w.ID)
	return nil
}

// IsDeleting reports whether a delete of the work log is running.
func (s *Service) IsDeleting(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleting[id]
}

// SearchIssues looks up issues matching query.
func (s *Service) SearchIssues(ctx context.Context, query string) ([]model.Issue, error) {
	issues, err := s.src.SearchIssues(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}
	return issues, nil
}

// GetIssue looks up a single issue by ID or key.
func (s *Service) GetIssue(ctx context.Context, idOrKey string) (*model.Issue, error) {
	issue, err := s.src.GetIssue(ctx, idOrKey)
	if err != nil {
		return nil, fmt.Errorf("getting issue %s: %w", idOrKey, err)
	}
	return issue, nil
}

// RunRefresh reloads the list quietly every interval until ctx ends. A
// new interval restarts the timer; zero or less pauses refreshing.
func (s *Service) RunRefresh(ctx context.Context, every *signal.Value[time.Duration]) {
	changes := make(chan time.Duration, 1)
	cancel := every.Subscribe(func(d time.Duration) {
		for {
			select {
			case changes <- d:
				return
			default:
				select {
				case <-changes:
				default:
				}
			}
		}
	})
	defer cancel()

	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-changes:
			stop()
			if d > 0 {
				ticker = time.NewTicker(d)
				tick = ticker.C
			}
		case <-tick:
			if err := s.Refresh(ctx); err != nil {
				s.log.Warn("periodic refresh failed", "error", err)
			}
		}
	}
}

// merge overlays the fields the source returned on the submitted work log.
func merge(sent, got model.Worklog) model.Worklog {
	out := sent
	if got.ID != "" {
		out.ID = got.ID
	}
	if got.IssueID != "" {
		out.IssueID = got.IssueID
	}
	if got.Issue != nil {
		out.Issue = got.Issue
	}
	if got.Author != nil {
		out.Author = got.Author
	}
	if !got.Started.IsZero() {
		out.Started = got.Started
	}
	if got.TimeSpentSeconds != 0 {
		out.TimeSpentSeconds = got.TimeSpentSeconds
	}
	out.Comment = got.Comment
	return out
}
