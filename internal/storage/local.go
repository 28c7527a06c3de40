package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

// ErrUnknownIssue is returned when a work log names an issue missing from
// the catalog.
var ErrUnknownIssue = errors.New("unknown issue (add it with: plaid issues add)")

// ErrNotFound is returned for work logs that do not exist.
var ErrNotFound = errors.New("work log not found")

const searchLimit = 15

// firstIssueID numbers catalog issues that were added without an ID.
const firstIssueID = 10000

// Local keeps work logs and an issue catalog in day files under a base
// directory, for offline use.
type Local struct {
	base string
	user *model.User

	mu  sync.Mutex
	now func() time.Time
}

// NewLocal returns a store rooted at base whose work logs are authored by
// user.
func NewLocal(base string, user *model.User) *Local {
	return &Local{base: base, user: user, now: time.Now}
}

// LocalUser is the account offline work logs are attributed to.
func LocalUser(name string) *model.User {
	if name == "" {
		name = "local"
	}
	return &model.User{Self: "local:" + name, Key: name, DisplayName: name}
}

// Myself returns the owner of the store.
func (l *Local) Myself(context.Context) (*model.User, error) {
	return l.user, nil
}

func (l *Local) catalogPath() string {
	return filepath.Join(l.base, "issues.json")
}

// Issues returns the catalog sorted by key.
func (l *Local) Issues() ([]model.Issue, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadIssues()
}

func (l *Local) loadIssues() ([]model.Issue, error) {
	data, err := os.ReadFile(l.catalogPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading issue catalog: %w", err)
	}
	var issues []model.Issue
	if err := json.Unmarshal(data, &issues); err != nil {
		return nil, fmt.Errorf("corrupt issue catalog %s: %w", l.catalogPath(), err)
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Key < issues[j].Key })
	return issues, nil
}

// AddIssue stores issue in the catalog, replacing one with the same key. An
// empty ID is assigned.
func (l *Local) AddIssue(issue model.Issue) (model.Issue, error) {
	issue.Key = strings.ToUpper(strings.TrimSpace(issue.Key))
	if issue.Key == "" {
		return model.Issue{}, errors.New("issue key is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	issues, err := l.loadIssues()
	if err != nil {
		return model.Issue{}, err
	}

	next := firstIssueID
	for i, x := range issues {
		if n, err := strconv.Atoi(x.ID); err == nil && n >= next {
			next = n + 1
		}
		if x.Key == issue.Key {
			if issue.ID == "" {
				issue.ID = x.ID
			}
			issues[i] = issue
			return issue, l.saveIssues(issues)
		}
	}
	if issue.ID == "" {
		issue.ID = strconv.Itoa(next)
	}
	issues = append(issues, issue)
	return issue, l.saveIssues(issues)
}

func (l *Local) saveIssues(issues []model.Issue) error {
	if err := os.MkdirAll(l.base, 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}
	return writeJSON(l.catalogPath(), issues)
}

func (l *Local) findIssue(issues []model.Issue, idOrKey string) *model.Issue {
	for i := range issues {
		if issues[i].ID == idOrKey || strings.EqualFold(issues[i].Key, idOrKey) {
			issue := issues[i]
			return &issue
		}
	}
	return nil
}

// GetIssue returns the catalog issue with the given ID or key, or nil.
func (l *Local) GetIssue(_ context.Context, idOrKey string) (*model.Issue, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	issues, err := l.loadIssues()
	if err != nil {
		return nil, err
	}
	return l.findIssue(issues, idOrKey), nil
}

// SearchIssues matches query against catalog keys and summaries. An exact
// key match comes first, then substring matches in catalog order, then
// fuzzy matches by score.
func (l *Local) SearchIssues(_ context.Context, query string) ([]model.Issue, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	issues, err := l.loadIssues()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var exact, rest, others []model.Issue
	for _, i := range issues {
		switch {
		case strings.EqualFold(i.Key, query):
			exact = append(exact, i)
		case strings.Contains(strings.ToLower(i.Key), q), strings.Contains(strings.ToLower(i.Summary), q):
			rest = append(rest, i)
		default:
			others = append(others, i)
		}
	}
	for _, m := range fuzzy.FindFrom(query, issueSource(others)) {
		rest = append(rest, others[m.Index])
	}
	out := append(exact, rest...)
	if len(out) > searchLimit {
		out = out[:searchLimit]
	}
	return out, nil
}

type issueSource []model.Issue

func (s issueSource) String(i int) string { return s[i].Key + " " + s[i].Summary }
func (s issueSource) Len() int            { return len(s) }

// ListWorklogs returns the work logs of user on the days of r with their
// catalog issues attached.
func (l *Local) ListWorklogs(_ context.Context, r model.DateRange, user *model.User) ([]model.Worklog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ws, err := LoadRange(l.base, r)
	if err != nil {
		return nil, err
	}
	issues, err := l.loadIssues()
	if err != nil {
		return nil, err
	}
	out := make([]model.Worklog, 0, len(ws))
	for _, w := range ws {
		if user != nil && w.Author != nil && !w.Author.Same(user) {
			continue
		}
		w.Issue = l.findIssue(issues, w.IssueID)
		out = append(out, w)
	}
	return out, nil
}

// CreateWorklog stores a new work log on a catalog issue.
func (l *Local) CreateWorklog(_ context.Context, issueID string, started time.Time, seconds int64, comment string) (model.Worklog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	issue, err := l.issue(issueID)
	if err != nil {
		return model.Worklog{}, err
	}
	w := model.Worklog{
		ID:               timecalc.GenerateID(l.now()),
		IssueID:          issue.ID,
		Author:           l.user,
		Started:          timecalc.TruncateToSecond(started),
		TimeSpentSeconds: seconds,
		Comment:          comment,
	}
	if err := PutWorklog(l.base, w); err != nil {
		return model.Worklog{}, err
	}
	w.Issue = issue
	return w, nil
}

// UpdateWorklog rewrites a stored work log, moving it to another day file
// when its date changed.
func (l *Local) UpdateWorklog(_ context.Context, issueID, id string, started time.Time, seconds int64, comment string) (model.Worklog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	issue, err := l.issue(issueID)
	if err != nil {
		return model.Worklog{}, err
	}
	w, day, ok, err := FindWorklog(l.base, id, started)
	if err != nil {
		return model.Worklog{}, err
	}
	if !ok {
		return model.Worklog{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	w.IssueID = issue.ID
	w.Started = timecalc.TruncateToSecond(started)
	w.TimeSpentSeconds = seconds
	w.Comment = comment
	if !timecalc.SameDay(day, w.Started) {
		if _, err := RemoveWorklog(l.base, day, id); err != nil {
			return model.Worklog{}, err
		}
	}
	if err := PutWorklog(l.base, w); err != nil {
		return model.Worklog{}, err
	}
	w.Issue = issue
	return w, nil
}

// DeleteWorklog removes a stored work log.
func (l *Local) DeleteWorklog(_ context.Context, _, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, day, ok, err := FindWorklog(l.base, id, time.Time{})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	_, err = RemoveWorklog(l.base, day, id)
	return err
}

// issue must be called with mu held.
func (l *Local) issue(idOrKey string) (*model.Issue, error) {
	issues, err := l.loadIssues()
	if err != nil {
		return nil, err
	}
	issue := l.findIssue(issues, idOrKey)
	if issue == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIssue, idOrKey)
	}
	return issue, nil
}
