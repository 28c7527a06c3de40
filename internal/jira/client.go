// Package jira talks to the Jira REST API: work logs of the current user,
// issue lookup and search, and the authenticated account.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/plaid/internal/model"
)

const apiPrefix = "/rest/api/latest"

// searchLimit caps the quick issue search.
const searchLimit = 15

// fetchParallelism bounds concurrent per-issue work-log requests.
const fetchParallelism = 4

// Client is an authenticated Jira REST client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a client for the server at baseURL. httpClient carries
// the authentication; see NewHTTPClient.
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, log: log}, nil
}

// do sends a request and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jira request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	c.log.Debug("jira request", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, URL: path, Code: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding jira response: %w", err)
	}
	return nil
}

// Myself returns the authenticated account.
func (c *Client) Myself(ctx context.Context) (*model.User, error) {
	var u userJSON
	if err := c.do(ctx, http.MethodGet, "/myself", nil, nil, &u); err != nil {
		return nil, err
	}
	return u.model(), nil
}

// search runs a JQL query and returns one page of issues.
func (c *Client) search(ctx context.Context, jql string, startAt, limit int) (searchResults, error) {
	q := url.Values{
		"jql":     {jql},
		"startAt": {strconv.Itoa(startAt)},
		"fields":  {issueFields},
	}
	if limit > 0 {
		q.Set("maxResults", strconv.Itoa(limit))
	}
	var res searchResults
	err := c.do(ctx, http.MethodGet, "/search", q, nil, &res)
	return res, err
}

// issuesWithWorklogs pages through every issue the current user logged
// work on in r.
func (c *Client) issuesWithWorklogs(ctx context.Context, r model.DateRange) ([]model.Issue, error) {
	jql := fmt.Sprintf(`worklogAuthor = currentUser() && worklogDate >= "%s" && worklogDate <= "%s"`,
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))

	var issues []model.Issue
	for startAt := 0; ; {
		page, err := c.search(ctx, jql, startAt, 0)
		if err != nil {
			return nil, fmt.Errorf("searching issues with work logs: %w", err)
		}
		for _, i := range page.Issues {
			issues = append(issues, i.model())
		}
		startAt = page.StartAt + len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			return issues, nil
		}
	}
}

// issueWorklogs pages through every work log of issue.
func (c *Client) issueWorklogs(ctx context.Context, issue *model.Issue) ([]model.Worklog, error) {
	var out []model.Worklog
	for startAt := 0; ; {
		var q url.Values
		if startAt > 0 {
			q = url.Values{"startAt": {strconv.Itoa(startAt)}}
		}
		var page worklogPage
		if err := c.do(ctx, http.MethodGet, "/issue/"+url.PathEscape(issue.ID)+"/worklog", q, nil, &page); err != nil {
			return nil, fmt.Errorf("listing work logs of %s: %w", issue.Key, err)
		}
		for _, w := range page.Worklogs {
			m, err := w.model(issue)
			if err != nil {
				c.log.Warn("skipping work log", "issue", issue.Key, "error", err)
				continue
			}
			out = append(out, m)
		}
		startAt = page.StartAt + len(page.Worklogs)
		if len(page.Worklogs) == 0 || startAt >= page.Total {
			return out, nil
		}
	}
}

// ListWorklogs returns the work logs user wrote on the days of r.
func (c *Client) ListWorklogs(ctx context.Context, r model.DateRange, user *model.User) ([]model.Worklog, error) {
	issues, err := c.issuesWithWorklogs(ctx, r)
	if err != nil {
		return nil, err
	}

	results := make([][]model.Worklog, len(issues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)
	for i := range issues {
		g.Go(func() error {
			ws, err := c.issueWorklogs(gctx, &issues[i])
			results[i] = ws
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.Worklog
	for _, ws := range results {
		for _, w := range ws {
			if !w.Author.Same(user) {
				continue
			}
			if w.Started.Before(r.Start) || !w.Started.Before(r.Until()) {
				continue
			}
			out = append(out, w)
		}
	}
	return out, nil
}

// CreateWorklog adds a work log to the issue.
func (c *Client) CreateWorklog(ctx context.Context, issueID string, started time.Time, seconds int64, comment string) (model.Worklog, error) {
	var w worklogJSON
	path := "/issue/" + url.PathEscape(issueID) + "/worklog"
	if err := c.do(ctx, http.MethodPost, path, nil, newWorklogBody(started, seconds, comment), &w); err != nil {
		return model.Worklog{}, err
	}
	return w.model(nil)
}

// UpdateWorklog replaces start, duration and comment of a work log.
func (c *Client) UpdateWorklog(ctx context.Context, issueID, id string, started time.Time, seconds int64, comment string) (model.Worklog, error) {
	var w worklogJSON
	path := "/issue/" + url.PathEscape(issueID) + "/worklog/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, nil, newWorklogBody(started, seconds, comment), &w); err != nil {
		return model.Worklog{}, err
	}
	return w.model(nil)
}

// DeleteWorklog removes a work log.
func (c *Client) DeleteWorklog(ctx context.Context, issueID, id string) error {
	path := "/issue/" + url.PathEscape(issueID) + "/worklog/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// GetIssue looks up an issue by ID or key. A missing issue yields nil
// without error.
func (c *Client) GetIssue(ctx context.Context, idOrKey string) (*model.Issue, error) {
	var i issueJSON
	err := c.do(ctx, http.MethodGet, "/issue/"+url.PathEscape(idOrKey), url.Values{"fields": {issueFields}}, nil, &i)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := i.model()
	return &m, nil
}

var (
	specialChars = regexp.MustCompile(`[+.,;?|*/%^$#@\[\]"'` + "`" + `]`)
	issueKey     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*-[1-9][0-9]*$`)
)

func stripSpecialChars(s string) string {
	return strings.TrimSpace(specialChars.ReplaceAllString(s, " "))
}

// SearchIssues returns issues whose text matches query. A query shaped like
// an issue key puts that issue first.
func (c *Client) SearchIssues(ctx context.Context, query string) ([]model.Issue, error) {
	text := stripSpecialChars(query)
	if text == "" {
		return nil, nil
	}

	var out []model.Issue
	query = strings.TrimSpace(query)
	if issueKey.MatchString(query) {
		issue, err := c.GetIssue(ctx, query)
		if err != nil {
			return nil, err
		}
		if issue != nil {
			out = append(out, *issue)
		}
	}

	res, err := c.search(ctx, fmt.Sprintf(`text ~ "%s"`, text), 0, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}
	for _, i := range res.Issues {
		if len(out) > 0 && out[0].ID == i.ID {
			continue
		}
		out = append(out, i.model())
	}
	return out, nil
}

// Suggestions returns issues the current user recently touched.
func (c *Client) Suggestions(ctx context.Context) ([]model.Issue, error) {
	res, err := c.search(ctx, "status changed by currentUser() OR creator = currentUser() order by updatedDate desc", 0, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("loading suggestions: %w", err)
	}
	out := make([]model.Issue, 0, len(res.Issues))
	for _, i := range res.Issues {
		out = append(out, i.model())
	}
	return out, nil
}
