package jira_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tiliavir/plaid/internal/jira"
	"github.com/Tiliavir/plaid/internal/model"
)

const meSelf = "https://jira.example.com/rest/api/2/user?key=me"

var week = model.NewDateRange(
	time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local),
	time.Date(2026, 3, 8, 0, 0, 0, 0, time.Local),
)

func started(day, hour int) string {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.Local).Format(jira.StartedLayout)
}

func newClient(t *testing.T, h http.Handler) *jira.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := jira.NewClient(srv.URL+"/", srv.Client(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestListWorklogsPagesAndFilters(t *testing.T) {
	var (
		mu       sync.Mutex
		searches []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/latest/search", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		searches = append(searches, r.URL.Query().Get("startAt"))
		mu.Unlock()
		if r.URL.Query().Get("startAt") == "0" {
			jql := r.URL.Query().Get("jql")
			if !strings.Contains(jql, `worklogDate >= "2026-03-02"`) || !strings.Contains(jql, `worklogDate <= "2026-03-08"`) {
				t.Errorf("jql = %q", jql)
			}
			writeJSON(w, map[string]any{"startAt": 0, "total": 2, "issues": []any{
				map[string]any{"id": "1", "key": "PLD-1", "fields": map[string]any{"summary": "One"}},
			}})
			return
		}
		writeJSON(w, map[string]any{"startAt": 1, "total": 2, "issues": []any{
			map[string]any{"id": "2", "key": "PLD-2", "fields": map[string]any{"summary": "Two", "parent": map[string]any{"id": "1"}}},
		}})
	})
	mux.HandleFunc("/rest/api/latest/issue/1/worklog", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("startAt") == "" {
			writeJSON(w, map[string]any{"startAt": 0, "total": 2, "worklogs": []any{
				map[string]any{"id": "10", "started": started(2, 9), "timeSpentSeconds": 3600, "comment": "mine", "author": map[string]any{"self": meSelf}},
			}})
			return
		}
		writeJSON(w, map[string]any{"startAt": 1, "total": 2, "worklogs": []any{
			map[string]any{"id": "11", "started": started(2, 11), "timeSpentSeconds": 1800, "author": map[string]any{"self": "someone-else"}},
		}})
	})
	mux.HandleFunc("/rest/api/latest/issue/2/worklog", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"startAt": 0, "total": 2, "worklogs": []any{
			map[string]any{"id": "20", "started": started(3, 9), "timeSpentSeconds": 900, "author": map[string]any{"self": meSelf}},
			map[string]any{"id": "21", "started": started(9, 9), "timeSpentSeconds": 900, "author": map[string]any{"self": meSelf}},
		}})
	})

	c := newClient(t, mux)
	got, err := c.ListWorklogs(context.Background(), week, &model.User{Self: meSelf})
	if err != nil {
		t.Fatalf("ListWorklogs: %v", err)
	}
	if len(searches) != 2 {
		t.Errorf("search pages = %v, want 2", searches)
	}
	ids := map[string]model.Worklog{}
	for _, w := range got {
		ids[w.ID] = w
	}
	if len(got) != 2 {
		t.Fatalf("ListWorklogs = %+v, want work logs 10 and 20", got)
	}
	w10, ok := ids["10"]
	if !ok || w10.Comment != "mine" || w10.IssueID != "1" || w10.Issue == nil || w10.Issue.Key != "PLD-1" {
		t.Errorf("work log 10 = %+v", w10)
	}
	if w20, ok := ids["20"]; !ok || w20.Issue.ParentID != "1" {
		t.Errorf("work log 20 = %+v", w20)
	}
}

func TestCreateWorklogSendsStarted(t *testing.T) {
	at := time.Date(2026, 3, 3, 9, 30, 0, 0, time.Local)
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/api/latest/issue/10001/worklog" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["started"] != at.Format(jira.StartedLayout) || body["timeSpentSeconds"] != float64(1800) || body["comment"] != "c" {
			t.Errorf("body = %v", body)
		}
		writeJSON(w, map[string]any{"id": "99", "issueId": "10001", "started": body["started"], "timeSpentSeconds": 1800, "comment": "c"})
	}))

	got, err := c.CreateWorklog(context.Background(), "10001", at, 1800, "c")
	if err != nil {
		t.Fatalf("CreateWorklog: %v", err)
	}
	if got.ID != "99" || !got.Started.Equal(at) || got.Comment != "c" {
		t.Errorf("CreateWorklog = %+v", got)
	}
}

func TestUpdateAndDeleteWorklog(t *testing.T) {
	var calls []string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var in map[string]any
		_ = json.Unmarshal(body, &in)
		writeJSON(w, map[string]any{"id": "5", "issueId": "7", "started": in["started"], "timeSpentSeconds": in["timeSpentSeconds"], "comment": in["comment"]})
	}))
	ctx := context.Background()

	got, err := c.UpdateWorklog(ctx, "7", "5", time.Date(2026, 3, 4, 8, 0, 0, 0, time.Local), 600, "")
	if err != nil || got.TimeSpentSeconds != 600 {
		t.Fatalf("UpdateWorklog = %+v, %v", got, err)
	}
	if err := c.DeleteWorklog(ctx, "7", "5"); err != nil {
		t.Fatalf("DeleteWorklog: %v", err)
	}
	want := []string{"PUT /rest/api/latest/issue/7/worklog/5", "DELETE /rest/api/latest/issue/7/worklog/5"}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestGetIssueNotFound(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages":["Issue does not exist"]}`, http.StatusNotFound)
	}))
	issue, err := c.GetIssue(context.Background(), "NOPE-1")
	if err != nil || issue != nil {
		t.Errorf("GetIssue = %+v, %v; want nil, nil", issue, err)
	}
}

func TestSearchIssues(t *testing.T) {
	var jqls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/latest/issue/PLD-7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "7", "key": "PLD-7", "fields": map[string]any{"summary": "Seven"}})
	})
	mux.HandleFunc("/rest/api/latest/search", func(w http.ResponseWriter, r *http.Request) {
		jqls = append(jqls, r.URL.Query().Get("jql"))
		if r.URL.Query().Get("maxResults") != "15" {
			t.Errorf("maxResults = %q", r.URL.Query().Get("maxResults"))
		}
		writeJSON(w, map[string]any{"total": 2, "issues": []any{
			map[string]any{"id": "7", "key": "PLD-7"},
			map[string]any{"id": "8", "key": "PLD-8"},
		}})
	})
	c := newClient(t, mux)
	ctx := context.Background()

	got, err := c.SearchIssues(ctx, "PLD-7")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Key != "PLD-7" || got[0].Summary != "Seven" || got[1].Key != "PLD-8" {
		t.Errorf("SearchIssues(PLD-7) = %+v", got)
	}

	got, err = c.SearchIssues(ctx, `"?*`)
	if err != nil || got != nil {
		t.Errorf("SearchIssues(special only) = %+v, %v", got, err)
	}

	if _, err := c.SearchIssues(ctx, `login "bug"`); err != nil {
		t.Fatal(err)
	}
	if last := jqls[len(jqls)-1]; last != `text ~ "login  bug"` {
		t.Errorf("jql = %q", last)
	}
}

func TestErrorClassification(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	_, err := c.Myself(context.Background())
	if !jira.IsAuth(err) || !errors.Is(err, jira.ErrUnauthorized) || jira.IsNetwork(err) {
		t.Errorf("401: err = %v, IsAuth = %v", err, jira.IsAuth(err))
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	down, _ := jira.NewClient(srv.URL, nil, nil)
	_, err = down.Myself(context.Background())
	if !jira.IsNetwork(err) || jira.IsAuth(err) {
		t.Errorf("closed server: err = %v, IsNetwork = %v", err, jira.IsNetwork(err))
	}

	if _, err := jira.NewClient("", nil, nil); !errors.Is(err, jira.ErrNotConfigured) {
		t.Errorf("NewClient(\"\") err = %v", err)
	}
}

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name  string
		creds jira.Credentials
		check func(*http.Request) bool
	}{
		{
			name:  "token",
			creds: jira.Credentials{Method: "token", Token: "pat"},
			check: func(r *http.Request) bool { return r.Header.Get("Authorization") == "Bearer pat" },
		},
		{
			name:  "basic",
			creds: jira.Credentials{Method: "basic", Username: "me", Token: "api"},
			check: func(r *http.Request) bool {
				u, p, ok := r.BasicAuth()
				return ok && u == "me" && p == "api"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !tt.check(r) {
					t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
				}
				writeJSON(w, map[string]any{"self": meSelf, "displayName": "Me"})
			}))
			defer srv.Close()

			c, err := jira.NewClient(srv.URL, jira.NewHTTPClient(context.Background(), tt.creds), nil)
			if err != nil {
				t.Fatal(err)
			}
			u, err := c.Myself(context.Background())
			if err != nil || u.DisplayName != "Me" {
				t.Errorf("Myself = %+v, %v", u, err)
			}
		})
	}
}

func TestCredentialsFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := jira.LoadCredentials(dir); !errors.Is(err, jira.ErrNoCredentials) {
		t.Fatalf("LoadCredentials on empty dir: %v", err)
	}

	want := jira.Credentials{Method: "basic", Username: "me", Token: "secret"}
	if err := jira.SaveCredentials(dir, want); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "auth", "credentials.json"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credentials mode = %v, want 0600", perm)
	}
	got, err := jira.LoadCredentials(dir)
	if err != nil || got != want {
		t.Errorf("LoadCredentials = %+v, %v", got, err)
	}

	if err := jira.DeleteCredentials(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := jira.LoadCredentials(dir); !errors.Is(err, jira.ErrNoCredentials) {
		t.Errorf("after delete: %v", err)
	}
}
