package jira

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tiliavir/plaid/internal/model"
)

// StartedLayout is how the server reads and writes work-log start times.
const StartedLayout = "2006-01-02T15:04:05.000-0700"

// issueFields lists the issue fields every lookup asks for.
const issueFields = "components,issuetype,parent,priority,summary,status"

type userJSON struct {
	Self         string `json:"self"`
	AccountID    string `json:"accountId"`
	Key          string `json:"key"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	TimeZone     string `json:"timeZone"`
}

func (u *userJSON) model() *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Self:         u.Self,
		AccountID:    u.AccountID,
		Key:          u.Key,
		DisplayName:  u.DisplayName,
		EmailAddress: u.EmailAddress,
		TimeZone:     u.TimeZone,
	}
}

type named struct {
	Name string `json:"name"`
}

type issueJSON struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary   string `json:"summary"`
		IssueType *named `json:"issuetype"`
		Status    *named `json:"status"`
		Parent    *struct {
			ID string `json:"id"`
		} `json:"parent"`
	} `json:"fields"`
}

func (i issueJSON) model() model.Issue {
	out := model.Issue{ID: i.ID, Key: i.Key, Summary: i.Fields.Summary}
	if i.Fields.IssueType != nil {
		out.IssueType = i.Fields.IssueType.Name
	}
	if i.Fields.Status != nil {
		out.Status = i.Fields.Status.Name
	}
	if i.Fields.Parent != nil {
		out.ParentID = i.Fields.Parent.ID
	}
	return out
}

type searchResults struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []issueJSON `json:"issues"`
}

type worklogJSON struct {
	ID               string          `json:"id"`
	IssueID          string          `json:"issueId"`
	Author           *userJSON       `json:"author"`
	Started          string          `json:"started"`
	TimeSpentSeconds int64           `json:"timeSpentSeconds"`
	Comment          json.RawMessage `json:"comment"`
}

// comment returns plain-text comments; rich-text documents are dropped.
func (w worklogJSON) comment() string {
	var s string
	if len(w.Comment) > 0 && json.Unmarshal(w.Comment, &s) == nil {
		return s
	}
	return ""
}

func (w worklogJSON) model(issue *model.Issue) (model.Worklog, error) {
	started, err := time.Parse(StartedLayout, w.Started)
	if err != nil {
		return model.Worklog{}, fmt.Errorf("work log %s: bad start %q: %w", w.ID, w.Started, err)
	}
	out := model.Worklog{
		ID:               w.ID,
		IssueID:          w.IssueID,
		Issue:            issue,
		Author:           w.Author.model(),
		Started:          started.Local(),
		TimeSpentSeconds: w.TimeSpentSeconds,
		Comment:          w.comment(),
	}
	if out.IssueID == "" && issue != nil {
		out.IssueID = issue.ID
	}
	return out, nil
}

type worklogPage struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	Worklogs   []worklogJSON `json:"worklogs"`
}

type worklogBody struct {
	Started          string `json:"started"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	Comment          string `json:"comment"`
}

func newWorklogBody(started time.Time, seconds int64, comment string) worklogBody {
	return worklogBody{
		Started:          started.Format(StartedLayout),
		TimeSpentSeconds: seconds,
		Comment:          comment,
	}
}
