package model

import (
	"math"
	"strconv"
	"time"
)

// Worklog is a single block of time logged against an issue.
// Layout annotations (column, column count, pending deletion) are kept in
// side structures by the packages that compute them, never on the record.
type Worklog struct {
	ID               string    `json:"id"`
	IssueID          string    `json:"issue_id"`
	Issue            *Issue    `json:"issue,omitempty"`
	Author           *User     `json:"author,omitempty"`
	Started          time.Time `json:"started"`
	TimeSpentSeconds int64     `json:"time_spent_seconds"`
	Comment          string    `json:"comment"`
}

// IsNew reports whether the work log has not been persisted yet.
func (w Worklog) IsNew() bool {
	return w.ID == ""
}

// End returns the instant the work log ends.
func (w Worklog) End() time.Time {
	return w.Started.Add(time.Duration(w.TimeSpentSeconds) * time.Second)
}

// Issue is the unit of work a work log is attributed to.
type Issue struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Summary   string `json:"summary"`
	ParentID  string `json:"parent_id,omitempty"`
	IssueType string `json:"issue_type,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Label renders the issue as "KEY - Summary".
func (i *Issue) Label() string {
	if i == nil {
		return ""
	}
	if i.Summary == "" {
		return i.Key
	}
	return i.Key + " - " + i.Summary
}

// Hue returns a stable colour hue in [0, 360) for the issue. Sub-tasks share
// their parent's hue.
func (i *Issue) Hue() int {
	if i == nil {
		return 0
	}
	id := i.ID
	if i.ParentID != "" {
		id = i.ParentID
	}
	n, err := strconv.ParseFloat(id, 64)
	if err != nil {
		return 0
	}
	return int(math.Round(n*360/1.61803)) % 360
}

// User is an issue-tracker account.
type User struct {
	Self         string `json:"self"`
	AccountID    string `json:"account_id,omitempty"`
	Key          string `json:"key,omitempty"`
	DisplayName  string `json:"display_name"`
	EmailAddress string `json:"email_address,omitempty"`
	TimeZone     string `json:"time_zone,omitempty"`
}

// Same reports whether u and o denote the same account.
func (u *User) Same(o *User) bool {
	if u == nil || o == nil {
		return u == o
	}
	return u.Self == o.Self
}

// DayFile is the top-level structure stored in each daily JSON file.
type DayFile struct {
	Date     string    `json:"date"`
	Worklogs []Worklog `json:"worklogs"`
}
