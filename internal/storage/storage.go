package storage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tiliavir/plaid/internal/model"
)

// dayFilePath returns the path for the given date's JSON file.
func dayFilePath(base string, t time.Time) string {
	return filepath.Join(base, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// LoadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func LoadDay(base string, t time.Time) (model.DayFile, error) {
	path := dayFilePath(base, t)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.DayFile{Date: t.Format("2006-01-02"), Worklogs: []model.Worklog{}}, nil
	}
	if err != nil {
		return model.DayFile{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df model.DayFile
	if err := json.Unmarshal(data, &df); err != nil {
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.DayFile{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return df, nil
}

// SaveDay atomically writes a DayFile for the given date. An empty day
// removes the file.
func SaveDay(base string, t time.Time, df model.DayFile) error {
	path := dayFilePath(base, t)
	if len(df.Worklogs) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("storage error removing %s: %w", path, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}
	return writeJSON(path, df)
}

// writeJSON writes v to path through a temp file and rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// LoadRange loads every work log stored on the days of r.
func LoadRange(base string, r model.DateRange) ([]model.Worklog, error) {
	var out []model.Worklog
	for _, d := range r.Days() {
		df, err := LoadDay(base, d)
		if err != nil {
			return nil, err
		}
		out = append(out, df.Worklogs...)
	}
	return out, nil
}

// PutWorklog replaces or appends w in the file of its start day.
func PutWorklog(base string, w model.Worklog) error {
	df, err := LoadDay(base, w.Started)
	if err != nil {
		return err
	}
	for i, x := range df.Worklogs {
		if x.ID == w.ID {
			df.Worklogs[i] = w
			return SaveDay(base, w.Started, df)
		}
	}
	df.Worklogs = append(df.Worklogs, w)
	return SaveDay(base, w.Started, df)
}

// RemoveWorklog deletes the work log with id from the file of day. It
// reports whether it was there.
func RemoveWorklog(base string, day time.Time, id string) (bool, error) {
	df, err := LoadDay(base, day)
	if err != nil {
		return false, err
	}
	for i, x := range df.Worklogs {
		if x.ID == id {
			df.Worklogs = append(df.Worklogs[:i], df.Worklogs[i+1:]...)
			return true, SaveDay(base, day, df)
		}
	}
	return false, nil
}

// FindWorklog looks for the work log with id, first on the hint day, then
// in every stored day. It returns the day file date it lives in.
func FindWorklog(base string, id string, hint time.Time) (model.Worklog, time.Time, bool, error) {
	if !hint.IsZero() {
		df, err := LoadDay(base, hint)
		if err != nil {
			return model.Worklog{}, time.Time{}, false, err
		}
		for _, w := range df.Worklogs {
			if w.ID == id {
				return w, hint, true, nil
			}
		}
	}

	var (
		found model.Worklog
		day   time.Time
		ok    bool
	)
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil
		}
		t, err := time.ParseInLocation("2006/01/02.json", filepath.ToSlash(rel), time.Local)
		if err != nil {
			return nil
		}
		df, err := LoadDay(base, t)
		if err != nil {
			return err
		}
		for _, w := range df.Worklogs {
			if w.ID == id {
				found, day, ok = w, t, true
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return model.Worklog{}, time.Time{}, false, err
	}
	return found, day, ok, nil
}
