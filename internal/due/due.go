// Package due parses and formats the due dates users type.
package due

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Layout is the canonical input and display format
const Layout = "2006-01-02 15:04"

const dateLayout = "2006-01-02"

// defaultHour is used when only a calendar date is given
const defaultHour = 9

var phrases = newPhraseParser()

func newPhraseParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Parse reads a due date relative to now, in now's location. Accepted forms:
//
//	2026-03-10 14:30
//	2026-03-10              (09:00 that day)
//	tomorrow, in 3 days     (English phrases, relative to now)
//	friday at 5pm
//
// A phrase must be recognised as a whole; "pay rent tomorrow" is rejected
// rather than read as "tomorrow". An empty string means no due date and
// returns nil.
func Parse(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	loc := now.Location()
	if t, err := time.ParseInLocation(Layout, s, loc); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		t = t.Add(defaultHour * time.Hour)
		return &t, nil
	}

	r, err := phrases.Parse(s, now)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: %w", s, err)
	}
	if r == nil || !strings.EqualFold(strings.TrimSpace(r.Text), s) {
		return nil, fmt.Errorf("invalid due date %q, want %q or a phrase like \"tomorrow\"", s, Layout)
	}
	t := r.Time.In(loc)
	return &t, nil
}

// Format renders a due date for editing; nil renders as empty
func Format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(Layout)
}
