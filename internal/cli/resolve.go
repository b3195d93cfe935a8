package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tgienger/deadline/internal/models"
)

// minShortID is the shortest id prefix shown in listings
const minShortID = 8

var errNoMatch = errors.New("no task matches")

// resolveTask finds the task a user meant by query: an exact id, a unique id
// prefix, or failing both the single best fuzzy match on the title.
func resolveTask(tasks []models.Task, query string) (models.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.Task{}, fmt.Errorf("%w an empty query", errNoMatch)
	}

	var prefixed []models.Task
	for _, t := range tasks {
		if t.ID == query {
			return t, nil
		}
		if strings.HasPrefix(t.ID, query) {
			prefixed = append(prefixed, t)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
	default:
		return models.Task{}, ambiguous(query, prefixed)
	}

	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	matches := fuzzy.Find(query, titles)
	switch {
	case len(matches) == 0:
		return models.Task{}, fmt.Errorf("%w %q", errNoMatch, query)
	case len(matches) == 1 || matches[0].Score > matches[1].Score:
		return tasks[matches[0].Index], nil
	}

	var tied []models.Task
	for _, m := range matches {
		if m.Score == matches[0].Score {
			tied = append(tied, tasks[m.Index])
		}
	}
	return models.Task{}, ambiguous(query, tied)
}

func ambiguous(query string, candidates []models.Task) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%q matches %d tasks:", query, len(candidates))
	ids := make([]string, len(candidates))
	for i, t := range candidates {
		ids[i] = t.ID
	}
	n := shortIDLen(ids)
	for _, t := range candidates {
		fmt.Fprintf(&b, "\n  %s  %s", shortID(t.ID, n), t.Title)
	}
	return errors.New(b.String())
}

// shortIDLen returns the shortest prefix length, at least minShortID, that
// keeps every id distinct
func shortIDLen(ids []string) int {
	n := minShortID
	for {
		seen := make(map[string]bool, len(ids))
		longest := 0
		unique := true
		for _, id := range ids {
			longest = max(longest, len(id))
			p := shortID(id, n)
			if seen[p] {
				unique = false
			}
			seen[p] = true
		}
		if unique || n >= longest {
			return n
		}
		n++
	}
}

func shortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}
