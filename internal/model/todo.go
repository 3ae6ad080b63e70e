package model

import (
	"errors"
	"fmt"
	"strings"
)

// Todo is a single task record. Fields carry the persisted JSON names.
type Todo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Filter selects which todos a view exposes.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the known filters in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

var ErrUnknownFilter = errors.New("unknown filter")

// ParseFilter accepts a filter name, case-insensitive. Empty means all.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q (want all, active or completed)", ErrUnknownFilter, s)
	}
	return f, nil
}

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted:
		return true
	}
	return false
}

// Match reports whether t belongs in the view selected by f.
// Anything other than active or completed matches every todo.
func (f Filter) Match(t Todo) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Next cycles all -> active -> completed -> all.
func (f Filter) Next() Filter {
	for i, v := range Filters {
		if v == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

func (f Filter) String() string { return string(f) }
