package model

import (
	"sort"
	"time"
)

// Film represents a catalog entry.  Likes holds the ids of the users who
// liked the film; it is a set, so a user can appear at most once.
type Film struct {
	ID          uint64              // assigned by the film store, immutable afterwards
	Name        string              // non-blank title
	Description string              // free text, at most 200 characters
	ReleaseDate time.Time           // calendar date, not before 1895-12-28
	Duration    int                 // running time in minutes, at least 1
	Likes       map[uint64]struct{} // ids of users who liked the film
}

// FilmPatch carries a partial film update.  A nil field is left untouched.
type FilmPatch struct {
	ID          *uint64
	Name        *string
	Description *string
	ReleaseDate *time.Time
	Duration    *int
}

// Clone returns a deep copy of the film so callers never share the like set
// with the store.
func (f Film) Clone() Film {
	c := f
	c.Likes = cloneSet(f.Likes)
	return c
}

// LikeCount returns the number of users who liked the film.
func (f Film) LikeCount() int { return len(f.Likes) }

// LikeIDs returns the like set as an ascending slice.
func (f Film) LikeIDs() []uint64 { return sortedIDs(f.Likes) }

func cloneSet(s map[uint64]struct{}) map[uint64]struct{} {
	out := make(map[uint64]struct{}, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func sortedIDs(s map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
