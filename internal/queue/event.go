// Package queue defines the activity events exchanged over the message
// broker, the publisher used by the HTTP layer and the consumer that
// records them.
package queue

import "time"

// Event types published after successful catalog and social operations.
const (
	FilmCreated   = "film.created"
	FilmLiked     = "film.liked"
	FilmUnliked   = "film.unliked"
	UserCreated   = "user.created"
	FriendAdded   = "friend.added"
	FriendRemoved = "friend.removed"
)

// ActivityEvent describes one successful state change.  Only the ids that
// apply to Type are set.
type ActivityEvent struct {
	Type       string    `json:"type"`
	FilmID     uint64    `json:"film_id,omitempty"`
	UserID     uint64    `json:"user_id,omitempty"`
	FriendID   uint64    `json:"friend_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
