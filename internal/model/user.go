package model

import "time"

// User represents a member of the service.  Friends is kept symmetric by
// the social graph service: if A lists B, B lists A.
type User struct {
	ID       uint64              // assigned by the user store
	Email    string              // non-blank address containing '@'
	Login    string              // non-blank handle without whitespace
	Name     string              // display name; defaults to Login when blank at creation
	Birthday time.Time           // calendar date, not in the future
	Friends  map[uint64]struct{} // ids of befriended users
}

// UserPatch carries a partial user update.  A nil field is left untouched.
type UserPatch struct {
	ID       *uint64
	Email    *string
	Login    *string
	Name     *string
	Birthday *time.Time
}

// Clone returns a deep copy of the user including the friend set.
func (u User) Clone() User {
	c := u
	c.Friends = cloneSet(u.Friends)
	return c
}

// FriendIDs returns the friend set as an ascending slice.
func (u User) FriendIDs() []uint64 { return sortedIDs(u.Friends) }

// HasFriend reports whether id is in the user's friend set.
func (u User) HasFriend(id uint64) bool {
	_, ok := u.Friends[id]
	return ok
}
