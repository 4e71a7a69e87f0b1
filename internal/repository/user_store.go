package repository

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/filmorate/internal/model"
	"github.com/iliyamo/filmorate/internal/validation"
)

// NewUserStore returns an empty in-memory user store.  now supplies the
// reference date for birthday checks; nil means time.Now.
func NewUserStore(logger zerolog.Logger, now func() time.Time) *MemStore[model.User, model.UserPatch] {
	if now == nil {
		now = time.Now
	}
	return newMemStore(kind[model.User, model.UserPatch]{
		name:  "user",
		setID: func(u *model.User, id uint64) { u.ID = id },
		clone: model.User.Clone,
		prepare: func(u *model.User) error {
			// friendship edges are only added through the social graph service
			u.Friends = map[uint64]struct{}{}
			if err := validation.ValidateUser(u, now()); err != nil {
				return err
			}
			u.Birthday = validation.DateOf(u.Birthday)
			return nil
		},
		patchID: func(p *model.UserPatch) *uint64 { return p.ID },
		apply: func(u *model.User, p *model.UserPatch) []string {
			return applyUserPatch(u, p, now())
		},
	}, logger)
}

func applyUserPatch(u *model.User, p *model.UserPatch, now time.Time) []string {
	var fields []string
	if validation.AcceptName(p.Name) {
		u.Name = *p.Name
		fields = append(fields, "name")
	}
	if validation.AcceptEmail(p.Email) {
		u.Email = *p.Email
		fields = append(fields, "email")
	}
	if validation.AcceptLogin(p.Login) {
		u.Login = *p.Login
		fields = append(fields, "login")
	}
	if validation.AcceptBirthday(p.Birthday, now) {
		u.Birthday = validation.DateOf(*p.Birthday)
		fields = append(fields, "birthday")
	}
	return fields
}
