// Package validation holds the field rules applied to films and users
// before they enter a store, the per-field acceptance checks used by
// partial updates, and the request parameter validator used by the HTTP
// layer.
package validation

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/iliyamo/filmorate/internal/model"
)

// MaxDescriptionLen is the longest accepted film description in characters.
const MaxDescriptionLen = 200

// EarliestRelease is the date of the first public film screening; no
// release date may precede it.
var EarliestRelease = time.Date(1895, time.December, 28, 0, 0, 0, 0, time.UTC)

// ValidateFilm checks a film candidate in a fixed order and reports the
// first violated rule.
func ValidateFilm(f *model.Film) error {
	switch {
	case isBlank(f.Name):
		return model.Validation("film name must not be empty")
	case isBlank(f.Description):
		return model.Validation("film description must not be empty")
	case !withinLen(f.Description, MaxDescriptionLen):
		return model.Validation("film description must be at most 200 characters")
	case f.ReleaseDate.IsZero():
		return model.Validation("film release date is required")
	case DateOf(f.ReleaseDate).Before(EarliestRelease):
		return model.Validation("film release date must not be before 1895-12-28")
	case f.Duration < 1:
		return model.Validation("film duration must be a positive number of minutes")
	}
	return nil
}

// ValidateUser checks a user candidate in a fixed order.  When every rule
// passes and the name is blank, the login becomes the display name.
func ValidateUser(u *model.User, now time.Time) error {
	switch {
	case isBlank(u.Email) || !strings.Contains(u.Email, "@"):
		return model.Validation("email must not be empty and must contain '@'")
	case isBlank(u.Login) || hasSpace(u.Login):
		return model.Validation("login must not be empty or contain whitespace")
	case u.Birthday.IsZero():
		return model.Validation("birthday is required")
	case DateOf(u.Birthday).After(DateOf(now)):
		return model.Validation("birthday must not be in the future")
	}
	if isBlank(u.Name) {
		u.Name = u.Login
	}
	return nil
}

// AcceptName reports whether a patched name or title may overwrite the
// stored one.
func AcceptName(s *string) bool { return s != nil && !isBlank(*s) }

// AcceptDescription reports whether a patched description is usable.
func AcceptDescription(s *string) bool {
	return s != nil && !isBlank(*s) && withinLen(*s, MaxDescriptionLen)
}

// AcceptReleaseDate reports whether a patched release date is usable.
func AcceptReleaseDate(t *time.Time) bool {
	return t != nil && !t.IsZero() && !DateOf(*t).Before(EarliestRelease)
}

// AcceptDuration reports whether a patched duration is usable.
func AcceptDuration(d *int) bool { return d != nil && *d >= 1 }

// AcceptEmail reports whether a patched email is usable.
func AcceptEmail(s *string) bool {
	return s != nil && !isBlank(*s) && strings.Contains(*s, "@")
}

// AcceptLogin reports whether a patched login is usable.
func AcceptLogin(s *string) bool {
	return s != nil && !isBlank(*s) && !hasSpace(*s)
}

// AcceptBirthday reports whether a patched birthday is usable at now.
func AcceptBirthday(t *time.Time, now time.Time) bool {
	return t != nil && !t.IsZero() && !DateOf(*t).After(DateOf(now))
}

// DateOf truncates t to its calendar date, expressed at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func hasSpace(s string) bool { return strings.IndexFunc(s, unicode.IsSpace) >= 0 }

func withinLen(s string, max int) bool { return utf8.RuneCountInString(s) <= max }
