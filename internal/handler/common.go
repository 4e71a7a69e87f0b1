// Package handler contains the HTTP handlers for films and users.  Every
// error goes through respondError so status codes are decided in one place.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/filmorate/internal/model"
	"github.com/iliyamo/filmorate/internal/queue"
)

// dateLayout is the wire format of release dates and birthdays.
const dateLayout = "2006-01-02"

var pathBinder = &echo.DefaultBinder{}

// respondError maps a service error to a status code and writes
// {"error": message}.  Validation failures and missing ids map to 400,
// unknown ids to 404 and everything else to 500.  Unclassified errors do
// not leak their message.
func respondError(c echo.Context, log zerolog.Logger, err error) error {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrMissingID):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	var me *model.Error
	if errors.As(err, &me) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": me.Msg})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unexpected error"})
}

// bindPath fills dst from the path parameters and validates it.
func bindPath(c echo.Context, dst any) error {
	if err := pathBinder.BindPathParams(c, dst); err != nil {
		return model.Validation("invalid path parameter")
	}
	return c.Validate(dst)
}

// bindBody decodes the JSON request body into dst.
func bindBody(c echo.Context, dst any) error {
	if err := pathBinder.BindBody(c, dst); err != nil {
		return model.Validation("invalid request body")
	}
	return nil
}

func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, model.Validation(field + " must be a date in yyyy-MM-dd format")
	}
	return &t, nil
}

// patchDate parses an optional date of an update.  An unparsable value is
// dropped like any other field failing its rule, so the stored date stays.
func patchDate(log zerolog.Logger, field string, s *string) *time.Time {
	t, err := parseDate(field, s)
	if err != nil {
		log.Warn().Str("field", field).Str("value", *s).Msg("unparsable date ignored in update")
		return nil
	}
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// publish hands ev to the publisher; failures are logged and never reach
// the client.
func publish(ctx context.Context, p queue.Publisher, log zerolog.Logger, ev queue.ActivityEvent) {
	ev.OccurredAt = time.Now().UTC()
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("type", ev.Type).Msg("activity event dropped")
	}
}
