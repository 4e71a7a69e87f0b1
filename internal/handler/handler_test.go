package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/filmorate/internal/handler"
	"github.com/iliyamo/filmorate/internal/queue"
	"github.com/iliyamo/filmorate/internal/repository"
	"github.com/iliyamo/filmorate/internal/router"
	"github.com/iliyamo/filmorate/internal/service"
)

type recorder struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func newServer(t *testing.T) (*echo.Echo, *recorder) {
	t.Helper()
	now := func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC) }
	films := repository.NewFilmStore(zerolog.Nop())
	users := repository.NewUserStore(zerolog.Nop(), now)
	rec := &recorder{}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterFilms(e, handler.NewFilmHandler(service.NewFilmService(films, users, zerolog.Nop()), rec, zerolog.Nop()))
	router.RegisterUsers(e, handler.NewUserHandler(service.NewUserService(users, zerolog.Nop()), rec, zerolog.Nop()))
	return e, rec
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

const validFilm = `{"name":"Alien","description":"In space no one can hear you scream","releaseDate":"1979-05-25","duration":117}`

func createUser(t *testing.T, e *echo.Echo, login string) handler.UserResponse {
	t.Helper()
	rec := do(e, http.MethodPost, "/users",
		`{"email":"`+login+`@example.com","login":"`+login+`","birthday":"1990-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u handler.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

func createFilm(t *testing.T, e *echo.Echo) handler.FilmResponse {
	t.Helper()
	rec := do(e, http.MethodPost, "/films", validFilm)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var f handler.FilmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	return f
}

func TestHealth(t *testing.T) {
	e, _ := newServer(t)
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCreateFilm(t *testing.T) {
	e, events := newServer(t)
	f := createFilm(t, e)
	assert.Equal(t, uint64(1), f.ID)
	assert.Equal(t, "Alien", f.Name)
	assert.Equal(t, "1979-05-25", f.ReleaseDate)
	assert.Equal(t, 117, f.Duration)
	assert.Empty(t, f.Likes)
	assert.Equal(t, []string{queue.FilmCreated}, events.types())
}

func TestCreateFilmRejected(t *testing.T) {
	e, events := newServer(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"blank name", `{"name":" ","description":"d","releaseDate":"2000-01-01","duration":1}`, "name"},
		{"too early", `{"name":"n","description":"d","releaseDate":"1895-12-27","duration":1}`, "release"},
		{"zero duration", `{"name":"n","description":"d","releaseDate":"2000-01-01","duration":0}`, "duration"},
		{"bad date", `{"name":"n","description":"d","releaseDate":"01.01.2000","duration":1}`, "releaseDate"},
		{"malformed json", `{"name":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/films", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, strings.ToLower(errorOf(t, rec)), strings.ToLower(tt.want))
		})
	}
	assert.Empty(t, events.types())
}

func TestUpdateFilm(t *testing.T) {
	e, _ := newServer(t)
	createFilm(t, e)

	rec := do(e, http.MethodPut, "/films", `{"id":1,"name":"Aliens","duration":137}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var f handler.FilmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, "Aliens", f.Name)
	assert.Equal(t, 137, f.Duration)
	assert.Equal(t, "1979-05-25", f.ReleaseDate)

	rec = do(e, http.MethodPut, "/films", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPut, "/films", `{"id":42,"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "film with id = 42 not found", errorOf(t, rec))
}

func TestGetFilm(t *testing.T) {
	e, _ := newServer(t)
	createFilm(t, e)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/films/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/films/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/films/abc", "").Code)

	rec := do(e, http.MethodGet, "/films", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []handler.FilmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestLikesAndPopular(t *testing.T) {
	e, events := newServer(t)
	for i := 0; i < 3; i++ {
		createFilm(t, e)
	}
	createUser(t, e, "ann")
	createUser(t, e, "bob")

	require.Equal(t, http.StatusOK, do(e, http.MethodPut, "/films/2/like/1", "").Code)
	require.Equal(t, http.StatusOK, do(e, http.MethodPut, "/films/2/like/2", "").Code)
	require.Equal(t, http.StatusOK, do(e, http.MethodPut, "/films/3/like/1", "").Code)

	rec := do(e, http.MethodPut, "/films/2/like/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "user 1 already liked film 2", errorOf(t, rec))

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/films/9/like/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/films/1/like/9", "").Code)

	rec = do(e, http.MethodGet, "/films/popular?count=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var top []handler.FilmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	require.Len(t, top, 2)
	assert.Equal(t, uint64(2), top[0].ID)
	assert.Equal(t, []uint64{1, 2}, top[0].Likes)
	assert.Equal(t, uint64(3), top[1].ID)

	rec = do(e, http.MethodGet, "/films/popular", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	assert.Len(t, top, 3)

	rec = do(e, http.MethodGet, "/films/popular?count=0", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/films/popular?count=many", "").Code)

	require.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/films/2/like/1", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodDelete, "/films/2/like/1", "").Code)

	assert.Contains(t, events.types(), queue.FilmLiked)
	assert.Contains(t, events.types(), queue.FilmUnliked)
}

func TestCreateUserDefaultsName(t *testing.T) {
	e, _ := newServer(t)
	u := createUser(t, e, "ann")
	assert.Equal(t, "ann", u.Name)
	assert.Equal(t, "1990-01-01", u.Birthday)
	assert.Empty(t, u.Friends)

	rec := do(e, http.MethodPost, "/users", `{"email":"x@example.com","login":"x","birthday":"2024-06-02"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(e, http.MethodPost, "/users", `{"email":"x@example.com","login":"has space","birthday":"2000-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUser(t *testing.T) {
	e, _ := newServer(t)
	createUser(t, e, "ann")

	rec := do(e, http.MethodPut, "/users", `{"id":1,"name":"Ann"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var u handler.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/users", `{"id":5}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/users", `{}`).Code)
}

func TestFriendsEndpoints(t *testing.T) {
	e, events := newServer(t)
	createUser(t, e, "ann")
	createUser(t, e, "bob")
	createUser(t, e, "cat")

	require.Equal(t, http.StatusOK, do(e, http.MethodPut, "/users/1/friends/3", "").Code)
	require.Equal(t, http.StatusOK, do(e, http.MethodPut, "/users/2/friends/3", "").Code)

	rec := do(e, http.MethodPut, "/users/1/friends/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/users/1/friends/7", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/users/0/friends/1", "").Code)

	var friends []handler.UserResponse
	rec = do(e, http.MethodGet, "/users/3/friends", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &friends))
	require.Len(t, friends, 2)
	assert.Equal(t, "ann", friends[0].Login)
	assert.Equal(t, "bob", friends[1].Login)

	rec = do(e, http.MethodGet, "/users/1/friends/common/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, uint64(3), friends[0].ID)

	require.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/users/3/friends/1", "").Code)
	require.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/users/3/friends/1", "").Code)
	rec = do(e, http.MethodGet, "/users/1/friends", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/users/9/friends", "").Code)
	assert.Contains(t, events.types(), queue.FriendAdded)
	assert.Contains(t, events.types(), queue.FriendRemoved)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	e, events := newServer(t)
	events.err = errors.New("broker down")
	createFilm(t, e)
	assert.Equal(t, []string{queue.FilmCreated}, events.types())
}

func TestUpdateIgnoresUnparsableDates(t *testing.T) {
	e, _ := newServer(t)
	createFilm(t, e)
	createUser(t, e, "ann")

	rec := do(e, http.MethodPut, "/films", `{"id":1,"name":"Aliens","releaseDate":"25.05.1979"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var f handler.FilmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, "Aliens", f.Name)
	assert.Equal(t, "1979-05-25", f.ReleaseDate)

	rec = do(e, http.MethodPut, "/users", `{"id":1,"name":"Ann","birthday":"yesterday"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u handler.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "1990-01-01", u.Birthday)

	rec = do(e, http.MethodPost, "/users", `{"email":"b@example.com","login":"bob","birthday":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "birthday")
}
