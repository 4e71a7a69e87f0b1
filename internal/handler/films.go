package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/filmorate/internal/model"
	"github.com/iliyamo/filmorate/internal/queue"
	"github.com/iliyamo/filmorate/internal/service"
)

// FilmRequest is the JSON body of film create and update requests.  Nil
// fields are absent from the payload.  On create the id is ignored; on
// update it selects the film and every other field is optional.
type FilmRequest struct {
	ID          *uint64 `json:"id"`          // required on update only
	Name        *string `json:"name"`        // title
	Description *string `json:"description"` // up to 200 characters
	ReleaseDate *string `json:"releaseDate"` // yyyy-MM-dd
	Duration    *int    `json:"duration"`    // minutes
}

// FilmResponse is the JSON representation of a film.  Likes lists user ids
// in ascending order and is never null.
type FilmResponse struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ReleaseDate string   `json:"releaseDate"`
	Duration    int      `json:"duration"`
	Likes       []uint64 `json:"likes"`
}

func toFilmResponse(f model.Film) FilmResponse {
	return FilmResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		ReleaseDate: formatDate(f.ReleaseDate),
		Duration:    f.Duration,
		Likes:       f.LikeIDs(),
	}
}

func toFilmResponses(films []model.Film) []FilmResponse {
	out := make([]FilmResponse, 0, len(films))
	for _, f := range films {
		out = append(out, toFilmResponse(f))
	}
	return out
}

// filmLikeParams binds the two ids of the like routes.
type filmLikeParams struct {
	ID     uint64 `param:"id" validate:"required"`
	UserID uint64 `param:"userId" validate:"required"`
}

// popularQuery binds ?count=N.  A missing count keeps the default.
type popularQuery struct {
	Count int `query:"count"`
}

// FilmHandler serves the /films endpoints.  It translates HTTP requests
// into FilmService calls and announces successful changes on Events.
type FilmHandler struct {
	Films  *service.FilmService // catalog and ranking operations
	Events queue.Publisher      // receives film.created, film.liked and film.unliked
	log    zerolog.Logger       // tagged with handler=films
}

// NewFilmHandler constructs a FilmHandler and panics if the service is nil.
// A nil publisher disables activity events.
func NewFilmHandler(films *service.FilmService, events queue.Publisher, logger zerolog.Logger) *FilmHandler {
	if films == nil {
		panic("nil film service passed to NewFilmHandler")
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &FilmHandler{Films: films, Events: events, log: logger.With().Str("handler", "films").Logger()}
}

// Create handles POST /films.  The body is validated by the film store;
// the first failing rule is reported with 400.  On success the stored film,
// including its new id, is returned with 201.
func (h *FilmHandler) Create(c echo.Context) error {
	var req FilmRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	release, err := parseDate("releaseDate", req.ReleaseDate)
	if err != nil {
		return respondError(c, h.log, err)
	}
	film, err := h.Films.Create(c.Request().Context(), model.Film{
		Name:        deref(req.Name),
		Description: deref(req.Description),
		ReleaseDate: deref(release),
		Duration:    deref(req.Duration),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	publish(c.Request().Context(), h.Events, h.log, queue.ActivityEvent{Type: queue.FilmCreated, FilmID: film.ID})
	return c.JSON(http.StatusCreated, toFilmResponse(film))
}

// Update handles PUT /films; the film id travels in the body.  Absent
// fields keep their value and fields failing their rule are skipped.  A
// missing id is a 400 and an unknown id a 404.
func (h *FilmHandler) Update(c echo.Context) error {
	var req FilmRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	film, err := h.Films.Update(c.Request().Context(), model.FilmPatch{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		ReleaseDate: patchDate(h.log, "releaseDate", req.ReleaseDate),
		Duration:    req.Duration,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toFilmResponse(film))
}

// List handles GET /films and returns every film ordered by id.
func (h *FilmHandler) List(c echo.Context) error {
	films, err := h.Films.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toFilmResponses(films))
}

// Get handles GET /films/:id.  A non-numeric or zero id is a 400.
func (h *FilmHandler) Get(c echo.Context) error {
	var p idParam
	if err := bindPath(c, &p); err != nil {
		return respondError(c, h.log, err)
	}
	film, err := h.Films.Get(c.Request().Context(), p.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toFilmResponse(film))
}

// Like handles PUT /films/:id/like/:userId.  Both the film and the user
// must exist (404 otherwise).  Liking twice is rejected.
func (h *FilmHandler) Like(c echo.Context) error {
	var p filmLikeParams
	if err := bindPath(c, &p); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.Films.Like(c.Request().Context(), p.ID, p.UserID); err != nil {
		return respondError(c, h.log, err)
	}
	publish(c.Request().Context(), h.Events, h.log, queue.ActivityEvent{Type: queue.FilmLiked, FilmID: p.ID, UserID: p.UserID})
	return c.NoContent(http.StatusOK)
}

// Unlike handles DELETE /films/:id/like/:userId.  Removing a like that
// was never given is rejected.
func (h *FilmHandler) Unlike(c echo.Context) error {
	var p filmLikeParams
	if err := bindPath(c, &p); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.Films.Unlike(c.Request().Context(), p.ID, p.UserID); err != nil {
		return respondError(c, h.log, err)
	}
	publish(c.Request().Context(), h.Events, h.log, queue.ActivityEvent{Type: queue.FilmUnliked, FilmID: p.ID, UserID: p.UserID})
	return c.NoContent(http.StatusOK)
}

// Popular handles GET /films/popular?count=N; count defaults to 10.  Films
// are ordered by like count, ties by id.  A count of zero or less yields an
// empty list and a non-integer count is a 400.
func (h *FilmHandler) Popular(c echo.Context) error {
	q := popularQuery{Count: service.DefaultTopCount}
	if err := pathBinder.BindQueryParams(c, &q); err != nil {
		return respondError(c, h.log, model.Validation("count must be an integer"))
	}
	films, err := h.Films.TopFilms(c.Request().Context(), q.Count)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toFilmResponses(films))
}
