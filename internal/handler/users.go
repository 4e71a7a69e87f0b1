package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/filmorate/internal/model"
	"github.com/iliyamo/filmorate/internal/queue"
	"github.com/iliyamo/filmorate/internal/service"
)

// UserRequest is the JSON body of user create and update requests.  As
// with films, the id is only read on update.
type UserRequest struct {
	ID       *uint64 `json:"id"`       // required on update only
	Email    *string `json:"email"`    // must contain '@'
	Login    *string `json:"login"`    // no whitespace
	Name     *string `json:"name"`     // defaults to login when blank
	Birthday *string `json:"birthday"` // yyyy-MM-dd, not in the future
}

// UserResponse is the JSON representation of a user.  Friends lists user
// ids in ascending order and is never null.
type UserResponse struct {
	ID       uint64   `json:"id"`
	Email    string   `json:"email"`
	Login    string   `json:"login"`
	Name     string   `json:"name"`
	Birthday string   `json:"birthday"`
	Friends  []uint64 `json:"friends"`
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Login:    u.Login,
		Name:     u.Name,
		Birthday: formatDate(u.Birthday),
		Friends:  u.FriendIDs(),
	}
}

func toUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// idParam binds the :id segment shared by film and user routes.
type idParam struct {
	ID uint64 `param:"id" validate:"required"`
}

// friendParams binds the ids of the friend edge routes.
type friendParams struct {
	ID       uint64 `param:"id" validate:"required"`
	FriendID uint64 `param:"friendId" validate:"required"`
}

// commonFriendParams binds the two users whose friend lists are intersected.
type commonFriendParams struct {
	ID      uint64 `param:"id" validate:"required"`
	OtherID uint64 `param:"otherId" validate:"required"`
}

// UserHandler serves the /users endpoints, including the friend graph.
type UserHandler struct {
	Users  *service.UserService // user and friendship operations
	Events queue.Publisher      // receives user.created, friend.added and friend.removed
	log    zerolog.Logger       // tagged with handler=users
}

// NewUserHandler constructs a UserHandler and panics if the service is nil.
// A nil publisher disables activity events.
func NewUserHandler(users *service.UserService, events queue.Publisher, logger zerolog.Logger) *UserHandler {
	if users == nil {
		panic("nil user service passed to NewUserHandler")
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &UserHandler{Users: users, Events: events, log: logger.With().Str("handler", "users").Logger()}
}

// Create handles POST /users.  A blank name is replaced by the login.
// Returns the stored user with 201.
func (h *UserHandler) Create(c echo.Context) error {
	var req UserRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	birthday, err := parseDate("birthday", req.Birthday)
	if err != nil {
		return respondError(c, h.log, err)
	}
	user, err := h.Users.Create(c.Request().Context(), model.User{
		Email:    deref(req.Email),
		Login:    deref(req.Login),
		Name:     deref(req.Name),
		Birthday: deref(birthday),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	publish(c.Request().Context(), h.Events, h.log, queue.ActivityEvent{Type: queue.UserCreated, UserID: user.ID})
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Update handles PUT /users; the user id travels in the body.  Fields that
// are absent or fail their rule keep their previous value.
func (h *UserHandler) Update(c echo.Context) error {
	var req UserRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	user, err := h.Users.Update(c.Request().Context(), model.UserPatch{
		ID:       req.ID,
		Email:    req.Email,
		Login:    req.Login,
		Name:     req.Name,
		Birthday: patchDate(h.log, "birthday", req.Birthday),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// List handles GET /users and returns every user ordered by id.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	var p idParam
	if err := bindPath(c, &p); err != nil {
		return respondError(c, h.log, err)
	}
	user, err := h.Users.Get(c.Request().Context(), p.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// AddFriend handles PUT /users/:id/friends/:friendId.  The edge is stored
// on both users.  Befriending yourself or an existing friend is rejected.
func (h *UserHandler) AddFriend(c echo.Context) error {
	var p friendParams
	if err := bindPath(c, &p); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.Users.AddFriend(c.Request().Context(), p.ID, p.FriendID); err != nil {
		return respondError(c, h.log, err)
	}
	publish(c.Request().Context(), h.Events, h.log, queue.ActivityEvent{Type: queue.FriendAdded, UserID: p.ID, FriendID: p.FriendID})
	return c.NoContent(http.StatusOK)
}

// RemoveFriend handles DELETE /users/:id/friends/:friendId.  Both users
// must exist; removing an edge that is not there succeeds without change.
func (h *UserHandler) RemoveFriend(c echo.Context) error {
	var p friendParams
	if err := bindPath(c, &p); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.Users.RemoveFriend(c.Request().Context(), p.ID, p.FriendID); err != nil {
		return respondError(c, h.log, err)
	}
	publish(c.Request().Context(), h.Events, h.log, queue.ActivityEvent{Type: queue.FriendRemoved, UserID: p.ID, FriendID: p.FriendID})
	return c.NoContent(http.StatusOK)
}

// Friends handles GET /users/:id/friends and returns full user objects
// ordered by id.
func (h *UserHandler) Friends(c echo.Context) error {
	var p idParam
	if err := bindPath(c, &p); err != nil {
		return respondError(c, h.log, err)
	}
	friends, err := h.Users.ListFriends(c.Request().Context(), p.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toUserResponses(friends))
}

// CommonFriends handles GET /users/:id/friends/common/:otherId.  The
// result is the same whichever user comes first.
func (h *UserHandler) CommonFriends(c echo.Context) error {
	var p commonFriendParams
	if err := bindPath(c, &p); err != nil {
		return respondError(c, h.log, err)
	}
	common, err := h.Users.CommonFriends(c.Request().Context(), p.ID, p.OtherID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toUserResponses(common))
}
