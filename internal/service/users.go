package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iliyamo/filmorate/internal/metrics"
	"github.com/iliyamo/filmorate/internal/model"
	"github.com/iliyamo/filmorate/internal/repository"
)

// UserService manages users and the friendship graph between them.  A
// friend edge is undirected and stored once in each endpoint's friend set;
// both halves are always written inside a single store mutation.
type UserService struct {
	users repository.UserStorage
	log   zerolog.Logger
}

// NewUserService constructs a UserService on top of the given store.
func NewUserService(users repository.UserStorage, logger zerolog.Logger) *UserService {
	if users == nil {
		panic("nil user storage passed to NewUserService")
	}
	return &UserService{users: users, log: logger.With().Str("service", "users").Logger()}
}

// Create validates and stores a new user.
func (s *UserService) Create(ctx context.Context, u model.User) (model.User, error) {
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return model.User{}, err
	}
	metrics.EntityCreated("user")
	return created, nil
}

// Update applies a partial update to an existing user.
func (s *UserService) Update(ctx context.Context, p model.UserPatch) (model.User, error) {
	return s.users.Patch(ctx, p)
}

// List returns every user ordered by id.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.GetAll(ctx)
}

// Get returns the user with the given id or a NotFound error.
func (s *UserService) Get(ctx context.Context, id uint64) (model.User, error) {
	u, ok, err := s.users.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, model.NotFound("user", id)
	}
	return u, nil
}

// AddFriend links two users.  Self-friendship is rejected before either id
// is looked up.
func (s *UserService) AddFriend(ctx context.Context, id, friendID uint64) error {
	if id == friendID {
		s.log.Warn().Uint64("id", id).Msg("self friendship rejected")
		return model.Errorf(model.ErrInvalidOperation, "user %d cannot befriend themselves", id)
	}
	_, err := s.users.Mutate(ctx, []uint64{id, friendID}, func(items []*model.User) error {
		a, b := items[0], items[1]
		if a.HasFriend(b.ID) {
			return model.Errorf(model.ErrAlreadyFriends, "users %d and %d are already friends", a.ID, b.ID)
		}
		a.Friends[b.ID] = struct{}{}
		b.Friends[a.ID] = struct{}{}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Uint64("id", id).Uint64("friend_id", friendID).Msg("add friend failed")
		return err
	}
	metrics.FriendshipChanged("add")
	s.log.Info().Uint64("id", id).Uint64("friend_id", friendID).Msg("friend added")
	return nil
}

// RemoveFriend drops the edge between two users if either side records it.
// Removing a missing edge is not an error.
func (s *UserService) RemoveFriend(ctx context.Context, id, friendID uint64) error {
	removed := false
	_, err := s.users.Mutate(ctx, []uint64{id, friendID}, func(items []*model.User) error {
		a, b := items[0], items[1]
		if !a.HasFriend(b.ID) && !b.HasFriend(a.ID) {
			return nil
		}
		delete(a.Friends, b.ID)
		delete(b.Friends, a.ID)
		removed = true
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Uint64("id", id).Uint64("friend_id", friendID).Msg("remove friend failed")
		return err
	}
	if !removed {
		s.log.Debug().Uint64("id", id).Uint64("friend_id", friendID).Msg("users were not friends")
		return nil
	}
	metrics.FriendshipChanged("remove")
	s.log.Info().Uint64("id", id).Uint64("friend_id", friendID).Msg("friend removed")
	return nil
}

// ListFriends returns the friends of a user ordered by id.
func (s *UserService) ListFriends(ctx context.Context, id uint64) ([]model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, u.FriendIDs())
}

// CommonFriends returns the users befriended by both id and otherID.
func (s *UserService) CommonFriends(ctx context.Context, id, otherID uint64) ([]model.User, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, otherID)
	if err != nil {
		return nil, err
	}
	var common []uint64
	for _, fid := range a.FriendIDs() {
		if b.HasFriend(fid) {
			common = append(common, fid)
		}
	}
	return s.resolve(ctx, common)
}

func (s *UserService) resolve(ctx context.Context, ids []uint64) ([]model.User, error) {
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		u, ok, err := s.users.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Warn().Uint64("id", id).Msg("dangling friend id skipped")
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
