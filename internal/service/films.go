package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/iliyamo/filmorate/internal/metrics"
	"github.com/iliyamo/filmorate/internal/model"
	"github.com/iliyamo/filmorate/internal/repository"
)

// DefaultTopCount is the number of films returned by the popularity
// ranking when the caller does not specify one.
const DefaultTopCount = 10

// FilmService manages the catalog and the like relation from users to
// films.  The user store is only read, to check that a liking user exists.
type FilmService struct {
	films repository.FilmStorage
	users repository.UserStorage
	log   zerolog.Logger
}

// NewFilmService constructs a FilmService; it panics on nil stores.
func NewFilmService(films repository.FilmStorage, users repository.UserStorage, logger zerolog.Logger) *FilmService {
	if films == nil || users == nil {
		panic("nil storage passed to NewFilmService")
	}
	return &FilmService{films: films, users: users, log: logger.With().Str("service", "films").Logger()}
}

// Create validates and stores a new film.
func (s *FilmService) Create(ctx context.Context, f model.Film) (model.Film, error) {
	created, err := s.films.Create(ctx, f)
	if err != nil {
		return model.Film{}, err
	}
	metrics.EntityCreated("film")
	return created, nil
}

// Update applies a partial update to an existing film.
func (s *FilmService) Update(ctx context.Context, p model.FilmPatch) (model.Film, error) {
	return s.films.Patch(ctx, p)
}

// List returns every film ordered by id.
func (s *FilmService) List(ctx context.Context) ([]model.Film, error) {
	return s.films.GetAll(ctx)
}

// Get returns the film with the given id or a NotFound error.
func (s *FilmService) Get(ctx context.Context, id uint64) (model.Film, error) {
	f, ok, err := s.films.Get(ctx, id)
	if err != nil {
		return model.Film{}, err
	}
	if !ok {
		return model.Film{}, model.NotFound("film", id)
	}
	return f, nil
}

// Like records that userID likes filmID.
func (s *FilmService) Like(ctx context.Context, filmID, userID uint64) error {
	err := s.mutateLikes(ctx, filmID, userID, func(f *model.Film) error {
		if _, ok := f.Likes[userID]; ok {
			return model.Errorf(model.ErrAlreadyLiked, "user %d already liked film %d", userID, filmID)
		}
		f.Likes[userID] = struct{}{}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Uint64("film_id", filmID).Uint64("user_id", userID).Msg("like failed")
		return err
	}
	metrics.LikeChanged("add")
	s.log.Info().Uint64("film_id", filmID).Uint64("user_id", userID).Msg("like added")
	return nil
}

// Unlike removes the like of userID from filmID.
func (s *FilmService) Unlike(ctx context.Context, filmID, userID uint64) error {
	err := s.mutateLikes(ctx, filmID, userID, func(f *model.Film) error {
		if _, ok := f.Likes[userID]; !ok {
			return model.Errorf(model.ErrNotLiked, "user %d has not liked film %d", userID, filmID)
		}
		delete(f.Likes, userID)
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Uint64("film_id", filmID).Uint64("user_id", userID).Msg("unlike failed")
		return err
	}
	metrics.LikeChanged("remove")
	s.log.Info().Uint64("film_id", filmID).Uint64("user_id", userID).Msg("like removed")
	return nil
}

func (s *FilmService) mutateLikes(ctx context.Context, filmID, userID uint64, fn func(f *model.Film) error) error {
	ok, err := s.films.Exists(ctx, filmID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NotFound("film", filmID)
	}
	ok, err = s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return model.NotFound("user", userID)
	}
	_, err = s.films.Mutate(ctx, []uint64{filmID}, func(items []*model.Film) error {
		return fn(items[0])
	})
	return err
}

// TopFilms returns up to count films ordered by like count, most liked
// first.  Films with equal counts keep id order.  A count of zero or less
// yields an empty slice.
func (s *FilmService) TopFilms(ctx context.Context, count int) ([]model.Film, error) {
	if count <= 0 {
		return []model.Film{}, nil
	}
	all, err := s.films.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].LikeCount() > all[j].LikeCount()
	})
	if count < len(all) {
		all = all[:count]
	}
	return all, nil
}
