package repository

import (
	"github.com/rs/zerolog"

	"github.com/iliyamo/filmorate/internal/model"
	"github.com/iliyamo/filmorate/internal/validation"
)

// NewFilmStore returns an empty in-memory film store.
func NewFilmStore(logger zerolog.Logger) *MemStore[model.Film, model.FilmPatch] {
	return newMemStore(kind[model.Film, model.FilmPatch]{
		name:  "film",
		setID: func(f *model.Film, id uint64) { f.ID = id },
		clone: model.Film.Clone,
		prepare: func(f *model.Film) error {
			// likes are only added through the catalog service
			f.Likes = map[uint64]struct{}{}
			if err := validation.ValidateFilm(f); err != nil {
				return err
			}
			f.ReleaseDate = validation.DateOf(f.ReleaseDate)
			return nil
		},
		patchID: func(p *model.FilmPatch) *uint64 { return p.ID },
		apply:   applyFilmPatch,
	}, logger)
}

func applyFilmPatch(f *model.Film, p *model.FilmPatch) []string {
	var fields []string
	if validation.AcceptName(p.Name) {
		f.Name = *p.Name
		fields = append(fields, "name")
	}
	if validation.AcceptDescription(p.Description) {
		f.Description = *p.Description
		fields = append(fields, "description")
	}
	if validation.AcceptReleaseDate(p.ReleaseDate) {
		f.ReleaseDate = validation.DateOf(*p.ReleaseDate)
		fields = append(fields, "releaseDate")
	}
	if validation.AcceptDuration(p.Duration) {
		f.Duration = *p.Duration
		fields = append(fields, "duration")
	}
	return fields
}
