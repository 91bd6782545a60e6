package songs

import (
	"context"
	"errors"
	"strings"

	"tunecase/internal/access"
	"tunecase/internal/blob"
	"tunecase/internal/logging"
	"tunecase/internal/store"
	"tunecase/internal/validate"
)

// Store captures the persistence needs for song workflows.
type Store interface {
	CreateSong(ctx context.Context, song store.Song) (store.Song, error)
	SongByID(ctx context.Context, id int64) (store.Song, error)
	SongsByOwner(ctx context.Context, userID int64) ([]store.Song, error)
	SongsByAlbum(ctx context.Context, userID, albumID int64) ([]store.Song, error)
	UpdateSong(ctx context.Context, userID, id int64, patch store.SongPatch) (store.Song, error)
	DeleteSong(ctx context.Context, userID, id int64) (store.Song, error)
	AlbumByID(ctx context.Context, id int64) (store.Album, error)
}

// Input is the song creation form.
type Input struct {
	Name        string
	Description string
	AlbumID     int64
	Genre       string
	Duration    string
	Date        *string
	Image       *blob.Object
}

// Patch lists the fields an update may change. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	AlbumID     *int64
	Genre       *string
	Duration    *string
	Date        *string
	Image       *blob.Object
}

// Service exposes song-centric operations.
type Service interface {
	Create(ctx context.Context, p access.Principal, in Input) (store.Song, error)
	List(ctx context.Context, p access.Principal) ([]store.Song, error)
	Get(ctx context.Context, p access.Principal, id int64) (store.Song, error)
	Update(ctx context.Context, p access.Principal, id int64, patch Patch) (store.Song, error)
	Delete(ctx context.Context, p access.Principal, id int64) error
	ListByAlbum(ctx context.Context, p access.Principal, albumID int64) ([]store.Song, error)
}

type service struct {
	store Store
	blobs blob.Store
}

// New constructs a song Service backed by the provided Store and blob store.
func New(store Store, blobs blob.Store) Service {
	return &service{store: store, blobs: blobs}
}

func (s *service) Create(ctx context.Context, p access.Principal, in Input) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}

	errs := validate.Errors{}
	if errs.Required("name", in.Name) {
		errs.MaxLen("name", in.Name, 255)
	}
	errs.Required("desc", in.Description)
	errs.PositiveInt("albumId", in.AlbumID)
	if errs.Required("genre", in.Genre) {
		errs.MaxLen("genre", in.Genre, 255)
	}
	if errs.Required("duration", in.Duration) {
		errs.MaxLen("duration", in.Duration, 64)
	}
	if in.Date != nil {
		errs.Date("date", *in.Date)
	}
	errs.Merge(blob.CheckImage("image", in.Image))
	if err := errs.Err(); err != nil {
		return store.Song{}, err
	}

	if err := s.checkAlbum(ctx, p, in.AlbumID); err != nil {
		return store.Song{}, err
	}

	imageURL, err := s.blobs.Put(ctx, *in.Image)
	if err != nil {
		return store.Song{}, err
	}

	albumID := in.AlbumID
	song, err := s.store.CreateSong(ctx, store.Song{
		UserID:      p.UserID,
		AlbumID:     &albumID,
		Name:        in.Name,
		Description: in.Description,
		Image:       imageURL,
		Genre:       in.Genre,
		Duration:    in.Duration,
		Date:        in.Date,
	})
	if err != nil {
		s.release(ctx, imageURL)
		return store.Song{}, err
	}
	return song, nil
}

func (s *service) List(ctx context.Context, p access.Principal) ([]store.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	songs, err := s.store.SongsByOwner(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return access.Filter(p, songs), nil
}

func (s *service) Get(ctx context.Context, p access.Principal, id int64) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}
	return s.owned(ctx, p, id)
}

func (s *service) Update(ctx context.Context, p access.Principal, id int64, patch Patch) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}

	current, err := s.owned(ctx, p, id)
	if err != nil {
		return store.Song{}, err
	}

	errs := validate.Errors{}
	if patch.Name != nil && errs.Required("name", *patch.Name) {
		errs.MaxLen("name", *patch.Name, 255)
	}
	if patch.Description != nil {
		errs.Required("desc", *patch.Description)
	}
	if patch.AlbumID != nil {
		errs.PositiveInt("albumId", *patch.AlbumID)
	}
	if patch.Genre != nil && errs.Required("genre", *patch.Genre) {
		errs.MaxLen("genre", *patch.Genre, 255)
	}
	if patch.Duration != nil && errs.Required("duration", *patch.Duration) {
		errs.MaxLen("duration", *patch.Duration, 64)
	}
	if patch.Date != nil {
		errs.Date("date", *patch.Date)
	}
	if patch.Image != nil {
		errs.Merge(blob.CheckImage("image", patch.Image))
	}
	if err := errs.Err(); err != nil {
		return store.Song{}, err
	}

	if patch.AlbumID != nil {
		if err := s.checkAlbum(ctx, p, *patch.AlbumID); err != nil {
			return store.Song{}, err
		}
	}

	changes := store.SongPatch{
		Name:        trimmed(patch.Name),
		Description: patch.Description,
		AlbumID:     patch.AlbumID,
		Genre:       patch.Genre,
		Duration:    patch.Duration,
		Date:        patch.Date,
	}
	var uploaded string
	if patch.Image != nil {
		uploaded, err = s.blobs.Put(ctx, *patch.Image)
		if err != nil {
			return store.Song{}, err
		}
		changes.Image = &uploaded
	}

	song, err := s.store.UpdateSong(ctx, p.UserID, id, changes)
	if err != nil {
		if uploaded != "" {
			s.release(ctx, uploaded)
		}
		return store.Song{}, err
	}

	if uploaded != "" && current.Image != "" && current.Image != uploaded {
		s.release(ctx, current.Image)
	}
	return song, nil
}

func (s *service) Delete(ctx context.Context, p access.Principal, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}

	deleted, err := s.store.DeleteSong(ctx, p.UserID, id)
	if err != nil {
		return err
	}
	if deleted.Image != "" {
		s.release(ctx, deleted.Image)
	}
	return nil
}

func (s *service) ListByAlbum(ctx context.Context, p access.Principal, albumID int64) ([]store.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	album, err := s.store.AlbumByID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if !access.Authorize(p, album).Allowed() {
		return nil, store.ErrAlbumNotFound
	}

	songs, err := s.store.SongsByAlbum(ctx, p.UserID, albumID)
	if err != nil {
		return nil, err
	}
	return access.Filter(p, songs), nil
}

func (s *service) owned(ctx context.Context, p access.Principal, id int64) (store.Song, error) {
	song, err := s.store.SongByID(ctx, id)
	if err != nil {
		return store.Song{}, err
	}
	if !access.Authorize(p, song).Allowed() {
		return store.Song{}, store.ErrSongNotFound
	}
	return song, nil
}

// checkAlbum fails fast before an upload; the store repeats the check under lock.
func (s *service) checkAlbum(ctx context.Context, p access.Principal, albumID int64) error {
	album, err := s.store.AlbumByID(ctx, albumID)
	if err != nil {
		if errors.Is(err, store.ErrAlbumNotFound) {
			return store.ErrAlbumNotOwned
		}
		return err
	}
	if !access.Authorize(p, album).Allowed() {
		return store.ErrAlbumNotOwned
	}
	return nil
}

func (s *service) release(ctx context.Context, url string) {
	if err := s.blobs.Delete(ctx, url); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("image", url).Msg("release song image")
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
