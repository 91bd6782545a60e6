package albums

import (
	"context"
	"strings"

	"tunecase/internal/access"
	"tunecase/internal/blob"
	"tunecase/internal/logging"
	"tunecase/internal/store"
	"tunecase/internal/validate"
)

// Store captures the persistence needs for album workflows.
type Store interface {
	CreateAlbum(ctx context.Context, album store.Album) (store.Album, error)
	AlbumByID(ctx context.Context, id int64) (store.Album, error)
	AlbumsByOwner(ctx context.Context, userID int64) ([]store.Album, error)
	UpdateAlbum(ctx context.Context, userID, id int64, patch store.AlbumPatch) (store.Album, error)
	DeleteAlbum(ctx context.Context, userID, id int64) (int64, error)
}

// Input is the album creation form.
type Input struct {
	Name        string
	Description string
	Date        *string
	Image       *blob.Object
}

// Patch lists the fields an update may change. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	Date        *string
	Image       *blob.Object
}

// Service coordinates album-related operations.
type Service interface {
	Create(ctx context.Context, p access.Principal, in Input) (store.Album, error)
	List(ctx context.Context, p access.Principal) ([]store.Album, error)
	Get(ctx context.Context, p access.Principal, id int64) (store.Album, error)
	Update(ctx context.Context, p access.Principal, id int64, patch Patch) (store.Album, error)
	Delete(ctx context.Context, p access.Principal, id int64) error
}

type service struct {
	store Store
	blobs blob.Store
}

// New constructs a Service backed by the provided Store and blob store.
func New(store Store, blobs blob.Store) Service {
	return &service{store: store, blobs: blobs}
}

func (s *service) Create(ctx context.Context, p access.Principal, in Input) (store.Album, error) {
	if err := ctx.Err(); err != nil {
		return store.Album{}, err
	}

	errs := validate.Errors{}
	if errs.Required("name", in.Name) {
		errs.MaxLen("name", in.Name, 255)
	}
	errs.Required("desc", in.Description)
	if in.Date != nil {
		errs.Date("date", *in.Date)
	}
	errs.Merge(blob.CheckImage("image", in.Image))
	if err := errs.Err(); err != nil {
		return store.Album{}, err
	}

	imageURL, err := s.blobs.Put(ctx, *in.Image)
	if err != nil {
		return store.Album{}, err
	}

	album, err := s.store.CreateAlbum(ctx, store.Album{
		UserID:      p.UserID,
		Name:        in.Name,
		Description: in.Description,
		Image:       imageURL,
		Date:        in.Date,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, imageURL); delErr != nil {
			logging.FromContext(ctx).Warn().Err(delErr).Str("image", imageURL).Msg("release album image")
		}
		return store.Album{}, err
	}
	return album, nil
}

func (s *service) List(ctx context.Context, p access.Principal) ([]store.Album, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	albums, err := s.store.AlbumsByOwner(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return access.Filter(p, albums), nil
}

func (s *service) Get(ctx context.Context, p access.Principal, id int64) (store.Album, error) {
	if err := ctx.Err(); err != nil {
		return store.Album{}, err
	}
	return s.owned(ctx, p, id)
}

func (s *service) Update(ctx context.Context, p access.Principal, id int64, patch Patch) (store.Album, error) {
	if err := ctx.Err(); err != nil {
		return store.Album{}, err
	}

	if _, err := s.owned(ctx, p, id); err != nil {
		return store.Album{}, err
	}

	errs := validate.Errors{}
	if patch.Name != nil && errs.Required("name", *patch.Name) {
		errs.MaxLen("name", *patch.Name, 255)
	}
	if patch.Description != nil {
		errs.Required("desc", *patch.Description)
	}
	if patch.Date != nil {
		errs.Date("date", *patch.Date)
	}
	if patch.Image != nil {
		errs.Merge(blob.CheckImage("image", patch.Image))
	}
	if err := errs.Err(); err != nil {
		return store.Album{}, err
	}

	changes := store.AlbumPatch{
		Name:        trimmed(patch.Name),
		Description: patch.Description,
		Date:        patch.Date,
	}
	if patch.Image != nil {
		imageURL, err := s.blobs.Put(ctx, *patch.Image)
		if err != nil {
			return store.Album{}, err
		}
		changes.Image = &imageURL
	}

	return s.store.UpdateAlbum(ctx, p.UserID, id, changes)
}

func (s *service) Delete(ctx context.Context, p access.Principal, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}

	detached, err := s.store.DeleteAlbum(ctx, p.UserID, id)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Debug().Int64("album_id", id).Int64("detached_songs", detached).Msg("album deleted")
	return nil
}

// owned loads the album and hides it from anyone but its owner.
func (s *service) owned(ctx context.Context, p access.Principal, id int64) (store.Album, error) {
	album, err := s.store.AlbumByID(ctx, id)
	if err != nil {
		return store.Album{}, err
	}
	if !access.Authorize(p, album).Allowed() {
		return store.Album{}, store.ErrAlbumNotFound
	}
	return album, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

