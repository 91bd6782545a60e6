package albums

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tunecase/internal/access"
	"tunecase/internal/blob"
	"tunecase/internal/store"
	"tunecase/internal/store/memory"
	"tunecase/internal/validate"
)

var (
	owner    = access.Principal{UserID: 1, Email: "owner@example.com"}
	stranger = access.Principal{UserID: 2, Email: "stranger@example.com"}
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
)

type fakeBlobs struct {
	putErr  error
	puts    []string
	deleted []string
}

func (f *fakeBlobs) Put(_ context.Context, obj blob.Object) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	url := "https://cdn.test/media/" + obj.Filename
	f.puts = append(f.puts, url)
	return url, nil
}

func (f *fakeBlobs) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func image(name string) *blob.Object {
	return &blob.Object{Filename: name, Data: pngBytes}
}

func ptr(s string) *string { return &s }

func newTestService() (Service, *memory.Store, *fakeBlobs) {
	st := memory.New()
	blobs := &fakeBlobs{}
	return New(st, blobs), st, blobs
}

func createAlbum(t *testing.T, svc Service, p access.Principal, name string) store.Album {
	t.Helper()
	album, err := svc.Create(context.Background(), p, Input{Name: name, Description: "desc", Image: image(name + ".png")})
	require.NoError(t, err)
	return album
}

func TestCreateStoresUploadedImage(t *testing.T) {
	svc, _, blobs := newTestService()

	album, err := svc.Create(context.Background(), owner, Input{
		Name:        " Blue ",
		Description: "first",
		Date:        ptr("2024-05-01"),
		Image:       image("blue.png"),
	})
	require.NoError(t, err)
	require.Equal(t, owner.UserID, album.UserID)
	require.Equal(t, "Blue", album.Name)
	require.Equal(t, "https://cdn.test/media/blue.png", album.Image)
	require.Equal(t, "2024-05-01", *album.Date)
	require.Len(t, blobs.puts, 1)
}

func TestCreateValidation(t *testing.T) {
	svc, _, blobs := newTestService()

	_, err := svc.Create(context.Background(), owner, Input{Date: ptr("05/01/2024"), Image: &blob.Object{Filename: "a.txt", Data: []byte("plain")}})

	var verrs validate.Errors
	require.True(t, errors.As(err, &verrs))
	require.True(t, verrs.Has("name"))
	require.True(t, verrs.Has("desc"))
	require.True(t, verrs.Has("date"))
	require.True(t, verrs.Has("image"))
	require.Empty(t, blobs.puts)
}

func TestCreateUploadFailureWritesNothing(t *testing.T) {
	st := memory.New()
	svc := New(st, &fakeBlobs{putErr: blob.ErrUpload})

	_, err := svc.Create(context.Background(), owner, Input{Name: "A", Description: "d", Image: image("a.png")})
	require.ErrorIs(t, err, blob.ErrUpload)

	albums, err := st.AlbumsByOwner(context.Background(), owner.UserID)
	require.NoError(t, err)
	require.Empty(t, albums)
}

func TestListIsOwnerScoped(t *testing.T) {
	svc, _, _ := newTestService()
	createAlbum(t, svc, owner, "one")
	createAlbum(t, svc, stranger, "theirs")
	createAlbum(t, svc, owner, "two")

	albums, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, albums, 2)
	require.Equal(t, "one", albums[0].Name)
	require.Equal(t, "two", albums[1].Name)
}

func TestForeignAlbumLooksMissing(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	album := createAlbum(t, svc, owner, "mine")

	_, err := svc.Get(ctx, stranger, album.ID)
	require.ErrorIs(t, err, store.ErrAlbumNotFound)

	_, err = svc.Get(ctx, stranger, 9999)
	require.ErrorIs(t, err, store.ErrAlbumNotFound)

	_, err = svc.Update(ctx, stranger, album.ID, Patch{Name: ptr("hijacked")})
	require.ErrorIs(t, err, store.ErrAlbumNotFound)

	require.ErrorIs(t, svc.Delete(ctx, stranger, album.ID), store.ErrAlbumNotFound)

	got, err := svc.Get(ctx, owner, album.ID)
	require.NoError(t, err)
	require.Equal(t, "mine", got.Name)
}

func TestUpdateChangesOnlySuppliedFields(t *testing.T) {
	svc, _, blobs := newTestService()
	ctx := context.Background()
	album := createAlbum(t, svc, owner, "orig")

	updated, err := svc.Update(ctx, owner, album.ID, Patch{Name: ptr("renamed")})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Name)
	require.Equal(t, "desc", updated.Description)
	require.Equal(t, album.Image, updated.Image)

	updated, err = svc.Update(ctx, owner, album.ID, Patch{Image: image("new.png")})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/media/new.png", updated.Image)
	require.Empty(t, blobs.deleted, "previous album image is kept")
}

func TestUpdateValidatesSuppliedFieldsOnly(t *testing.T) {
	svc, _, _ := newTestService()
	album := createAlbum(t, svc, owner, "orig")

	_, err := svc.Update(context.Background(), owner, album.ID, Patch{Name: ptr("  ")})

	var verrs validate.Errors
	require.True(t, errors.As(err, &verrs))
	require.Equal(t, []string{"The name field is required."}, verrs["name"])
	require.Len(t, verrs, 1)
}

func TestDeleteDetachesSongs(t *testing.T) {
	svc, st, _ := newTestService()
	ctx := context.Background()
	album := createAlbum(t, svc, owner, "doomed")
	albumID := album.ID

	for _, name := range []string{"t1", "t2"} {
		_, err := st.CreateSong(ctx, store.Song{UserID: owner.UserID, AlbumID: &albumID, Name: name})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, owner, album.ID))

	_, err := svc.Get(ctx, owner, album.ID)
	require.ErrorIs(t, err, store.ErrAlbumNotFound)

	songs, err := st.SongsByOwner(ctx, owner.UserID)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	for _, song := range songs {
		require.Nil(t, song.AlbumID)
	}
}
