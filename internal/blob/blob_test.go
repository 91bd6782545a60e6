package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	minio "github.com/minio/minio-go"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestLocalPutServeDelete(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "http://localhost:8080/")
	require.NoError(t, err)

	url, err := l.Put(context.Background(), Object{Filename: "Cover.PNG", Data: pngHeader})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/media/"), url)
	require.True(t, strings.HasSuffix(url, ".png"), url)

	name := strings.TrimPrefix(url, "http://localhost:8080/media/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, pngHeader, data)

	rec := httptest.NewRecorder()
	l.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/"+name, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, pngHeader, rec.Body.Bytes())

	require.NoError(t, l.Delete(context.Background(), url))
	_, err = os.Stat(filepath.Join(dir, name))
	require.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, l.Delete(context.Background(), url), "second delete is a no-op")
}

func TestLocalDeleteRejectsForeignURLs(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	for _, url := range []string{
		"https://elsewhere.test/media/x.png",
		"http://localhost:8080/media/",
		"http://localhost:8080/media/../secret",
		"http://localhost:8080/media/a/b.png",
	} {
		require.ErrorIs(t, l.Delete(context.Background(), url), ErrForeignURL, url)
	}
}

func TestLocalPutHonoursCancelledContext(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "http://localhost")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Put(ctx, Object{Filename: "a.png", Data: pngHeader})
	require.ErrorIs(t, err, ErrUpload)
}

type fakeObjectClient struct {
	exists  bool
	made    []string
	puts    map[string][]byte
	removed []string
	putErr  error
}

func (f *fakeObjectClient) BucketExists(string) (bool, error) { return f.exists, nil }

func (f *fakeObjectClient) MakeBucket(bucket, _ string) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeObjectClient) PutObjectWithContext(_ context.Context, _, name string, r io.Reader, size int64, _ minio.PutObjectOptions) (int64, error) {
	if f.putErr != nil {
		return 0, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[name] = data
	return size, nil
}

func (f *fakeObjectClient) RemoveObject(_, name string) error {
	f.removed = append(f.removed, name)
	return nil
}

func TestS3CreatesMissingBucket(t *testing.T) {
	fake := &fakeObjectClient{}
	_, err := newS3(fake, "covers", "https://cdn.test")
	require.NoError(t, err)
	require.Equal(t, []string{"covers"}, fake.made)
}

func TestS3PutAndDelete(t *testing.T) {
	fake := &fakeObjectClient{exists: true}
	s, err := newS3(fake, "covers", "https://cdn.test/")
	require.NoError(t, err)
	require.Empty(t, fake.made)

	url, err := s.Put(context.Background(), Object{Filename: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://cdn.test/covers/"), url)

	name := strings.TrimPrefix(url, "https://cdn.test/covers/")
	require.Equal(t, []byte("GIF89a"), fake.puts[name])

	require.NoError(t, s.Delete(context.Background(), url))
	require.Equal(t, []string{name}, fake.removed)

	require.ErrorIs(t, s.Delete(context.Background(), "https://cdn.test/other/"+name), ErrForeignURL)
}

func TestS3PutFailureIsUploadError(t *testing.T) {
	fake := &fakeObjectClient{exists: true, putErr: errors.New("503 slow down")}
	s, err := newS3(fake, "covers", "https://cdn.test")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), Object{Filename: "a.png", Data: pngHeader})
	require.ErrorIs(t, err, ErrUpload)
}

func TestCheckImage(t *testing.T) {
	tests := []struct {
		name string
		obj  *Object
		want []string
	}{
		{
			name: "missing",
			obj:  nil,
			want: []string{"The image field is required."},
		},
		{
			name: "png",
			obj:  &Object{Filename: "cover.png", Data: pngHeader},
		},
		{
			name: "gif",
			obj:  &Object{Filename: "cover.GIF", Data: []byte("GIF89a......")},
		},
		{
			name: "text with image extension",
			obj:  &Object{Filename: "cover.jpg", Data: []byte("hello world")},
			want: []string{"The image must be a file of type: jpeg, png, jpg, gif."},
		},
		{
			name: "png bytes with wrong extension",
			obj:  &Object{Filename: "cover.bmp", Data: pngHeader},
			want: []string{"The image must be a file of type: jpeg, png, jpg, gif."},
		},
		{
			name: "too large",
			obj:  &Object{Filename: "cover.png", Data: append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxImageBytes)...)},
			want: []string{"The image may not be greater than 2048 kilobytes."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckImage("image", tt.obj)
			if tt.want == nil {
				require.Empty(t, errs)
				require.NotEmpty(t, tt.obj.ContentType)
				return
			}
			require.Equal(t, tt.want, errs["image"])
		})
	}
}
