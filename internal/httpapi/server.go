package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tunecase/internal/access"
	"tunecase/internal/app/albums"
	"tunecase/internal/app/songs"
	"tunecase/internal/app/users"
	"tunecase/internal/blob"
	"tunecase/internal/http/middleware"
	"tunecase/internal/logging"
	"tunecase/internal/store"
	"tunecase/internal/validate"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Register(ctx context.Context, in users.RegisterInput) (store.User, string, error)
	Login(ctx context.Context, email, password string) (string, store.User, error)
	Resolve(ctx context.Context, token string) (store.User, error)
	Me(ctx context.Context, p access.Principal) (store.User, error)
	Logout(ctx context.Context, p access.Principal) error
	DeleteAccount(ctx context.Context, p access.Principal) error
}

// AlbumService exposes album-specific workflows.
type AlbumService interface {
	Create(ctx context.Context, p access.Principal, in albums.Input) (store.Album, error)
	List(ctx context.Context, p access.Principal) ([]store.Album, error)
	Get(ctx context.Context, p access.Principal, id int64) (store.Album, error)
	Update(ctx context.Context, p access.Principal, id int64, patch albums.Patch) (store.Album, error)
	Delete(ctx context.Context, p access.Principal, id int64) error
}

// SongService coordinates track-level operations.
type SongService interface {
	Create(ctx context.Context, p access.Principal, in songs.Input) (store.Song, error)
	List(ctx context.Context, p access.Principal) ([]store.Song, error)
	Get(ctx context.Context, p access.Principal, id int64) (store.Song, error)
	Update(ctx context.Context, p access.Principal, id int64, patch songs.Patch) (store.Song, error)
	Delete(ctx context.Context, p access.Principal, id int64) error
	ListByAlbum(ctx context.Context, p access.Principal, albumID int64) ([]store.Song, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users  UserService
	albums AlbumService
	songs  SongService

	media        http.Handler
	loginLimiter func(http.Handler) http.Handler
}

// Option configures optional Server behaviour.
type Option func(*Server)

// WithMedia serves locally stored images under /media/.
func WithMedia(h http.Handler) Option {
	return func(s *Server) { s.media = h }
}

// WithLoginLimiter throttles the register and login endpoints.
func WithLoginLimiter(mw func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.loginLimiter = mw }
}

// New configures a Server with the given services.
func New(users UserService, albums AlbumService, songs SongService, opts ...Option) *Server {
	s := &Server{users: users, albums: albums, songs: songs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes exposes the HTTP handlers for accounts, albums and songs.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "API is running"})
	})

	limited := func(h http.HandlerFunc) http.Handler {
		if s.loginLimiter == nil {
			return h
		}
		return s.loginLimiter(h)
	}
	mux.Handle("POST /register", limited(s.handleRegister))
	mux.Handle("POST /login", limited(s.handleLogin))

	auth := middleware.RequireAuth(s.users)
	protect := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux.Handle("GET /user", protect(s.handleMe))
	mux.Handle("POST /logout", protect(s.handleLogout))
	mux.Handle("DELETE /auth/delete", protect(s.handleDeleteAccount))

	mux.Handle("POST /albums", protect(s.handleCreateAlbum))
	mux.Handle("GET /albums", protect(s.handleListAlbums))
	mux.Handle("GET /albums/{id}", protect(s.handleGetAlbum))
	mux.Handle("PUT /albums/{id}", protect(s.handleUpdateAlbum))
	mux.Handle("POST /albums/{id}", protect(s.handleAlbumMethodOverride))
	mux.Handle("DELETE /albums/{id}", protect(s.handleDeleteAlbum))
	mux.Handle("GET /albums/{id}/songs", protect(s.handleAlbumSongs))

	mux.Handle("POST /songs", protect(s.handleCreateSong))
	mux.Handle("GET /songs", protect(s.handleListSongs))
	mux.Handle("GET /songs/{id}", protect(s.handleGetSong))
	mux.Handle("PUT /songs/{id}", protect(s.handleUpdateSong))
	mux.Handle("POST /songs/{id}", protect(s.handleSongMethodOverride))
	mux.Handle("DELETE /songs/{id}", protect(s.handleDeleteSong))

	if s.media != nil {
		mux.Handle("GET "+blob.MediaPrefix+"{name}", s.media)
	}

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Message string          `json:"message"`
	Errors  validate.Errors `json:"errors"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// statusFor maps service and store errors onto HTTP status codes.
func statusFor(err error) int {
	var verrs validate.Errors
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, users.ErrInvalidCredentials), errors.Is(err, store.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrAlbumNotOwned):
		return http.StatusForbidden
	case errors.Is(err, store.ErrAlbumNotFound), errors.Is(err, store.ErrSongNotFound), errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, blob.ErrUpload):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var verrs validate.Errors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, status, validationResponse{Message: validate.Message, Errors: verrs})
	case errors.Is(err, store.ErrEmailTaken):
		writeJSON(w, status, validationResponse{
			Message: validate.Message,
			Errors:  validate.Errors{"email": {"The email has already been taken."}},
		})
	case status == http.StatusInternalServerError, status == http.StatusServiceUnavailable:
		logging.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
	case status == http.StatusBadGateway:
		logging.FromContext(r.Context()).Error().Err(err).Msg("blob upload failed")
		writeJSON(w, status, errorResponse{Error: blob.ErrUpload.Error()})
	default:
		writeJSON(w, status, errorResponse{Error: err.Error()})
	}
}

func principal(r *http.Request) access.Principal {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p
}

// pathID parses the {id} segment. Anything but a positive integer is reported as missing.
func pathID(r *http.Request, notFound error) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
