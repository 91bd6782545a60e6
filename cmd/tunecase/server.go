package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"tunecase/internal/app/albums"
	"tunecase/internal/app/songs"
	"tunecase/internal/app/users"
	"tunecase/internal/blob"
	"tunecase/internal/config"
	"tunecase/internal/http/middleware"
	"tunecase/internal/httpapi"
	"tunecase/internal/store"
	"tunecase/internal/token"
)

// dataStore is everything the services need from persistence.
type dataStore interface {
	users.Store
	albums.Store
	songs.Store
}

type app struct {
	users   users.Service
	albums  albums.Service
	songs   songs.Service
	handler http.Handler
}

func newApp(cfg *config.Config, st dataStore) (*app, error) {
	var serverOpts []httpapi.Option

	blobs, media, err := newBlobStore(cfg)
	if err != nil {
		return nil, err
	}
	if media != nil {
		serverOpts = append(serverOpts, httpapi.WithMedia(media))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	serverOpts = append(serverOpts, httpapi.WithLoginLimiter(limiter.Middleware()))

	a := &app{
		users:  users.New(st, blobs, token.NewCodec(cfg.Security.TokenSecret)),
		albums: albums.New(st, blobs),
		songs:  songs.New(st, blobs),
	}

	routes := httpapi.New(a.users, a.albums, a.songs, serverOpts...).Routes()
	a.handler = middleware.Chain(routes,
		middleware.Recovery(),
		middleware.RequestLogging(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	return a, nil
}

// newBlobStore returns the configured image backend, plus a handler for the
// files when they are served by this process.
func newBlobStore(cfg *config.Config) (blob.Store, http.Handler, error) {
	switch cfg.Storage.Driver {
	case config.StorageS3:
		s3, err := blob.NewS3(blob.S3Config{
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			Bucket:    cfg.Storage.S3Bucket,
			UseSSL:    cfg.Storage.S3UseSSL,
			PublicURL: cfg.Storage.S3PublicURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("s3 storage: %w", err)
		}
		log.Info().Str("bucket", cfg.Storage.S3Bucket).Msg("storing images in s3")
		return s3, nil, nil
	default:
		local, err := blob.NewLocal(cfg.Storage.Dir, cfg.Server.PublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("local storage: %w", err)
		}
		log.Info().Str("dir", cfg.Storage.Dir).Msg("storing images on disk")
		return local, local.Handler(), nil
	}
}

var _ dataStore = (*store.Store)(nil)
