package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/rs/zerolog/log"

	"tunecase/internal/access"
	"tunecase/internal/app/albums"
	"tunecase/internal/app/songs"
	"tunecase/internal/app/users"
	"tunecase/internal/blob"
	"tunecase/internal/store"
)

const (
	demoEmail    = "demo@tunecase.local"
	demoPassword = "demo123"
)

type seedAlbum struct {
	Artist string
	Title  string
	Date   string
	Genre  string
	Tracks []seedTrack
}

type seedTrack struct {
	Name     string
	Duration string
}

var demoAlbums = []seedAlbum{
	{
		Artist: "Boards of Canada",
		Title:  "Music Has the Right to Children",
		Date:   "1998-04-20",
		Genre:  "Electronic",
		Tracks: []seedTrack{{"Turquoise Hexagon Sun", "5:07"}, {"Roygbiv", "2:31"}, {"Aquarius", "5:58"}},
	},
	{
		Artist: "Massive Attack",
		Title:  "Mezzanine",
		Date:   "1998-04-20",
		Genre:  "Trip Hop",
		Tracks: []seedTrack{{"Angel", "6:18"}, {"Teardrop", "5:29"}, {"Inertia Creeps", "5:56"}},
	},
	{
		Artist: "Portishead",
		Title:  "Dummy",
		Date:   "1994-08-22",
		Genre:  "Trip Hop",
		Tracks: []seedTrack{{"Mysterons", "5:02"}, {"Sour Times", "4:11"}, {"Glory Box", "5:06"}},
	},
	{
		Artist: "Nils Frahm",
		Title:  "Spaces",
		Date:   "2013-11-19",
		Genre:  "Modern Classical",
		Tracks: []seedTrack{{"An Aborted Beginning", "2:23"}, {"Says", "8:19"}, {"Hammers", "5:54"}},
	},
}

// bootstrapDemoData registers the demo account and fills its catalog. It does
// nothing when the account already exists.
func bootstrapDemoData(ctx context.Context, a *app) error {
	cover, err := placeholderImage("cover.png", color.RGBA{R: 0x1d, G: 0xb9, B: 0x54, A: 0xff})
	if err != nil {
		return err
	}

	user, _, err := a.users.Register(ctx, users.RegisterInput{
		Name:     "Demo",
		Email:    demoEmail,
		Password: demoPassword,
		Image:    cover,
	})
	if errors.Is(err, store.ErrEmailTaken) {
		log.Debug().Str("email", demoEmail).Msg("demo account present, skipping seed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap demo user: %w", err)
	}

	p := access.Principal{UserID: user.ID, Email: user.Email}
	for _, seed := range demoAlbums {
		date := seed.Date
		album, err := a.albums.Create(ctx, p, albums.Input{
			Name:        seed.Title,
			Description: seed.Artist,
			Date:        &date,
			Image:       cover,
		})
		if err != nil {
			return fmt.Errorf("insert demo album %q: %w", seed.Title, err)
		}

		for _, track := range seed.Tracks {
			if _, err := a.songs.Create(ctx, p, songs.Input{
				Name:        track.Name,
				Description: seed.Artist,
				AlbumID:     album.ID,
				Genre:       seed.Genre,
				Duration:    track.Duration,
				Date:        &date,
				Image:       cover,
			}); err != nil {
				return fmt.Errorf("insert demo song %q: %w", track.Name, err)
			}
		}
	}

	log.Info().Str("email", demoEmail).Int("albums", len(demoAlbums)).Msg("demo data seeded")
	return nil
}

// placeholderImage renders a flat 64x64 PNG.
func placeholderImage(name string, c color.Color) (*blob.Object, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return &blob.Object{Filename: name, ContentType: "image/png", Data: buf.Bytes()}, nil
}
