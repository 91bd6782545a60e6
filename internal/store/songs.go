package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSongNotFound signals a missing song record, or one owned by someone else.
var ErrSongNotFound = errors.New("song not found")

// Song represents a track owned by a user, optionally filed under one of their albums.
type Song struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	AlbumID     *int64    `json:"album_id"`
	Name        string    `json:"name"`
	Description string    `json:"desc"`
	Image       string    `json:"image"`
	Genre       string    `json:"genre"`
	Duration    string    `json:"duration"`
	Date        *string   `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerID reports the user the song belongs to.
func (s Song) OwnerID() int64 { return s.UserID }

// SongPatch lists the song fields to change. Nil fields are left as they are.
type SongPatch struct {
	Name        *string
	Description *string
	Image       *string
	AlbumID     *int64
	Genre       *string
	Duration    *string
	Date        *string
}

const songColumns = `id, user_id, album_id, name, description, image, genre, duration, to_char(date, 'YYYY-MM-DD'), created_at, updated_at`

// CreateSong inserts a song. When song.AlbumID is set the album must belong to
// song.UserID; it is share-locked for the duration of the insert.
func (s *Store) CreateSong(ctx context.Context, song Song) (Song, error) {
	song.Name = strings.TrimSpace(song.Name)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Song{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if song.AlbumID != nil {
		if err := lockOwnedAlbum(ctx, tx, song.UserID, *song.AlbumID); err != nil {
			return Song{}, err
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO songs (user_id, album_id, name, description, image, genre, duration, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date)
		RETURNING id, created_at, updated_at
	`, song.UserID, nullableID(song.AlbumID), song.Name, song.Description, song.Image, song.Genre, song.Duration, nullableDate(song.Date)).
		Scan(&song.ID, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Song{}, ErrAlbumNotOwned
		}
		return Song{}, fmt.Errorf("insert song: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Song{}, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return song, nil
}

// SongByID returns a single song by its identifier, regardless of owner.
func (s *Store) SongByID(ctx context.Context, id int64) (Song, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE id = $1
	`, id)

	song, err := scanSongRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Song{}, ErrSongNotFound
		}
		return Song{}, err
	}
	return song, nil
}

// SongsByOwner lists the user's songs in insertion order.
func (s *Store) SongsByOwner(ctx context.Context, userID int64) ([]Song, error) {
	return s.querySongs(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
}

// SongsByAlbum lists the user's songs filed under the album.
func (s *Store) SongsByAlbum(ctx context.Context, userID, albumID int64) ([]Song, error) {
	return s.querySongs(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE album_id = $1 AND user_id = $2
		ORDER BY id ASC
	`, albumID, userID)
}

// UpdateSong applies the patch to a song owned by the user. A new album must
// also belong to the user.
func (s *Store) UpdateSong(ctx context.Context, userID, id int64, patch SongPatch) (Song, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Song{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var locked int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id
		FROM songs
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Song{}, ErrSongNotFound
		}
		return Song{}, fmt.Errorf("lock song: %w", err)
	}

	if patch.AlbumID != nil {
		if err := lockOwnedAlbum(ctx, tx, userID, *patch.AlbumID); err != nil {
			return Song{}, err
		}
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", strings.TrimSpace(*patch.Name))
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Image != nil {
		set("image", *patch.Image)
	}
	if patch.AlbumID != nil {
		set("album_id", *patch.AlbumID)
	}
	if patch.Genre != nil {
		set("genre", *patch.Genre)
	}
	if patch.Duration != nil {
		set("duration", *patch.Duration)
	}
	if patch.Date != nil {
		args = append(args, nullableDate(patch.Date))
		sets = append(sets, fmt.Sprintf("date = $%d::date", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE songs
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), songColumns)

	song, err := scanSongRow(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isForeignKeyViolation(err) {
			return Song{}, ErrAlbumNotOwned
		}
		return Song{}, fmt.Errorf("update song: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Song{}, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return song, nil
}

// DeleteSong removes a song owned by the user and returns the deleted row.
func (s *Store) DeleteSong(ctx context.Context, userID, id int64) (Song, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM songs
		WHERE id = $1 AND user_id = $2
		RETURNING `+songColumns, id, userID)

	song, err := scanSongRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Song{}, ErrSongNotFound
		}
		return Song{}, fmt.Errorf("delete song: %w", err)
	}
	return song, nil
}

func (s *Store) querySongs(ctx context.Context, query string, args ...any) ([]Song, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select songs: %w", err)
	}
	defer rows.Close()

	songs := make([]Song, 0)
	for rows.Next() {
		song, err := scanSongRow(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}

	return songs, nil
}

// lockOwnedAlbum share-locks the album row so a concurrent delete waits until
// the song write has committed.
func lockOwnedAlbum(ctx context.Context, tx *sql.Tx, userID, albumID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT id
		FROM albums
		WHERE id = $1 AND user_id = $2
		FOR SHARE
	`, albumID, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAlbumNotOwned
	}
	if err != nil {
		return fmt.Errorf("lock album: %w", err)
	}
	return nil
}

func scanSongRow(scanner rowScanner) (Song, error) {
	var (
		song    Song
		albumID sql.NullInt64
		date    sql.NullString
	)

	if err := scanner.Scan(
		&song.ID,
		&song.UserID,
		&albumID,
		&song.Name,
		&song.Description,
		&song.Image,
		&song.Genre,
		&song.Duration,
		&date,
		&song.CreatedAt,
		&song.UpdatedAt,
	); err != nil {
		return Song{}, fmt.Errorf("scan song: %w", err)
	}

	if albumID.Valid {
		id := albumID.Int64
		song.AlbumID = &id
	}
	song.Date = datePtr(date)

	return song, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
