package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAlbumNotFound signals a missing album record, or one owned by someone else.
	ErrAlbumNotFound = errors.New("album not found")
	// ErrAlbumNotOwned signals a referenced album that does not belong to the caller.
	ErrAlbumNotOwned = errors.New("album not found or does not belong to you")
)

// Album models a collection of songs owned by a specific user.
type Album struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"desc"`
	Image       string    `json:"image"`
	Date        *string   `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerID reports the user the album belongs to.
func (a Album) OwnerID() int64 { return a.UserID }

// AlbumPatch lists the album fields to change. Nil fields are left as they are.
type AlbumPatch struct {
	Name        *string
	Description *string
	Image       *string
	Date        *string
}

// Empty reports whether the patch changes nothing.
func (p AlbumPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Image == nil && p.Date == nil
}

const albumColumns = `id, user_id, name, description, image, to_char(date, 'YYYY-MM-DD'), created_at, updated_at`

// CreateAlbum inserts a new album for album.UserID.
func (s *Store) CreateAlbum(ctx context.Context, album Album) (Album, error) {
	album.Name = strings.TrimSpace(album.Name)

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO albums (user_id, name, description, image, date)
		VALUES ($1, $2, $3, $4, $5::date)
		RETURNING id, created_at, updated_at
	`, album.UserID, album.Name, album.Description, album.Image, nullableDate(album.Date)).Scan(&album.ID, &album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		return Album{}, fmt.Errorf("insert album: %w", err)
	}

	return album, nil
}

// AlbumByID returns a single album by its identifier, regardless of owner.
func (s *Store) AlbumByID(ctx context.Context, id int64) (Album, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+albumColumns+`
		FROM albums
		WHERE id = $1
	`, id)

	album, err := scanAlbumRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Album{}, ErrAlbumNotFound
		}
		return Album{}, err
	}
	return album, nil
}

// AlbumsByOwner lists the user's albums in insertion order.
func (s *Store) AlbumsByOwner(ctx context.Context, userID int64) ([]Album, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+albumColumns+`
		FROM albums
		WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select albums: %w", err)
	}
	defer rows.Close()

	albums, err := scanAlbumRows(rows)
	if err != nil {
		return nil, err
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate albums: %w", err)
	}

	return albums, nil
}

// UpdateAlbum applies the patch to an album owned by the user and returns the new row.
func (s *Store) UpdateAlbum(ctx context.Context, userID, id int64, patch AlbumPatch) (Album, error) {
	var (
		sets []string
		args []any
	)

	if patch.Name != nil {
		args = append(args, strings.TrimSpace(*patch.Name))
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if patch.Image != nil {
		args = append(args, *patch.Image)
		sets = append(sets, fmt.Sprintf("image = $%d", len(args)))
	}
	if patch.Date != nil {
		args = append(args, nullableDate(patch.Date))
		sets = append(sets, fmt.Sprintf("date = $%d::date", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id, userID)
	query := fmt.Sprintf(`
		UPDATE albums
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args)-1, len(args), albumColumns)

	album, err := scanAlbumRow(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Album{}, ErrAlbumNotFound
		}
		return Album{}, fmt.Errorf("update album: %w", err)
	}
	return album, nil
}

// DeleteAlbum detaches every song from the album and then removes it, in one
// transaction. It returns the number of songs detached.
func (s *Store) DeleteAlbum(ctx context.Context, userID, id int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	// The row lock keeps concurrent song writes from attaching to the album mid-delete.
	var locked int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id
		FROM albums
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrAlbumNotFound
		}
		return 0, fmt.Errorf("lock album: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE songs
		SET album_id = NULL, updated_at = NOW()
		WHERE album_id = $1
	`, id)
	if err != nil {
		return 0, fmt.Errorf("detach songs: %w", err)
	}
	detached, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM albums
		WHERE id = $1
	`, id); err != nil {
		return 0, fmt.Errorf("delete album: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return detached, nil
}

func scanAlbumRow(scanner rowScanner) (Album, error) {
	var (
		a    Album
		date sql.NullString
	)

	if err := scanner.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &a.Image, &date, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Album{}, fmt.Errorf("scan album: %w", err)
	}
	a.Date = datePtr(date)

	return a, nil
}

func scanAlbumRows(rows *sql.Rows) ([]Album, error) {
	albums := make([]Album, 0)

	for rows.Next() {
		a, err := scanAlbumRow(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}

	return albums, nil
}
