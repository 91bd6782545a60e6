package memory

import (
	"context"
	"strings"

	"tunecase/internal/store"
)

// CreateAlbum inserts a new album for album.UserID.
func (s *Store) CreateAlbum(_ context.Context, album store.Album) (store.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	album.ID = s.nextAlbumID
	s.nextAlbumID++
	album.Name = strings.TrimSpace(album.Name)
	album.Date = normalisedDate(album.Date)
	album.CreatedAt = now
	album.UpdatedAt = now

	s.albums[album.ID] = album
	return cloneAlbum(album), nil
}

// AlbumByID returns a single album by its identifier, regardless of owner.
func (s *Store) AlbumByID(_ context.Context, id int64) (store.Album, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.albums[id]
	if !ok {
		return store.Album{}, store.ErrAlbumNotFound
	}
	return cloneAlbum(a), nil
}

// AlbumsByOwner lists the user's albums in insertion order.
func (s *Store) AlbumsByOwner(_ context.Context, userID int64) ([]store.Album, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := sortedIDs(s.albums, func(a store.Album) bool { return a.UserID == userID })
	albums := make([]store.Album, 0, len(ids))
	for _, id := range ids {
		albums = append(albums, cloneAlbum(s.albums[id]))
	}
	return albums, nil
}

// UpdateAlbum applies the patch to an album owned by the user.
func (s *Store) UpdateAlbum(_ context.Context, userID, id int64, patch store.AlbumPatch) (store.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.albums[id]
	if !ok || a.UserID != userID {
		return store.Album{}, store.ErrAlbumNotFound
	}

	if patch.Name != nil {
		a.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		a.Description = *patch.Description
	}
	if patch.Image != nil {
		a.Image = *patch.Image
	}
	if patch.Date != nil {
		a.Date = normalisedDate(patch.Date)
	}
	a.UpdatedAt = s.now()

	s.albums[id] = a
	return cloneAlbum(a), nil
}

// DeleteAlbum detaches the album's songs and removes it under a single lock.
func (s *Store) DeleteAlbum(_ context.Context, userID, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.albums[id]
	if !ok || a.UserID != userID {
		return 0, store.ErrAlbumNotFound
	}

	now := s.now()
	var detached int64
	for songID, song := range s.songs {
		if song.AlbumID != nil && *song.AlbumID == id {
			song.AlbumID = nil
			song.UpdatedAt = now
			s.songs[songID] = song
			detached++
		}
	}
	delete(s.albums, id)

	return detached, nil
}

// CreateSong inserts a song. A set AlbumID must name an album owned by song.UserID.
func (s *Store) CreateSong(_ context.Context, song store.Song) (store.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if song.AlbumID != nil && !s.ownsAlbumLocked(song.UserID, *song.AlbumID) {
		return store.Song{}, store.ErrAlbumNotOwned
	}

	now := s.now()
	song.ID = s.nextSongID
	s.nextSongID++
	song.Name = strings.TrimSpace(song.Name)
	song.AlbumID = cloneID(song.AlbumID)
	song.Date = normalisedDate(song.Date)
	song.CreatedAt = now
	song.UpdatedAt = now

	s.songs[song.ID] = song
	return cloneSong(song), nil
}

// SongByID returns a single song by its identifier, regardless of owner.
func (s *Store) SongByID(_ context.Context, id int64) (store.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	song, ok := s.songs[id]
	if !ok {
		return store.Song{}, store.ErrSongNotFound
	}
	return cloneSong(song), nil
}

// SongsByOwner lists the user's songs in insertion order.
func (s *Store) SongsByOwner(_ context.Context, userID int64) ([]store.Song, error) {
	return s.selectSongs(func(song store.Song) bool { return song.UserID == userID }), nil
}

// SongsByAlbum lists the user's songs filed under the album.
func (s *Store) SongsByAlbum(_ context.Context, userID, albumID int64) ([]store.Song, error) {
	return s.selectSongs(func(song store.Song) bool {
		return song.UserID == userID && song.AlbumID != nil && *song.AlbumID == albumID
	}), nil
}

// UpdateSong applies the patch to a song owned by the user.
func (s *Store) UpdateSong(_ context.Context, userID, id int64, patch store.SongPatch) (store.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[id]
	if !ok || song.UserID != userID {
		return store.Song{}, store.ErrSongNotFound
	}
	if patch.AlbumID != nil && !s.ownsAlbumLocked(userID, *patch.AlbumID) {
		return store.Song{}, store.ErrAlbumNotOwned
	}

	if patch.Name != nil {
		song.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		song.Description = *patch.Description
	}
	if patch.Image != nil {
		song.Image = *patch.Image
	}
	if patch.AlbumID != nil {
		song.AlbumID = cloneID(patch.AlbumID)
	}
	if patch.Genre != nil {
		song.Genre = *patch.Genre
	}
	if patch.Duration != nil {
		song.Duration = *patch.Duration
	}
	if patch.Date != nil {
		song.Date = normalisedDate(patch.Date)
	}
	song.UpdatedAt = s.now()

	s.songs[id] = song
	return cloneSong(song), nil
}

// DeleteSong removes a song owned by the user and returns the deleted row.
func (s *Store) DeleteSong(_ context.Context, userID, id int64) (store.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[id]
	if !ok || song.UserID != userID {
		return store.Song{}, store.ErrSongNotFound
	}
	delete(s.songs, id)
	return cloneSong(song), nil
}

func (s *Store) selectSongs(keep func(store.Song) bool) []store.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := sortedIDs(s.songs, keep)
	songs := make([]store.Song, 0, len(ids))
	for _, id := range ids {
		songs = append(songs, cloneSong(s.songs[id]))
	}
	return songs
}

func (s *Store) ownsAlbumLocked(userID, albumID int64) bool {
	a, ok := s.albums[albumID]
	return ok && a.UserID == userID
}

func cloneAlbum(a store.Album) store.Album {
	a.Date = cloneString(a.Date)
	return a
}

func cloneSong(song store.Song) store.Song {
	song.AlbumID = cloneID(song.AlbumID)
	song.Date = cloneString(song.Date)
	return song
}
