// Package memory keeps accounts, sessions, albums and songs in process memory.
// It follows the same contract as the Postgres store and is used for local
// development and service tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"tunecase/internal/store"
)

// Store is a mutex-guarded in-memory implementation of the catalog and identity stores.
type Store struct {
	mu       sync.RWMutex
	users    map[int64]store.User
	sessions map[string]int64
	albums   map[int64]store.Album
	songs    map[int64]store.Song

	nextUserID  int64
	nextAlbumID int64
	nextSongID  int64

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:       make(map[int64]store.User),
		sessions:    make(map[string]int64),
		albums:      make(map[int64]store.Album),
		songs:       make(map[int64]store.Song),
		nextUserID:  1,
		nextAlbumID: 1,
		nextSongID:  1,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser inserts a new account.
func (s *Store) CreateUser(_ context.Context, user store.User) (store.User, error) {
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" || user.Email == "" || len(user.PasswordHash) == 0 {
		return store.User{}, errors.New("name, email and password hash are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTakenLocked(user.Email) {
		return store.User{}, store.ErrEmailTaken
	}

	now := s.now()
	user.ID = s.nextUserID
	s.nextUserID++
	user.CreatedAt = now
	user.UpdatedAt = now
	user.PasswordHash = append([]byte(nil), user.PasswordHash...)

	s.users[user.ID] = user
	return user, nil
}

// EmailExists reports whether an account already uses the address.
func (s *Store) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emailTakenLocked(email), nil
}

// UserByEmail loads the account registered with the address.
func (s *Store) UserByEmail(_ context.Context, email string) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return store.User{}, store.ErrUserNotFound
}

// UserByID loads an account by its identifier.
func (s *Store) UserByID(_ context.Context, id int64) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return u, nil
}

// CreateSession records a session id for the user.
func (s *Store) CreateSession(_ context.Context, sessionID string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return store.ErrUserNotFound
	}
	s.sessions[sessionID] = userID
	return nil
}

// RevokeSessions removes every session belonging to the user.
func (s *Store) RevokeSessions(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeLocked(userID)
	return nil
}

// UserBySession resolves a live session id to its account.
func (s *Store) UserBySession(_ context.Context, sessionID string) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.sessions[sessionID]
	if !ok {
		return store.User{}, store.ErrUnauthorized
	}
	u, ok := s.users[userID]
	if !ok {
		return store.User{}, store.ErrUnauthorized
	}
	return u, nil
}

// DeleteUser revokes the user's sessions and removes the account. Catalog rows are kept.
func (s *Store) DeleteUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return store.ErrUserNotFound
	}
	s.revokeLocked(userID)
	delete(s.users, userID)
	return nil
}

// SessionCount reports how many live sessions the user holds.
func (s *Store) SessionCount(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, owner := range s.sessions {
		if owner == userID {
			n++
		}
	}
	return n
}

func (s *Store) emailTakenLocked(email string) bool {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) revokeLocked(userID int64) {
	for id, owner := range s.sessions {
		if owner == userID {
			delete(s.sessions, id)
		}
	}
}

func sortedIDs[T any](m map[int64]T, keep func(T) bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneID(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// normalisedDate mirrors the SQL store, where an empty date is stored as NULL.
func normalisedDate(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return cloneString(v)
}
