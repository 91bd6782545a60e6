package httpapi

import (
	"net/http"

	"tunecase/internal/app/albums"
	"tunecase/internal/store"
)

type albumResponse struct {
	Message string      `json:"message"`
	Album   store.Album `json:"album"`
}

func (s *Server) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	album, err := s.albums.Create(r.Context(), principal(r), albums.Input{
		Name:        f.str("name"),
		Description: f.str("desc"),
		Date:        f.datePtr("date"),
		Image:       f.file("image"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, albumResponse{Message: "Album created successfully!", Album: album})
}

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	list, err := s.albums.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, store.ErrAlbumNotFound)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	album, err := s.albums.Get(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (s *Server) handleUpdateAlbum(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.updateAlbum(w, r, f)
}

// handleAlbumMethodOverride serves POST /albums/{id}, which browsers use for
// multipart updates. A _method field of DELETE deletes instead.
func (s *Server) handleAlbumMethodOverride(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if f.overrideMethod() == http.MethodDelete {
		s.handleDeleteAlbum(w, r)
		return
	}
	s.updateAlbum(w, r, f)
}

func (s *Server) updateAlbum(w http.ResponseWriter, r *http.Request, f form) {
	id, err := pathID(r, store.ErrAlbumNotFound)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	album, err := s.albums.Update(r.Context(), principal(r), id, albums.Patch{
		Name:        f.ptr("name"),
		Description: f.ptr("desc"),
		Date:        f.ptr("date"),
		Image:       f.file("image"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, albumResponse{Message: "Album updated successfully!", Album: album})
}

func (s *Server) handleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, store.ErrAlbumNotFound)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := s.albums.Delete(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Album deleted successfully!"})
}

func (s *Server) handleAlbumSongs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, store.ErrAlbumNotFound)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	list, err := s.songs.ListByAlbum(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
