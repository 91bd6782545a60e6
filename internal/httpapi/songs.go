package httpapi

import (
	"net/http"

	"tunecase/internal/app/songs"
	"tunecase/internal/store"
)

type songResponse struct {
	Message string     `json:"message"`
	Song    store.Song `json:"song"`
}

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	song, err := s.songs.Create(r.Context(), principal(r), songs.Input{
		Name:        f.str("name"),
		Description: f.str("desc"),
		AlbumID:     f.id("albumId"),
		Genre:       f.str("genre"),
		Duration:    f.str("duration"),
		Date:        f.datePtr("date"),
		Image:       f.file("image"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, songResponse{Message: "Song uploaded successfully!", Song: song})
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	list, err := s.songs.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, store.ErrSongNotFound)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	song, err := s.songs.Get(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (s *Server) handleUpdateSong(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.updateSong(w, r, f)
}

func (s *Server) handleSongMethodOverride(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if f.overrideMethod() == http.MethodDelete {
		s.handleDeleteSong(w, r)
		return
	}
	s.updateSong(w, r, f)
}

func (s *Server) updateSong(w http.ResponseWriter, r *http.Request, f form) {
	id, err := pathID(r, store.ErrSongNotFound)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	song, err := s.songs.Update(r.Context(), principal(r), id, songs.Patch{
		Name:        f.ptr("name"),
		Description: f.ptr("desc"),
		AlbumID:     f.idPtr("albumId"),
		Genre:       f.ptr("genre"),
		Duration:    f.ptr("duration"),
		Date:        f.ptr("date"),
		Image:       f.file("image"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, songResponse{Message: "Song updated successfully!", Song: song})
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, store.ErrSongNotFound)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := s.songs.Delete(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Song deleted successfully!"})
}
