package httpapi

import (
	"net/http"

	"tunecase/internal/app/users"
	"tunecase/internal/store"
)

type registerResponse struct {
	Message string     `json:"message"`
	User    store.User `json:"user"`
	Token   string     `json:"token"`
	Image   string     `json:"image"`
}

type loginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    store.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, token, err := s.users.Register(r.Context(), users.RegisterInput{
		Name:     f.str("name"),
		Email:    f.str("email"),
		Password: f.str("password"),
		Image:    f.file("image"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully!",
		User:    user,
		Token:   token,
		Image:   user.Image,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, user, err := s.users.Login(r.Context(), f.str("email"), f.str("password"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful!", Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Me(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), principal(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully!"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.users.DeleteAccount(r.Context(), principal(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Account deleted successfully"})
}
