package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phenrril/skinstore/internal/domain"
	"github.com/phenrril/skinstore/internal/usecase"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.Users.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	uid, err := s.Users.AdminCreateUser(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uid": uid})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	items, err := s.Users.List(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role domain.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.Users.SetRole(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, callerFrom(r.Context()))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var upd usecase.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	p, err := s.Users.UpdateProfile(r.Context(), callerFrom(r.Context()), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleToggleWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := s.Users.ToggleWishlist(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"wishlist": list})
}

func (s *Server) handleRedeemPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points int `json:"points"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	c, p, err := s.Users.RedeemPoints(r.Context(), callerFrom(r.Context()), req.Points)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coupon": c, "profile": p})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := s.Notifier.List(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Notifier.MarkRead(r.Context(), callerFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
