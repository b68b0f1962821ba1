package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/skinstore/internal/usecase"
)

const (
	oauthStateCookie = "oauth_state"
	googleUserinfo   = "https://www.googleapis.com/oauth2/v3/userinfo"
)

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.OAuth == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "google sign-in is not configured"})
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.OAuth == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "google sign-in is not configured"})
		return
	}
	q := r.URL.Query()
	c, _ := r.Cookie(oauthStateCookie)
	if c == nil || c.Value == "" || c.Value != q.Get("state") {
		badRequest(w, "sign-in state mismatch, please try again")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/", MaxAge: -1})

	tok, err := s.OAuth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("google oauth exchange")
		badRequest(w, "google sign-in failed")
		return
	}
	resp, err := s.OAuth.Client(r.Context(), tok).Get(googleUserinfo)
	if err != nil {
		log.Error().Err(err).Msg("google userinfo")
		badRequest(w, "google sign-in failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("google userinfo")
		badRequest(w, "google sign-in failed")
		return
	}
	var info struct {
		Email         string `json:"email"`
		Name          string `json:"name"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		badRequest(w, "google sign-in failed")
		return
	}
	sess, err := s.Users.SignInWithGoogle(r.Context(), usecase.GoogleUser{
		Email:         info.Email,
		Name:          info.Name,
		VerifiedEmail: info.EmailVerified,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	// The storefront reads the token from the fragment.
	http.Redirect(w, r, s.Brand.BaseURL+"/auth/callback#token="+url.QueryEscape(sess.Token), http.StatusFound)
}
