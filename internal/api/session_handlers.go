package api

import (
	"errors"
	"net/http"

	"github.com/salonelite/salon-booking/internal/session"
)

func loginHandler(issuer *session.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		actor, err := session.Login(req.Email, req.Password)
		issueSession(w, issuer, actor, err, http.StatusOK)
	}
}

func registerHandler(issuer *session.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		actor, err := session.Register(req.Name, req.Email, req.Phone, req.Password)
		issueSession(w, issuer, actor, err, http.StatusCreated)
	}
}

func guestHandler(issuer *session.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GuestRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		actor, err := session.Guest(req.Name, req.Phone)
		issueSession(w, issuer, actor, err, http.StatusCreated)
	}
}

func issueSession(w http.ResponseWriter, issuer *session.Issuer, actor session.Actor, err error, status int) {
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	token, err := issuer.Issue(actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not issue session")
		return
	}
	writeJSON(w, status, SessionResponse{Token: token, User: actor})
}
