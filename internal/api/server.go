// Package api exposes the GiftboT services over JSON/HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/auth"
	"github.com/Kerhoff/GiftboT/internal/service"
)

// SessionProvider resolves the caller of a request
type SessionProvider interface {
	Session(r *http.Request) (*auth.Session, error)
}

// Server provides the HTTP API.
type Server struct {
	svc      *service.Service
	sessions SessionProvider
	logger   *logrus.Logger
	mux      *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, sessions SessionProvider, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, sessions: sessions, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.requestLogger(s.mux)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// API – Friends
	s.mux.HandleFunc("GET /api/friends", s.authed(s.handleGetFriends))
	s.mux.HandleFunc("GET /api/friends/requests", s.authed(s.handleGetFriendRequests))
	s.mux.HandleFunc("POST /api/friends/requests", s.authed(s.handleSendFriendRequest))
	s.mux.HandleFunc("GET /api/friends/status/{userId}", s.authed(s.handleFriendshipStatus))
	s.mux.HandleFunc("PUT /api/friends/{id}", s.authed(s.handleAnswerFriendRequest))
	s.mux.HandleFunc("DELETE /api/friends/{id}", s.authed(s.handleDeleteFriendship))

	// API – Events
	s.mux.HandleFunc("GET /api/events", s.authed(s.handleGetEvents))
	s.mux.HandleFunc("POST /api/events", s.authed(s.handleCreateEvent))
	s.mux.HandleFunc("GET /api/events/invitations", s.authed(s.handleGetInvitations))
	s.mux.HandleFunc("GET /api/events/attending", s.authed(s.handleGetAttending))
	s.mux.HandleFunc("GET /api/events/common/{userId}", s.authed(s.handleGetCommonEvents))
	s.mux.HandleFunc("GET /api/events/{id}", s.authed(s.handleGetEvent))
	s.mux.HandleFunc("PUT /api/events/{id}", s.authed(s.handleUpdateEvent))
	s.mux.HandleFunc("DELETE /api/events/{id}", s.authed(s.handleDeleteEvent))
	s.mux.HandleFunc("POST /api/events/{id}/invitations", s.authed(s.handleInvite))
	s.mux.HandleFunc("DELETE /api/events/{id}/invitations/{friendId}", s.authed(s.handleRemoveInvitation))
	s.mux.HandleFunc("POST /api/events/{id}/respond", s.authed(s.handleRespondInvitation))
	s.mux.HandleFunc("POST /api/events/{id}/leave", s.authed(s.handleLeaveEvent))

	// API – Wishlists and items
	s.mux.HandleFunc("GET /api/wishlists", s.authed(s.handleGetWishlists))
	s.mux.HandleFunc("POST /api/wishlists", s.authed(s.handleCreateWishlist))
	s.mux.HandleFunc("GET /api/wishlists/friends", s.authed(s.handleGetFriendsWishlists))
	s.mux.HandleFunc("GET /api/wishlists/{id}", s.authed(s.handleGetWishlist))
	s.mux.HandleFunc("PUT /api/wishlists/{id}", s.authed(s.handleUpdateWishlist))
	s.mux.HandleFunc("DELETE /api/wishlists/{id}", s.authed(s.handleDeleteWishlist))
	s.mux.HandleFunc("POST /api/wishlists/{id}/items", s.authed(s.handleAddItem))
	s.mux.HandleFunc("PUT /api/wishlists/{id}/items/{itemId}", s.authed(s.handleUpdateItem))
	s.mux.HandleFunc("DELETE /api/wishlists/{id}/items/{itemId}", s.authed(s.handleDeleteItem))
	s.mux.HandleFunc("POST /api/items/{id}/reservation", s.authed(s.handleToggleReservation))

	// API – Profiles and users
	s.mux.HandleFunc("GET /api/profiles", s.authed(s.handleGetProfiles))
	s.mux.HandleFunc("POST /api/profiles", s.authed(s.handleCreateProfile))
	s.mux.HandleFunc("GET /api/profiles/{id}/wishlists", s.authed(s.handleGetProfileWishlists))
	s.mux.HandleFunc("DELETE /api/profiles/{id}", s.authed(s.handleDeleteProfile))
	s.mux.HandleFunc("GET /api/users/me", s.authed(s.handleGetMe))
	s.mux.HandleFunc("DELETE /api/users/{id}", s.authed(s.handleDeleteUser))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start),
		}).Info("HTTP request")
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, session *auth.Session)

// authed resolves the session before any handler logic runs.
func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessions.Session(r)
		if err != nil {
			s.respondError(w, err)
			return
		}
		h(w, r, session)
	}
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Kind   apperrors.Kind    `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		s.logger.WithError(err).Error("unclassified error reached the API")
		appErr = apperrors.Infrastructure("unexpected failure", err)
	}

	status := statusFor(appErr.Kind)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	s.respondJSON(w, status, errorResponse{
		Error:  appErr.PublicMessage(),
		Kind:   appErr.Kind,
		Fields: appErr.Fields,
	})
}

// decodeJSON reads the request body into dst. A malformed body is a
// validation error.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperrors.Invalid("body", "request body is empty")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Invalid("body", "request body is empty")
		}
		return apperrors.Invalid("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// pathID extracts the named path value and converts it to int64.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// queryID reads an optional integer query parameter; fallback is used when
// it is absent.
func queryID(r *http.Request, name string, fallback int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Invalid(name, "must be a positive integer")
	}
	return id, nil
}
