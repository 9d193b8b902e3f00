package api

import (
	"net/http"

	"github.com/Kerhoff/GiftboT/internal/auth"
	"github.com/Kerhoff/GiftboT/internal/models"
)

func (s *Server) handleGetProfiles(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	profiles, err := s.svc.Profiles.ListProfiles(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	var req models.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	profile, err := s.svc.Profiles.CreateProfile(r.Context(), session.UserID, req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleGetProfileWishlists(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	wishlists, err := s.svc.Wishlists.GetWishlistsByProfileID(r.Context(), id, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, wishlists)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	tags, err := s.svc.Profiles.DeleteProfile(r.Context(), id, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	user, err := s.svc.Users.GetByID(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	tags, err := s.svc.Users.DeleteUser(r.Context(), id, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusNoContent, nil)
}
