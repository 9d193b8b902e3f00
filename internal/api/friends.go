package api

import (
	"net/http"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/auth"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
)

type sendFriendRequest struct {
	FriendCode string `json:"friend_code"`
	ReceiverID int64  `json:"receiver_id"`
}

type answerFriendRequest struct {
	Accept *bool `json:"accept"`
}

type friendRequestsResponse struct {
	Sent     []*models.Friendship `json:"sent"`
	Received []*models.Friendship `json:"received"`
}

func (s *Server) handleGetFriends(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	friends, err := s.svc.Friendships.GetFriends(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, friends)
}

func (s *Server) handleGetFriendRequests(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	sent, err := s.svc.Friendships.GetPendingFriendRequests(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	received, err := s.svc.Friendships.GetReceivedPendingFriendRequests(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, friendRequestsResponse{Sent: sent, Received: received})
}

func (s *Server) handleSendFriendRequest(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	var req sendFriendRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	var (
		friendship *models.Friendship
		tags       []cache.Tag
		err        error
	)
	switch {
	case req.FriendCode != "":
		friendship, tags, err = s.svc.Friendships.SendFriendRequestByCode(r.Context(), session.UserID, req.FriendCode)
	case req.ReceiverID != 0:
		friendship, tags, err = s.svc.Friendships.CreateFriendRequest(r.Context(), session.UserID, req.ReceiverID)
	default:
		err = apperrors.Invalid("friend_code", "friend_code or receiver_id is required")
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusCreated, friendship)
}

func (s *Server) handleFriendshipStatus(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	targetID, err := pathID(r, "userId")
	if err != nil {
		s.respondError(w, err)
		return
	}
	relation, err := s.svc.Friendships.CheckFriendshipStatus(r.Context(), session.UserID, targetID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]models.FriendshipRelation{"status": relation})
}

func (s *Server) handleAnswerFriendRequest(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req answerFriendRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Accept == nil {
		s.respondError(w, apperrors.Invalid("accept", "is required"))
		return
	}

	friendship, tags, err := s.svc.Friendships.RespondToFriendRequest(r.Context(), id, session.UserID, *req.Accept)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusOK, friendship)
}

func (s *Server) handleDeleteFriendship(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	tags, err := s.svc.Friendships.RemoveFriendship(r.Context(), id, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusNoContent, nil)
}
