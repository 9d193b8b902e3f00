package api

import (
	"net/http"

	"github.com/Kerhoff/GiftboT/internal/auth"
	"github.com/Kerhoff/GiftboT/internal/models"
)

type inviteRequest struct {
	FriendID int64 `json:"friend_id"`
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	events, err := s.svc.Events.GetEventsByUser(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	var req models.CreateEventInput
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	req.HostID = session.UserID

	event, tags, err := s.svc.Events.CreateEvent(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusCreated, event)
}

func (s *Server) handleGetInvitations(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	invitations, err := s.svc.Events.GetEventInvitations(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, invitations)
}

func (s *Server) handleGetAttending(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	events, err := s.svc.Events.GetFriendsEvents(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetCommonEvents(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	otherID, err := pathID(r, "userId")
	if err != nil {
		s.respondError(w, err)
		return
	}
	events, err := s.svc.Events.GetCommonEvents(r.Context(), session.UserID, otherID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	event, err := s.svc.Events.GetEventByID(r.Context(), id, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req models.UpdateEventInput
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	event, tags, err := s.svc.Events.UpdateEvent(r.Context(), id, req, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	tags, err := s.svc.Events.DeleteEvent(r.Context(), id, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	invitation, tags, err := s.svc.Events.InviteToEvent(r.Context(), id, req.FriendID, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusCreated, invitation)
}

func (s *Server) handleRemoveInvitation(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	friendID, err := pathID(r, "friendId")
	if err != nil {
		s.respondError(w, err)
		return
	}

	// Only the host may withdraw an invitation.
	if _, err := s.svc.Events.GetOwnedEvent(r.Context(), id, session.UserID); err != nil {
		s.respondError(w, err)
		return
	}
	tags, err := s.svc.Events.RemoveInvitation(r.Context(), id, friendID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRespondInvitation(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req models.RespondInvitationInput
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	invitation, tags, err := s.svc.Events.RespondToEventInvitation(r.Context(), id, session.UserID, req.Status)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusOK, invitation)
}

func (s *Server) handleLeaveEvent(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	tags, err := s.svc.Events.LeaveEvent(r.Context(), id, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusNoContent, nil)
}
