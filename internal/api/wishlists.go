package api

import (
	"net/http"

	"github.com/Kerhoff/GiftboT/internal/auth"
	"github.com/Kerhoff/GiftboT/internal/models"
)

// handleGetWishlists lists the wishlists of ?user_id=, defaulting to the caller.
func (s *Server) handleGetWishlists(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	ownerID, err := queryID(r, "user_id", session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	wishlists, err := s.svc.Wishlists.GetWishlistsByUser(r.Context(), ownerID, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, wishlists)
}

func (s *Server) handleCreateWishlist(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	var req models.CreateWishlistInput
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.ProfileID == 0 {
		profile, err := s.svc.Profiles.GetMain(r.Context(), session.UserID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		req.ProfileID = profile.ID
	} else if _, err := s.svc.Profiles.GetOwned(r.Context(), req.ProfileID, session.UserID); err != nil {
		s.respondError(w, err)
		return
	}

	wishlist, tags, err := s.svc.Wishlists.CreateWishlist(r.Context(), req, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusCreated, wishlist)
}

func (s *Server) handleGetFriendsWishlists(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	wishlists, err := s.svc.Wishlists.GetFriendsWishlists(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, wishlists)
}

func (s *Server) handleGetWishlist(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	wishlist, err := s.svc.Wishlists.GetWishlistByID(r.Context(), id, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, wishlist)
}

func (s *Server) handleUpdateWishlist(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req models.UpdateWishlistInput
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	wishlist, tags, err := s.svc.Wishlists.UpdateWishlist(r.Context(), id, req, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusOK, wishlist)
}

func (s *Server) handleDeleteWishlist(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	tags, err := s.svc.Wishlists.DeleteWishlist(r.Context(), id, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	wishlistID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req models.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	item, tags, err := s.svc.Items.AddItemToWishlist(r.Context(), wishlistID, req, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	wishlistID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req models.UpdateItemInput
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	item, tags, err := s.svc.Items.UpdateItem(r.Context(), itemID, wishlistID, req, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	wishlistID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		s.respondError(w, err)
		return
	}

	tags, err := s.svc.Items.DeleteItem(r.Context(), itemID, wishlistID, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleToggleReservation(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	itemID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, tags, err := s.svc.Items.ToggleItemReservation(r.Context(), itemID, session.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.svc.Invalidate(r.Context(), tags)
	s.respondJSON(w, http.StatusOK, result)
}
