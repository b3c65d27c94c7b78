package server

import (
	"net/http"
	"strconv"

	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/rs/zerolog/log"
)

// AdminUsersListHandler lists panel users for support staff
func (s *Server) AdminUsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := authStateFromContext(r.Context())
		list, err := s.api.ListUsers(r.Context(), state.Token)
		if err != nil {
			if s.handleAuthFailure(w, r, err) {
				return
			}
			log.Err(err).Int64("user_id", state.User.ID).Msg("Admin: failed to list users")
			writeError(w, http.StatusBadGateway, msgUpstreamFailed)
			return
		}
		if list == nil {
			list = []users.User{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type userStatusRequest struct {
	Status users.StatusType `json:"status"`
}

// AdminUserStatusHandler activates, deactivates or suspends a user
func (s *Server) AdminUserStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || userID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		var req userStatusRequest
		if err := decodeJSON(w, r, &req); err != nil || !users.ValidStatus(req.Status) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}

		state := authStateFromContext(r.Context())
		rt := runtimeFromContext(r.Context())
		if err := s.api.UpdateUserStatus(r.Context(), state.Token, userID, req.Status); err != nil {
			if s.handleAuthFailure(w, r, err) {
				return
			}
			log.Err(err).Int64("target_user_id", userID).Msg("Admin: failed to update status")
			rt.outbox.Error(msgUpstreamFailed)
			status := http.StatusBadGateway
			if dasherrors.Is(err, dasherrors.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, msgUpstreamFailed)
			return
		}

		log.Info().Int64("user_id", state.User.ID).Int64("target_user_id", userID).Str("status", string(req.Status)).Msg("Admin: user status updated")
		rt.outbox.Success("Status atualizado.")
		w.WriteHeader(http.StatusNoContent)
	}
}
