package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/diceydecisions/dicey/internal/dicey/service"
	"github.com/diceydecisions/dicey/pkg/api"
	"github.com/diceydecisions/dicey/pkg/httpx"
)

// RoomsHandler serves the room lifecycle endpoints.
type RoomsHandler struct {
	Rooms *service.RoomService
	Votes *service.VoteService

	// CronSecret authorizes the sweep endpoint; the scheduler presents it as
	// a bearer token.
	CronSecret string
}

func (h *RoomsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateRoomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}

	room, err := h.Rooms.Create(r.Context(), httpx.UserID(r.Context()), req.Title, req.Description, req.MaxParticipants)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toAPIRoom(room, []string{room.CreatorID}))
}

func (h *RoomsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.List(r.Context(), httpx.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]api.Room, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toAPIRoom(room, nil))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *RoomsHandler) HandleListPast(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.ListPast(r.Context(), httpx.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]api.PastRoom, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toAPIPastRoom(room))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *RoomsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Rooms.Get(r.Context(), httpx.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAPIRoomDetail(detail))
}

func (h *RoomsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateRoomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}

	room, err := h.Rooms.Update(r.Context(), httpx.UserID(r.Context()), r.PathValue("id"), service.RoomPatch{
		Title:           req.Title,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		IsOpen:          req.IsOpen,
		VotingOpen:      req.VotingOpen,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAPIRoom(room, nil))
}

func (h *RoomsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Rooms.Delete(r.Context(), httpx.UserID(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "room deleted"})
}

func (h *RoomsHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req api.JoinRoomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}

	room, err := h.Rooms.Join(r.Context(), httpx.UserID(r.Context()), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAPIRoom(room, nil))
}

// HandleFinalize settles the room's vote. On an unresolved tie nothing is
// committed and the tied option IDs come back for a retry with a tiebreaker.
func (h *RoomsHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	var req api.FinalizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}

	result, err := h.Votes.Finalize(r.Context(), httpx.UserID(r.Context()), r.PathValue("id"), req.Tiebreaker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := api.FinalizeResponse{
		IsTie:       result.IsTie,
		Tiebreaker:  result.Tiebreaker,
		TiedOptions: result.TiedOptions,
	}
	if result.Room != nil {
		room := toAPIRoom(*result.Room, nil)
		out.Room = &room
	}
	if result.WinningOption != nil {
		opt := toAPIOption(*result.WinningOption)
		out.WinningOption = &opt
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleSweep closes rooms idle past the inactivity window. It is meant to
// be hit by an external scheduler authenticated with the cron secret.
func (h *RoomsHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	if !h.validCronSecret(r) {
		api.Unauthenticated("invalid cron secret").WriteError(w)
		return
	}

	closed, err := h.Rooms.Sweep(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, api.SweepResponse{
		Message:     "sweep complete",
		RoomsClosed: closed,
	})
}

func (h *RoomsHandler) validCronSecret(r *http.Request) bool {
	if h.CronSecret == "" {
		return false
	}
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return false
	}
	presented := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.CronSecret)) == 1
}
