package http

import (
	"net/http"

	"github.com/diceydecisions/dicey/internal/dicey/service"
	"github.com/diceydecisions/dicey/pkg/api"
	"github.com/diceydecisions/dicey/pkg/httpx"
)

// VotesHandler serves ballot casting and the tally view.
type VotesHandler struct {
	Votes *service.VoteService
}

func (h *VotesHandler) HandleCast(w http.ResponseWriter, r *http.Request) {
	var req api.CastVoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}
	if req.RoomID == "" || req.OptionID == "" {
		api.Validation("roomId and optionId are required").WriteError(w)
		return
	}

	vote, err := h.Votes.Cast(r.Context(), httpx.UserID(r.Context()), req.RoomID, req.OptionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAPIVote(vote))
}

// HandleCounts returns the tally. Per-option counts come back null for
// non-creators while voting is open.
func (h *VotesHandler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Votes.Counts(r.Context(), httpx.UserID(r.Context()), r.PathValue("roomId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, api.VoteCountsResponse{
		TotalVotes: counts.TotalVotes,
		UserVoted:  counts.UserVoted,
		VoteCounts: counts.Counts,
	})
}
