package http

import (
	"errors"
	"net/http"

	"github.com/diceydecisions/dicey/internal/dicey/service"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/pkg/api"
	"github.com/diceydecisions/dicey/pkg/slogx"
)

// writeServiceError maps service and store sentinels onto the JSON error
// envelope. Anything unmapped is a 500 and gets logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		api.NotFound("resource not found").WriteError(w)

	case errors.Is(err, service.ErrInvalidInput):
		api.Validation("invalid request").WriteError(w)
	case errors.Is(err, service.ErrInvalidTiebreaker):
		api.Validation("tiebreaker must be one of dice, spinner, coin").WriteError(w)
	case errors.Is(err, service.ErrSelfVote):
		api.Validation("you cannot vote for your own option").WriteError(w)
	case errors.Is(err, service.ErrOptionMismatch):
		api.Validation("option does not belong to this room").WriteError(w)

	case errors.Is(err, service.ErrInvalidCredentials):
		api.Unauthenticated("invalid email or password").WriteError(w)
	case errors.Is(err, service.ErrInvalidVerification):
		api.Unauthenticated("invalid or expired verification token").WriteError(w)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		api.Unauthenticated("invalid or expired refresh token").WriteError(w)
	case errors.Is(err, service.ErrNotVerified):
		// 403 with its own code so clients can offer a resend.
		api.NeedsVerification("email not verified, check your inbox").WriteError(w)

	case errors.Is(err, service.ErrNotParticipant):
		api.Forbidden("you are not a participant of this room").WriteError(w)
	case errors.Is(err, service.ErrNotCreator):
		api.Forbidden("only the room creator may do this").WriteError(w)
	case errors.Is(err, service.ErrNotSubmitter):
		api.Forbidden("only the submitter may change this option").WriteError(w)

	case errors.Is(err, service.ErrEmailInUse):
		api.Conflict("email is already registered").WriteError(w)
	case errors.Is(err, service.ErrAlreadyVerified):
		api.Conflict("email is already verified").WriteError(w)
	case errors.Is(err, service.ErrRoomFull):
		api.Conflict("room is full").WriteError(w)

	case errors.Is(err, service.ErrRoomClosed):
		api.Phase("room is closed").WriteError(w)
	case errors.Is(err, service.ErrVotingOpen):
		api.Phase("voting has already started").WriteError(w)
	case errors.Is(err, service.ErrVotingClosed):
		api.Phase("voting is not open").WriteError(w)
	case errors.Is(err, service.ErrAlreadyDecided):
		api.Phase("room has already been decided").WriteError(w)
	case errors.Is(err, service.ErrNoVotes):
		api.Phase("no votes have been cast").WriteError(w)

	default:
		slogx.FromContext(r.Context()).Error("unhandled service error", "err", err)
		api.ServerError.WriteError(w)
	}
}
