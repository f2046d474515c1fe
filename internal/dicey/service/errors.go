package service

import "errors"

// Sentinel errors returned by the services. HTTP handlers map these onto the
// response taxonomy; everything else becomes a 500.
var (
	// Validation
	ErrInvalidInput      = errors.New("invalid_input")
	ErrInvalidTiebreaker = errors.New("invalid_tiebreaker")
	ErrSelfVote          = errors.New("self_vote")
	ErrOptionMismatch    = errors.New("option_not_in_room")

	// Authentication
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInvalidVerification = errors.New("invalid_verification")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
	ErrNotVerified         = errors.New("email_not_verified")

	// Authorization
	ErrNotParticipant = errors.New("not_participant")
	ErrNotCreator     = errors.New("not_creator")
	ErrNotSubmitter   = errors.New("not_submitter")

	// Conflict
	ErrEmailInUse      = errors.New("email_in_use")
	ErrAlreadyVerified = errors.New("already_verified")
	ErrRoomFull        = errors.New("room_full")

	// Phase
	ErrRoomClosed     = errors.New("room_closed")
	ErrVotingOpen     = errors.New("voting_open")
	ErrVotingClosed   = errors.New("voting_closed")
	ErrAlreadyDecided = errors.New("already_decided")
	ErrNoVotes        = errors.New("no_votes")
)
