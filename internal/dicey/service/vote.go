package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/pkg/idx"
	"github.com/diceydecisions/dicey/pkg/slogx"
)

// VoteService handles ballots and the finalize step that turns a tally into
// a decision.
type VoteService struct {
	Store store.Store

	// RandIndex picks a winner index among n tied options. Defaults to a
	// uniform pick; tests inject a deterministic one.
	RandIndex func(n int) int
}

// VoteCounts is the tally view for a participant. Counts is nil when the
// caller is not entitled to see per-option numbers yet.
type VoteCounts struct {
	TotalVotes int
	UserVoted  bool
	Counts     map[string]int
}

// FinalizeResult reports the outcome of a finalize attempt. When IsTie is
// set and Room is nil, nothing was committed; the creator must retry with a
// tiebreaker.
type FinalizeResult struct {
	Room          *domain.Room
	WinningOption *domain.Option
	TiedOptions   []string
	IsTie         bool
	Tiebreaker    string
}

// Cast records the user's ballot, replacing any previous one. Voting on your
// own option is rejected.
func (s *VoteService) Cast(ctx context.Context, userID, roomID, optionID string) (domain.Vote, error) {
	room, err := s.requireParticipant(ctx, userID, roomID)
	if err != nil {
		return domain.Vote{}, err
	}
	if room.Decided() {
		return domain.Vote{}, ErrAlreadyDecided
	}
	if !room.VotingOpen {
		return domain.Vote{}, ErrVotingClosed
	}

	option, err := s.Store.Options().GetOptionByID(ctx, optionID)
	if err != nil {
		return domain.Vote{}, err
	}
	if option.RoomID != roomID {
		return domain.Vote{}, ErrOptionMismatch
	}
	if option.SubmittedBy == userID {
		return domain.Vote{}, ErrSelfVote
	}

	now := time.Now().UTC()
	vote := domain.Vote{
		ID:        idx.New().String(),
		RoomID:    roomID,
		OptionID:  optionID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Rooms().GetRoomByID(ctx, roomID)
		if err != nil {
			return err
		}
		if current.Decided() {
			return ErrAlreadyDecided
		}
		if !current.VotingOpen {
			return ErrVotingClosed
		}
		if err := tx.Votes().UpsertVote(ctx, vote); err != nil {
			return err
		}
		return tx.Rooms().TouchActivity(ctx, roomID, now)
	})
	if err != nil {
		return domain.Vote{}, err
	}
	return vote, nil
}

// Counts returns the tally state. Per-option counts stay hidden from
// non-creators while voting is open so early numbers cannot sway ballots.
func (s *VoteService) Counts(ctx context.Context, userID, roomID string) (VoteCounts, error) {
	room, err := s.requireParticipant(ctx, userID, roomID)
	if err != nil {
		return VoteCounts{}, err
	}

	tally, err := s.Store.Votes().TallyByRoom(ctx, roomID)
	if err != nil {
		return VoteCounts{}, err
	}

	out := VoteCounts{TotalVotes: tally.TotalVotes}

	_, err = s.Store.Votes().GetVoteByRoomAndUser(ctx, roomID, userID)
	if err == nil {
		out.UserVoted = true
	} else if !errors.Is(err, store.ErrNotFound) {
		return VoteCounts{}, err
	}

	if userID == room.CreatorID || !room.VotingOpen {
		out.Counts = tally.Counts
	}
	return out, nil
}

// Finalize tallies the ballots and commits the decision. A tie with no
// tiebreaker commits nothing and reports the tied options; with a tiebreaker
// the winner is drawn uniformly among them.
func (s *VoteService) Finalize(ctx context.Context, userID, roomID, tiebreaker string) (FinalizeResult, error) {
	room, err := s.Store.Rooms().GetRoomByID(ctx, roomID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if room.CreatorID != userID {
		return FinalizeResult{}, ErrNotCreator
	}
	if room.Decided() {
		return FinalizeResult{}, ErrAlreadyDecided
	}
	if !room.VotingOpen {
		return FinalizeResult{}, ErrVotingClosed
	}
	if tiebreaker != "" && !domain.ValidTiebreaker(tiebreaker) {
		return FinalizeResult{}, ErrInvalidTiebreaker
	}

	tally, err := s.Store.Votes().TallyByRoom(ctx, roomID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if tally.TotalVotes == 0 {
		return FinalizeResult{}, ErrNoVotes
	}

	leaders := tally.Leaders()
	slices.Sort(leaders)

	if len(leaders) > 1 && tiebreaker == "" {
		return FinalizeResult{IsTie: true, TiedOptions: leaders}, nil
	}

	winnerID := leaders[0]
	var tbUsed *string
	if len(leaders) > 1 {
		winnerID = leaders[s.randIndex(len(leaders))]
		tbUsed = &tiebreaker
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Rooms().GetRoomByID(ctx, roomID)
		if err != nil {
			return err
		}
		if current.Decided() {
			return ErrAlreadyDecided
		}
		return tx.Rooms().SetDecision(ctx, roomID, winnerID, tbUsed, now)
	})
	if err != nil {
		return FinalizeResult{}, err
	}

	winner, err := s.Store.Options().GetOptionByID(ctx, winnerID)
	if err != nil {
		return FinalizeResult{}, err
	}
	decided, err := s.Store.Rooms().GetRoomByID(ctx, roomID)
	if err != nil {
		return FinalizeResult{}, err
	}

	result := FinalizeResult{
		Room:          &decided,
		WinningOption: &winner,
		IsTie:         len(leaders) > 1,
	}
	if tbUsed != nil {
		result.Tiebreaker = *tbUsed
		result.TiedOptions = leaders
	}

	slogx.FromContext(ctx).Info("room decided",
		"room_id", roomID,
		"option_id", winnerID,
		"tie", result.IsTie,
		"tiebreaker", result.Tiebreaker,
	)
	return result, nil
}

func (s *VoteService) randIndex(n int) int {
	if s.RandIndex != nil {
		return s.RandIndex(n)
	}
	return rand.IntN(n)
}

func (s *VoteService) requireParticipant(ctx context.Context, userID, roomID string) (domain.Room, error) {
	room, err := s.Store.Rooms().GetRoomByID(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	ok, err := s.Store.Rooms().IsParticipant(ctx, roomID, userID)
	if err != nil {
		return domain.Room{}, err
	}
	if !ok {
		return domain.Room{}, ErrNotParticipant
	}
	return room, nil
}
