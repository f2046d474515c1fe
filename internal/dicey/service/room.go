package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/pkg/cryptox"
	"github.com/diceydecisions/dicey/pkg/idx"
	"github.com/diceydecisions/dicey/pkg/slogx"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
	minRoomParticipants  = 2

	// codeRetries bounds join-code regeneration on the off chance a
	// freshly generated code collides with an existing room.
	codeRetries = 5
)

// RoomService manages the room lifecycle: creation, membership, updates,
// deletion and the inactivity sweep.
type RoomService struct {
	Store store.Store

	// InactivityWindow is how long a room may sit idle before the sweep
	// closes it.
	InactivityWindow time.Duration
}

// RoomDetail is the full view of a room for a participant. Votes holds all
// ballots only once voting has closed; UserVote is always the caller's own.
type RoomDetail struct {
	Room         domain.Room
	Participants []string
	Options      []domain.Option
	Votes        []domain.Vote
	UserVote     *domain.Vote
}

// RoomPatch carries the allow-listed mutable room fields. Nil means leave
// unchanged.
type RoomPatch struct {
	Title           *string
	Description     *string
	MaxParticipants *int
	IsOpen          *bool
	VotingOpen      *bool
}

// Create makes a new room with a fresh join code and the creator as first
// participant.
func (s *RoomService) Create(ctx context.Context, creatorID, title, description string, maxParticipants *int) (domain.Room, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return domain.Room{}, ErrInvalidInput
	}
	if len(description) > maxDescriptionLength {
		return domain.Room{}, ErrInvalidInput
	}
	if maxParticipants != nil && *maxParticipants < minRoomParticipants {
		return domain.Room{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	room := domain.Room{
		ID:              idx.New().String(),
		Title:           title,
		Description:     strings.TrimSpace(description),
		CreatorID:       creatorID,
		MaxParticipants: maxParticipants,
		IsOpen:          true,
		VotingOpen:      false,
		LastActivity:    now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Join codes are short, so collisions are unlikely but possible.
	// Regenerate and retry rather than failing the create.
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := cryptox.GenerateRoomCode()
		if err != nil {
			return domain.Room{}, err
		}
		room.Code = code

		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Rooms().CreateRoom(ctx, room); err != nil {
				return err
			}
			return tx.Rooms().AddParticipant(ctx, room.ID, creatorID, now)
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return domain.Room{}, err
		}

		slogx.FromContext(ctx).Info("room created", "room_id", room.ID, "creator_id", creatorID)
		return room, nil
	}
	return domain.Room{}, errors.New("room code generation exhausted retries")
}

// Join adds the user to the room identified by its join code. Joining a room
// you are already in is a no-op that returns the room.
func (s *RoomService) Join(ctx context.Context, userID, code string) (domain.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.Room{}, ErrInvalidInput
	}

	room, err := s.Store.Rooms().GetRoomByCode(ctx, code)
	if err != nil {
		return domain.Room{}, err
	}

	already, err := s.Store.Rooms().IsParticipant(ctx, room.ID, userID)
	if err != nil {
		return domain.Room{}, err
	}
	if already {
		return room, nil
	}

	if !room.IsOpen {
		return domain.Room{}, ErrRoomClosed
	}
	if room.MaxParticipants != nil {
		count, err := s.Store.Rooms().CountParticipants(ctx, room.ID)
		if err != nil {
			return domain.Room{}, err
		}
		if count >= *room.MaxParticipants {
			return domain.Room{}, ErrRoomFull
		}
	}

	now := time.Now().UTC()
	if err := s.Store.Rooms().AddParticipant(ctx, room.ID, userID, now); err != nil {
		// A concurrent join of the same user is still a success.
		if !errors.Is(err, store.ErrAlreadyExists) {
			return domain.Room{}, err
		}
	}
	if err := s.Store.Rooms().TouchActivity(ctx, room.ID, now); err != nil {
		return domain.Room{}, err
	}

	room.LastActivity = now
	return room, nil
}

// Get returns the full room view for a participant. Ballots stay hidden
// while voting is open; only the caller's own vote is exposed.
func (s *RoomService) Get(ctx context.Context, userID, roomID string) (RoomDetail, error) {
	room, err := s.requireParticipant(ctx, userID, roomID)
	if err != nil {
		return RoomDetail{}, err
	}

	participants, err := s.Store.Rooms().ListParticipants(ctx, roomID)
	if err != nil {
		return RoomDetail{}, err
	}
	options, err := s.Store.Options().ListOptionsByRoom(ctx, roomID)
	if err != nil {
		return RoomDetail{}, err
	}

	detail := RoomDetail{
		Room:         room,
		Participants: participants,
		Options:      options,
	}

	if !room.VotingOpen {
		votes, err := s.Store.Votes().ListVotesByRoom(ctx, roomID)
		if err != nil {
			return RoomDetail{}, err
		}
		detail.Votes = votes
	}

	vote, err := s.Store.Votes().GetVoteByRoomAndUser(ctx, roomID, userID)
	if err == nil {
		detail.UserVote = &vote
	} else if !errors.Is(err, store.ErrNotFound) {
		return RoomDetail{}, err
	}

	return detail, nil
}

// List returns all rooms the user participates in, newest first.
func (s *RoomService) List(ctx context.Context, userID string) ([]domain.Room, error) {
	return s.Store.Rooms().ListRoomsForUser(ctx, userID)
}

// ListPast returns the user's decided rooms, most recent decision first,
// each carrying the winning option's text.
func (s *RoomService) ListPast(ctx context.Context, userID string) ([]domain.DecidedRoom, error) {
	return s.Store.Rooms().ListDecidedRoomsForUser(ctx, userID)
}

// Update applies an allow-listed patch. Only the creator may update, and a
// decided room is immutable. Closing the room also closes voting; opening
// voting on a closed room is rejected.
func (s *RoomService) Update(ctx context.Context, userID, roomID string, patch RoomPatch) (domain.Room, error) {
	room, err := s.Store.Rooms().GetRoomByID(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if room.CreatorID != userID {
		return domain.Room{}, ErrNotCreator
	}
	if room.Decided() {
		return domain.Room{}, ErrAlreadyDecided
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" || len(title) > maxTitleLength {
			return domain.Room{}, ErrInvalidInput
		}
		room.Title = title
	}
	if patch.Description != nil {
		if len(*patch.Description) > maxDescriptionLength {
			return domain.Room{}, ErrInvalidInput
		}
		room.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.MaxParticipants != nil {
		if *patch.MaxParticipants < minRoomParticipants {
			return domain.Room{}, ErrInvalidInput
		}
		count, err := s.Store.Rooms().CountParticipants(ctx, roomID)
		if err != nil {
			return domain.Room{}, err
		}
		if *patch.MaxParticipants < count {
			return domain.Room{}, ErrInvalidInput
		}
		room.MaxParticipants = patch.MaxParticipants
	}
	if patch.IsOpen != nil {
		room.IsOpen = *patch.IsOpen
	}
	if patch.VotingOpen != nil {
		room.VotingOpen = *patch.VotingOpen
	}

	// Voting can only run inside an open room. Asking for voting on a
	// closed room is an error; closing the room quietly ends voting.
	if room.VotingOpen && !room.IsOpen {
		if patch.VotingOpen != nil && *patch.VotingOpen {
			return domain.Room{}, ErrRoomClosed
		}
		room.VotingOpen = false
	}

	now := time.Now().UTC()
	room.UpdatedAt = now
	room.LastActivity = now

	if err := s.Store.Rooms().UpdateRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}
	if err := s.Store.Rooms().TouchActivity(ctx, roomID, now); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

// Delete removes a room and everything hanging off it. Creator only. The
// deletion runs in one transaction so a failure leaves the room intact.
func (s *RoomService) Delete(ctx context.Context, userID, roomID string) error {
	room, err := s.Store.Rooms().GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatorID != userID {
		return ErrNotCreator
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Rooms().DeleteRoom(ctx, roomID)
	})
}

// Sweep closes rooms idle longer than the inactivity window. It is
// idempotent; rooms already closed are not touched again.
func (s *RoomService) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.InactivityWindow)
	closed, err := s.Store.Rooms().CloseInactive(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		slogx.FromContext(ctx).Info("inactive rooms closed", "count", closed)
	}
	return closed, nil
}

func (s *RoomService) requireParticipant(ctx context.Context, userID, roomID string) (domain.Room, error) {
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
