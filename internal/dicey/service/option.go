package service

import (
	"context"
	"strings"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/pkg/idx"
)

const maxOptionLength = 300

// OptionService manages candidate options. Options are only editable while
// the room is collecting them; once voting opens the slate is frozen.
type OptionService struct {
	Store store.Store
}

// Submit proposes a new option in a room the user participates in.
func (s *OptionService) Submit(ctx context.Context, userID, roomID, text string) (domain.Option, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxOptionLength {
		return domain.Option{}, ErrInvalidInput
	}

	room, err := s.requireParticipant(ctx, userID, roomID)
	if err != nil {
		return domain.Option{}, err
	}
	if err := requireCollecting(room); err != nil {
		return domain.Option{}, err
	}

	now := time.Now().UTC()
	option := domain.Option{
		ID:          idx.New().String(),
		RoomID:      roomID,
		Text:        text,
		SubmittedBy: userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Re-check the phase inside the transaction so an option cannot slip in
	// after voting opens concurrently.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Rooms().GetRoomByID(ctx, roomID)
		if err != nil {
			return err
		}
		if err := requireCollecting(current); err != nil {
			return err
		}
		if err := tx.Options().CreateOption(ctx, option); err != nil {
			return err
		}
		return tx.Rooms().TouchActivity(ctx, roomID, now)
	})
	if err != nil {
		return domain.Option{}, err
	}
	return option, nil
}

// List returns the options of a room for a participant.
func (s *OptionService) List(ctx context.Context, userID, roomID string) ([]domain.Option, error) {
	if _, err := s.requireParticipant(ctx, userID, roomID); err != nil {
		return nil, err
	}
	return s.Store.Options().ListOptionsByRoom(ctx, roomID)
}

// Update edits an option's text. Submitter only, and only while the room is
// still collecting options.
func (s *OptionService) Update(ctx context.Context, userID, optionID, text string) (domain.Option, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxOptionLength {
		return domain.Option{}, ErrInvalidInput
	}

	option, room, err := s.optionWithRoom(ctx, optionID)
	if err != nil {
		return domain.Option{}, err
	}
	if option.SubmittedBy != userID {
		return domain.Option{}, ErrNotSubmitter
	}
	if err := requireCollecting(room); err != nil {
		return domain.Option{}, err
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Rooms().GetRoomByID(ctx, room.ID)
		if err != nil {
			return err
		}
		if err := requireCollecting(current); err != nil {
			return err
		}
		if err := tx.Options().UpdateOptionText(ctx, optionID, text); err != nil {
			return err
		}
		return tx.Rooms().TouchActivity(ctx, room.ID, now)
	})
	if err != nil {
		return domain.Option{}, err
	}

	option.Text = text
	option.UpdatedAt = now
	return option, nil
}

// Delete removes an option. Submitter only, collecting phase only.
func (s *OptionService) Delete(ctx context.Context, userID, optionID string) error {
	option, room, err := s.optionWithRoom(ctx, optionID)
	if err != nil {
		return err
	}
	if option.SubmittedBy != userID {
		return ErrNotSubmitter
	}
	if err := requireCollecting(room); err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Rooms().GetRoomByID(ctx, room.ID)
		if err != nil {
			return err
		}
		if err := requireCollecting(current); err != nil {
			return err
		}
		if err := tx.Options().DeleteOption(ctx, optionID); err != nil {
			return err
		}
		return tx.Rooms().TouchActivity(ctx, room.ID, now)
	})
}

func (s *OptionService) optionWithRoom(ctx context.Context, optionID string) (domain.Option, domain.Room, error) {
	option, err := s.Store.Options().GetOptionByID(ctx, optionID)
	if err != nil {
		return domain.Option{}, domain.Room{}, err
	}
	room, err := s.Store.Rooms().GetRoomByID(ctx, option.RoomID)
	if err != nil {
		return domain.Option{}, domain.Room{}, err
	}
	return option, room, nil
}

func (s *OptionService) requireParticipant(ctx context.Context, userID, roomID string) (domain.Room, error) {
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

// requireCollecting enforces the option-collection phase: room open, voting
// not yet started, no decision recorded.
func requireCollecting(room domain.Room) error {
	if room.Decided() {
		return ErrAlreadyDecided
	}
	if !room.IsOpen {
		return ErrRoomClosed
	}
	if room.VotingOpen {
		return ErrVotingOpen
	}
	return nil
}
