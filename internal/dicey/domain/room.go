package domain

import "time"

// Tiebreaker methods accepted by finalize. The choice only affects the label
// stored with the decision; all three pick uniformly at random.
const (
	TiebreakerDice    = "dice"
	TiebreakerSpinner = "spinner"
	TiebreakerCoin    = "coin"
)

// ValidTiebreaker reports whether s names a supported tiebreaker method.
func ValidTiebreaker(s string) bool {
	switch s {
	case TiebreakerDice, TiebreakerSpinner, TiebreakerCoin:
		return true
	}
	return false
}

// Room is a decision room. Lifecycle moves one way: open for joining and
// option collection, then voting, then decided/closed. IsOpen gates joins;
// VotingOpen gates ballots. VotingOpen implies IsOpen.
type Room struct {
	ID              string
	Code            string // short join code, unique among rooms
	Title           string
	Description     string
	CreatorID       string
	MaxParticipants *int // nil means unlimited
	IsOpen          bool
	VotingOpen      bool
	DecidedOptionID *string
	Tiebreaker      *string
	DecidedAt       *time.Time
	LastActivity    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Decided reports whether the room has reached a final decision.
func (r Room) Decided() bool {
	return r.DecidedOptionID != nil
}

// DecidedRoom is a decided room paired with the text of the winning option,
// as shown in a user's decision history.
type DecidedRoom struct {
	Room       Room
	OptionText string
}
