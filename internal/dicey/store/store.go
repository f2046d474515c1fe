package store

import (
	"context"
	"errors"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a Tx wrapper for multi-step operations that must be atomic
// (finalize, room deletion, pending-user promotion).
type Store interface {
	Users() Users
	PendingUsers() PendingUsers
	Rooms() Rooms
	Options() Options
	Votes() Votes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and duplicate checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// DeleteUser removes a user; participations and votes cascade per schema.
	DeleteUser(ctx context.Context, userID string) error
}

type PendingUsers interface {
	// UpsertPendingUser inserts or replaces the pending registration for an
	// email. Re-registering refreshes the row and its expiry.
	UpsertPendingUser(ctx context.Context, p domain.PendingUser) error

	// GetPendingUserByEmail returns the pending registration for an email.
	GetPendingUserByEmail(ctx context.Context, email string) (domain.PendingUser, error)

	// DeletePendingUserByEmail removes a pending registration.
	DeletePendingUserByEmail(ctx context.Context, email string) error

	// DeleteExpired removes pending registrations whose expiry precedes now
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Rooms interface {
	// CreateRoom inserts a room. Returns ErrAlreadyExists when the join code
	// collides; callers regenerate the code and retry.
	CreateRoom(ctx context.Context, r domain.Room) error

	GetRoomByID(ctx context.Context, id string) (domain.Room, error)
	GetRoomByCode(ctx context.Context, code string) (domain.Room, error)

	// ListRoomsForUser returns rooms the user participates in, newest first.
	ListRoomsForUser(ctx context.Context, userID string) ([]domain.Room, error)

	// ListDecidedRoomsForUser returns decided rooms the user participates in,
	// most recently decided first, with the winning option's text joined in.
	ListDecidedRoomsForUser(ctx context.Context, userID string) ([]domain.DecidedRoom, error)

	// UpdateRoom persists the mutable room fields (title, description,
	// max_participants, is_open, voting_open) and bumps updated_at.
	UpdateRoom(ctx context.Context, r domain.Room) error

	// SetDecision records the final decision and closes both lifecycle flags.
	SetDecision(ctx context.Context, roomID, optionID string, tiebreaker *string, decidedAt time.Time) error

	// TouchActivity bumps last_activity, which drives the inactivity sweep.
	TouchActivity(ctx context.Context, roomID string, at time.Time) error

	// DeleteRoom removes a room; options, votes and participants cascade.
	DeleteRoom(ctx context.Context, roomID string) error

	// CloseInactive closes rooms still open whose last_activity precedes
	// cutoff, returning how many were closed.
	CloseInactive(ctx context.Context, cutoff time.Time) (int64, error)

	// AddParticipant records membership. Returns ErrAlreadyExists when the
	// user is already in the room.
	AddParticipant(ctx context.Context, roomID, userID string, at time.Time) error

	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)
	ListParticipants(ctx context.Context, roomID string) ([]string, error)
	CountParticipants(ctx context.Context, roomID string) (int, error)
}

type Options interface {
	CreateOption(ctx context.Context, o domain.Option) error
	GetOptionByID(ctx context.Context, id string) (domain.Option, error)

	// ListOptionsByRoom returns options oldest first, with submitter names
	// joined in.
	ListOptionsByRoom(ctx context.Context, roomID string) ([]domain.Option, error)

	UpdateOptionText(ctx context.Context, optionID, text string) error

	// DeleteOption removes an option; votes referencing it cascade.
	DeleteOption(ctx context.Context, optionID string) error
}

type Votes interface {
	// UpsertVote inserts the user's ballot for a room, replacing any
	// previous one. The (room_id, user_id) uniqueness lives in the schema so
	// concurrent re-votes settle on a single row.
	UpsertVote(ctx context.Context, v domain.Vote) error

	// GetVoteByRoomAndUser returns the user's current ballot in a room.
	GetVoteByRoomAndUser(ctx context.Context, roomID, userID string) (domain.Vote, error)

	// ListVotesByRoom returns all ballots in a room, oldest first.
	ListVotesByRoom(ctx context.Context, roomID string) ([]domain.Vote, error)

	// TallyByRoom aggregates ballots per option.
	TallyByRoom(ctx context.Context, roomID string) (domain.Tally, error)
}
