package service

import (
	"context"
	"testing"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/internal/dicey/store/drivers/sqlite"
	"github.com/diceydecisions/dicey/pkg/cryptox"
	"github.com/diceydecisions/dicey/pkg/idx"
	"github.com/diceydecisions/dicey/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestSigner(t *testing.T, use string) *jwtx.HS256 {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef-"+use), "dicey-test", use)
	require.NoError(t, err)
	return signer
}

// captureMailer records outgoing mail instead of delivering it.
type captureMailer struct {
	to      []string
	subject []string
	body    []string
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, body)
	return nil
}

func newAccountService(t *testing.T, st store.Store) (*AccountService, *captureMailer) {
	t.Helper()

	mailer := &captureMailer{}
	return &AccountService{
		Store:              st,
		AccessSigner:       newTestSigner(t, jwtx.UseAccess),
		RefreshSigner:      newTestSigner(t, jwtx.UseRefresh),
		VerificationSigner: newTestSigner(t, jwtx.UseVerification),
		Mailer:             mailer,
		AccessTTL:          jwtx.DefaultAccessTokenTTL,
		RefreshTTL:         jwtx.DefaultRefreshTokenTTL,
		VerificationTTL:    jwtx.DefaultVerificationTokenTTL,
		PendingTTL:         24 * time.Hour,
		VerifyBaseURL:      "http://localhost:3000/verify",
	}, mailer
}

// mustCreateUser inserts a verified user directly into the store.
func mustCreateUser(t *testing.T, st store.Store, name, email string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword("password123")
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

// mustCreateRoom makes a room with the creator joined, optionally with
// voting already open.
func mustCreateRoom(t *testing.T, st store.Store, creatorID string, votingOpen bool) domain.Room {
	t.Helper()

	rooms := &RoomService{Store: st, InactivityWindow: 30 * time.Minute}
	room, err := rooms.Create(context.Background(), creatorID, "Dinner plans", "", nil)
	require.NoError(t, err)

	if votingOpen {
		open := true
		room, err = rooms.Update(context.Background(), creatorID, room.ID, RoomPatch{VotingOpen: &open})
		require.NoError(t, err)
	}
	return room
}

func mustJoin(t *testing.T, st store.Store, room domain.Room, userID string) {
	t.Helper()

	require.NoError(t, st.Rooms().AddParticipant(context.Background(), room.ID, userID, time.Now().UTC()))
}

func mustSubmitOption(t *testing.T, st store.Store, roomID, userID, text string) domain.Option {
	t.Helper()

	now := time.Now().UTC()
	o := domain.Option{
		ID:          idx.New().String(),
		RoomID:      roomID,
		Text:        text,
		SubmittedBy: userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, st.Options().CreateOption(context.Background(), o))
	return o
}
