package service

import (
	"context"
	"testing"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newRoomService(st store.Store) *RoomService {
	return &RoomService{Store: st, InactivityWindow: 30 * time.Minute}
}

func TestRoomCreate(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := newRoomService(st)
	ctx := context.Background()
	creator := mustCreateUser(t, st, "Alice", "alice@example.com")

	t.Run("creates with code and creator joined", func(t *testing.T) {
		room, err := svc.Create(ctx, creator.ID, "Movie night", "pick one", nil)
		require.NoError(t, err)
		require.Len(t, room.Code, cryptox.RoomCodeLength)
		require.True(t, room.IsOpen)
		require.False(t, room.VotingOpen)
		require.False(t, room.Decided())

		ok, err := st.Rooms().IsParticipant(ctx, room.ID, creator.ID)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, creator.ID, "   ", "", nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("max participants below two rejected", func(t *testing.T) {
		one := 1
		_, err := svc.Create(ctx, creator.ID, "Tiny", "", &one)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestRoomJoin(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := newRoomService(st)
	ctx := context.Background()

	creator := mustCreateUser(t, st, "Alice", "alice@example.com")
	bob := mustCreateUser(t, st, "Bob", "bob@example.com")
	room := mustCreateRoom(t, st, creator.ID, false)

	t.Run("join by code", func(t *testing.T) {
		got, err := svc.Join(ctx, bob.ID, room.Code)
		require.NoError(t, err)
		require.Equal(t, room.ID, got.ID)
	})

	t.Run("code is case-insensitive", func(t *testing.T) {
		carol := mustCreateUser(t, st, "Carol", "carol@example.com")
		_, err := svc.Join(ctx, carol.ID, "  "+room.Code+" ")
		require.NoError(t, err)
	})

	t.Run("rejoining is a no-op", func(t *testing.T) {
		got, err := svc.Join(ctx, bob.ID, room.Code)
		require.NoError(t, err)
		require.Equal(t, room.ID, got.ID)

		count, err := st.Rooms().CountParticipants(ctx, room.ID)
		require.NoError(t, err)
		require.Equal(t, 3, count)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Join(ctx, bob.ID, "ZZZZZZ")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("closed room rejects new joins but not members", func(t *testing.T) {
		closed := false
		_, err := svc.Update(ctx, creator.ID, room.ID, RoomPatch{IsOpen: &closed})
		require.NoError(t, err)

		dave := mustCreateUser(t, st, "Dave", "dave@example.com")
		_, err = svc.Join(ctx, dave.ID, room.Code)
		require.ErrorIs(t, err, ErrRoomClosed)

		// Existing participant still gets the idempotent success.
		_, err = svc.Join(ctx, bob.ID, room.Code)
		require.NoError(t, err)
	})

	t.Run("full room rejects joins", func(t *testing.T) {
		two := 2
		small, err := svc.Create(ctx, creator.ID, "Small", "", &two)
		require.NoError(t, err)

		_, err = svc.Join(ctx, bob.ID, small.Code)
		require.NoError(t, err)

		erin := mustCreateUser(t, st, "Erin", "erin@example.com")
		_, err = svc.Join(ctx, erin.ID, small.Code)
		require.ErrorIs(t, err, ErrRoomFull)
	})
}

func TestRoomUpdate(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := newRoomService(st)
	ctx := context.Background()

	creator := mustCreateUser(t, st, "Alice", "alice@example.com")
	bob := mustCreateUser(t, st, "Bob", "bob@example.com")
	room := mustCreateRoom(t, st, creator.ID, false)
	mustJoin(t, st, room, bob.ID)

	t.Run("only creator may update", func(t *testing.T) {
		title := "Hijacked"
		_, err := svc.Update(ctx, bob.ID, room.ID, RoomPatch{Title: &title})
		require.ErrorIs(t, err, ErrNotCreator)
	})

	t.Run("patch updates allowed fields", func(t *testing.T) {
		title := "Dinner, round two"
		desc := "same crowd"
		got, err := svc.Update(ctx, creator.ID, room.ID, RoomPatch{Title: &title, Description: &desc})
		require.NoError(t, err)
		require.Equal(t, title, got.Title)
		require.Equal(t, desc, got.Description)
	})

	t.Run("max participants cannot undercut membership", func(t *testing.T) {
		two := 2
		_, err := svc.Update(ctx, creator.ID, room.ID, RoomPatch{MaxParticipants: &two})
		require.NoError(t, err)

		one := 1
		_, err = svc.Update(ctx, creator.ID, room.ID, RoomPatch{MaxParticipants: &one})
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("closing the room ends voting", func(t *testing.T) {
		open := true
		got, err := svc.Update(ctx, creator.ID, room.ID, RoomPatch{VotingOpen: &open})
		require.NoError(t, err)
		require.True(t, got.VotingOpen)

		closed := false
		got, err = svc.Update(ctx, creator.ID, room.ID, RoomPatch{IsOpen: &closed})
		require.NoError(t, err)
		require.False(t, got.IsOpen)
		require.False(t, got.VotingOpen)
	})

	t.Run("voting cannot open in a closed room", func(t *testing.T) {
		open := true
		_, err := svc.Update(ctx, creator.ID, room.ID, RoomPatch{VotingOpen: &open})
		require.ErrorIs(t, err, ErrRoomClosed)
	})
}

func TestRoomDetailVisibility(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := newRoomService(st)
	ctx := context.Background()

	creator := mustCreateUser(t, st, "Alice", "alice@example.com")
	bob := mustCreateUser(t, st, "Bob", "bob@example.com")
	room := mustCreateRoom(t, st, creator.ID, false)
	mustJoin(t, st, room, bob.ID)

	option := mustSubmitOption(t, st, room.ID, creator.ID, "Pizza")

	open := true
	_, err := svc.Update(ctx, creator.ID, room.ID, RoomPatch{VotingOpen: &open})
	require.NoError(t, err)

	votes := &VoteService{Store: st}
	_, err = votes.Cast(ctx, bob.ID, room.ID, option.ID)
	require.NoError(t, err)

	t.Run("non-participant cannot view", func(t *testing.T) {
		mallory := mustCreateUser(t, st, "Mallory", "mallory@example.com")
		_, err := svc.Get(ctx, mallory.ID, room.ID)
		require.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("ballots hidden while voting is open", func(t *testing.T) {
		detail, err := svc.Get(ctx, creator.ID, room.ID)
		require.NoError(t, err)
		require.Empty(t, detail.Votes)
		require.Nil(t, detail.UserVote)
		require.Len(t, detail.Options, 1)
		require.Len(t, detail.Participants, 2)
	})

	t.Run("voter sees own ballot", func(t *testing.T) {
		detail, err := svc.Get(ctx, bob.ID, room.ID)
		require.NoError(t, err)
		require.NotNil(t, detail.UserVote)
		require.Equal(t, option.ID, detail.UserVote.OptionID)
	})

	t.Run("ballots revealed once voting closes", func(t *testing.T) {
		closedVoting := false
		_, err := svc.Update(ctx, creator.ID, room.ID, RoomPatch{VotingOpen: &closedVoting})
		require.NoError(t, err)

		detail, err := svc.Get(ctx, creator.ID, room.ID)
		require.NoError(t, err)
		require.Len(t, detail.Votes, 1)
	})
}

func TestRoomDelete(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := newRoomService(st)
	ctx := context.Background()

	creator := mustCreateUser(t, st, "Alice", "alice@example.com")
	bob := mustCreateUser(t, st, "Bob", "bob@example.com")
	room := mustCreateRoom(t, st, creator.ID, false)
	mustJoin(t, st, room, bob.ID)
	option := mustSubmitOption(t, st, room.ID, creator.ID, "Pizza")

	t.Run("only creator may delete", func(t *testing.T) {
		require.ErrorIs(t, svc.Delete(ctx, bob.ID, room.ID), ErrNotCreator)
	})

	t.Run("delete cascades to options and membership", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, creator.ID, room.ID))

		_, err := st.Rooms().GetRoomByID(ctx, room.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.Options().GetOptionByID(ctx, option.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		ok, err := st.Rooms().IsParticipant(ctx, room.ID, bob.ID)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestRoomSweep(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := newRoomService(st)
	ctx := context.Background()

	creator := mustCreateUser(t, st, "Alice", "alice@example.com")
	idle := mustCreateRoom(t, st, creator.ID, true)
	active := mustCreateRoom(t, st, creator.ID, false)

	// Backdate the idle room past the inactivity window.
	stale := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, st.Rooms().TouchActivity(ctx, idle.ID, stale))

	closed, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, closed)

	got, err := st.Rooms().GetRoomByID(ctx, idle.ID)
	require.NoError(t, err)
	require.False(t, got.IsOpen)
	require.False(t, got.VotingOpen)

	got, err = st.Rooms().GetRoomByID(ctx, active.ID)
	require.NoError(t, err)
	require.True(t, got.IsOpen)

	t.Run("sweep is idempotent", func(t *testing.T) {
		closed, err := svc.Sweep(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 0, closed)
	})
}

func TestRoomPastList(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := newRoomService(st)
	ctx := context.Background()

	creator := mustCreateUser(t, st, "Alice", "alice@example.com")
	bob := mustCreateUser(t, st, "Bob", "bob@example.com")

	first := mustCreateRoom(t, st, creator.ID, false)
	pizza := mustSubmitOption(t, st, first.ID, creator.ID, "Pizza")
	require.NoError(t, st.Rooms().SetDecision(ctx, first.ID, pizza.ID, nil, time.Now().UTC().Add(-time.Hour)))

	second := mustCreateRoom(t, st, creator.ID, false)
	tacos := mustSubmitOption(t, st, second.ID, creator.ID, "Tacos")
	require.NoError(t, st.Rooms().SetDecision(ctx, second.ID, tacos.ID, nil, time.Now().UTC()))

	mustCreateRoom(t, st, creator.ID, false) // undecided, never listed

	t.Run("decided rooms newest first with winning text", func(t *testing.T) {
		past, err := svc.ListPast(ctx, creator.ID)
		require.NoError(t, err)
		require.Len(t, past, 2)
		require.Equal(t, second.ID, past[0].Room.ID)
		require.Equal(t, "Tacos", past[0].OptionText)
		require.Equal(t, first.ID, past[1].Room.ID)
		require.Equal(t, "Pizza", past[1].OptionText)
		require.False(t, past[0].Room.IsOpen)
	})

	t.Run("non-participant sees nothing", func(t *testing.T) {
		past, err := svc.ListPast(ctx, bob.ID)
		require.NoError(t, err)
		require.Empty(t, past)
	})
}
