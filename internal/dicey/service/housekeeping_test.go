package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingRemovesExpiredPendingUsers(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.PendingUsers().UpsertPendingUser(ctx, domain.PendingUser{
		ID:        "fresh",
		Name:      "Fresh",
		Email:     "fresh@example.com",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}))
	require.NoError(t, st.PendingUsers().UpsertPendingUser(ctx, domain.PendingUser{
		ID:        "stale",
		Name:      "Stale",
		Email:     "stale@example.com",
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-25 * time.Hour),
	}))

	svc := NewHousekeepingService(st, slog.Default(), time.Hour)
	svc.Start()
	svc.Stop()

	_, err := st.PendingUsers().GetPendingUserByEmail(ctx, "stale@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.PendingUsers().GetPendingUserByEmail(ctx, "fresh@example.com")
	require.NoError(t, err)
}
