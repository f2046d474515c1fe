package sqlite

import (
	"context"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
)

type votesRepo struct {
	q querier
}

func (r *votesRepo) UpsertVote(ctx context.Context, v domain.Vote) error {
	// The (room_id, user_id) unique constraint makes concurrent re-votes
	// settle on a single row; updated_at records the latest change of mind.
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO votes (id, room_id, option_id, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (room_id, user_id) DO UPDATE SET
		    option_id = excluded.option_id,
		    updated_at = excluded.updated_at`,
		v.ID, v.RoomID, v.OptionID, v.UserID, v.CreatedAt, v.UpdatedAt)
	return err
}

func (r *votesRepo) GetVoteByRoomAndUser(ctx context.Context, roomID, userID string) (domain.Vote, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, room_id, option_id, user_id, created_at, updated_at
		 FROM votes WHERE room_id = ? AND user_id = ?`, roomID, userID)

	var v domain.Vote
	err := row.Scan(&v.ID, &v.RoomID, &v.OptionID, &v.UserID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Vote{}, mapNotFound(err)
	}
	return v, nil
}

func (r *votesRepo) ListVotesByRoom(ctx context.Context, roomID string) ([]domain.Vote, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, room_id, option_id, user_id, created_at, updated_at
		 FROM votes WHERE room_id = ? ORDER BY created_at`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.ID, &v.RoomID, &v.OptionID, &v.UserID,
			&v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *votesRepo) TallyByRoom(ctx context.Context, roomID string) (domain.Tally, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT option_id, COUNT(1) FROM votes WHERE room_id = ? GROUP BY option_id`,
		roomID)
	if err != nil {
		return domain.Tally{}, err
	}
	defer rows.Close()

	tally := domain.Tally{Counts: make(map[string]int)}
	for rows.Next() {
		var (
			optionID string
			n        int
		)
		if err := rows.Scan(&optionID, &n); err != nil {
			return domain.Tally{}, err
		}
		tally.Counts[optionID] = n
		tally.TotalVotes += n
	}
	return tally, rows.Err()
}
