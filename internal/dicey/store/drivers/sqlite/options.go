package sqlite

import (
	"context"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
)

type optionsRepo struct {
	q querier
}

func (r *optionsRepo) CreateOption(ctx context.Context, o domain.Option) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO options (id, room_id, text, submitted_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.RoomID, o.Text, o.SubmittedBy, o.CreatedAt, o.UpdatedAt)
	return mapConflict(err)
}

func (r *optionsRepo) GetOptionByID(ctx context.Context, id string) (domain.Option, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT o.id, o.room_id, o.text, o.submitted_by, u.name, o.created_at, o.updated_at
		 FROM options o
		 JOIN users u ON u.id = o.submitted_by
		 WHERE o.id = ?`, id)

	var o domain.Option
	err := row.Scan(&o.ID, &o.RoomID, &o.Text, &o.SubmittedBy, &o.SubmitterName,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Option{}, mapNotFound(err)
	}
	return o, nil
}

func (r *optionsRepo) ListOptionsByRoom(ctx context.Context, roomID string) ([]domain.Option, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT o.id, o.room_id, o.text, o.submitted_by, u.name, o.created_at, o.updated_at
		 FROM options o
		 JOIN users u ON u.id = o.submitted_by
		 WHERE o.room_id = ?
		 ORDER BY o.created_at`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Option
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.RoomID, &o.Text, &o.SubmittedBy,
			&o.SubmitterName, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *optionsRepo) UpdateOptionText(ctx context.Context, optionID, text string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE options SET text = ?, updated_at = ? WHERE id = ?`,
		text, time.Now().UTC(), optionID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *optionsRepo) DeleteOption(ctx context.Context, optionID string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM options WHERE id = ?`, optionID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
