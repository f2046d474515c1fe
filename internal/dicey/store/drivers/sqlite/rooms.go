package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
)

type roomsRepo struct {
	q querier
}

const roomColumns = `id, code, title, description, creator_id, max_participants,
	is_open, voting_open, decided_option_id, tiebreaker, decided_at,
	last_activity, created_at, updated_at`

func (r *roomsRepo) CreateRoom(ctx context.Context, rm domain.Room) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO rooms (id, code, title, description, creator_id, max_participants,
		    is_open, voting_open, decided_option_id, tiebreaker, decided_at,
		    last_activity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rm.ID, rm.Code, rm.Title, rm.Description, rm.CreatorID,
		mapOptionalInt(rm.MaxParticipants), rm.IsOpen, rm.VotingOpen,
		mapOptionalString(rm.DecidedOptionID), mapOptionalString(rm.Tiebreaker),
		mapOptionalTime(rm.DecidedAt), rm.LastActivity, rm.CreatedAt, rm.UpdatedAt)
	return mapConflict(err)
}

func (r *roomsRepo) GetRoomByID(ctx context.Context, id string) (domain.Room, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

func (r *roomsRepo) GetRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE code = ?`, code)
	return scanRoom(row)
}

func (r *roomsRepo) ListRoomsForUser(ctx context.Context, userID string) ([]domain.Room, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT r.id, r.code, r.title, r.description, r.creator_id, r.max_participants,
		    r.is_open, r.voting_open, r.decided_option_id, r.tiebreaker, r.decided_at,
		    r.last_activity, r.created_at, r.updated_at
		 FROM rooms r
		 JOIN room_participants p ON p.room_id = r.id
		 WHERE p.user_id = ?
		 ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *roomsRepo) ListDecidedRoomsForUser(ctx context.Context, userID string) ([]domain.DecidedRoom, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT r.id, r.code, r.title, r.description, r.creator_id, r.max_participants,
		    r.is_open, r.voting_open, r.decided_option_id, r.tiebreaker, r.decided_at,
		    r.last_activity, r.created_at, r.updated_at, o.text
		 FROM rooms r
		 JOIN room_participants p ON p.room_id = r.id
		 JOIN options o ON o.id = r.decided_option_id
		 WHERE p.user_id = ? AND r.decided_option_id IS NOT NULL
		 ORDER BY r.decided_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DecidedRoom
	for rows.Next() {
		var (
			rm         domain.Room
			maxPart    sql.NullInt64
			decidedOpt sql.NullString
			tiebreaker sql.NullString
			decidedAt  sql.NullTime
			optionText string
		)
		err := rows.Scan(&rm.ID, &rm.Code, &rm.Title, &rm.Description, &rm.CreatorID,
			&maxPart, &rm.IsOpen, &rm.VotingOpen, &decidedOpt, &tiebreaker,
			&decidedAt, &rm.LastActivity, &rm.CreatedAt, &rm.UpdatedAt, &optionText)
		if err != nil {
			return nil, err
		}
		rm.MaxParticipants = mapNullIntPtr(maxPart)
		rm.DecidedOptionID = mapNullStringPtr(decidedOpt)
		rm.Tiebreaker = mapNullStringPtr(tiebreaker)
		rm.DecidedAt = mapNullTimePtr(decidedAt)
		out = append(out, domain.DecidedRoom{Room: rm, OptionText: optionText})
	}
	return out, rows.Err()
}

func (r *roomsRepo) UpdateRoom(ctx context.Context, rm domain.Room) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET title = ?, description = ?, max_participants = ?,
		    is_open = ?, voting_open = ?, updated_at = ?
		 WHERE id = ?`,
		rm.Title, rm.Description, mapOptionalInt(rm.MaxParticipants),
		rm.IsOpen, rm.VotingOpen, rm.UpdatedAt, rm.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *roomsRepo) SetDecision(ctx context.Context, roomID, optionID string, tiebreaker *string, decidedAt time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET decided_option_id = ?, tiebreaker = ?, decided_at = ?,
		    is_open = FALSE, voting_open = FALSE, updated_at = ?
		 WHERE id = ?`,
		optionID, mapOptionalString(tiebreaker), decidedAt, decidedAt, roomID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *roomsRepo) TouchActivity(ctx context.Context, roomID string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET last_activity = ? WHERE id = ?`, at, roomID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *roomsRepo) DeleteRoom(ctx context.Context, roomID string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *roomsRepo) CloseInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET is_open = FALSE, voting_open = FALSE, updated_at = ?
		 WHERE is_open = TRUE AND last_activity < ?`,
		time.Now().UTC(), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *roomsRepo) AddParticipant(ctx context.Context, roomID, userID string, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO room_participants (room_id, user_id, joined_at) VALUES (?, ?, ?)`,
		roomID, userID, at)
	return mapConflict(err)
}

func (r *roomsRepo) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM room_participants WHERE room_id = ? AND user_id = ?`,
		roomID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *roomsRepo) ListParticipants(ctx context.Context, roomID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT user_id FROM room_participants WHERE room_id = ? ORDER BY joined_at`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *roomsRepo) CountParticipants(ctx context.Context, roomID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM room_participants WHERE room_id = ?`, roomID).Scan(&n)
	return n, err
}

func scanRoom(row rowScanner) (domain.Room, error) {
	var (
		rm         domain.Room
		maxPart    sql.NullInt64
		decidedOpt sql.NullString
		tiebreaker sql.NullString
		decidedAt  sql.NullTime
	)
	err := row.Scan(&rm.ID, &rm.Code, &rm.Title, &rm.Description, &rm.CreatorID,
		&maxPart, &rm.IsOpen, &rm.VotingOpen, &decidedOpt, &tiebreaker,
		&decidedAt, &rm.LastActivity, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return domain.Room{}, mapNotFound(err)
	}

	rm.MaxParticipants = mapNullIntPtr(maxPart)
	rm.DecidedOptionID = mapNullStringPtr(decidedOpt)
	rm.Tiebreaker = mapNullStringPtr(tiebreaker)
	rm.DecidedAt = mapNullTimePtr(decidedAt)
	return rm, nil
}
