package services

import (
	"context"
	"fmt"

	"food-chat/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Sessions struct {
	pool *pgxpool.Pool
}

func NewSessions(pool *pgxpool.Pool) *Sessions {
	return &Sessions{pool: pool}
}

// GetOrCreate returns the session for a device, creating it in main_menu on
// first contact. A single upsert keeps concurrent first contacts from ever
// producing two rows: the loser of the insert race lands on the DO UPDATE
// branch, which doubles as the activity refresh for existing sessions.
func (s *Sessions) GetOrCreate(ctx context.Context, deviceID string) (*models.Session, error) {
	var sess models.Session
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (device_id) VALUES ($1)
		ON CONFLICT (device_id) DO UPDATE SET last_activity = now()
		RETURNING device_id, current_state, created_at, last_activity`,
		deviceID,
	).Scan(&sess.DeviceID, &sess.State, &sess.CreatedAt, &sess.LastActivity)
	if err != nil {
		return nil, fmt.Errorf("get or create session: %w", err)
	}
	return &sess, nil
}

// SetState overwrites the session state and refreshes activity.
func (s *Sessions) SetState(ctx context.Context, deviceID, state string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET current_state = $1, last_activity = now()
		WHERE device_id = $2`,
		state, deviceID,
	)
	if err != nil {
		return fmt.Errorf("set session state: %w", err)
	}
	return nil
}
