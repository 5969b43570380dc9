package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (s *Store) CreateSession(ctx context.Context, sess AdminSession) error {
	_, err := s.db.Exec(ctx, `
    INSERT INTO admin_sessions (id, user_id, email, access_token, refresh_token, expires_at)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, sess.ID, sess.UserID, sess.Email, sess.AccessToken, sess.RefreshToken, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (AdminSession, error) {
	var sess AdminSession
	err := s.db.QueryRow(ctx, `
    SELECT id, user_id, email, access_token, refresh_token, expires_at
    FROM admin_sessions
    WHERE id = $1
  `, id).Scan(&sess.ID, &sess.UserID, &sess.Email, &sess.AccessToken, &sess.RefreshToken, &sess.ExpiresAt)
	if err != nil {
		return AdminSession{}, wrap("get session", err)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id)
	return err
}

// PurgeExpiredSessions deletes sessions past expires_at and returns how many went.
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
