package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/kinobot/internal/domain"
)

// RequestStore persists completed recommendation requests. Rows are
// append-only; there is no update path.
type RequestStore struct {
	db *DB
}

// NewRequestStore creates a request store using the given database.
func NewRequestStore(db *DB) *RequestStore {
	return &RequestStore{db: db}
}

// RecordRequest inserts a completed request. A zero ID or timestamp is
// filled in.
func (s *RequestStore) RecordRequest(ctx context.Context, req domain.RecommendationRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}

	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO recommendations
		   (id, user_id, genres, years, keywords, model_response, film1, film2, film3, requested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.Key.String(), req.Genres, req.Years, req.Keywords, req.ModelResponse,
		nullable(req.Titles[0]), nullable(req.Titles[1]), nullable(req.Titles[2]),
		req.RequestedAt.Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("recording request for %s: %w", req.Key, err)
	}
	return nil
}

// RecentRequests returns the most recent requests, newest first. A limit
// of 0 defaults to 20.
func (s *RequestStore) RecentRequests(ctx context.Context, limit int) ([]domain.RecommendationRequest, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, user_id, genres, years, keywords, model_response, film1, film2, film3, requested_at
		 FROM recommendations ORDER BY requested_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.RecommendationRequest
	for rows.Next() {
		var req domain.RecommendationRequest
		var userID, requestedAt string
		var films [3]sql.NullString

		if err := rows.Scan(
			&req.ID, &userID, &req.Genres, &req.Years, &req.Keywords, &req.ModelResponse,
			&films[0], &films[1], &films[2], &requestedAt,
		); err != nil {
			continue
		}
		req.Key = parseUserKey(userID)
		for i, f := range films {
			if f.Valid {
				req.Titles[i] = f.String
			}
		}
		req.RequestedAt, _ = time.Parse(time.DateTime, requestedAt)
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// CountRequests returns the total number of stored requests.
func (s *RequestStore) CountRequests(ctx context.Context) (int, error) {
	var n int
	err := s.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM recommendations`).Scan(&n)
	return n, err
}

// nullable maps an empty title slot to NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// parseUserKey splits a stored "channel:user" identifier.
func parseUserKey(s string) domain.UserKey {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return domain.UserKey{ChannelID: s[:i], UserID: s[i+1:]}
		}
	}
	return domain.UserKey{UserID: s}
}
