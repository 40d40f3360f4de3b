package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/proofid/proofid/internal/database"
	"github.com/proofid/proofid/internal/model"
)

// EventRepository handles user event persistence
type EventRepository struct {
	db *database.Postgres
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *database.Postgres) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new user event
func (r *EventRepository) Create(ctx context.Context, event *model.UserEvent) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal event metadata: %w", err)
		}
	}

	query := `
		INSERT INTO user_events (id, user_id, action, ip_address, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.Action,
		event.IPAddress,
		event.UserAgent,
		metadata,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user event: %w", err)
	}
	return nil
}

// ListByUser retrieves the most recent events for a user
func (r *EventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.UserEvent, error) {
	query := `
		SELECT id, user_id, action, ip_address, user_agent, metadata, created_at
		FROM user_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query user events: %w", err)
	}
	defer rows.Close()

	var events []*model.UserEvent
	for rows.Next() {
		var e model.UserEvent
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.IPAddress, &e.UserAgent, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user event: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
			}
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
