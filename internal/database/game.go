// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/inkwell/internal/cache"
)

// Game statuses stored in games.status.
const (
	GameStatusInProgress = "in_progress"
	GameStatusCompleted  = "completed"
	GameStatusAbandoned  = "abandoned"
)

// InsertGame records a newly created game. Existing rows are left untouched.
func InsertGame(ctx context.Context, gameID uuid.UUID, playerCount int, houseRules interface{}) error {
	rules, err := json.Marshal(houseRules)
	if err != nil {
		return fmt.Errorf("failed to marshal house rules: %w", err)
	}
	q := `
		INSERT INTO games (id, status, player_count, house_rules)
		VALUES ($1, 'in_progress', $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := DB.Exec(ctx, q, gameID, playerCount, rules); err != nil {
		return fmt.Errorf("failed to insert game %s: %w", gameID, err)
	}
	return nil
}

// MarkGameStatus moves an in-progress game to status and stamps its end time.
// It reports whether a row changed.
func MarkGameStatus(ctx context.Context, gameID uuid.UUID, status string) (bool, error) {
	q := `
		UPDATE games
		SET status = $2, end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	tag, err := DB.Exec(ctx, q, gameID, status)
	if err != nil {
		return false, fmt.Errorf("failed to mark game %s %s: %w", gameID, status, err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertGameActions persists a batch of action records in one transaction,
// upserting the owning game rows first. Duplicate action indexes are ignored.
func InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return fmt.Errorf("failed to marshal payload of action %d: %w", rec.ActionIndex, err)
			}
			batch.Queue(`
				INSERT INTO games (id, status) VALUES ($1, 'in_progress')
				ON CONFLICT (id) DO NOTHING`, rec.GameID)
			batch.Queue(`
				INSERT INTO game_actions (game_id, action_index, actor_user_id, action_type, action_payload)
				VALUES ($1, $2, NULLIF($3, '00000000-0000-0000-0000-000000000000'::uuid), $4, $5)
				ON CONFLICT (game_id, action_index) DO NOTHING`,
				rec.GameID, rec.ActionIndex, rec.ActorUserID, rec.ActionType, payload)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert %d actions: %w", len(records), err)
		}
		return nil
	})
}
