// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/dutch/internal/cache"
	"github.com/jason-s-yu/dutch/internal/models"
)

// RoundResult is one player's line of a finished round.
type RoundResult struct {
	PlayerID   uuid.UUID
	Name       string
	RoundScore int
	TotalScore int
}

// Store writes the action audit trail.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertActions persists a batch of action records in a single transaction. Records already
// stored are skipped, so a redelivered batch is harmless. A round_end record also writes the
// round's results.
func (s *Store) InsertActions(ctx context.Context, records []cache.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.GameID, rec.ActionIndex, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert actions: %w", err)
	}
	return nil
}

// RecordRoundResults writes the results of one round on its own.
func (s *Store) RecordRoundResults(ctx context.Context, gameID uuid.UUID, roundIndex int, results []RoundResult) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return insertRoundResultsTx(ctx, tx, gameID, roundIndex, results)
	})
	if err != nil {
		return fmt.Errorf("tx record round results: %w", err)
	}
	return nil
}

// MarkInactive closes a game that has produced no actions for a while.
func (s *Store) MarkInactive(ctx context.Context, gameID uuid.UUID) error {
	q := `
		UPDATE games
		SET status = 'inactive', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	if _, err := s.pool.Exec(ctx, q, gameID); err != nil {
		return fmt.Errorf("mark game %s inactive: %w", gameID, err)
	}
	return nil
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec cache.GameActionRecord) error {
	room, _ := rec.ActionPayload["room"].(string)
	upsertGameQ := `
		INSERT INTO games (id, room, status, start_time, last_action)
		VALUES ($1, $2, 'in_progress', NOW(), NOW())
		ON CONFLICT (id)
		DO UPDATE SET status = 'in_progress', last_action = NOW(), end_time = NULL
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID, room); err != nil {
		return err
	}

	jsonPayload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	var actor *uuid.UUID
	if rec.ActorUserID != uuid.Nil {
		actor = &rec.ActorUserID
	}
	actionInsertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_user_id, action_type, action_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, actor, rec.ActionType, jsonPayload, time.UnixMilli(rec.Timestamp),
	); err != nil {
		return err
	}

	if rec.ActionType == models.ActionRoundEnd {
		results, err := ParseRoundResults(rec.ActionPayload)
		if err != nil {
			return err
		}
		return insertRoundResultsTx(ctx, tx, rec.GameID, rec.ActionIndex, results)
	}
	return nil
}

func insertRoundResultsTx(ctx context.Context, tx pgx.Tx, gameID uuid.UUID, roundIndex int, results []RoundResult) error {
	q := `
		INSERT INTO round_results (game_id, round_index, player_id, name, round_score, total_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, round_index, player_id)
		DO UPDATE SET round_score = $5, total_score = $6
	`
	for _, r := range results {
		if _, err := tx.Exec(ctx, q, gameID, roundIndex, r.PlayerID, r.Name, r.RoundScore, r.TotalScore); err != nil {
			return err
		}
	}
	return nil
}

// ParseRoundResults reads the "results" list of a round_end payload as it arrives off the
// queue (numbers decoded as float64).
func ParseRoundResults(payload map[string]interface{}) ([]RoundResult, error) {
	raw, ok := payload["results"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("round_end payload has no results list")
	}
	out := make([]RoundResult, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("result %d: not an object", i)
		}
		idStr, _ := m["player_id"].(string)
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("result %d: player_id: %w", i, err)
		}
		name, _ := m["name"].(string)
		out = append(out, RoundResult{
			PlayerID:   id,
			Name:       name,
			RoundScore: toInt(m["round_score"]),
			TotalScore: toInt(m["total_score"]),
		})
	}
	return out, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
