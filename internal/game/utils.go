package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/cache"
	"github.com/jason-s-yu/dutch/internal/models"
)

// ActionRecorder accepts audit records for accepted commands.
type ActionRecorder interface {
	Publish(ctx context.Context, record cache.GameActionRecord) error
}

// logAction hands an accepted command to the recorder without blocking the session.
// Must be called with the lock held.
func (s *GameSession) logAction(actorID uuid.UUID, action models.GameAction) {
	s.actionIndex++
	if s.Recorder == nil {
		return
	}
	payload := action.Payload
	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["room"] = s.Room
	record := cache.GameActionRecord{
		GameID:        s.ID,
		ActionIndex:   s.actionIndex,
		ActorUserID:   actorID,
		ActionType:    action.ActionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	recorder := s.Recorder
	log := s.log
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := recorder.Publish(ctx, rec); err != nil {
			log.WithError(err).WithField("action_index", rec.ActionIndex).Warn("failed to record game action")
		}
	}(record)
}

// resultsPayload summarises every hand for the round_end record.
func (s *GameSession) resultsPayload() []interface{} {
	results := make([]interface{}, 0, len(s.Players))
	for _, p := range s.Players {
		round := 0
		if p.RoundScore != nil {
			round = *p.RoundScore
		}
		results = append(results, map[string]interface{}{
			"player_id":   p.ID.String(),
			"name":        p.Name,
			"round_score": round,
			"total_score": p.TotalScore,
		})
	}
	return results
}
