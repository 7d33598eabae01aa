// internal/store/decisions.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrDecisionNotFound = errors.New("DECISION_NOT_FOUND")
)

const latestDecisionPrefix = "ic:decision:latest:"

func LatestDecisionKey(dealID string) string {
	return latestDecisionPrefix + dealID
}

// DecisionRecord is one persisted IC evaluation.
type DecisionRecord struct {
	ID                 string            `json:"id"`
	DealID             string            `json:"dealId"`
	ProcessInstanceKey int64             `json:"processInstanceKey,omitempty"`
	Decision           models.ICDecision `json:"decision"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// DecisionRepository appends decisions to postgres history and keeps the
// most recent one per deal in redis.
type DecisionRepository struct {
	db        *sql.DB
	redis     *redis.Client
	latestTTL time.Duration
	logger    logger.Logger
	now       func() time.Time
}

func NewDecisionRepository(db *sql.DB, redis *redis.Client, latestTTL time.Duration, log logger.Logger) *DecisionRepository {
	return &DecisionRepository{
		db:        db,
		redis:     redis,
		latestTTL: latestTTL,
		logger:    log.WithFields(map[string]interface{}{"component": "decision-repository"}),
		now:       time.Now,
	}
}

// Save assigns ID and CreatedAt when unset, inserts the row and refreshes the
// latest-decision cache. Cache failures are logged, not returned.
func (r *DecisionRepository) Save(ctx context.Context, rec *DecisionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}

	payload, err := json.Marshal(rec.Decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ic_decisions (id, deal_id, decision, ic_score, confidence, payload, process_instance_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.DealID, rec.Decision.Decision, rec.Decision.ICScore, rec.Decision.Confidence,
		payload, rec.ProcessInstanceKey, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert decision for deal %s: %w", rec.DealID, err)
	}

	if r.redis != nil {
		data, _ := json.Marshal(rec)
		if err := r.redis.Set(ctx, LatestDecisionKey(rec.DealID), data, r.latestTTL).Err(); err != nil {
			r.logger.Warn("failed to cache latest decision", map[string]interface{}{
				"dealId": rec.DealID,
				"error":  err.Error(),
			})
		}
	}
	return nil
}

// Latest returns the newest decision for a deal.
func (r *DecisionRepository) Latest(ctx context.Context, dealID string) (*DecisionRecord, error) {
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, LatestDecisionKey(dealID)).Result(); err == nil {
			var rec DecisionRecord
			if err := json.Unmarshal([]byte(val), &rec); err == nil {
				return &rec, nil
			}
		}
	}

	rec := DecisionRecord{DealID: dealID}
	var (
		payload     []byte
		instanceKey sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, payload, process_instance_key, created_at FROM ic_decisions
		WHERE deal_id = $1 ORDER BY created_at DESC LIMIT 1`, dealID).
		Scan(&rec.ID, &payload, &instanceKey, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDecisionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest decision %s: %w", dealID, err)
	}
	if err := json.Unmarshal(payload, &rec.Decision); err != nil {
		return nil, fmt.Errorf("decode decision %s: %w", rec.ID, err)
	}
	rec.ProcessInstanceKey = instanceKey.Int64
	return &rec, nil
}
