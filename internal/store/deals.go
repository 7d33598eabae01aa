// internal/store/deals.go
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

	"github.com/redis/go-redis/v9"
)

var (
	ErrDealNotFound = errors.New("DEAL_NOT_FOUND")
)

const (
	dealCachePrefix   = "deal:snapshot:"
	inputsCachePrefix = "deal:inputs:"
)

func DealCacheKey(dealID string) string {
	return dealCachePrefix + dealID
}

func InputsCacheKey(dealID string) string {
	return inputsCachePrefix + dealID
}

// DealRepository reads deal snapshots from postgres with a redis read-through
// cache. redis may be nil.
type DealRepository struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewDealRepository(db *sql.DB, redis *redis.Client, cacheTTL time.Duration, log logger.Logger) *DealRepository {
	return &DealRepository{
		db:       db,
		redis:    redis,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "deal-repository"}),
	}
}

func (r *DealRepository) Get(ctx context.Context, dealID string) (*models.DealSnapshot, error) {
	var deal models.DealSnapshot
	if r.readCache(ctx, DealCacheKey(dealID), &deal) {
		return &deal, nil
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, city, state, address, latitude, longitude, segment, rooms_min, rooms_max,
		       opening_type, stage, qualification_score, location_score, risk_score
		FROM deals WHERE id = $1`, dealID)

	var (
		name, city, state, address, segment, openingType, stage sql.NullString
		lat, lng, qualification, location, risk                 sql.NullFloat64
		roomsMin, roomsMax                                      sql.NullInt64
	)
	err := row.Scan(&deal.ID, &name, &city, &state, &address, &lat, &lng, &segment,
		&roomsMin, &roomsMax, &openingType, &stage, &qualification, &location, &risk)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query deal %s: %w", dealID, err)
	}

	deal.Name = name.String
	deal.City = city.String
	deal.State = state.String
	deal.Address = address.String
	deal.Segment = segment.String
	deal.OpeningType = openingType.String
	deal.Stage = stage.String
	deal.RoomsMin = int(roomsMin.Int64)
	deal.RoomsMax = int(roomsMax.Int64)
	deal.QualificationScore = qualification.Float64
	deal.Latitude = nullableFloat(lat)
	deal.Longitude = nullableFloat(lng)
	deal.LocationScore = nullableFloat(location)
	deal.RiskScore = nullableFloat(risk)

	r.writeCache(ctx, DealCacheKey(dealID), deal)
	return &deal, nil
}

// FeasibilityInputs returns the latest saved assumptions for a deal, or nil
// when none have been entered.
func (r *DealRepository) FeasibilityInputs(ctx context.Context, dealID string) (*models.FeasibilityInputs, error) {
	var inputs models.FeasibilityInputs
	if r.readCache(ctx, InputsCacheKey(dealID), &inputs) {
		return &inputs, nil
	}

	var payload []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT inputs FROM deal_feasibility_inputs
		WHERE deal_id = $1 ORDER BY updated_at DESC LIMIT 1`, dealID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query feasibility inputs %s: %w", dealID, err)
	}
	if err := json.Unmarshal(payload, &inputs); err != nil {
		return nil, fmt.Errorf("decode feasibility inputs %s: %w", dealID, err)
	}

	r.writeCache(ctx, InputsCacheKey(dealID), inputs)
	return &inputs, nil
}

func (r *DealRepository) ContactCount(ctx context.Context, dealID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deal_contacts WHERE deal_id = $1`, dealID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count contacts %s: %w", dealID, err)
	}
	return count, nil
}

// Invalidate drops cached rows for a deal after it changes upstream.
func (r *DealRepository) Invalidate(ctx context.Context, dealID string) error {
	if r.redis == nil {
		return nil
	}
	return r.redis.Del(ctx, DealCacheKey(dealID), InputsCacheKey(dealID)).Err()
}

func (r *DealRepository) readCache(ctx context.Context, key string, dst interface{}) bool {
	if r.redis == nil {
		return false
	}
	val, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		r.logger.Warn("cache entry corrupt", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func (r *DealRepository) writeCache(ctx context.Context, key string, v interface{}) {
	if r.redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, data, r.cacheTTL).Err(); err != nil {
		r.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
