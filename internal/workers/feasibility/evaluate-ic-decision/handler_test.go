package evaluateicdecision

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	commonerrors "deal-compass-workers/internal/common/errors"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/engine/pipeline"
	"deal-compass-workers/internal/models"
	"deal-compass-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const (
	testDealID      = "deal-cdmx-001"
	testInstanceKey = int64(2251799813685249)
)

var dealColumns = []string{
	"id", "name", "city", "state", "address", "latitude", "longitude", "segment", "rooms_min", "rooms_max",
	"opening_type", "stage", "qualification_score", "location_score", "risk_score",
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestDeal() models.DealSnapshot {
	return models.DealSnapshot{
		ID:                 testDealID,
		Name:               "Hotel Reforma",
		City:               "Ciudad de México",
		State:              "CDMX",
		Address:            "Paseo de la Reforma 250",
		Latitude:           floatPtr(19.4270),
		Longitude:          floatPtr(-99.1677),
		Segment:            "upscale",
		RoomsMin:           150,
		RoomsMax:           150,
		OpeningType:        models.OpeningConversion,
		Stage:              "loi",
		QualificationScore: 70,
		LocationScore:      floatPtr(22),
		RiskScore:          floatPtr(5),
	}
}

func createTestInputs() models.FeasibilityInputs {
	return models.FeasibilityInputs{
		Rooms:           150,
		OpeningType:     models.OpeningConversion,
		ADR:             4200,
		Occupancy:       0.70,
		RampUpYears:     2,
		CapexPerKey:     2_400_000,
		FFEPerKey:       450_000,
		BaseFee:         0.03,
		IncentiveFee:    0.08,
		RoyaltyPct:      0.045,
		FnBRevenuePct:   0.25,
		OtherRevenuePct: 0.06,
		GOPMargin:       0.40,
		FXRate:          17.5,
		CapRate:         0.08,
	}
}

func createTestInput() *Input {
	deal := createTestDeal()
	inputs := createTestInputs()
	return &Input{
		DealID:             testDealID,
		Deal:               &deal,
		Inputs:             &inputs,
		ContractType:       models.ContractManagement,
		ContactCount:       intPtr(1),
		ProcessInstanceKey: testInstanceKey,
	}
}

func dealRow(d models.DealSnapshot) *sqlmock.Rows {
	return sqlmock.NewRows(dealColumns).AddRow(
		d.ID, d.Name, d.City, d.State, d.Address, *d.Latitude, *d.Longitude, d.Segment, d.RoomsMin, d.RoomsMax,
		d.OpeningType, d.Stage, d.QualificationScore, *d.LocationScore, *d.RiskScore,
	)
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

type testEnv struct {
	handler *Handler
	mock    sqlmock.Sqlmock
	mr      *miniredis.Miniredis
}

func setupTestEnv(t *testing.T) *testEnv {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := &testLogger{t: t}
	deals := store.NewDealRepository(db, rdb, 15*time.Minute, log)
	decisions := store.NewDecisionRepository(db, rdb, 24*time.Hour, log)

	return &testEnv{
		handler: NewHandler(createTestConfig(), pipeline.NewRunner(nil), deals, decisions, nil, log),
		mock:    mock,
		mr:      mr,
	}
}

var latestColumns = []string{"id", "payload", "process_instance_key", "created_at"}

func expectNoPrevious(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM ic_decisions`).
		WithArgs(testDealID).
		WillReturnRows(sqlmock.NewRows(latestColumns))
}

func expectInsert(mock sqlmock.Sqlmock, decision string, score int) {
	expectNoPrevious(mock)
	mock.ExpectExec(`INSERT INTO ic_decisions`).
		WithArgs(sqlmock.AnyArg(), testDealID, decision, score, sqlmock.AnyArg(), sqlmock.AnyArg(), testInstanceKey, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		modify         func(in *Input)
		setupMock      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:   "all facts supplied in variables",
			modify: func(in *Input) {},
			setupMock: func(mock sqlmock.Sqlmock) {
				expectInsert(mock, models.DecisionGo, 94)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.DecisionGo, output.Decision)
				assert.Equal(t, 94, output.ICScore)
				assert.Equal(t, 95, output.DataCompleteness)
				assert.Equal(t, "Hotel Reforma", output.DealName)
				assert.Equal(t, "upscale", output.ICDecision.Segment)
				assert.Greater(t, output.YieldOnCost, 0.0)
				assert.NotEmpty(t, output.ICDecision.Narrative)
			},
		},
		{
			name: "deal, inputs and contacts loaded from the store",
			modify: func(in *Input) {
				in.Deal = nil
				in.Inputs = nil
				in.ContactCount = nil
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				payload, _ := json.Marshal(createTestInputs())
				mock.ExpectQuery(`FROM deals WHERE id = \$1`).
					WithArgs(testDealID).
					WillReturnRows(dealRow(createTestDeal()))
				mock.ExpectQuery(`SELECT inputs FROM deal_feasibility_inputs`).
					WithArgs(testDealID).
					WillReturnRows(sqlmock.NewRows([]string{"inputs"}).AddRow(payload))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM deal_contacts`).
					WithArgs(testDealID).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
				expectInsert(mock, models.DecisionGo, 94)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.DecisionGo, output.Decision)
				assert.Equal(t, 94, output.ICScore)
				assert.Equal(t, "Ciudad de México", output.City)
			},
		},
		{
			name: "no feasibility inputs on record",
			modify: func(in *Input) {
				in.Inputs = nil
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT inputs FROM deal_feasibility_inputs`).
					WithArgs(testDealID).
					WillReturnRows(sqlmock.NewRows([]string{"inputs"}))
				expectNoPrevious(mock)
				mock.ExpectExec(`INSERT INTO ic_decisions`).WillReturnResult(sqlmock.NewResult(1, 1))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 65, output.DataCompleteness)
				assert.NotEqual(t, models.DecisionGo, output.Decision)
			},
		},
		{
			name: "zero rooms passes validation and is scored as missing data",
			modify: func(in *Input) {
				in.Inputs = &models.FeasibilityInputs{}
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				expectNoPrevious(mock)
				mock.ExpectExec(`INSERT INTO ic_decisions`).WillReturnResult(sqlmock.NewResult(1, 1))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 65, output.DataCompleteness)
				assert.NotEqual(t, models.DecisionGo, output.Decision)
			},
		},
		{
			name: "partial threshold override keeps the other defaults",
			modify: func(in *Input) {
				in.Thresholds = json.RawMessage(`{"goScore": 99}`)
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				expectInsert(mock, models.DecisionGoWithConditions, 94)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.DecisionGoWithConditions, output.Decision)
				assert.True(t, output.ICDecision.GatesPassed())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			tt.setupMock(env.mock)

			output, err := env.handler.Execute(context.Background(), createModified(tt.modify))

			require.NoError(t, err)
			require.NotNil(t, output)
			assert.NotEmpty(t, output.DecisionID)
			assert.Equal(t, testDealID, output.DealID)
			_, err = time.Parse(time.RFC3339, output.DecidedAt)
			assert.NoError(t, err)
			assert.True(t, env.mr.Exists(store.LatestDecisionKey(testDealID)), "latest decision cached")
			tt.validateOutput(t, output)
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func createModified(modify func(in *Input)) *Input {
	in := createTestInput()
	modify(in)
	return in
}

func TestHandler_Execute_CachedDealSkipsDatabase(t *testing.T) {
	env := setupTestEnv(t)
	deal := createTestDeal()
	data, _ := json.Marshal(deal)
	require.NoError(t, env.mr.Set(store.DealCacheKey(testDealID), string(data)))
	expectInsert(env.mock, models.DecisionGo, 94)

	input := createTestInput()
	input.Deal = nil

	output, err := env.handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "Hotel Reforma", output.DealName)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandler_Execute_RefreshCacheReloadsDeal(t *testing.T) {
	env := setupTestEnv(t)
	stale := createTestDeal()
	stale.Name = "Hotel Reforma (old name)"
	data, _ := json.Marshal(stale)
	require.NoError(t, env.mr.Set(store.DealCacheKey(testDealID), string(data)))

	env.mock.ExpectQuery(`FROM deals WHERE id = \$1`).
		WithArgs(testDealID).
		WillReturnRows(dealRow(createTestDeal()))
	expectInsert(env.mock, models.DecisionGo, 94)

	input := createTestInput()
	input.Deal = nil
	input.RefreshCache = true

	output, err := env.handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "Hotel Reforma", output.DealName)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandler_Execute_PreviousDecision(t *testing.T) {
	tests := []struct {
		name            string
		previous        string
		expectedChanged bool
	}{
		{name: "decision unchanged", previous: models.DecisionGo, expectedChanged: false},
		{name: "decision upgraded", previous: models.DecisionGoWithConditions, expectedChanged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			prev := store.DecisionRecord{
				ID:        "dec-prev",
				DealID:    testDealID,
				Decision:  models.ICDecision{Decision: tt.previous, ICScore: 70},
				CreatedAt: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
			}
			data, _ := json.Marshal(prev)
			require.NoError(t, env.mr.Set(store.LatestDecisionKey(testDealID), string(data)))
			env.mock.ExpectExec(`INSERT INTO ic_decisions`).WillReturnResult(sqlmock.NewResult(1, 1))

			output, err := env.handler.Execute(context.Background(), createTestInput())

			require.NoError(t, err)
			assert.Equal(t, tt.previous, output.PreviousDecision)
			assert.Equal(t, tt.expectedChanged, output.DecisionChanged)
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_PreviousDecisionLookupFailureIsIgnored(t *testing.T) {
	env := setupTestEnv(t)
	env.mock.ExpectQuery(`FROM ic_decisions`).WithArgs(testDealID).WillReturnError(errors.New("connection reset by peer"))
	env.mock.ExpectExec(`INSERT INTO ic_decisions`).WillReturnResult(sqlmock.NewResult(1, 1))

	output, err := env.handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Empty(t, output.PreviousDecision)
	assert.False(t, output.DecisionChanged)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(in *Input)
		setupMock     func(mock sqlmock.Sqlmock)
		expectedCode  commonerrors.ErrorCode
		expectedRetry bool
	}{
		{
			name:         "missing deal id",
			modify:       func(in *Input) { in.DealID = "" },
			setupMock:    func(sqlmock.Sqlmock) {},
			expectedCode: commonerrors.ErrCodeInvalidFeasibilityInput,
		},
		{
			name:         "invalid thresholds",
			modify:       func(in *Input) { in.Thresholds = json.RawMessage(`{"goScore": 40, "noGoScore": 60}`) },
			setupMock:    func(sqlmock.Sqlmock) {},
			expectedCode: commonerrors.ErrCodeInvalidFeasibilityInput,
		},
		{
			name:   "deal not found",
			modify: func(in *Input) { in.Deal = nil },
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM deals WHERE id = \$1`).WithArgs(testDealID).WillReturnRows(sqlmock.NewRows(dealColumns))
			},
			expectedCode: commonerrors.ErrCodeDealNotFound,
		},
		{
			name:   "deal lookup fails",
			modify: func(in *Input) { in.Deal = nil },
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM deals WHERE id = \$1`).WithArgs(testDealID).WillReturnError(errors.New("connection reset by peer"))
			},
			expectedCode:  commonerrors.ErrCodeDealLookupFailed,
			expectedRetry: true,
		},
		{
			name:   "contact count fails",
			modify: func(in *Input) { in.ContactCount = nil },
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM deal_contacts`).WithArgs(testDealID).WillReturnError(context.DeadlineExceeded)
			},
			expectedCode:  commonerrors.ErrCodeQueryTimeout,
			expectedRetry: true,
		},
		{
			name:   "decision insert fails",
			modify: func(in *Input) {},
			setupMock: func(mock sqlmock.Sqlmock) {
				expectNoPrevious(mock)
				mock.ExpectExec(`INSERT INTO ic_decisions`).WillReturnError(errors.New("disk full"))
			},
			expectedCode:  commonerrors.ErrCodeDecisionPersistFailed,
			expectedRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			tt.setupMock(env.mock)

			output, err := env.handler.Execute(context.Background(), createModified(tt.modify))

			require.Error(t, err)
			assert.Nil(t, output)
			stdErr, ok := commonerrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.Equal(t, tt.expectedRetry, stdErr.Retryable)
			assert.False(t, env.mr.Exists(store.LatestDecisionKey(testDealID)))
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}
