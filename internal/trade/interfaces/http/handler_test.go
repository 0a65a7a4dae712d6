package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authapp "github.com/wyfcoding/tradelifecycle/internal/auth/application"
	authdomain "github.com/wyfcoding/tradelifecycle/internal/auth/domain"
	"github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/directory"
	authmysql "github.com/wyfcoding/tradelifecycle/internal/auth/infrastructure/persistence/mysql"
	refapp "github.com/wyfcoding/tradelifecycle/internal/referencedata/application"
	refdomain "github.com/wyfcoding/tradelifecycle/internal/referencedata/domain"
	refmysql "github.com/wyfcoding/tradelifecycle/internal/referencedata/infrastructure/persistence/mysql"
	"github.com/wyfcoding/tradelifecycle/internal/trade/application"
	"github.com/wyfcoding/tradelifecycle/internal/trade/domain"
	"github.com/wyfcoding/tradelifecycle/internal/trade/infrastructure/messaging"
	trademysql "github.com/wyfcoding/tradelifecycle/internal/trade/infrastructure/persistence/mysql"
	"github.com/wyfcoding/tradelifecycle/pkg/db"
	"github.com/wyfcoding/tradelifecycle/pkg/middleware"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details *ErrorDetails   `json:"details"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	d, err := db.Init(ctx, db.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, refmysql.AutoMigrate(d.DB))
	require.NoError(t, authmysql.AutoMigrate(d.DB))
	require.NoError(t, trademysql.AutoMigrate(d.DB))
	require.NoError(t, messaging.AutoMigrate(d.DB))
	t.Cleanup(func() { _ = d.Close() })

	refs := refapp.NewReferenceService(refmysql.NewReferenceRepository(d.DB), nil, nil, nil)
	require.NoError(t, refs.Seed(ctx, refapp.DefaultSeed()))
	require.NoError(t, refs.SaveUser(ctx, &refdomain.User{LoginID: "ghost", Role: "TRADER", Active: false}))

	authz := authapp.NewAuthorizationService(directory.NewReferenceUserDirectory(refs), authmysql.NewPrivilegeRepository(d.DB), nil, nil, nil)
	require.NoError(t, authz.SeedPrivileges(ctx, authdomain.DefaultGrants()))

	now := func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }
	svc := application.NewTradeService(application.Dependencies{
		Repo:       trademysql.NewTradeRepository(d.DB),
		Resolver:   refs,
		Authorizer: authz,
		Publisher:  messaging.NewOutboxEventPublisher(d.DB, now),
	}, application.Settings{Now: now})

	r := gin.New()
	r.Use(middleware.AuthMiddleware(middleware.AuthConfig{Enabled: false}))
	NewTradeHandler(svc).RegisterRoutes(&r.RouterGroup)
	return r
}

func do(t *testing.T, r *gin.Engine, user, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func swapRequest() map[string]any {
	return map[string]any{
		"tradeDate":     "2026-10-12",
		"startDate":     "2026-10-12",
		"maturityDate":  "2027-10-12",
		"executionDate": "2026-10-12",
		"utiCode":       "UTI-HTTP-1",
		"book":          map[string]any{"name": "RATES-BOOK-1"},
		"counterparty":  map[string]any{"name": "BigBank"},
		"trader":        map[string]any{"name": "trader1"},
		"tradeType":     map[string]any{"name": "Swap"},
		"tradeSubType":  map[string]any{"name": "IRS"},
		"legs": []map[string]any{
			{
				"notional":                     "10000000",
				"rate":                         "3.5",
				"currency":                     map[string]any{"name": "USD"},
				"legRateType":                  map[string]any{"name": "Fixed"},
				"calculationSchedule":          map[string]any{"name": "Quarterly"},
				"paymentBusinessDayConvention": map[string]any{"name": "ModifiedFollowing"},
				"payReceive":                   map[string]any{"name": "Pay"},
			},
			{
				"notional":            "10000000",
				"currency":            map[string]any{"name": "USD"},
				"legRateType":         map[string]any{"name": "Floating"},
				"index":               map[string]any{"name": "SOFR"},
				"calculationSchedule": map[string]any{"name": "Quarterly"},
				"payReceive":          map[string]any{"name": "Receive"},
			},
		},
	}
}

func decodeTrade(t *testing.T, env envelope) domain.Trade {
	t.Helper()
	var trade domain.Trade
	require.NoError(t, json.Unmarshal(env.Data, &trade))
	return trade
}

func TestTradeLifecycle(t *testing.T) {
	r := newRouter(t)

	code, env := do(t, r, "trader1", http.MethodPost, "/api/v1/trades", swapRequest())
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decodeTrade(t, env)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, domain.StatusNew, created.Status.Name)
	assert.Equal(t, "trader1", created.Inputter.Name)
	require.Len(t, created.Legs, 2)
	assert.Len(t, created.Legs[0].Cashflows, 4)
	path := "/api/v1/trades/" + strconv.FormatInt(created.TradeID, 10)

	code, env = do(t, r, "", http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created.TradeID, decodeTrade(t, env).TradeID)

	amend := swapRequest()
	amend["utiCode"] = "UTI-HTTP-2"
	code, env = do(t, r, "trader1", http.MethodPut, path, amend)
	require.Equal(t, http.StatusOK, code, env.Message)
	amended := decodeTrade(t, env)
	assert.Equal(t, 2, amended.Version)
	assert.Equal(t, domain.StatusAmended, amended.Status.Name)

	code, env = do(t, r, "trader1", http.MethodPost, path+"/terminate", nil)
	require.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, env.Details)
	assert.Equal(t, domain.KindUnauthorized, env.Details.Kind)

	code, env = do(t, r, "ops1", http.MethodPost, path+"/terminate", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	terminated := decodeTrade(t, env)
	assert.Equal(t, domain.StatusTerminated, terminated.Status.Name)
	assert.Equal(t, 2, terminated.Version)

	code, env = do(t, r, "ops1", http.MethodPost, path+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, domain.KindValidation, env.Details.Kind)

	code, env = do(t, r, "", http.MethodGet, "/api/v1/trades?status=TERMINATED", nil)
	require.Equal(t, http.StatusOK, code)
	var list []domain.Trade
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.TradeID, list[0].TradeID)
}

func TestErrorMapping(t *testing.T) {
	r := newRouter(t)

	code, env := do(t, r, "", http.MethodGet, "/api/v1/trades/424242", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "tradeId not found: 424242", env.Message)

	code, _ = do(t, r, "", http.MethodGet, "/api/v1/trades/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, "", http.MethodGet, "/api/v1/trades", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, r, "", http.MethodPost, "/api/v1/trades", swapRequest())
	assert.Equal(t, http.StatusForbidden, code)

	req := swapRequest()
	req["trader"] = map[string]any{"name": "ghost"}
	code, env = do(t, r, "trader1", http.MethodPost, "/api/v1/trades", req)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, domain.KindInactiveReference, env.Details.Kind)

	req = swapRequest()
	req["book"] = map[string]any{"name": "NO-SUCH-BOOK"}
	code, env = do(t, r, "trader1", http.MethodPost, "/api/v1/trades", req)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "book.name", env.Details.Field)

	req = swapRequest()
	req["maturityDate"] = "2026-01-01"
	code, env = do(t, r, "trader1", http.MethodPost, "/api/v1/trades", req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details.Messages, "maturity date cannot be before start date")
	assert.False(t, env.Details.Retryable)

	req = swapRequest()
	req["tradeDate"] = "12/10/2026"
	code, _ = do(t, r, "trader1", http.MethodPost, "/api/v1/trades", req)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGenerateCashflows(t *testing.T) {
	r := newRouter(t)

	body := map[string]any{
		"startDate":    "2025-10-11",
		"maturityDate": "2026-12-03",
		"leg": map[string]any{
			"notional":            "10000000",
			"rate":                "3.5",
			"currency":            map[string]any{"name": "USD"},
			"legRateType":         map[string]any{"name": "Fixed"},
			"calculationSchedule": map[string]any{"name": "Quarterly"},
			"payReceive":          map[string]any{"name": "Pay"},
		},
	}
	code, env := do(t, r, "", http.MethodPost, "/api/v1/cashflows/generate", body)
	require.Equal(t, http.StatusOK, code, env.Message)

	var flows []domain.Cashflow
	require.NoError(t, json.Unmarshal(env.Data, &flows))
	require.Len(t, flows, 4)
	for _, f := range flows {
		assert.Equal(t, "87500.00", f.PaymentValue.StringFixed(2))
		assert.Equal(t, "Pay", f.PayReceive.Name)
	}
	assert.Equal(t, "2026-01-11", flows[0].ValueDate.Format(dateLayout))

	body["maturityDate"] = "2025-01-01"
	code, _ = do(t, r, "", http.MethodPost, "/api/v1/cashflows/generate", body)
	assert.Equal(t, http.StatusBadRequest, code)
}
