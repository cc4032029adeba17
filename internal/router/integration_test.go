//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockyard/internal/config"
	"stockyard/internal/infra"
	"stockyard/internal/middleware"
	"stockyard/internal/mirror"
	"stockyard/internal/router"
	"stockyard/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func mintToken(t *testing.T, secret, role string) string {
	t.Helper()
	claims := &middleware.JWTClaims{
		UserID:   1,
		Username: "e2e-admin",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server   *httptest.Server
	token    string
	docStore *mirror.RedisStore
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("stockyard_test"),
		tcPostgres.WithUsername("stockyard"),
		tcPostgres.WithPassword("stockyard"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:             8000,
		Env:              "test",
		JWTSecret:        "test-secret-key",
		DatabaseURL:      pgURL,
		RedisURL:         rdURL,
		WorkerPoolSize:   1,
		MirrorMaxRetries: 3,
		ExpiryWindowDays: 30,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	require.NoError(t, db.Exec(
		`INSERT INTO stores (id, name, active, has_pos) VALUES (6, 'Main Store', true, false)
		 ON CONFLICT DO NOTHING`).Error)

	docStore := mirror.NewRedisStore(rdb)
	mirrorCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)
	workerCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	worker.StartWorkerPool(workerCtx, rdb, &worker.Handlers{
		MirrorSync: worker.NewMirrorSyncWorker(docStore, mirrorCB, rdb, dispatcher, cfg.MirrorMaxRetries),
	}, cfg.WorkerPoolSize)

	r := router.New(cfg, db, rdb, mirrorCB, dispatcher)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		server:   srv,
		token:    mintToken(t, cfg.JWTSecret, "admin"),
		docStore: docStore,
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Full hierarchy cycle: create → assign → adjust variant → cascade on main.
func TestE2E_HierarchyCascade(t *testing.T) {
	env := setupTestEnv(t)

	createResp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"name":          "Cola 330ml",
			"sku":           "BEV-001",
			"category":      "Beverages",
			"cost_price":    "0.50",
			"price":         "1.20",
			"quantity":      100,
			"reorder_level": 10,
		}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var prod struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, createResp, &prod)

	assignResp := do(t, env.server, "POST", fmt.Sprintf("/v1/products/%d/assign", prod.ID),
		jsonBody(t, map[string]any{"store_id": 6, "quantity": 40}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, assignResp.StatusCode)
	var assigned struct {
		VariantID       uint   `json:"variant_id"`
		VariantSKU      string `json:"variant_sku"`
		VariantQuantity int    `json:"variant_quantity"`
		MainQuantity    int    `json:"main_quantity"`
	}
	decodeJSON(t, assignResp, &assigned)
	assert.Equal(t, "BEV-001-MAINSTORE", assigned.VariantSKU)
	assert.Equal(t, 40, assigned.VariantQuantity)
	assert.Equal(t, 60, assigned.MainQuantity)

	adjustResp := do(t, env.server, "PATCH", fmt.Sprintf("/v1/products/%d/stock", assigned.VariantID),
		jsonBody(t, map[string]any{"delta": 10, "reason": "store restock"}),
		env.token,
	)
	require.Equal(t, http.StatusOK, adjustResp.StatusCode)
	var adjusted struct {
		NewQuantity  int  `json:"new_quantity"`
		MainQuantity *int `json:"main_quantity"`
	}
	decodeJSON(t, adjustResp, &adjusted)
	assert.Equal(t, 50, adjusted.NewQuantity)
	require.NotNil(t, adjusted.MainQuantity)
	assert.Equal(t, 70, *adjusted.MainQuantity)

	// The async mediator eventually mirrors the updated main product.
	assert.Eventually(t, func() bool {
		var doc mirror.ProductDoc
		if err := env.docStore.ReadDoc(context.Background(), mirror.CollectionProducts,
			mirror.DocID(prod.ID), &doc); err != nil {
			return false
		}
		return doc.Quantity == 70
	}, 10*time.Second, 200*time.Millisecond, "mirror should converge on the committed quantity")

	// The cascade wrote a distinct ledger row on the main product.
	movResp := do(t, env.server, "GET",
		fmt.Sprintf("/v1/movements?product_id=%d", prod.ID), nil, env.token)
	require.Equal(t, http.StatusOK, movResp.StatusCode)
	var movements struct {
		Data []struct {
			MovementType string `json:"movement_type"`
			Quantity     int    `json:"quantity"`
			Reference    string `json:"reference"`
		} `json:"data"`
	}
	decodeJSON(t, movResp, &movements)
	require.Len(t, movements.Data, 2)
	refs := []string{movements.Data[0].Reference, movements.Data[1].Reference}
	assert.Contains(t, refs, "Cascading Update")
	assert.Contains(t, refs, "Store Assignment")
}

// Transfer workflow round trip plus the InvalidState guard.
func TestE2E_TransferWorkflow(t *testing.T) {
	env := setupTestEnv(t)

	createResp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"name":       "Chips 150g",
			"sku":        "SNK-002",
			"category":   "Snacks",
			"cost_price": "0.80",
			"price":      "1.90",
			"quantity":   50,
		}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var prod struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, createResp, &prod)

	assignResp := do(t, env.server, "POST", fmt.Sprintf("/v1/products/%d/assign", prod.ID),
		jsonBody(t, map[string]any{"store_id": 6, "quantity": 0}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, assignResp.StatusCode)
	var assigned struct {
		VariantID uint `json:"variant_id"`
	}
	decodeJSON(t, assignResp, &assigned)

	initResp := do(t, env.server, "POST", "/v1/transfers",
		jsonBody(t, map[string]any{"dest_product_id": assigned.VariantID, "quantity": 20}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, initResp.StatusCode)
	var transfer struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	decodeJSON(t, initResp, &transfer)
	assert.Equal(t, "pending", transfer.Status)

	confirmResp := do(t, env.server, "POST", fmt.Sprintf("/v1/transfers/%d/confirm", transfer.ID), jsonBody(t, map[string]any{}), env.token)
	require.Equal(t, http.StatusOK, confirmResp.StatusCode)
	var confirmed struct {
		Status string `json:"status"`
	}
	decodeJSON(t, confirmResp, &confirmed)
	assert.Equal(t, "completed", confirmed.Status)

	// Confirming again must hit the state machine guard.
	againResp := do(t, env.server, "POST", fmt.Sprintf("/v1/transfers/%d/confirm", transfer.ID), jsonBody(t, map[string]any{}), env.token)
	assert.Equal(t, http.StatusConflict, againResp.StatusCode)
	againResp.Body.Close()

	getResp := do(t, env.server, "GET", fmt.Sprintf("/v1/products/%d", assigned.VariantID), nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var variant struct {
		Quantity int `json:"quantity"`
	}
	decodeJSON(t, getResp, &variant)
	assert.Equal(t, 20, variant.Quantity)
}

// Low-stock alert appears after an adjustment drops below the reorder level.
func TestE2E_LowStockAlert(t *testing.T) {
	env := setupTestEnv(t)

	createResp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"name":          "Milk 1L",
			"sku":           "DRY-003",
			"category":      "Dairy",
			"cost_price":    "0.60",
			"price":         "1.10",
			"quantity":      20,
			"reorder_level": 8,
		}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var prod struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, createResp, &prod)

	adjustResp := do(t, env.server, "PATCH", fmt.Sprintf("/v1/products/%d/stock", prod.ID),
		jsonBody(t, map[string]any{"delta": -15, "reason": "sold out fast"}),
		env.token,
	)
	require.Equal(t, http.StatusOK, adjustResp.StatusCode)
	adjustResp.Body.Close()

	alertsResp := do(t, env.server, "GET", "/v1/alerts?status=PENDING", nil, env.token)
	require.Equal(t, http.StatusOK, alertsResp.StatusCode)
	var alerts struct {
		Data []struct {
			ID        string `json:"id"`
			AlertType string `json:"alert_type"`
			ProductID uint   `json:"product_id"`
		} `json:"data"`
		Total int `json:"total"`
	}
	decodeJSON(t, alertsResp, &alerts)
	require.Equal(t, 1, alerts.Total)
	assert.Equal(t, "LOW_STOCK", alerts.Data[0].AlertType)
	assert.Equal(t, prod.ID, alerts.Data[0].ProductID)

	resolveResp := do(t, env.server, "POST", "/v1/alerts/"+alerts.Data[0].ID+"/resolve",
		jsonBody(t, map[string]any{"note": "restock ordered"}), env.token)
	require.Equal(t, http.StatusOK, resolveResp.StatusCode)
	resolveResp.Body.Close()

	afterResp := do(t, env.server, "GET", "/v1/alerts?status=PENDING", nil, env.token)
	var after struct {
		Total int `json:"total"`
	}
	decodeJSON(t, afterResp, &after)
	assert.Equal(t, 0, after.Total)
}

// Soft-delete cascade over the canonical family via the HTTP surface.
func TestE2E_DeleteCascade(t *testing.T) {
	env := setupTestEnv(t)

	createResp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"name":       "Hand Soap",
			"sku":        "CARE-003",
			"category":   "Care",
			"cost_price": "1.00",
			"price":      "2.50",
			"quantity":   10,
		}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var prod struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, createResp, &prod)

	assignResp := do(t, env.server, "POST", fmt.Sprintf("/v1/products/%d/assign", prod.ID),
		jsonBody(t, map[string]any{"store_id": 6, "quantity": 4}), env.token)
	require.Equal(t, http.StatusCreated, assignResp.StatusCode)
	var assigned struct {
		VariantID uint `json:"variant_id"`
	}
	decodeJSON(t, assignResp, &assigned)

	deleteResp := do(t, env.server, "DELETE", fmt.Sprintf("/v1/products/%d", prod.ID), nil, env.token)
	require.Equal(t, http.StatusOK, deleteResp.StatusCode)
	var deleted struct {
		VariantsDeleted int `json:"variants_deleted"`
	}
	decodeJSON(t, deleteResp, &deleted)
	// The destructive cascade covers only the canonical "-S<id>" family;
	// this variant carries a store-name suffix, so it survives on purpose.
	assert.Equal(t, 0, deleted.VariantsDeleted)

	getResp := do(t, env.server, "GET", fmt.Sprintf("/v1/products/%d", prod.ID), nil, env.token)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	getResp.Body.Close()

	variantResp := do(t, env.server, "GET", fmt.Sprintf("/v1/products/%d", assigned.VariantID), nil, env.token)
	assert.Equal(t, http.StatusOK, variantResp.StatusCode)
	variantResp.Body.Close()
}
