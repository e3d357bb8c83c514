// Package integration provides end-to-end tests for the domain lifecycle API.
// Tests run the HTTP API and the job worker against both PostgreSQL and MySQL databases.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-riaz/domaindesk/internal/app"
	"github.com/md-riaz/domaindesk/internal/config"
	jobsUseCase "github.com/md-riaz/domaindesk/internal/jobs/usecase"
	"github.com/md-riaz/domaindesk/internal/testutil"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	worker    *jobsUseCase.Worker
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// drainJobs runs worker passes until no job is claimed.
func (ctx *integrationTestContext) drainJobs(t *testing.T) {
	t.Helper()

	for range 5 {
		n, err := ctx.worker.RunOnce(context.Background())
		require.NoError(t, err, "worker pass failed")
		if n == 0 {
			return
		}
	}
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Setup database
	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	// Start from the defaults and point the container at the test database
	cfg := config.Load()
	cfg.DBDriver = dbDriver
	cfg.DBConnectionString = dsn
	cfg.LogLevel = "error"
	cfg.RedisURL = ""
	cfg.MetricsEnabled = false
	cfg.NotificationWebhookURL = ""
	cfg.RegistrarCredentialsKeeperURI = ""
	cfg.MockRegistrarLatency = 0
	cfg.MockRegistrarFailureRate = 0
	cfg.JobRegistration.Backoff = 0
	cfg.JobRenewal.Backoff = 0

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	worker, err := container.Worker()
	require.NoError(t, err, "failed to get worker")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    httptest.NewServer(handler),
		worker:    worker,
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		err := ctx.container.Shutdown(context.Background())
		if err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}

	t.Logf("Integration test teardown complete for %s", ctx.dbDriver)
}

var drivers = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

// TestIntegration_Health_BasicChecks validates health and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var response map[string]string
			require.NoError(t, json.Unmarshal(body, &response))
			assert.Equal(t, "healthy", response["status"])

			resp, body = ctx.makeRequest(t, http.MethodGet, "/ready", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			require.NoError(t, json.Unmarshal(body, &response))
			assert.Equal(t, "ready", response["status"])
		})
	}
}

// TestIntegration_Lifecycle_RegisterThenRenew queues a registration and a renewal
// through the API, runs the worker and checks domain state and the wallet ledger.
func TestIntegration_Lifecycle_RegisterThenRenew(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			registrarID := testutil.CreateTestRegistrar(t, ctx.db, tc.dbDriver, "mock", true)
			partnerID := testutil.CreateTestPartner(t, ctx.db, tc.dbDriver, "acme", &registrarID)
			clientID := testutil.CreateTestClient(t, ctx.db, tc.dbDriver, partnerID, "jane")
			testutil.CreateTestWallet(t, ctx.db, tc.dbDriver, partnerID, "100.00")
			testutil.CreateTestPrice(t, ctx.db, tc.dbDriver, "com", nil, "10.00")
			domainID := testutil.CreateTestDomain(t, ctx.db, tc.dbDriver, testutil.TestDomain{
				PartnerID: partnerID,
				ClientID:  &clientID,
				Name:      "integration-flow.com",
				Status:    "pending_registration",
			})
			domainPath := "/v1/partners/" + partnerID.String() + "/domains/" + domainID.String()
			walletPath := "/v1/partners/" + partnerID.String() + "/wallet"

			t.Run("01_Register", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, domainPath+"/register", nil)
				require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

				var job map[string]interface{}
				require.NoError(t, json.Unmarshal(body, &job))
				assert.Equal(t, "domain.register", job["type"])
				assert.Equal(t, "pending", job["status"])

				ctx.drainJobs(t)

				resp, body = ctx.makeRequest(t, http.MethodGet, domainPath, nil)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var dom map[string]interface{}
				require.NoError(t, json.Unmarshal(body, &dom))
				assert.Equal(t, "active", dom["status"])
				assert.NotEmpty(t, dom["expires_at"])
			})

			t.Run("02_RenewChargesWallet", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, domainPath+"/renew", map[string]int{"years": 1})
				require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

				// A second renewal for the same domain is rejected while the first is queued
				resp, _ = ctx.makeRequest(t, http.MethodPost, domainPath+"/renew", nil)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)

				ctx.drainJobs(t)

				resp, body = ctx.makeRequest(t, http.MethodGet, walletPath, nil)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var wallet map[string]interface{}
				require.NoError(t, json.Unmarshal(body, &wallet))
				assert.Equal(t, "90.00", wallet["balance"])
			})

			t.Run("03_LedgerAndAudit", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, walletPath+"/transactions", nil)
				require.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, string(body), `"type":"debit"`)

				assert.Positive(t, testutil.CountRows(t, ctx.db, "registrar_audit_logs"))
				assert.Positive(t, testutil.CountRows(t, ctx.db, "outbox_events"))
			})

			t.Run("04_UnknownDomainIsNotFound", func(t *testing.T) {
				path := "/v1/partners/" + partnerID.String() + "/domains/" + uuid.Must(uuid.NewV7()).String()
				resp, _ := ctx.makeRequest(t, http.MethodGet, path, nil)
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_Renewal_InsufficientFunds checks that an underfunded renewal
// leaves the balance and the expiry untouched.
func TestIntegration_Renewal_InsufficientFunds(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			f := testutil.CreateTestDomainFixture(t, ctx.db, tc.dbDriver, "underfunded.com")
			_, err := ctx.db.Exec("UPDATE wallets SET balance = 5")
			require.NoError(t, err)

			domainPath := "/v1/partners/" + f.PartnerID.String() + "/domains/" + f.DomainID.String()
			resp, body := ctx.makeRequest(t, http.MethodPost, domainPath+"/renew", nil)
			require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

			ctx.drainJobs(t)

			resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/partners/"+f.PartnerID.String()+"/wallet", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var wallet map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &wallet))
			assert.Equal(t, "5.00", wallet["balance"])
			assert.Equal(t, 0, testutil.CountRows(t, ctx.db, "wallet_transactions"))

			resp, body = ctx.makeRequest(t, http.MethodGet, domainPath, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var dom map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &dom))
			assert.Equal(t, "active", dom["status"])
		})
	}
}
