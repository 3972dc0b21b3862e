//go:build integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/liamcoop/creditreports/internal/config"
)

// setupTestDatabaseURL starts a PostgreSQL testcontainer and returns its connection string
func setupTestDatabaseURL(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("postgres://postgres:password@%s:%s/testdb?sslmode=disable", host, port.Port())

	cleanup := func() {
		postgres.Terminate(ctx)
	}

	return connStr, cleanup
}

func testConfig(databaseURL, redisAddr string) *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Port: 8080, RequestTimeout: 30 * time.Second},
		Upload:     config.UploadConfig{MaxBytes: 1 << 20},
		Storage:    config.StorageConfig{Driver: config.StoragePostgres},
		Database:   config.DatabaseConfig{URL: databaseURL, MaxOpenConns: 5, MaxIdleConns: 2, AutoMigrate: true},
		Cache:      config.CacheConfig{Driver: config.CacheRedis, TTL: time.Minute},
		Redis:      config.RedisConfig{Address: redisAddr},
		Extraction: config.ExtractionConfig{PANSource: "accounts"},
		Screening: config.ScreeningConfig{Rules: []config.RuleConfig{
			{Name: "prime", Expression: "basicDetails.creditScore >= 750"},
		}},
	}
}

// TestEndToEnd_UploadListGetScreen tests the complete workflow against Postgres and Redis:
// 1. Upload two reports
// 2. List them newest first
// 3. Fetch one by id
// 4. Screen it with the configured rules
func TestEndToEnd_UploadListGetScreen(t *testing.T) {
	databaseURL, cleanup := setupTestDatabaseURL(t)
	defer cleanup()

	mr := miniredis.RunT(t)
	cfg := testConfig(databaseURL, mr.Addr())

	deps, err := buildDependencies(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to build dependencies: %v", err)
	}
	defer deps.Close()

	server := NewServer(deps.Service, deps.Screener, ServerOptions{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	ts := httptest.NewServer(server)
	defer ts.Close()

	profile, err := os.ReadFile("../../extract/testdata/profile.xml")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	// Step 1: upload
	t.Log("Step 1: Uploading reports...")
	firstID := uploadFile(t, ts.URL+"/api/reports/upload", profile)
	time.Sleep(10 * time.Millisecond)
	secondID := uploadFile(t, ts.URL+"/api/upload", profile)

	// Step 2: list
	t.Log("Step 2: Listing reports...")
	var list []map[string]any
	getJSON(t, ts.URL+"/api/reports", http.StatusOK, &list)
	if len(list) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(list))
	}
	if list[0]["id"] != secondID || list[1]["id"] != firstID {
		t.Errorf("Expected newest first [%s %s], got [%v %v]", secondID, firstID, list[0]["id"], list[1]["id"])
	}

	// Step 3: get
	t.Log("Step 3: Fetching report...")
	var rec map[string]any
	getJSON(t, ts.URL+"/api/reports/"+firstID, http.StatusOK, &rec)
	basic := rec["basicDetails"].(map[string]any)
	if basic["pan"] != "ABCDE1, XYZZZ9" {
		t.Errorf("Expected aggregated PAN, got %v", basic["pan"])
	}
	accounts := rec["creditAccounts"].([]any)
	if len(accounts) != 3 {
		t.Errorf("Expected 3 accounts, got %d", len(accounts))
	}

	// Step 4: screen
	t.Log("Step 4: Screening report...")
	var screening ScreeningResponse
	getJSON(t, ts.URL+"/api/reports/"+firstID+"/screening", http.StatusOK, &screening)
	if len(screening.Results) != 1 || !screening.Results[0].Matched {
		t.Errorf("Expected prime rule to match, got %+v", screening.Results)
	}

	// Unknown and malformed ids
	var errResp ErrorResponse
	getJSON(t, ts.URL+"/api/reports/00000000-0000-0000-0000-000000000000", http.StatusNotFound, &errResp)
	getJSON(t, ts.URL+"/api/reports/not-a-uuid", http.StatusNotFound, &errResp)

	var health HealthResponse
	getJSON(t, ts.URL+"/api/health", http.StatusOK, &health)
	if health.Status != "healthy" {
		t.Errorf("Expected healthy, got %+v", health)
	}
}

func uploadFile(t *testing.T, url string, content []byte) string {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "report.xml")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	fw.Write(content)
	mw.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("Upload to %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode upload response: %v", err)
	}
	return result.ID
}

func getJSON(t *testing.T, url string, wantStatus int, dest any) {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: expected status %d, got %d: %s", url, wantStatus, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("Failed to decode response from %s: %v", url, err)
	}
}
