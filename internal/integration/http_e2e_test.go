//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "rental_yield/internal/adapters/http_server"
	"rental_yield/internal/adapters/ratesapi"
	redisad "rental_yield/internal/adapters/redis"
	"rental_yield/internal/app"
	"rental_yield/internal/calculator"
	"rental_yield/internal/domain"
	mysqlrepo "rental_yield/internal/storage/mysql"
)

// ---------- helpers ----------
func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- fake rates feed ----------
func ratesFeed(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rents/2":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"bedrooms": 2, "zones": [
				{"zone": "City Centre", "monthly_income": "£2,000.00"},
				{"zone": "West End", "monthly_income": 1800}
			]}`))
		case "/rents/4":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

// ---------- the test ----------
func TestHTTP_EndToEnd_SyncThenCalculate(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=rentyield",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Skipf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "rentyield")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// Apply the real migrations
	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()
	if err := repo.SeedRentRows(ctx, domain.DefaultRentTable().Rows(), "builtin"); err != nil {
		t.Fatalf("SeedRentRows: %v", err)
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	tables := app.NewTableSource(repo, cache, time.Minute, domain.DefaultRentTable())
	calc := app.NewCalculationService(tables, repo, calculator.DefaultPolicy())

	srv := server.New(server.Options{})
	srv.MountHandlers(&server.Handlers{Calc: calc})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// Warm the cache with the seeded table
	if got := tables.Current(ctx); got.Len() != 5 {
		t.Fatalf("expected seeded table, got %d rows", got.Len())
	}

	// Sync 2-bed from the feed; 4-bed is forbidden and only logged
	client, err := ratesapi.New(ratesFeed(t).URL, "k", 100)
	if err != nil {
		t.Fatalf("ratesapi.New: %v", err)
	}
	sync := app.NewRateSyncService(client, repo, tables)
	if err := sync.SyncCategory(ctx, domain.TwoBed); err != nil {
		t.Fatalf("SyncCategory(2): %v", err)
	}
	if err := sync.SyncCategory(ctx, domain.FourBed); err != nil {
		t.Fatalf("SyncCategory(4): %v", err)
	}

	// Calculate over HTTP: the synced income must be used
	res, err := http.Post(ts.URL+"/v1/investments/return", "application/json",
		strings.NewReader(`{"investment":120000,"location":"City Centre","bedrooms":"2"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var body struct {
		ID     string                  `json:"id"`
		Result domain.InvestmentResult `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Result.MonthlyIncome != 2000 || body.Result.YieldPercent != 20 {
		t.Fatalf("unexpected result: %+v", body.Result)
	}
	if body.Result.YearsToReturn != (domain.YearsToReturn{Years: 5, Months: 0}) {
		t.Fatalf("unexpected payback: %+v", body.Result.YearsToReturn)
	}

	// The history entry is readable back through the API
	hres, err := http.Get(ts.URL + "/v1/calculations/" + body.ID)
	if err != nil {
		t.Fatalf("GET calculation: %v", err)
	}
	defer hres.Body.Close()
	if hres.StatusCode != http.StatusOK {
		t.Fatalf("history status %d", hres.StatusCode)
	}
}
