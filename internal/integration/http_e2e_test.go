//go:build integration

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"golang.org/x/crypto/bcrypt"

	"healthdir/internal/adapters/auth"
	httpserver "healthdir/internal/adapters/http_server"
	redisad "healthdir/internal/adapters/redis"
	"healthdir/internal/adapters/uploads"
	"healthdir/internal/app"
	mysqlrepo "healthdir/internal/storage/mysql"
)

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=healthdir"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/healthdir?parseTime=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))
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
	return db
}

type client struct {
	base  string
	token string
}

func (c *client) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var rd bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&rd).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHTTP_MySQLRedis_EndToEnd(t *testing.T) {
	ctx := context.Background()

	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	dir := t.TempDir()
	images, err := uploads.NewDisk(dir)
	if err != nil {
		t.Fatal(err)
	}

	admin := app.NewAdminService(repo, cache, images)
	authSvc := app.NewAuthService(repo, auth.NewBcrypt(bcrypt.MinCost), auth.NewJWT("test-secret", time.Hour))

	cat, err := app.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := app.NewSeeder(admin, repo, cat).EnsureSeeded(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := authSvc.EnsureAdmin(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		Q:           app.NewQueryService(repo, cache, time.Minute),
		Admin:       admin,
		Auth:        authSvc,
		SlugWorkers: 4,
		Ping:        repo.Ping,
	}, httpserver.RouteOptions{RequireAdmin: true, UploadDir: dir})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	c := &client{base: ts.URL}

	// seeded public data
	var top []map[string]any
	if code := c.do(t, http.MethodGet, "/public/top-doctors", nil, &top); code != http.StatusOK {
		t.Fatalf("top-doctors status %d", code)
	}
	if len(top) != 3 {
		t.Fatalf("want 3 top doctors, got %d", len(top))
	}
	if _, ok := top[0]["hospital"].(map[string]any); !ok {
		t.Fatalf("top doctor hospital not expanded: %+v", top[0]["hospital"])
	}

	// admin routes need a token
	if code := c.do(t, http.MethodGet, "/admin/hospitals", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("want 401 without token, got %d", code)
	}
	var login app.LoginResult
	if code := c.do(t, http.MethodPost, "/admin/login", map[string]string{"username": "admin", "password": "admin123"}, &login); code != http.StatusOK {
		t.Fatalf("login status %d", code)
	}
	c.token = login.Token

	var before []map[string]any
	c.do(t, http.MethodGet, "/public/treatments", nil, &before)
	if !mr.Exists("public:0:treatments") {
		t.Fatal("public listing was not cached")
	}

	var hosp map[string]any
	if code := c.do(t, http.MethodPost, "/admin/hospitals", map[string]any{"name": "Test", "slug": "test"}, &hosp); code != http.StatusCreated {
		t.Fatalf("create hospital status %d", code)
	}
	var tr map[string]any
	if code := c.do(t, http.MethodPost, "/admin/treatments", map[string]any{
		"treatmentName": "X Ray",
		"hospitals":     []string{hosp["_id"].(string)},
	}, &tr); code != http.StatusCreated {
		t.Fatalf("create treatment status %d", code)
	}
	if tr["slug"] != "x-ray" {
		t.Fatalf("slug = %v", tr["slug"])
	}

	var after []map[string]any
	c.do(t, http.MethodGet, "/public/treatments", nil, &after)
	if len(after) != len(before)+1 {
		t.Fatalf("cache not invalidated: %d -> %d treatments", len(before), len(after))
	}
	last := after[len(after)-1]
	hs := last["hospitals"].([]any)
	if last["slug"] != "x-ray" || len(hs) != 1 || hs[0].(map[string]any)["name"] != "Test" {
		t.Fatalf("unexpected listing entry: %+v", last)
	}

	var fix app.FixSlugsResult
	if code := c.do(t, http.MethodGet, "/admin/fix-slugs", nil, &fix); code != http.StatusOK {
		t.Fatalf("fix-slugs status %d", code)
	}
	if fix.Total != len(after) {
		t.Fatalf("fix-slugs total %d, want %d", fix.Total, len(after))
	}

	if code := c.do(t, http.MethodGet, "/health", nil, nil); code != http.StatusOK {
		t.Fatalf("health status %d", code)
	}
}
