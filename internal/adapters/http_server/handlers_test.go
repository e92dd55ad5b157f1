package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"healthdir/internal/adapters/auth"
	httpserver "healthdir/internal/adapters/http_server"
	"healthdir/internal/adapters/uploads"
	"healthdir/internal/app"
	"healthdir/internal/storage/memory"
)

type env struct {
	srv  *httptest.Server
	auth *app.AuthService
}

func newEnv(t *testing.T, o httpserver.RouteOptions) *env {
	t.Helper()
	store := memory.New()
	dir := t.TempDir()
	images, err := uploads.NewDisk(dir)
	require.NoError(t, err)

	authSvc := app.NewAuthService(store, auth.NewBcrypt(bcrypt.MinCost), auth.NewStatic("", "admin"))
	_, err = authSvc.EnsureAdmin(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	h := &httpserver.Handlers{
		Q:           app.NewQueryService(store, nil, time.Minute),
		Admin:       app.NewAdminService(store, nil, images),
		Auth:        authSvc,
		SlugWorkers: 2,
	}
	o.UploadDir = dir
	s := httpserver.New()
	s.MountHandlers(h, o)

	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return &env{srv: ts, auth: authSvc}
}

func (e *env) do(t *testing.T, method, path string, body any, hdr ...string) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func TestScenario_CreateHospitalAndTreatment(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})

	resp, body := e.do(t, http.MethodPost, "/admin/hospitals", map[string]any{"name": "Test"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	hosp := decode[map[string]any](t, body)
	hid, _ := hosp["_id"].(string)
	require.NotEmpty(t, hid)

	resp, body = e.do(t, http.MethodPost, "/admin/treatments", map[string]any{
		"treatmentName": "X Ray",
		"hospitals":     []string{hid},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	tr := decode[map[string]any](t, body)
	assert.Equal(t, "x-ray", tr["slug"])
	assert.Equal(t, []any{hid}, tr["hospitals"], "create returns stored ids, not expanded records")

	resp, body = e.do(t, http.MethodGet, "/public/treatments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]map[string]any](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "x-ray", list[0]["slug"])
	hs := list[0]["hospitals"].([]any)
	require.Len(t, hs, 1)
	assert.Equal(t, "Test", hs[0].(map[string]any)["name"])
}

func TestPublicHospital_UnknownSlug(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})

	resp, body := e.do(t, http.MethodGet, "/public/hospitals/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decode[map[string]string](t, body)["error"])
}

func TestPublicCategory_NotFoundAndMatch(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})

	resp, _ := e.do(t, http.MethodGet, "/public/treatments/cardiac-surgery", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/admin/treatments", map[string]any{
		"treatmentName": "Bypass",
		"category":      "Cardiac Surgery",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, "/public/treatments/cardiac-surgery", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, body), 1)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})

	wrongPw, b1 := e.do(t, http.MethodPost, "/admin/login", map[string]string{"username": "admin", "password": "x"})
	unknown, b2 := e.do(t, http.MethodPost, "/admin/login", map[string]string{"username": "ghost", "password": "x"})

	assert.Equal(t, http.StatusUnauthorized, wrongPw.StatusCode)
	assert.Equal(t, wrongPw.StatusCode, unknown.StatusCode)
	assert.JSONEq(t, string(b1), string(b2))

	ok, body := e.do(t, http.MethodPost, "/admin/login", map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, ok.StatusCode)
	res := decode[app.LoginResult](t, body)
	assert.True(t, res.Success)
	assert.Equal(t, auth.DefaultStaticToken, res.Token)
	assert.Equal(t, "admin", res.User.Username)
	assert.Equal(t, "admin", res.User.Role)
	assert.NotContains(t, string(body), "password")
}

func TestLogin_RateLimited(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{LoginLimiter: httpserver.NewIPRateLimiter(0.001, 2)})

	creds := map[string]string{"username": "admin", "password": "x"}
	for i := 0; i < 2; i++ {
		resp, _ := e.do(t, http.MethodPost, "/admin/login", creds)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, _ := e.do(t, http.MethodPost, "/admin/login", creds)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestLogin_RateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{LoginLimiter: httpserver.NewIPRateLimiter(0.001, 2)})

	creds := map[string]string{"username": "admin", "password": "x"}
	for i, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		resp, _ := e.do(t, http.MethodPost, "/admin/login", creds, "X-Forwarded-For", ip)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d", i)
	}
	resp, _ := e.do(t, http.MethodPost, "/admin/login", creds, "X-Forwarded-For", "203.0.113.3")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestLogin_TrustedProxyForwardsClientIdentity(t *testing.T) {
	lim := httpserver.NewIPRateLimiter(0.001, 1).TrustProxies(netip.MustParsePrefix("127.0.0.0/8"), netip.MustParsePrefix("::1/128"))
	e := newEnv(t, httpserver.RouteOptions{LoginLimiter: lim})

	creds := map[string]string{"username": "admin", "password": "x"}
	resp, _ := e.do(t, http.MethodPost, "/admin/login", creds, "X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = e.do(t, http.MethodPost, "/admin/login", creds, "X-Forwarded-For", "203.0.113.2")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "other client has its own bucket")
	resp, _ = e.do(t, http.MethodPost, "/admin/login", creds, "X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestAdmin_RequireBearer(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{RequireAdmin: true})

	resp, _ := e.do(t, http.MethodGet, "/admin/hospitals", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, "/admin/hospitals", nil, "Authorization", "Bearer "+auth.DefaultStaticToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestDoctor_DanglingHospitalResolvesToNull(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})

	_, body := e.do(t, http.MethodPost, "/admin/hospitals", map[string]any{"name": "Gone", "slug": "gone"})
	hid := decode[map[string]any](t, body)["_id"].(string)

	resp, _ := e.do(t, http.MethodPost, "/admin/doctors", map[string]any{
		"name": "Dr A", "slug": "dr-a", "hospital": hid, "isTopDoctor": "true",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/admin/hospitals/"+hid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.do(t, http.MethodDelete, "/admin/hospitals/"+hid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "delete is idempotent")

	resp, body = e.do(t, http.MethodGet, "/public/doctors/dr-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	doc := decode[map[string]any](t, body)
	assert.Nil(t, doc["hospital"])

	resp, body = e.do(t, http.MethodGet, "/public/top-doctors", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, body), 1)
}

func TestUpdate_PartialAndSlugKept(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})

	_, body := e.do(t, http.MethodPost, "/admin/treatments", map[string]any{
		"treatmentName": "Knee Replacement",
		"description":   "orig",
		"costTable":     `[{"name":"Basic","costFrom":"abc","costTo":"150"}]`,
	})
	tr := decode[map[string]any](t, body)
	id := tr["_id"].(string)
	ct := tr["costTable"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 0, ct["costFrom"])
	assert.EqualValues(t, 150, ct["costTo"])
	assert.Equal(t, "USD", ct["currency"])

	resp, body := e.do(t, http.MethodPut, "/admin/treatments/"+id, map[string]any{"treatmentName": "Total Knee Replacement"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	up := decode[map[string]any](t, body)
	assert.Equal(t, "knee-replacement", up["slug"])
	assert.Equal(t, "orig", up["description"])

	resp, body = e.do(t, http.MethodGet, "/admin/fix-slugs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"total":1,"updated":1}`, string(body))
}

func TestCreate_Errors(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})

	resp, _ := e.do(t, http.MethodPost, "/admin/hospitals", map[string]any{"location": "Cairo"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/admin/treatments", map[string]any{
		"treatmentName": "Bad Cost",
		"costTable":     "[{not json",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, body)["error"], "costTable")

	resp, _ = e.do(t, http.MethodGet, "/admin/doctors/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateHospital_MultipartWithImage(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Imaged"))
	require.NoError(t, mw.WriteField("specialties", "Cardiology, Oncology ,"))
	fw, err := mw.CreateFormFile("image", "front.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/admin/hospitals", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var h map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, []any{"Cardiology", "Oncology"}, h["specialties"])
	img, _ := h["image"].(string)
	require.True(t, strings.HasPrefix(img, uploads.PublicPrefix), img)

	got, b := e.do(t, http.MethodGet, img, nil)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "png-bytes", string(b))
}

func TestPublic_ETag(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})

	resp, _ := e.do(t, http.MethodGet, "/public/top-doctors", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	resp, _ = e.do(t, http.MethodGet, "/public/top-doctors", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	e := newEnv(t, httpserver.RouteOptions{})
	resp, body := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}
