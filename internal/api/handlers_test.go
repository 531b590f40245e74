// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/placemark-app/placemark/internal/auth"
	"github.com/placemark-app/placemark/internal/config"
	"github.com/placemark-app/placemark/internal/geocode"
	"github.com/placemark-app/placemark/internal/media"
	"github.com/placemark-app/placemark/internal/models"
	"github.com/placemark-app/placemark/internal/place"
	"github.com/placemark-app/placemark/internal/store"
	"github.com/placemark-app/placemark/internal/user"
)

// stubResolver lets each test choose the geocoding outcome.
type stubResolver struct {
	loc models.Location
	err error
}

func (r *stubResolver) Resolve(ctx context.Context, address string) (models.Location, error) {
	if r.err != nil {
		return models.Location{}, r.err
	}
	return r.loc, nil
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

type testServer struct {
	srv      *httptest.Server
	resolver *stubResolver
	mediaDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mediaDir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        0,
			CORSOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{InMemory: true},
		Security: config.SecurityConfig{
			JWTSecret:       "0123456789abcdef0123456789abcdef",
			TokenTTL:        time.Hour,
			BcryptCost:      bcrypt.MinCost,
			LoginRateLimit:  1000,
			LoginRateWindow: time.Minute,
			RateLimitReqs:   10000,
			RateLimitWindow: time.Minute,
		},
		Media: config.MediaConfig{Backend: "disk", Dir: mediaDir},
	}

	st, err := store.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	mediaStore, err := media.New(&cfg.Media)
	if err != nil {
		t.Fatalf("media.New() error = %v", err)
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	hasher, err := auth.NewPasswordHasher(cfg.Security.BcryptCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher() error = %v", err)
	}

	resolver := &stubResolver{loc: models.Location{Lat: 40.748, Lng: -73.985}}

	userService := user.NewService(st, hasher, jwtManager, mediaStore)
	placeService := place.NewService(st, resolver, mediaStore)
	handler := NewHandler(userService, placeService, mediaStore, cfg, st)
	router := NewRouter(handler, auth.NewMiddleware(jwtManager), cfg)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, resolver: resolver, mediaDir: mediaDir}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (int, *envelope, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, ts.srv.URL+path, body)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request %s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal envelope %q: %v", raw, err)
		}
	}
	return resp.StatusCode, &env, raw
}

func (ts *testServer) doJSON(t *testing.T, method, path, token string, payload interface{}) (int, *envelope, []byte) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return ts.do(t, method, path, token, bytes.NewReader(body), "application/json")
}

// signupMultipart builds the multipart signup request, optionally with a
// png image part.
func (ts *testServer) signupMultipart(t *testing.T, name, email, password string, image []byte) (int, *envelope, []byte) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("name", name)
	w.WriteField("email", email)
	w.WriteField("password", password)
	if image != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="image"; filename="avatar.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart() error = %v", err)
		}
		part.Write(image)
	}
	w.Close()

	return ts.do(t, http.MethodPost, "/api/v1/users/signup", "", &buf, w.FormDataContentType())
}

type signupData struct {
	User models.User          `json:"user"`
	Auth models.LoginResponse `json:"auth"`
}

func (ts *testServer) mustSignup(t *testing.T, name, email, password string) signupData {
	t.Helper()
	status, env, raw := ts.signupMultipart(t, name, email, password, nil)
	if status != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", status, raw)
	}
	var data signupData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal signup data: %v", err)
	}
	return data
}

type placeData struct {
	Place models.Place `json:"place"`
}

func (ts *testServer) mustCreatePlace(t *testing.T, token, title, desc, addr string) models.Place {
	t.Helper()
	status, env, raw := ts.doJSON(t, http.MethodPost, "/api/v1/places", token, map[string]string{
		"title": title, "description": desc, "address": addr,
	})
	if status != http.StatusCreated {
		t.Fatalf("create place status = %d, body %s", status, raw)
	}
	var data placeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal place data: %v", err)
	}
	return data.Place
}

// ===================================================================================================
// Health
// ===================================================================================================

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, env, _ := ts.do(t, http.MethodGet, "/api/v1/health", "", nil, "")
	if status != http.StatusOK {
		t.Fatalf("health status = %d, want 200", status)
	}
	if env.Status != "success" {
		t.Errorf("envelope status = %q", env.Status)
	}
}

// ===================================================================================================
// Users
// ===================================================================================================

func TestSignupLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	data := ts.mustSignup(t, "Max", "max@example.com", "hunter22")
	if data.User.Email != "max@example.com" || data.Auth.Token == "" {
		t.Fatalf("signup data = %+v", data)
	}

	// The password hash must never serialize.
	status, _, raw := ts.do(t, http.MethodGet, "/api/v1/users", "", nil, "")
	if status != http.StatusOK {
		t.Fatalf("list users status = %d", status)
	}
	if bytes.Contains(raw, []byte("password")) || bytes.Contains(raw, []byte("$2a$")) {
		t.Errorf("user listing leaks credentials: %s", raw)
	}

	// Duplicate email is a conflict.
	status, env, _ := ts.signupMultipart(t, "Imposter", "max@example.com", "hunter23", nil)
	if status != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", status)
	}
	if env.Error == nil || env.Error.Code != "EMAIL_TAKEN" {
		t.Errorf("duplicate signup error = %+v", env.Error)
	}

	// Login round trip.
	status, env, _ = ts.doJSON(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "max@example.com", "password": "hunter22",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d, want 200", status)
	}
	var session models.LoginResponse
	if err := json.Unmarshal(env.Data, &session); err != nil || session.Token == "" {
		t.Fatalf("login data = %s, err %v", env.Data, err)
	}

	// Wrong password gets the same 401 as an unknown account.
	status, env, _ = ts.doJSON(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "max@example.com", "password": "wrong",
	})
	if status != http.StatusUnauthorized || env.Error.Code != "INVALID_CREDENTIALS" {
		t.Errorf("bad login = %d %+v", status, env.Error)
	}
	status, _, _ = ts.doJSON(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "ghost@example.com", "password": "hunter22",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("unknown email login status = %d, want 401", status)
	}
}

func TestSignup_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"short password", "Max", "max@example.com", "abc"},
		{"bad email", "Max", "not-an-email", "hunter22"},
		{"missing name", "", "max@example.com", "hunter22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env, _ := ts.signupMultipart(t, tt.userName, tt.email, tt.password, nil)
			if status != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", status)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v", env.Error)
			}
		})
	}
}

func TestSignup_WithAvatar(t *testing.T) {
	ts := newTestServer(t)

	status, env, raw := ts.signupMultipart(t, "Max", "max@example.com", "hunter22", []byte("png bytes"))
	if status != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", status, raw)
	}
	var data signupData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal signup data: %v", err)
	}
	if data.User.ImageRef == "" {
		t.Fatal("avatar reference is empty")
	}
	if _, err := os.Stat(filepath.Join(ts.mediaDir, data.User.ImageRef)); err != nil {
		t.Errorf("avatar file not on disk: %v", err)
	}

	// The avatar of a rejected duplicate signup must not leak onto disk.
	status, _, _ = ts.signupMultipart(t, "Imposter", "max@example.com", "hunter23", []byte("other bytes"))
	if status != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", status)
	}
	entries, err := os.ReadDir(ts.mediaDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("media dir holds %d files after rejected signup, want 1", len(entries))
	}
}

// ===================================================================================================
// Places
// ===================================================================================================

func TestPlaceLifecycle(t *testing.T) {
	ts := newTestServer(t)

	owner := ts.mustSignup(t, "Owner", "owner@example.com", "hunter22")
	intruder := ts.mustSignup(t, "Intruder", "intruder@example.com", "hunter22")

	created := ts.mustCreatePlace(t, owner.Auth.Token, "Empire State", "Famous skyscraper", "20 W 34th St")
	if created.Creator != owner.User.ID {
		t.Fatalf("creator = %q, want %q", created.Creator, owner.User.ID)
	}
	if created.Location.Lat != 40.748 {
		t.Errorf("location = %+v", created.Location)
	}

	// Public read.
	status, env, _ := ts.do(t, http.MethodGet, "/api/v1/places/"+created.ID, "", nil, "")
	if status != http.StatusOK {
		t.Fatalf("get place status = %d", status)
	}

	// Owner's list contains it; the intruder's list is empty, not a 404.
	status, env, _ = ts.do(t, http.MethodGet, "/api/v1/users/"+owner.User.ID+"/places", "", nil, "")
	if status != http.StatusOK || !strings.Contains(string(env.Data), created.ID) {
		t.Fatalf("owner places = %d %s", status, env.Data)
	}
	status, env, _ = ts.do(t, http.MethodGet, "/api/v1/users/"+intruder.User.ID+"/places", "", nil, "")
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"count":0`) {
		t.Fatalf("intruder places = %d %s", status, env.Data)
	}

	// Only the owner may update.
	patch := map[string]string{"title": "Renamed", "description": "Still standing tall"}
	status, env, _ = ts.doJSON(t, http.MethodPatch, "/api/v1/places/"+created.ID, intruder.Auth.Token, patch)
	if status != http.StatusForbidden || env.Error.Code != "FORBIDDEN" {
		t.Fatalf("intruder patch = %d %+v", status, env.Error)
	}
	status, env, _ = ts.doJSON(t, http.MethodPatch, "/api/v1/places/"+created.ID, owner.Auth.Token, patch)
	if status != http.StatusOK {
		t.Fatalf("owner patch status = %d", status)
	}
	var updated placeData
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("unmarshal updated place: %v", err)
	}
	if updated.Place.Title != "Renamed" || updated.Place.Address != created.Address {
		t.Errorf("updated place = %+v", updated.Place)
	}

	// Only the owner may delete.
	status, _, _ = ts.do(t, http.MethodDelete, "/api/v1/places/"+created.ID, intruder.Auth.Token, nil, "")
	if status != http.StatusForbidden {
		t.Fatalf("intruder delete status = %d, want 403", status)
	}
	status, _, _ = ts.do(t, http.MethodDelete, "/api/v1/places/"+created.ID, owner.Auth.Token, nil, "")
	if status != http.StatusOK {
		t.Fatalf("owner delete status = %d, want 200", status)
	}

	// Gone for reads, gone from the owner's list, gone for a second delete.
	status, _, _ = ts.do(t, http.MethodGet, "/api/v1/places/"+created.ID, "", nil, "")
	if status != http.StatusNotFound {
		t.Errorf("get deleted place status = %d, want 404", status)
	}
	status, env, _ = ts.do(t, http.MethodGet, "/api/v1/users/"+owner.User.ID+"/places", "", nil, "")
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"count":0`) {
		t.Errorf("owner places after delete = %d %s", status, env.Data)
	}
	status, _, _ = ts.do(t, http.MethodDelete, "/api/v1/places/"+created.ID, owner.Auth.Token, nil, "")
	if status != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", status)
	}
}

func TestCreatePlace_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	status, _, _ := ts.doJSON(t, http.MethodPost, "/api/v1/places", "", map[string]string{
		"title": "T", "description": "Description here", "address": "A",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("unauthenticated create status = %d, want 401", status)
	}
}

func TestCreatePlace_GeocodeFailures(t *testing.T) {
	tests := []struct {
		name       string
		geoErr     error
		wantStatus int
		wantCode   string
	}{
		{"no match", geocode.ErrNoMatch, http.StatusUnprocessableEntity, "ADDRESS_NOT_FOUND"},
		{"provider down", geocode.ErrUnavailable, http.StatusBadGateway, "GEOCODER_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			owner := ts.mustSignup(t, "Owner", "owner@example.com", "hunter22")
			ts.resolver.err = tt.geoErr

			status, env, _ := ts.doJSON(t, http.MethodPost, "/api/v1/places", owner.Auth.Token, map[string]string{
				"title": "T", "description": "Description here", "address": "nowhere",
			})
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %q", env.Error, tt.wantCode)
			}

			// A failed create leaves no place behind.
			status, env, _ = ts.do(t, http.MethodGet, "/api/v1/users/"+owner.User.ID+"/places", "", nil, "")
			if status != http.StatusOK || !strings.Contains(string(env.Data), `"count":0`) {
				t.Errorf("places after failed create = %d %s", status, env.Data)
			}
		})
	}
}

func TestCreatePlace_Validation(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.mustSignup(t, "Owner", "owner@example.com", "hunter22")

	status, env, _ := ts.doJSON(t, http.MethodPost, "/api/v1/places", owner.Auth.Token, map[string]string{
		"title": "", "description": "abc", "address": "",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", status)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestGetPlace_NotFound(t *testing.T) {
	ts := newTestServer(t)

	status, env, _ := ts.do(t, http.MethodGet, "/api/v1/places/no-such-place", "", nil, "")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if env.Error == nil || env.Error.Code != "PLACE_NOT_FOUND" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestListUserPlaces_UnknownUser(t *testing.T) {
	ts := newTestServer(t)

	status, _, _ := ts.do(t, http.MethodGet, "/api/v1/users/ghost/places", "", nil, "")
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestUploadsServedStatically(t *testing.T) {
	ts := newTestServer(t)

	name := "static-check.png"
	if err := os.WriteFile(filepath.Join(ts.mediaDir, name), []byte("png bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	resp, err := ts.srv.Client().Get(ts.srv.URL + "/uploads/" + name)
	if err != nil {
		t.Fatalf("GET /uploads error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("static upload status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.srv.Client().Get(ts.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("go_goroutines")) {
		t.Error("metrics output missing standard collectors")
	}
}
