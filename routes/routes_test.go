package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fogna/football-stats/db"
	"github.com/fogna/football-stats/handlers"
	"github.com/fogna/football-stats/live"
	"github.com/fogna/football-stats/repositories"
	"github.com/fogna/football-stats/services"
	"github.com/fogna/football-stats/storage"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

const leagueCSV = "Div,Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR\n" +
	"E0,11/08/2023,A,B,2,0,H\n" +
	"E0,18/08/2023,B,C,1,1,D\n" +
	"E0,25/08/2023,C,A,0,1,A\n"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:", time.Second)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(context.Background(), conn, db.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	uploader, err := storage.NewLocalDiskUploader(t.TempDir())
	if err != nil {
		t.Fatalf("uploader: %v", err)
	}
	hub := live.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	authService, err := services.NewAuthService(services.AuthConfig{
		Secret:         "routes-test-secret",
		TTL:            time.Hour,
		AdminPassword:  "admin-pass",
		ViewerPassword: "viewer-pass",
		BcryptCost:     bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	matchRepo := repositories.NewMatchRepository(conn, db.DriverSQLite)
	importService := services.NewImportService(matchRepo, uploader, hub, nil)
	exportService := services.NewExportService(matchRepo, uploader, nil)

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Auth:      handlers.NewAuthHandler(authService, false),
		Standings: handlers.NewStandingsHandler(services.NewStandingsService(matchRepo)),
		Admin:     handlers.NewAdminHandler(importService, exportService, 1<<20),
		Dashboard: handlers.NewDashboardHandler(services.NewDashboardService(matchRepo)),
		WebSocket: handlers.NewWebSocketHandler(hub, []string{"http://localhost:3000"}),
		Health:    handlers.NewHealthHandler(conn),
	}, Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		TokenParser:    authService,
	})
	return router
}

func do(t *testing.T, h http.Handler, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, role, password string) string {
	t.Helper()
	body := bytes.NewBufferString(`{"role":"` + role + `","password":"` + password + `"}`)
	rec := do(t, h, http.MethodPost, "/auth/login", "", body, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", role, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("expected session cookie")
	}
	return resp.Token
}

func upload(t *testing.T, h http.Handler, token, filename, content, mode string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	if mode != "" {
		mw.WriteField("mode", mode)
	}
	mw.Close()
	return do(t, h, http.MethodPost, "/api/admin/imports", token, &buf, mw.FormDataContentType())
}

func TestAuthGates(t *testing.T) {
	router := newTestRouter(t)

	if rec := do(t, router, http.MethodGet, "/api/standings?league=E0&season=2023-2024", "", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	bad := bytes.NewBufferString(`{"role":"admin","password":"viewer-pass"}`)
	if rec := do(t, router, http.MethodPost, "/auth/login", "", bad, "application/json"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	viewer := login(t, router, "viewer", "viewer-pass")
	if rec := upload(t, router, viewer, "E0-2023-2024.csv", leagueCSV, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer import, got %d", rec.Code)
	}

	rec := do(t, router, http.MethodGet, "/auth/me", viewer, nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"role": "viewer"`) {
		t.Fatalf("unexpected /auth/me: %d %s", rec.Code, rec.Body.String())
	}
}

func TestImportStandingsAndLeaderboard(t *testing.T) {
	router := newTestRouter(t)
	admin := login(t, router, "admin", "admin-pass")
	viewer := login(t, router, "viewer", "viewer-pass")

	rec := upload(t, router, admin, "E0-2023-2024.csv", leagueCSV, "overwrite")
	if rec.Code != http.StatusCreated {
		t.Fatalf("import: status %d, body %s", rec.Code, rec.Body.String())
	}
	var imported struct {
		Import services.ImportResult `json:"import"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &imported); err != nil {
		t.Fatalf("decode import: %v", err)
	}
	if imported.Import.Inserted != 3 || imported.Import.Season == nil || *imported.Import.Season != "2023-2024" {
		t.Fatalf("unexpected import result: %+v", imported.Import)
	}
	if !strings.HasPrefix(imported.Import.ArchiveURL, "file://") {
		t.Fatalf("expected archived upload, got %q", imported.Import.ArchiveURL)
	}

	rec = do(t, router, http.MethodGet, "/api/standings?league=E0&season=2023-2024", viewer, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("standings: %d %s", rec.Code, rec.Body.String())
	}
	var table struct {
		Standings []struct {
			Rank   int    `json:"rank"`
			Team   string `json:"team"`
			Points int    `json:"points"`
		} `json:"standings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &table); err != nil {
		t.Fatalf("decode standings: %v", err)
	}
	var order []string
	for _, row := range table.Standings {
		order = append(order, row.Team)
	}
	if strings.Join(order, ",") != "A,C,B" || table.Standings[0].Points != 6 {
		t.Fatalf("unexpected standings: %+v", table.Standings)
	}

	rec = do(t, router, http.MethodGet, "/api/leaderboard?season=2023-2024&threshold=50", viewer, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard: %d %s", rec.Code, rec.Body.String())
	}
	var board struct {
		Leaderboard []struct {
			Team   string  `json:"team"`
			WinPct float64 `json:"win_pct"`
		} `json:"leaderboard"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(board.Leaderboard) != 1 || board.Leaderboard[0].Team != "A" || board.Leaderboard[0].WinPct != 100 {
		t.Fatalf("unexpected leaderboard: %+v", board.Leaderboard)
	}

	checks := []struct {
		path string
		want int
	}{
		{"/api/standings?league=E0", http.StatusBadRequest},
		{"/api/leaderboard?season=2023-2024&threshold=abc", http.StatusBadRequest},
		{"/api/leaderboard?season=2023-2024&threshold=120", http.StatusBadRequest},
		{"/api/leaderboard?season=2023-2024&threshold=NaN", http.StatusBadRequest},
		{"/api/leaderboard?season=2023-2024&threshold=Inf", http.StatusBadRequest},
		{"/api/leaderboard", http.StatusOK},
		{"/api/teams?league=E0", http.StatusOK},
		{"/api/overview", http.StatusOK},
	}
	for _, c := range checks {
		if rec := do(t, router, http.MethodGet, c.path, viewer, nil, ""); rec.Code != c.want {
			t.Errorf("%s: expected %d, got %d", c.path, c.want, rec.Code)
		}
	}
}

func TestAdminExportAndDelete(t *testing.T) {
	router := newTestRouter(t)
	admin := login(t, router, "admin", "admin-pass")

	if rec := upload(t, router, admin, "E0-2023-2024.csv", leagueCSV, ""); rec.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", rec.Code, rec.Body.String())
	}
	if rec := upload(t, router, admin, "empty-2023-2024.csv", "Div,HomeTeam,AwayTeam\n", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty import, got %d", rec.Code)
	}
	if rec := upload(t, router, admin, "data.csv", leagueCSV, "overwrite"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for overwrite without season, got %d", rec.Code)
	}

	rec := do(t, router, http.MethodGet, "/api/admin/export", admin, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "fogna_") {
		t.Fatalf("unexpected disposition: %s", rec.Header().Get("Content-Disposition"))
	}
	if lines := strings.Count(rec.Body.String(), "\n"); lines != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", lines)
	}

	rec = do(t, router, http.MethodPost, "/api/admin/export/archive", admin, nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("archive export: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodDelete, "/api/admin/seasons/2023-2024", admin, nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"removed": 3`) {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/seasons", admin, nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"seasons": []`) {
		t.Fatalf("expected no seasons after delete: %s", rec.Body.String())
	}
}

func TestPublicEndpoints(t *testing.T) {
	router := newTestRouter(t)

	if rec := do(t, router, http.MethodGet, "/healthz", "", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	rec := do(t, router, http.MethodGet, "/swagger/doc.json", "", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Football Stats API") {
		t.Fatalf("doc.json: %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/auth/logout", "", nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/nope", "", nil, ""); rec.Code != http.StatusNotFound || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unknown route: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
}
