package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fogna/football-stats/db"
	"github.com/fogna/football-stats/models"
	"github.com/fogna/football-stats/repositories"
	"github.com/fogna/football-stats/storage"
)

type fakeMatchRepo struct {
	repositories.MatchRepository

	matches      []models.MatchRecord
	queryCalls   int
	lastFilter   models.MatchFilter
	inserted     []models.MatchRecord
	insertSeason *string
	insertMode   models.ImportMode
	insertErr    error
	deleted      []string
}

func (f *fakeMatchRepo) QueryMatches(_ context.Context, filter models.MatchFilter) ([]models.MatchRecord, error) {
	f.queryCalls++
	f.lastFilter = filter
	return f.matches, nil
}

func (f *fakeMatchRepo) InsertBatch(_ context.Context, records []models.MatchRecord, season *string, mode models.ImportMode) (int, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = records
	f.insertSeason = season
	f.insertMode = mode
	return len(records), nil
}

func (f *fakeMatchRepo) DeleteSeason(_ context.Context, season string) (int64, error) {
	f.deleted = append(f.deleted, season)
	return 3, nil
}

func intp(v int) *int { return &v }

func strp(v string) *string { return &v }

func played(div, season, home, away string, hg, ag int) models.MatchRecord {
	return models.MatchRecord{Div: div, Season: strp(season), HomeTeam: home, AwayTeam: away, FTHG: intp(hg), FTAG: intp(ag)}
}

func (f *fakeMatchRepo) SeasonSummaries(_ context.Context) ([]models.SeasonSummary, error) {
	return nil, nil
}

type fakeUploader struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	deleted  []string
	failWith error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	if u.failWith != nil {
		return nil, u.failWith
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	u.types[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://archive.test/" + key
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Notify(event string, _ interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func newSQLiteRepo(t *testing.T) repositories.MatchRepository {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:", time.Second)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(context.Background(), conn, db.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repositories.NewMatchRepository(conn, db.DriverSQLite)
}
