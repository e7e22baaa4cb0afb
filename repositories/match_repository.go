package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fogna/football-stats/db"
	"github.com/fogna/football-stats/models"
	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrEmptyBatch             = errors.New("batch contains no valid matches")
	ErrOverwriteWithoutSeason = errors.New("overwrite requires a season")
	ErrUnknownField           = errors.New("unknown match field")
	ErrSchemaMissing          = errors.New("matches table does not exist")
	ErrMatchInvalid           = errors.New("match violates a table constraint")
)

// DistinctField names a column (or column pair, for teams) that Distinct can enumerate.
type DistinctField string

const (
	FieldSeason DistinctField = "season"
	FieldLeague DistinctField = "div"
	FieldTeam   DistinctField = "team"
)

// FieldFilter is an equality predicate on a single column.
type FieldFilter struct {
	Field DistinctField
	Value string
}

type MatchRepository interface {
	InsertBatch(ctx context.Context, records []models.MatchRecord, season *string, mode models.ImportMode) (int, error)
	DeleteSeason(ctx context.Context, season string) (int64, error)
	Distinct(ctx context.Context, field DistinctField, filter *FieldFilter) ([]string, error)
	QueryMatches(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error)
	Count(ctx context.Context) (int, error)
	CountDistinct(ctx context.Context, field DistinctField) (int, error)
	SeasonSummaries(ctx context.Context) ([]models.SeasonSummary, error)
	StreamAll(ctx context.Context, fn func(models.MatchRecord) error) error
}

type sqlMatchRepository struct {
	db     *sql.DB
	driver string
}

func NewMatchRepository(conn *sql.DB, driver string) MatchRepository {
	return &sqlMatchRepository{db: conn, driver: driver}
}

const matchColumns = `id, div, date, time, home_team, away_team,
	fthg, ftag, ftr, hthg, htag, htr,
	hs, as_team, hst, ast, hf, af, hc, ac, hy, ay, hr, ar,
	season, created_at`

// filterColumns maps filterable fields to concrete columns. Never interpolate anything else.
var filterColumns = map[DistinctField]string{
	FieldSeason: "season",
	FieldLeague: "div",
}

func (r *sqlMatchRepository) q(query string) string {
	return rebind(r.driver, query)
}

// InsertBatch appends records tagged with season. In overwrite mode the existing rows
// of that season are removed in the same transaction, so a failed insert keeps them.
func (r *sqlMatchRepository) InsertBatch(ctx context.Context, records []models.MatchRecord, season *string, mode models.ImportMode) (inserted int, err error) {
	valid := make([]models.MatchRecord, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.HomeTeam) == "" || strings.TrimSpace(rec.AwayTeam) == "" {
			continue
		}
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		return 0, ErrEmptyBatch
	}
	if mode == models.ImportModeOverwrite && (season == nil || *season == "") {
		return 0, ErrOverwriteWithoutSeason
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("InsertBatch failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	if mode == models.ImportModeOverwrite {
		if _, err = r.deleteSeason(ctx, tx, *season); err != nil {
			return 0, fmt.Errorf("InsertBatch failed to clear season %s: %w", *season, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, r.q(`
		INSERT INTO matches
		    (div, date, time, home_team, away_team,
		     fthg, ftag, ftr, hthg, htag, htr,
		     hs, as_team, hst, ast, hf, af, hc, ac, hy, ay, hr, ar,
		     season, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("InsertBatch failed to prepare statement: %w", r.handleMatchError(err))
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range valid {
		m := &valid[i]
		m.Season = season
		m.CreatedAt = now
		_, err = stmt.ExecContext(ctx,
			m.Div, stringArg(m.Date), stringArg(m.Time), strings.TrimSpace(m.HomeTeam), strings.TrimSpace(m.AwayTeam),
			intArg(m.FTHG), intArg(m.FTAG), resultArg(m.FTR), intArg(m.HTHG), intArg(m.HTAG), resultArg(m.HTR),
			intArg(m.HomeShots), intArg(m.AwayShots), intArg(m.HomeShotsOnTarget), intArg(m.AwayShotsOnTarget),
			intArg(m.HomeFouls), intArg(m.AwayFouls), intArg(m.HomeCorners), intArg(m.AwayCorners),
			intArg(m.HomeYellow), intArg(m.AwayYellow), intArg(m.HomeRed), intArg(m.AwayRed),
			stringArg(season), now,
		)
		if err != nil {
			return 0, fmt.Errorf("InsertBatch failed for %s vs %s: %w", m.HomeTeam, m.AwayTeam, r.handleMatchError(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("InsertBatch failed to commit: %w", err)
	}
	return len(valid), nil
}

func (r *sqlMatchRepository) DeleteSeason(ctx context.Context, season string) (int64, error) {
	affected, err := r.deleteSeason(ctx, r.db, season)
	if err != nil {
		return 0, fmt.Errorf("failed to delete season %s: %w", season, err)
	}
	return affected, nil
}

func (r *sqlMatchRepository) deleteSeason(ctx context.Context, exec SQLExecutor, season string) (int64, error) {
	result, err := exec.ExecContext(ctx, r.q(`DELETE FROM matches WHERE season = ?`), season)
	if err != nil {
		return 0, r.handleMatchError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected, nil
}

// Distinct lists the distinct non-null values of field. Seasons come newest first,
// leagues and teams alphabetically.
func (r *sqlMatchRepository) Distinct(ctx context.Context, field DistinctField, filter *FieldFilter) ([]string, error) {
	where := ""
	var args []interface{}
	if filter != nil {
		col, ok := filterColumns[filter.Field]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, filter.Field)
		}
		where = " AND " + col + " = ?"
		args = append(args, filter.Value)
	}

	var query string
	switch field {
	case FieldSeason:
		query = `SELECT DISTINCT season FROM matches WHERE season IS NOT NULL` + where + ` ORDER BY season DESC`
	case FieldLeague:
		query = `SELECT DISTINCT div FROM matches WHERE div IS NOT NULL` + where + ` ORDER BY div ASC`
	case FieldTeam:
		query = `SELECT home_team AS team FROM matches WHERE home_team IS NOT NULL` + where +
			` UNION SELECT away_team AS team FROM matches WHERE away_team IS NOT NULL` + where +
			` ORDER BY team ASC`
		args = append(args, args...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, r.handleMatchError(err))
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *sqlMatchRepository) QueryMatches(ctx context.Context, filter models.MatchFilter) ([]models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE 1=1`
	args := []interface{}{}

	if filter.Div != "" {
		query += " AND div = ?"
		args = append(args, filter.Div)
	}
	if filter.Season != "" {
		query += " AND season = ?"
		args = append(args, filter.Season)
	}
	if len(filter.Seasons) > 0 {
		if r.driver == db.DriverPostgres {
			query += " AND season = ANY(?)"
			args = append(args, pq.Array(filter.Seasons))
		} else {
			query += " AND season IN (" + placeholders(len(filter.Seasons)) + ")"
			for _, s := range filter.Seasons {
				args = append(args, s)
			}
		}
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", r.handleMatchError(err))
	}
	defer rows.Close()

	matches := make([]models.MatchRecord, 0)
	for rows.Next() {
		m, errScan := scanMatch(rows)
		if errScan != nil {
			return nil, errScan
		}
		matches = append(matches, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *sqlMatchRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", r.handleMatchError(err))
	}
	return n, nil
}

func (r *sqlMatchRepository) CountDistinct(ctx context.Context, field DistinctField) (int, error) {
	var query string
	switch field {
	case FieldSeason:
		query = `SELECT COUNT(DISTINCT season) FROM matches WHERE season IS NOT NULL`
	case FieldLeague:
		query = `SELECT COUNT(DISTINCT div) FROM matches`
	case FieldTeam:
		query = `SELECT COUNT(*) FROM (SELECT home_team FROM matches UNION SELECT away_team FROM matches) teams`
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count distinct %s: %w", field, r.handleMatchError(err))
	}
	return n, nil
}

func (r *sqlMatchRepository) SeasonSummaries(ctx context.Context) ([]models.SeasonSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT season, COUNT(*) AS num
		FROM matches
		WHERE season IS NOT NULL
		GROUP BY season
		ORDER BY season DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize seasons: %w", r.handleMatchError(err))
	}
	defer rows.Close()

	summaries := make([]models.SeasonSummary, 0)
	for rows.Next() {
		var s models.SeasonSummary
		if err := rows.Scan(&s.Season, &s.Matches); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// StreamAll calls fn for every stored match in insertion order. It stops at the first error.
func (r *sqlMatchRepository) StreamAll(ctx context.Context, fn func(models.MatchRecord) error) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("failed to read matches: %w", r.handleMatchError(err))
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return err
		}
		if err := fn(*m); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.MatchRecord, error) {
	var (
		m                               models.MatchRecord
		date, kickoff, ftr, htr, season sql.NullString
		fthg, ftag, hthg, htag          sql.NullInt64
		hs, as, hst, ast, hf, af        sql.NullInt64
		hc, ac, hy, ay, hr, ar          sql.NullInt64
	)
	err := rowScanner.Scan(
		&m.ID, &m.Div, &date, &kickoff, &m.HomeTeam, &m.AwayTeam,
		&fthg, &ftag, &ftr, &hthg, &htag, &htr,
		&hs, &as, &hst, &ast, &hf, &af, &hc, &ac, &hy, &ay, &hr, &ar,
		&season, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Date = nullStringPtr(date)
	m.Time = nullStringPtr(kickoff)
	m.FTHG, m.FTAG = nullIntPtr(fthg), nullIntPtr(ftag)
	m.FTR = nullResultPtr(ftr)
	m.HTHG, m.HTAG = nullIntPtr(hthg), nullIntPtr(htag)
	m.HTR = nullResultPtr(htr)
	m.HomeShots, m.AwayShots = nullIntPtr(hs), nullIntPtr(as)
	m.HomeShotsOnTarget, m.AwayShotsOnTarget = nullIntPtr(hst), nullIntPtr(ast)
	m.HomeFouls, m.AwayFouls = nullIntPtr(hf), nullIntPtr(af)
	m.HomeCorners, m.AwayCorners = nullIntPtr(hc), nullIntPtr(ac)
	m.HomeYellow, m.AwayYellow = nullIntPtr(hy), nullIntPtr(ay)
	m.HomeRed, m.AwayRed = nullIntPtr(hr), nullIntPtr(ar)
	m.Season = nullStringPtr(season)
	return &m, nil
}

func nullResultPtr(v sql.NullString) *models.ResultCode {
	if !v.Valid {
		return nil
	}
	rc := models.ResultCode(v.String)
	return &rc
}

func resultArg(v *models.ResultCode) interface{} {
	if v == nil {
		return nil
	}
	return string(*v)
}

func (r *sqlMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("%w: %s", ErrSchemaMissing, pqErr.Message)
		case "23502", "23514": // not_null_violation, check_violation
			return fmt.Errorf("%w: %s", ErrMatchInvalid, pqErr.Message)
		}
	}
	var sqliteErr *sqlite.Error
	// Младший байт расширенного кода SQLite это основной код ошибки.
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %s", ErrMatchInvalid, sqliteErr.Error())
	}
	return err
}
