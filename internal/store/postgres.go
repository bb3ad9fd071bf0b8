package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/hiresignal/scout-cli/internal/db"
	"github.com/hiresignal/scout-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool        db.Pool
	closeFn     func()
	responseTTL time.Duration
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// Query texts shared between call sites and the per-connection prepare
// pass.
const (
	qInsertRun = `INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`
	qFinishRun = `UPDATE runs SET status = $1, stats = $2, error = $3, finished_at = $4 WHERE id = $5`
	qLatestRun = `SELECT id, status, stats, error, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT 1`
	qListRuns  = `SELECT id, status, stats, error, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT $1`

	qLoadSeenIDs = `SELECT id FROM seen_ids`

	qGetResponse = `SELECT response FROM llm_cache WHERE key = $1 AND expires_at > now()`
	qSetResponse = `INSERT INTO llm_cache (key, response, cached_at, expires_at) VALUES ($1, $2, $3, $4)
	 ON CONFLICT (key) DO UPDATE SET response = $2, cached_at = $3, expires_at = $4`
	qDeleteExpired = `DELETE FROM llm_cache WHERE expires_at <= now()`
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":     qInsertRun,
	"finish_run":     qFinishRun,
	"latest_run":     qLatestRun,
	"get_response":   qGetResponse,
	"set_response":   qSetResponse,
	"delete_expired": qDeleteExpired,
	"load_seen_ids":  qLoadSeenIDs,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, opts Options) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if opts.Pool != nil {
		if opts.Pool.MaxConns > 0 {
			maxConns = opts.Pool.MaxConns
		}
		if opts.Pool.MinConns > 0 {
			minConns = opts.Pool.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	ttl := opts.ResponseTTL
	if ttl == 0 {
		ttl = defaultResponseTTL
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, responseTTL: ttl}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	company    TEXT NOT NULL,
	title      TEXT NOT NULL,
	link       TEXT NOT NULL,
	score      DOUBLE PRECISION NOT NULL DEFAULT 0,
	category   TEXT,
	status     TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS seen_ids (
	id         TEXT PRIMARY KEY,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	stats       JSONB,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS llm_cache (
	key        TEXT PRIMARY KEY,
	response   TEXT NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);
CREATE INDEX IF NOT EXISTS idx_leads_category ON leads(category);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score DESC);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_llm_cache_expires_at ON llm_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LoadSeenIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, qLoadSeenIDs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load seen ids")
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan seen id")
		}
		seen[id] = struct{}{}
	}
	return seen, eris.Wrap(rows.Err(), "postgres: load seen ids iterate")
}

func (s *PostgresStore) RecordSeenIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []any{id, now})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "seen_ids",
		Columns:      []string{"id", "first_seen"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{},
	}, rows)
	return eris.Wrap(err, "postgres: record seen ids")
}

func (s *PostgresStore) AppendLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(leads))
	for i := range leads {
		l := &leads[i]
		data, err := json.Marshal(l)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal lead %s", l.ID)
		}
		rows = append(rows, []any{
			l.ID, l.Source, l.Company, l.Title, l.Link,
			l.Score, string(l.Category), string(l.Status), data, l.CreatedAt.UTC(),
		})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "leads",
		Columns:      []string{"id", "source", "company", "title", "link", "score", "category", "status", "data", "created_at"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"score", "category", "status", "data"},
	}, rows)
	return eris.Wrap(err, "postgres: append leads")
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, string(filter.Category))
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.Since.UTC())
		argIdx++
	}
	query += ` ORDER BY score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		var l model.Lead
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, qInsertRun, id, string(model.RunStatusRunning), now)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{ID: id, Status: model.RunStatusRunning, StartedAt: now}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *model.Run) error {
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run stats")
	}

	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}

	tag, err := s.pool.Exec(ctx, qFinishRun,
		string(run.Status), statsJSON, run.Error, finished, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) GetLatestRun(ctx context.Context) (*model.Run, error) {
	run, err := scanPgRun(s.pool.QueryRow(ctx, qLatestRun))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get latest run")
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, qListRuns, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetCachedResponse(ctx context.Context, key string) (string, bool, error) {
	var response string
	err := s.pool.QueryRow(ctx, qGetResponse, key).Scan(&response)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, eris.Wrap(err, "postgres: get cached response")
	}
	return response, true, nil
}

func (s *PostgresStore) SetCachedResponse(ctx context.Context, key, text string) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, qSetResponse, key, text, now, now.Add(s.responseTTL))
	return eris.Wrap(err, "postgres: set cached response")
}

func (s *PostgresStore) DeleteExpiredResponses(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, qDeleteExpired)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired responses")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var statsJSON []byte
	var errMsg *string
	var finishedAt *time.Time

	if err := row.Scan(&r.ID, &r.Status, &statsJSON, &errMsg, &r.StartedAt, &finishedAt); err != nil {
		return nil, err
	}

	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &r.Stats); err != nil {
			return nil, eris.Wrap(err, "unmarshal run stats")
		}
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	if finishedAt != nil {
		t := finishedAt.UTC()
		r.FinishedAt = &t
	}
	return &r, nil
}
