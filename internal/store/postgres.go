package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/attribution-cli/internal/db"
	"github.com/sells-group/attribution-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"lookup_master_lead": `SELECT id, created_at FROM master_leads WHERE origin_key = $1`,
	"upsert_master_lead": `INSERT INTO master_leads (id, origin_key, primary_source, recon_status, lead_created_at, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (origin_key) DO UPDATE SET
		  primary_source = EXCLUDED.primary_source, recon_status = EXCLUDED.recon_status,
		  lead_created_at = EXCLUDED.lead_created_at, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
	"upsert_source_mapping": `INSERT INTO source_mappings (identifier_type, identifier_value, source, trade, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (identifier_type, identifier_value) DO UPDATE SET
		  source = EXCLUDED.source, trade = EXCLUDED.trade, is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

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
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS call_records (
	id          BIGINT PRIMARY KEY,
	direction   TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL,
	data        JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS ad_leads (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	data       JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS source_mappings (
	id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	identifier_type  TEXT NOT NULL,
	identifier_value TEXT NOT NULL,
	source           TEXT NOT NULL,
	trade            TEXT,
	is_active        BOOLEAN NOT NULL DEFAULT true,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (identifier_type, identifier_value)
);

CREATE TABLE IF NOT EXISTS master_leads (
	id              TEXT PRIMARY KEY,
	origin_key      TEXT NOT NULL UNIQUE,
	primary_source  TEXT NOT NULL,
	recon_status    TEXT NOT NULL,
	lead_created_at TIMESTAMPTZ NOT NULL,
	data            JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_call_records_received_at ON call_records(received_at);
CREATE INDEX IF NOT EXISTS idx_call_records_direction ON call_records(direction);
CREATE INDEX IF NOT EXISTS idx_ad_leads_created_at ON ad_leads(created_at);
CREATE INDEX IF NOT EXISTS idx_source_mappings_active ON source_mappings(is_active);
CREATE INDEX IF NOT EXISTS idx_master_leads_source ON master_leads(primary_source);
CREATE INDEX IF NOT EXISTS idx_master_leads_recon_status ON master_leads(recon_status);
CREATE INDEX IF NOT EXISTS idx_master_leads_lead_created_at ON master_leads(lead_created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertCallRecords(ctx context.Context, calls []model.CallRecord) (int, error) {
	rows := make([][]any, 0, len(calls))
	for _, c := range calls {
		data, err := json.Marshal(c)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal call %d", c.ID)
		}
		rows = append(rows, []any{c.ID, string(c.Direction), c.ReceivedAt.UTC(), string(data)})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "call_records",
		Columns:      []string{"id", "direction", "received_at", "data"},
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert calls")
	}
	return int(n), nil
}

func (s *PostgresStore) ListCallRecords(ctx context.Context, filter CallFilter) ([]model.CallRecord, error) {
	query := `SELECT data FROM call_records WHERE 1=1`
	var args []any

	if filter.InboundOnly {
		args = append(args, string(model.DirectionInbound))
		query += ` AND direction = ` + placeholder(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		query += ` AND received_at >= ` + placeholder(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		query += ` AND received_at < ` + placeholder(len(args))
	}
	query += ` ORDER BY received_at, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT ` + placeholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list calls")
	}
	defer rows.Close()

	var calls []model.CallRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan call")
		}
		var c model.CallRecord
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal call")
		}
		calls = append(calls, c)
	}
	return calls, eris.Wrap(rows.Err(), "postgres: list calls iterate")
}

func (s *PostgresStore) UpsertAdLeads(ctx context.Context, leads []model.AdLead) (int, error) {
	rows := make([][]any, 0, len(leads))
	for _, l := range leads {
		data, err := json.Marshal(l)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal ad lead %s", l.ID)
		}
		rows = append(rows, []any{l.ID, l.CreatedAt.UTC(), string(data)})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "ad_leads",
		Columns:      []string{"id", "created_at", "data"},
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert ad leads")
	}
	return int(n), nil
}

func (s *PostgresStore) ListAdLeads(ctx context.Context, filter AdLeadFilter) ([]model.AdLead, error) {
	query := `SELECT data FROM ad_leads WHERE 1=1`
	var args []any

	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		query += ` AND created_at >= ` + placeholder(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		query += ` AND created_at < ` + placeholder(len(args))
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT ` + placeholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ad leads")
	}
	defer rows.Close()

	var leads []model.AdLead
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ad lead")
		}
		var l model.AdLead
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal ad lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list ad leads iterate")
}

func (s *PostgresStore) UpsertSourceMapping(ctx context.Context, m model.SourceMapping) error {
	var trade *string
	if m.Trade != nil {
		t := string(*m.Trade)
		trade = &t
	}
	_, err := s.pool.Exec(ctx, preparedStatements["upsert_source_mapping"],
		m.IdentifierType, m.IdentifierValue, string(m.Source), trade, m.IsActive,
	)
	return eris.Wrapf(err, "postgres: upsert mapping %s=%s", m.IdentifierType, m.IdentifierValue)
}

func (s *PostgresStore) ListSourceMappings(ctx context.Context, activeOnly bool) ([]model.SourceMapping, error) {
	query := `SELECT id, identifier_type, identifier_value, source, trade, is_active, created_at, updated_at FROM source_mappings`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY identifier_type, identifier_value`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list mappings")
	}
	defer rows.Close()

	var mappings []model.SourceMapping
	for rows.Next() {
		var m model.SourceMapping
		var source string
		var trade *string
		if err := rows.Scan(&m.ID, &m.IdentifierType, &m.IdentifierValue, &source, &trade, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan mapping")
		}
		m.Source = model.LeadSource(source)
		if trade != nil {
			t := model.Trade(*trade)
			m.Trade = &t
		}
		mappings = append(mappings, m)
	}
	return mappings, eris.Wrap(rows.Err(), "postgres: list mappings iterate")
}

func (s *PostgresStore) SaveMasterLead(ctx context.Context, ml model.MasterLead) (*model.MasterLead, error) {
	originKey := ml.OriginKey()
	if originKey == "" {
		return nil, eris.New("postgres: master lead has no originating record")
	}

	// Keep the original identity when this origin was reconciled before, so
	// a master lead is created exactly once per originating record.
	var existingID string
	var existingCreatedAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at FROM master_leads WHERE origin_key = $1`, originKey,
	).Scan(&existingID, &existingCreatedAt)
	switch {
	case err == nil:
		ml.ID = existingID
		ml.CreatedAt = existingCreatedAt
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, eris.Wrapf(err, "postgres: lookup master lead %s", originKey)
	}

	if ml.ID == "" {
		ml.ID = uuid.New().String()
	}
	if ml.CreatedAt.IsZero() {
		ml.CreatedAt = time.Now().UTC()
	}
	if ml.UpdatedAt.IsZero() {
		ml.UpdatedAt = ml.CreatedAt
	}

	data, err := json.Marshal(ml)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: marshal master lead %s", originKey)
	}

	_, err = s.pool.Exec(ctx, preparedStatements["upsert_master_lead"],
		ml.ID, originKey, string(ml.PrimarySource), string(ml.ReconStatus),
		ml.LeadCreatedAt.UTC(), string(data), ml.CreatedAt.UTC(), ml.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert master lead %s", originKey)
	}
	return &ml, nil
}

func (s *PostgresStore) ListMasterLeads(ctx context.Context, filter LeadFilter) ([]model.MasterLead, error) {
	query := `SELECT data FROM master_leads WHERE 1=1`
	var args []any

	if filter.Source != "" {
		args = append(args, string(filter.Source))
		query += ` AND primary_source = ` + placeholder(len(args))
	}
	if filter.ReconStatus != "" {
		args = append(args, string(filter.ReconStatus))
		query += ` AND recon_status = ` + placeholder(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		query += ` AND lead_created_at >= ` + placeholder(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		query += ` AND lead_created_at < ` + placeholder(len(args))
	}
	query += ` ORDER BY lead_created_at, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT ` + placeholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list master leads")
	}
	defer rows.Close()

	var leads []model.MasterLead
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan master lead")
		}
		var ml model.MasterLead
		if err := json.Unmarshal(data, &ml); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal master lead")
		}
		leads = append(leads, ml)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list master leads iterate")
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
