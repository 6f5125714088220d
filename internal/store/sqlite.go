package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/attribution-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS call_records (
	id          INTEGER PRIMARY KEY,
	direction   TEXT NOT NULL,
	received_at DATETIME NOT NULL,
	data        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ad_leads (
	id         TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	data       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS source_mappings (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	identifier_type  TEXT NOT NULL,
	identifier_value TEXT NOT NULL,
	source           TEXT NOT NULL,
	trade            TEXT,
	is_active        INTEGER NOT NULL DEFAULT 1,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (identifier_type, identifier_value)
);

CREATE TABLE IF NOT EXISTS master_leads (
	id              TEXT PRIMARY KEY,
	origin_key      TEXT NOT NULL UNIQUE,
	primary_source  TEXT NOT NULL,
	recon_status    TEXT NOT NULL,
	lead_created_at DATETIME NOT NULL,
	data            TEXT NOT NULL,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_call_records_received_at ON call_records(received_at);
CREATE INDEX IF NOT EXISTS idx_call_records_direction ON call_records(direction);
CREATE INDEX IF NOT EXISTS idx_ad_leads_created_at ON ad_leads(created_at);
CREATE INDEX IF NOT EXISTS idx_source_mappings_active ON source_mappings(is_active);
CREATE INDEX IF NOT EXISTS idx_master_leads_source ON master_leads(primary_source);
CREATE INDEX IF NOT EXISTS idx_master_leads_recon_status ON master_leads(recon_status);
CREATE INDEX IF NOT EXISTS idx_master_leads_lead_created_at ON master_leads(lead_created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCallRecords(ctx context.Context, calls []model.CallRecord) (int, error) {
	if len(calls) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert calls")
	}
	defer tx.Rollback()

	for _, c := range calls {
		data, err := json.Marshal(c)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal call %d", c.ID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO call_records (id, direction, received_at, data) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET direction = excluded.direction, received_at = excluded.received_at, data = excluded.data`,
			c.ID, string(c.Direction), c.ReceivedAt.UTC(), string(data),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert call %d", c.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert calls")
	}
	return len(calls), nil
}

func (s *SQLiteStore) ListCallRecords(ctx context.Context, filter CallFilter) ([]model.CallRecord, error) {
	query := `SELECT data FROM call_records WHERE 1=1`
	var args []any

	if filter.InboundOnly {
		query += ` AND direction = ?`
		args = append(args, string(model.DirectionInbound))
	}
	if !filter.From.IsZero() {
		query += ` AND received_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query += ` AND received_at < ?`
		args = append(args, filter.To.UTC())
	}
	query += ` ORDER BY received_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list calls")
	}
	defer rows.Close()

	var calls []model.CallRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan call")
		}
		var c model.CallRecord
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal call")
		}
		calls = append(calls, c)
	}
	return calls, eris.Wrap(rows.Err(), "sqlite: list calls iterate")
}

func (s *SQLiteStore) UpsertAdLeads(ctx context.Context, leads []model.AdLead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert ad leads")
	}
	defer tx.Rollback()

	for _, l := range leads {
		data, err := json.Marshal(l)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal ad lead %s", l.ID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ad_leads (id, created_at, data) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, data = excluded.data`,
			l.ID, l.CreatedAt.UTC(), string(data),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert ad lead %s", l.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert ad leads")
	}
	return len(leads), nil
}

func (s *SQLiteStore) ListAdLeads(ctx context.Context, filter AdLeadFilter) ([]model.AdLead, error) {
	query := `SELECT data FROM ad_leads WHERE 1=1`
	var args []any

	if !filter.From.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, filter.To.UTC())
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ad leads")
	}
	defer rows.Close()

	var leads []model.AdLead
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ad lead")
		}
		var l model.AdLead
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal ad lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list ad leads iterate")
}

func (s *SQLiteStore) UpsertSourceMapping(ctx context.Context, m model.SourceMapping) error {
	var trade *string
	if m.Trade != nil {
		t := string(*m.Trade)
		trade = &t
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_mappings (identifier_type, identifier_value, source, trade, is_active, updated_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(identifier_type, identifier_value) DO UPDATE SET
		   source = excluded.source, trade = excluded.trade, is_active = excluded.is_active, updated_at = excluded.updated_at`,
		m.IdentifierType, m.IdentifierValue, string(m.Source), trade, m.IsActive,
	)
	return eris.Wrapf(err, "sqlite: upsert mapping %s=%s", m.IdentifierType, m.IdentifierValue)
}

func (s *SQLiteStore) ListSourceMappings(ctx context.Context, activeOnly bool) ([]model.SourceMapping, error) {
	query := `SELECT id, identifier_type, identifier_value, source, trade, is_active, created_at, updated_at FROM source_mappings`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY identifier_type, identifier_value`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list mappings")
	}
	defer rows.Close()

	var mappings []model.SourceMapping
	for rows.Next() {
		var m model.SourceMapping
		var source string
		var trade sql.NullString
		if err := rows.Scan(&m.ID, &m.IdentifierType, &m.IdentifierValue, &source, &trade, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan mapping")
		}
		m.Source = model.LeadSource(source)
		if trade.Valid {
			t := model.Trade(trade.String)
			m.Trade = &t
		}
		mappings = append(mappings, m)
	}
	return mappings, eris.Wrap(rows.Err(), "sqlite: list mappings iterate")
}

func (s *SQLiteStore) SaveMasterLead(ctx context.Context, ml model.MasterLead) (*model.MasterLead, error) {
	originKey := ml.OriginKey()
	if originKey == "" {
		return nil, eris.New("sqlite: master lead has no originating record")
	}

	// Keep the original identity when this origin was reconciled before, so
	// a master lead is created exactly once per originating record.
	var existingID string
	var existingCreatedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM master_leads WHERE origin_key = ?`, originKey,
	).Scan(&existingID, &existingCreatedAt)
	switch {
	case err == nil:
		ml.ID = existingID
		ml.CreatedAt = existingCreatedAt
	case err != sql.ErrNoRows:
		return nil, eris.Wrapf(err, "sqlite: lookup master lead %s", originKey)
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
		return nil, eris.Wrapf(err, "sqlite: marshal master lead %s", originKey)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO master_leads (id, origin_key, primary_source, recon_status, lead_created_at, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(origin_key) DO UPDATE SET
		   primary_source = excluded.primary_source, recon_status = excluded.recon_status,
		   lead_created_at = excluded.lead_created_at, data = excluded.data, updated_at = excluded.updated_at`,
		ml.ID, originKey, string(ml.PrimarySource), string(ml.ReconStatus),
		ml.LeadCreatedAt.UTC(), string(data), ml.CreatedAt.UTC(), ml.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert master lead %s", originKey)
	}
	return &ml, nil
}

func (s *SQLiteStore) ListMasterLeads(ctx context.Context, filter LeadFilter) ([]model.MasterLead, error) {
	query := `SELECT data FROM master_leads WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND primary_source = ?`
		args = append(args, string(filter.Source))
	}
	if filter.ReconStatus != "" {
		query += ` AND recon_status = ?`
		args = append(args, string(filter.ReconStatus))
	}
	if !filter.From.IsZero() {
		query += ` AND lead_created_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query += ` AND lead_created_at < ?`
		args = append(args, filter.To.UTC())
	}
	query += ` ORDER BY lead_created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list master leads")
	}
	defer rows.Close()

	var leads []model.MasterLead
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan master lead")
		}
		var ml model.MasterLead
		if err := json.Unmarshal([]byte(data), &ml); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal master lead")
		}
		leads = append(leads, ml)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list master leads iterate")
}
