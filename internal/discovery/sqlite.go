package discovery

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bellezapp/discovery-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite for local and
// development use. It has no spatial index: SalonsWithinRadius returns
// ErrSpatialUnsupported and the ranking path filters client-side.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: database}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS discovered_salons (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	phone             TEXT NOT NULL DEFAULT '',
	whatsapp          TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL DEFAULT '',
	latitude          REAL,
	longitude         REAL,
	address           TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL DEFAULT '',
	specialties       TEXT NOT NULL DEFAULT '[]',
	rating_avg        REAL,
	rating_count      INTEGER NOT NULL DEFAULT 0,
	feature_image     TEXT NOT NULL DEFAULT '',
	working_hours     TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	facebook          TEXT NOT NULL DEFAULT '',
	instagram         TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'discovered',
	first_selected_at DATETIME,
	last_selected_at  DATETIME,
	outreach_count    INTEGER NOT NULL DEFAULT 0,
	last_outreach_at  DATETIME,
	outreach_channel  TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS interest_signals (
	id         TEXT PRIMARY KEY,
	salon_id   TEXT NOT NULL REFERENCES discovered_salons(id),
	user_id    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (salon_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_salons_status ON discovered_salons(status);
CREATE INDEX IF NOT EXISTS idx_signals_salon ON interest_signals(salon_id);
`

// sqliteTimeLayout matches datetime('now') output; timestamps are written
// as UTC text in this layout so SQL range comparisons against the
// datetime() column defaults stay plain string comparisons. The driver
// maps DATETIME columns back to time.Time on read.
const sqliteTimeLayout = "2006-01-02 15:04:05"

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteSalonColumns = `s.id, s.name, s.phone, s.whatsapp, s.email,
	s.latitude, s.longitude, s.address, s.city, s.category, s.specialties,
	s.rating_avg, s.rating_count, s.feature_image, s.working_hours,
	s.website, s.facebook, s.instagram, s.status,
	s.first_selected_at, s.last_selected_at,
	s.outreach_count, s.last_outreach_at, s.outreach_channel, s.created_at,
	(SELECT COUNT(*) FROM interest_signals i WHERE i.salon_id = s.id) AS interest_count`

func (s *SQLiteStore) GetSalon(ctx context.Context, id string) (*model.DiscoveredSalon, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteSalonColumns+` FROM discovered_salons s WHERE s.id = ?`, id)

	salon, err := scanSQLiteSalon(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get salon %s", id)
	}
	return salon, nil
}

// SalonsWithinRadius is not supported without a spatial index.
func (s *SQLiteStore) SalonsWithinRadius(_ context.Context, _, _, _ float64, _ int) ([]model.DiscoveredSalon, error) {
	return nil, ErrSpatialUnsupported
}

func (s *SQLiteStore) SalonsWithCoordinates(ctx context.Context, limit int) ([]model.DiscoveredSalon, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteSalonColumns+`
		FROM discovered_salons s
		WHERE s.latitude IS NOT NULL AND s.longitude IS NOT NULL
		ORDER BY s.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: salons with coordinates")
	}
	defer rows.Close()

	var salons []model.DiscoveredSalon
	for rows.Next() {
		salon, err := scanSQLiteSalon(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan salon")
		}
		salons = append(salons, *salon)
	}
	return salons, rows.Err()
}

func (s *SQLiteStore) UpsertInterest(ctx context.Context, salonID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interest_signals (id, salon_id, user_id, created_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT (salon_id, user_id) DO NOTHING`,
		uuid.New().String(), salonID, userID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert interest for salon %s", salonID)
	}
	return nil
}

func (s *SQLiteStore) CountInterest(ctx context.Context, salonID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interest_signals WHERE salon_id = ?`, salonID,
	).Scan(&count)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: count interest for salon %s", salonID)
	}
	return count, nil
}

func (s *SQLiteStore) MarkSelected(ctx context.Context, salonID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE discovered_salons SET
			status = CASE WHEN status = 'discovered' THEN 'selected' ELSE status END,
			first_selected_at = COALESCE(first_selected_at, ?),
			last_selected_at = ?
		WHERE id = ?`,
		sqliteTime(now), sqliteTime(now), salonID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark selected %s", salonID)
	}
	return nil
}

func (s *SQLiteStore) RecordOutreach(ctx context.Context, salonID, channel string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE discovered_salons SET
			last_outreach_at = ?,
			outreach_count = outreach_count + 1,
			outreach_channel = ?,
			status = 'outreach_sent'
		WHERE id = ? AND status IN ('selected', 'outreach_sent')`,
		sqliteTime(now), channel, salonID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record outreach %s", salonID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return eris.Wrapf(model.ErrInvalidTransition, "sqlite: record outreach %s", salonID)
	}
	return nil
}

func (s *SQLiteStore) ListFollowupCandidates(ctx context.Context, now time.Time, cooldown time.Duration, maxAttempts, limit int) ([]model.DiscoveredSalon, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := sqliteTime(now.Add(-cooldown))

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteSalonColumns+`
		FROM discovered_salons s
		WHERE s.first_selected_at IS NOT NULL
			AND s.status NOT IN ('registered', 'declined', 'unreachable')
			AND s.outreach_count < ?
			AND (s.last_outreach_at IS NULL OR s.last_outreach_at < ?)
		ORDER BY s.last_outreach_at IS NOT NULL, s.last_outreach_at, s.first_selected_at
		LIMIT ?`,
		maxAttempts, cutoff, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list followup candidates")
	}
	defer rows.Close()

	var salons []model.DiscoveredSalon
	for rows.Next() {
		salon, err := scanSQLiteSalon(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan salon")
		}
		salons = append(salons, *salon)
	}
	return salons, rows.Err()
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, salonID string, target model.Status) error {
	if !target.Valid() {
		return eris.Errorf("sqlite: unknown status %q", target)
	}

	var current model.Status
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM discovered_salons WHERE id = ?`, salonID,
	).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return eris.Wrapf(err, "sqlite: read status %s", salonID)
	}

	if !current.CanTransition(target) {
		return eris.Wrapf(model.ErrInvalidTransition, "sqlite: %s -> %s", current, target)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE discovered_salons SET status = ? WHERE id = ? AND status = ?`,
		target, salonID, current)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update status %s", salonID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return eris.Wrapf(model.ErrInvalidTransition, "sqlite: status of %s changed concurrently", salonID)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSalon(row scanner) (*model.DiscoveredSalon, error) {
	var s model.DiscoveredSalon
	var specialties, status string
	var firstSelected, lastSelected, lastOutreach sql.NullTime
	var createdAt time.Time
	err := row.Scan(
		&s.ID, &s.Name, &s.Phone, &s.WhatsApp, &s.Email,
		&s.Latitude, &s.Longitude, &s.Address, &s.City, &s.Category, &specialties,
		&s.RatingAvg, &s.RatingCount, &s.FeatureImage, &s.WorkingHours,
		&s.Website, &s.Facebook, &s.Instagram, &status,
		&firstSelected, &lastSelected,
		&s.OutreachCount, &lastOutreach, &s.OutreachChannel, &createdAt,
		&s.InterestCount,
	)
	if err != nil {
		return nil, err
	}

	s.Status = model.Status(status)
	if specialties != "" {
		if err := json.Unmarshal([]byte(specialties), &s.Specialties); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode specialties")
		}
	}

	s.FirstSelectedAt = nullableTime(firstSelected)
	s.LastSelectedAt = nullableTime(lastSelected)
	s.LastOutreachAt = nullableTime(lastOutreach)
	s.CreatedAt = createdAt.UTC()

	return &s, nil
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
