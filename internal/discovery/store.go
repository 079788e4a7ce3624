package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/bellezapp/discovery-cli/internal/db"
	"github.com/bellezapp/discovery-cli/internal/model"
)

// ErrNotFound is returned when a salon does not exist.
var ErrNotFound = eris.New("discovery: salon not found")

// ErrSpatialUnsupported signals that the backend has no spatial radius
// query; callers fall back to SalonsWithCoordinates and filter client-side.
var ErrSpatialUnsupported = eris.New("discovery: spatial query not supported")

// Store defines persistence operations for salon discovery and outreach.
type Store interface {
	GetSalon(ctx context.Context, id string) (*model.DiscoveredSalon, error)

	// SalonsWithinRadius returns salons within radiusKM of a point,
	// nearest first, capped at limit. Backends without spatial support
	// return ErrSpatialUnsupported.
	SalonsWithinRadius(ctx context.Context, lat, lng, radiusKM float64, limit int) ([]model.DiscoveredSalon, error)

	// SalonsWithCoordinates returns a bounded pool of salons that have
	// coordinates, for client-side distance filtering.
	SalonsWithCoordinates(ctx context.Context, limit int) ([]model.DiscoveredSalon, error)

	// UpsertInterest records an interest signal, deduplicated per
	// (salon, user). Inserting an existing pair is a no-op.
	UpsertInterest(ctx context.Context, salonID, userID string) error

	// CountInterest returns the exact distinct-row interest count.
	CountInterest(ctx context.Context, salonID string) (int, error)

	// MarkSelected promotes a discovered salon to selected and stamps
	// the selection timestamps. first_selected_at is written at most
	// once, atomically; last_selected_at is always refreshed.
	MarkSelected(ctx context.Context, salonID string, now time.Time) error

	// RecordOutreach applies the state mutation of a successful send:
	// last_outreach_at, outreach_count+1, channel, status outreach_sent.
	RecordOutreach(ctx context.Context, salonID, channel string, now time.Time) error

	// ListFollowupCandidates returns salons eligible for the scheduled
	// sweep: first_selected_at set, status non-terminal, outreach_count
	// below maxAttempts, and last_outreach_at unset or past cooldown.
	ListFollowupCandidates(ctx context.Context, now time.Time, cooldown time.Duration, maxAttempts, limit int) ([]model.DiscoveredSalon, error)

	// UpdateStatus moves a salon to target, rejecting transitions the
	// lifecycle state machine does not allow.
	UpdateStatus(ctx context.Context, salonID string, target model.Status) error

	Migrate(ctx context.Context) error
	Close() error
}

// PostgresStore implements Store using pgx. The radius query requires the
// postgis extension; when it fails the ranking path falls back to the
// plain candidate pool transparently.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgresStore creates a PostgresStore on an existing pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// WithCloser attaches a close function invoked by Close, used when the
// store owns the pool lifecycle.
func (s *PostgresStore) WithCloser(fn func()) *PostgresStore {
	s.closeFn = fn
	return s
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS discovered_salons (
	id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name              TEXT NOT NULL,
	phone             TEXT NOT NULL DEFAULT '',
	whatsapp          TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL DEFAULT '',
	latitude          DOUBLE PRECISION,
	longitude         DOUBLE PRECISION,
	address           TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL DEFAULT '',
	specialties       TEXT[] NOT NULL DEFAULT '{}',
	rating_avg        DOUBLE PRECISION,
	rating_count      INTEGER NOT NULL DEFAULT 0,
	feature_image     TEXT NOT NULL DEFAULT '',
	working_hours     TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	facebook          TEXT NOT NULL DEFAULT '',
	instagram         TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'discovered',
	first_selected_at TIMESTAMPTZ,
	last_selected_at  TIMESTAMPTZ,
	outreach_count    INTEGER NOT NULL DEFAULT 0,
	last_outreach_at  TIMESTAMPTZ,
	outreach_channel  TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS interest_signals (
	id         UUID PRIMARY KEY,
	salon_id   UUID NOT NULL REFERENCES discovered_salons(id),
	user_id    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (salon_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_salons_status ON discovered_salons(status);
CREATE INDEX IF NOT EXISTS idx_salons_coords ON discovered_salons(latitude, longitude)
	WHERE latitude IS NOT NULL AND longitude IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_signals_salon ON interest_signals(salon_id);
`

// Migrate creates the salon and interest-signal tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "discovery: migrate")
	}
	return nil
}

// Close releases the underlying pool if this store owns it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// salonColumns selects all salon fields plus the derived interest count.
// interest_count is always an exact distinct-row count, never a cached
// counter, so transient skew from concurrent signals self-heals on read.
const salonColumns = `s.id, s.name, s.phone, s.whatsapp, s.email,
	s.latitude, s.longitude, s.address, s.city, s.category, s.specialties,
	s.rating_avg, s.rating_count, s.feature_image, s.working_hours,
	s.website, s.facebook, s.instagram, s.status,
	s.first_selected_at, s.last_selected_at,
	s.outreach_count, s.last_outreach_at, s.outreach_channel, s.created_at,
	(SELECT COUNT(*) FROM interest_signals i WHERE i.salon_id = s.id) AS interest_count`

// GetSalon returns one salon by id.
func (s *PostgresStore) GetSalon(ctx context.Context, id string) (*model.DiscoveredSalon, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+salonColumns+` FROM discovered_salons s WHERE s.id = $1`, id)

	salon, err := scanSalonRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "discovery: get salon %s", id)
	}
	return salon, nil
}

// SalonsWithinRadius performs a PostGIS ST_DWithin query, nearest first.
func (s *PostgresStore) SalonsWithinRadius(ctx context.Context, lat, lng, radiusKM float64, limit int) ([]model.DiscoveredSalon, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+salonColumns+`
		FROM discovered_salons s
		WHERE s.latitude IS NOT NULL AND s.longitude IS NOT NULL
			AND ST_DWithin(
				ST_SetSRID(ST_MakePoint(s.longitude, s.latitude), 4326)::geography,
				ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
				$3)
		ORDER BY ST_SetSRID(ST_MakePoint(s.longitude, s.latitude), 4326) <->
			ST_SetSRID(ST_MakePoint($1, $2), 4326)
		LIMIT $4`,
		lng, lat, radiusKM*1000, limit)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: salons within radius")
	}
	defer rows.Close()

	return scanSalons(rows)
}

// SalonsWithCoordinates returns a bounded candidate pool with non-null
// coordinates, used by the non-spatial fallback path.
func (s *PostgresStore) SalonsWithCoordinates(ctx context.Context, limit int) ([]model.DiscoveredSalon, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+salonColumns+`
		FROM discovered_salons s
		WHERE s.latitude IS NOT NULL AND s.longitude IS NOT NULL
		ORDER BY s.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: salons with coordinates")
	}
	defer rows.Close()

	return scanSalons(rows)
}

// UpsertInterest inserts an interest signal, ignoring duplicates.
func (s *PostgresStore) UpsertInterest(ctx context.Context, salonID, userID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO interest_signals (id, salon_id, user_id, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (salon_id, user_id) DO NOTHING`,
		uuid.New().String(), salonID, userID)
	if err != nil {
		return eris.Wrapf(err, "discovery: upsert interest for salon %s", salonID)
	}
	return nil
}

// CountInterest counts distinct interest signals for a salon.
func (s *PostgresStore) CountInterest(ctx context.Context, salonID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM interest_signals WHERE salon_id = $1`, salonID,
	).Scan(&count)
	if err != nil {
		return 0, eris.Wrapf(err, "discovery: count interest for salon %s", salonID)
	}
	return count, nil
}

// MarkSelected promotes a discovered salon to selected in one atomic
// statement. COALESCE keeps first_selected_at write-once under concurrent
// first-time signals.
func (s *PostgresStore) MarkSelected(ctx context.Context, salonID string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE discovered_salons SET
			status = CASE WHEN status = 'discovered' THEN 'selected' ELSE status END,
			first_selected_at = COALESCE(first_selected_at, $2),
			last_selected_at = $2
		WHERE id = $1`,
		salonID, now)
	if err != nil {
		return eris.Wrapf(err, "discovery: mark selected %s", salonID)
	}
	return nil
}

// RecordOutreach applies the successful-send mutation. The status guard
// keeps terminal and not-yet-selected salons untouched.
func (s *PostgresStore) RecordOutreach(ctx context.Context, salonID, channel string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE discovered_salons SET
			last_outreach_at = $2,
			outreach_count = outreach_count + 1,
			outreach_channel = $3,
			status = 'outreach_sent'
		WHERE id = $1 AND status IN ('selected', 'outreach_sent')`,
		salonID, now, channel)
	if err != nil {
		return eris.Wrapf(err, "discovery: record outreach %s", salonID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrInvalidTransition, "discovery: record outreach %s", salonID)
	}
	return nil
}

// ListFollowupCandidates selects sweep-eligible salons, never-contacted
// first, then oldest contact.
func (s *PostgresStore) ListFollowupCandidates(ctx context.Context, now time.Time, cooldown time.Duration, maxAttempts, limit int) ([]model.DiscoveredSalon, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := now.Add(-cooldown)

	rows, err := s.pool.Query(ctx, `
		SELECT `+salonColumns+`
		FROM discovered_salons s
		WHERE s.first_selected_at IS NOT NULL
			AND s.status NOT IN ('registered', 'declined', 'unreachable')
			AND s.outreach_count < $1
			AND (s.last_outreach_at IS NULL OR s.last_outreach_at < $2)
		ORDER BY s.last_outreach_at NULLS FIRST, s.first_selected_at
		LIMIT $3`,
		maxAttempts, cutoff, limit)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: list followup candidates")
	}
	defer rows.Close()

	return scanSalons(rows)
}

// UpdateStatus validates the transition against the current row before
// writing, and only writes when the row still holds the status the
// decision was made against.
func (s *PostgresStore) UpdateStatus(ctx context.Context, salonID string, target model.Status) error {
	if !target.Valid() {
		return eris.Errorf("discovery: unknown status %q", target)
	}

	var current model.Status
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM discovered_salons WHERE id = $1`, salonID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return eris.Wrapf(err, "discovery: read status %s", salonID)
	}

	if !current.CanTransition(target) {
		return eris.Wrapf(model.ErrInvalidTransition, "discovery: %s -> %s", current, target)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE discovered_salons SET status = $2 WHERE id = $1 AND status = $3`,
		salonID, target, current)
	if err != nil {
		return eris.Wrapf(err, "discovery: update status %s", salonID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrInvalidTransition, "discovery: status of %s changed concurrently", salonID)
	}
	return nil
}

func scanSalons(rows pgx.Rows) ([]model.DiscoveredSalon, error) {
	var salons []model.DiscoveredSalon
	for rows.Next() {
		salon, err := scanSalonRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "discovery: scan salon")
		}
		salons = append(salons, *salon)
	}
	return salons, rows.Err()
}

func scanSalonRow(row pgx.Row) (*model.DiscoveredSalon, error) {
	var s model.DiscoveredSalon
	err := row.Scan(
		&s.ID, &s.Name, &s.Phone, &s.WhatsApp, &s.Email,
		&s.Latitude, &s.Longitude, &s.Address, &s.City, &s.Category, &s.Specialties,
		&s.RatingAvg, &s.RatingCount, &s.FeatureImage, &s.WorkingHours,
		&s.Website, &s.Facebook, &s.Instagram, &s.Status,
		&s.FirstSelectedAt, &s.LastSelectedAt,
		&s.OutreachCount, &s.LastOutreachAt, &s.OutreachChannel, &s.CreatedAt,
		&s.InterestCount,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
