// Package sqlite provides SQLite-backed persistence for Syncgate.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/onboardhq/syncgate/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// persistence interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.syncgate/data/syncgate.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".syncgate", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "syncgate.db")

	// WAL mode for better concurrency between the scheduler and the HTTP
	// API. Pragmas go in the DSN so every pooled connection gets them;
	// foreign_keys in particular is per-connection in SQLite.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ConnectionStore returns a ConnectionStore backed by this store.
// Tokens cross its boundary encrypted with the given cipher.
func (s *Store) ConnectionStore(cipher driven.TokenCipher) driven.ConnectionStore {
	return &connectionStore{store: s, cipher: cipher}
}

// AppointmentStore returns an AppointmentStore backed by this store.
func (s *Store) AppointmentStore() driven.AppointmentStore {
	return &appointmentStore{store: s}
}

// Directory returns a Directory backed by this store.
func (s *Store) Directory() driven.Directory {
	return &directory{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Connection Store ====================

// connectionStore implements driven.ConnectionStore. Upsert and Delete move
// the denormalized users.google_connected flag in the same transaction as
// the connection row, so flag and record existence cannot drift.
type connectionStore struct {
	store  *Store
	cipher driven.TokenCipher
}

var _ driven.ConnectionStore = (*connectionStore)(nil)

// Get retrieves and decrypts a user's connection. Returns nil when absent.
func (s *connectionStore) Get(ctx context.Context, userID string) (*domain.Connection, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, access_token, refresh_token, expiry, scopes, created_at, updated_at
		FROM google_connections WHERE user_id = ?
	`, userID)

	var conn domain.Connection
	var encAccess, encRefresh, scopesJSON string
	err := row.Scan(&conn.UserID, &encAccess, &encRefresh, &conn.Expiry,
		&scopesJSON, &conn.CreatedAt, &conn.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying connection: %w", err)
	}

	if conn.AccessToken, err = s.cipher.Decrypt(encAccess); err != nil {
		return nil, fmt.Errorf("access token for user %s: %w", userID, err)
	}
	if conn.RefreshToken, err = s.cipher.Decrypt(encRefresh); err != nil {
		return nil, fmt.Errorf("refresh token for user %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(scopesJSON), &conn.Scopes); err != nil {
		return nil, fmt.Errorf("unmarshalling scopes: %w", err)
	}

	return &conn, nil
}

// Upsert encrypts both tokens and replaces the user's connection row whole,
// setting the connected flag in the same transaction.
func (s *connectionStore) Upsert(ctx context.Context, conn domain.Connection) error {
	if conn.UserID == "" {
		return domain.ErrInvalidInput
	}

	encAccess, err := s.cipher.Encrypt(conn.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypting access token: %w", err)
	}
	encRefresh, err := s.cipher.Encrypt(conn.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypting refresh token: %w", err)
	}
	scopesJSON, err := json.Marshal(conn.Scopes)
	if err != nil {
		return fmt.Errorf("marshalling scopes: %w", err)
	}

	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	if conn.UpdatedAt.IsZero() {
		conn.UpdatedAt = now
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO google_connections
			(user_id, access_token, refresh_token, expiry, scopes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			scopes = excluded.scopes,
			updated_at = excluded.updated_at
	`, conn.UserID, encAccess, encRefresh, conn.Expiry.UTC(),
		string(scopesJSON), conn.CreatedAt, conn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving connection: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET google_connected = 1, updated_at = ? WHERE id = ?
	`, now, conn.UserID); err != nil {
		return fmt.Errorf("setting connected flag: %w", err)
	}

	return tx.Commit()
}

// Delete removes the connection and clears the connected flag atomically.
func (s *connectionStore) Delete(ctx context.Context, userID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM google_connections WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET google_connected = 0, updated_at = ? WHERE id = ?
	`, time.Now().UTC(), userID); err != nil {
		return fmt.Errorf("clearing connected flag: %w", err)
	}

	return tx.Commit()
}

// IsConnected reports the denormalized flag on the user row.
func (s *connectionStore) IsConnected(ctx context.Context, userID string) (bool, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT google_connected FROM users WHERE id = ?`, userID)

	var connected bool
	err := row.Scan(&connected)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying connected flag: %w", err)
	}
	return connected, nil
}

// ==================== Appointment Store ====================

// appointmentStore implements driven.AppointmentStore.
type appointmentStore struct {
	store *Store
}

var _ driven.AppointmentStore = (*appointmentStore)(nil)

const appointmentColumns = `id, client_id, owner_id, title, description, kind,
	location, notes, scheduled_at, status, remote_event_id, remote_calendar_id,
	created_at, updated_at`

// Save stores or updates an appointment.
func (s *appointmentStore) Save(ctx context.Context, appt domain.Appointment) error {
	if appt.ID == "" || appt.ClientID == "" || appt.OwnerID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now
	if appt.Status == "" {
		appt.Status = domain.AppointmentPending
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			owner_id = excluded.owner_id,
			title = excluded.title,
			description = excluded.description,
			kind = excluded.kind,
			location = excluded.location,
			notes = excluded.notes,
			scheduled_at = excluded.scheduled_at,
			status = excluded.status,
			remote_event_id = excluded.remote_event_id,
			remote_calendar_id = excluded.remote_calendar_id,
			updated_at = excluded.updated_at
	`, appt.ID, appt.ClientID, appt.OwnerID, appt.Title, appt.Description,
		appt.Kind, appt.Location, appt.Notes, appt.ScheduledAt.UTC(), appt.Status,
		nullable(appt.RemoteEventID), nullable(appt.RemoteCalendarID),
		appt.CreatedAt, appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving appointment: %w", err)
	}
	return nil
}

// Get retrieves an appointment by id. Returns nil when absent.
func (s *appointmentStore) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)

	appt, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying appointment: %w", err)
	}
	return appt, nil
}

// ListUnsynced selects the sync job's work set: pending appointments inside
// the forward horizon with no remote event yet.
func (s *appointmentStore) ListUnsynced(ctx context.Context, horizon time.Time) ([]domain.Appointment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE status = ?
		  AND remote_event_id IS NULL
		  AND scheduled_at > ?
		  AND scheduled_at <= ?
		ORDER BY scheduled_at
	`, domain.AppointmentPending, time.Now().UTC(), horizon.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying unsynced appointments: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// ListForDay returns pending appointments starting within the 24 hours from
// the given day start.
func (s *appointmentStore) ListForDay(ctx context.Context, day time.Time) ([]domain.Appointment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE status = ?
		  AND scheduled_at >= ?
		  AND scheduled_at < ?
		ORDER BY scheduled_at
	`, domain.AppointmentPending, day.UTC(), day.Add(24*time.Hour).UTC())
	if err != nil {
		return nil, fmt.Errorf("querying appointments for day: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// SetRemoteEvent records the created calendar event on the appointment.
func (s *appointmentStore) SetRemoteEvent(ctx context.Context, id, eventID, calendarID string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE appointments
		SET remote_event_id = ?, remote_calendar_id = ?, updated_at = ?
		WHERE id = ?
	`, eventID, calendarID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("recording remote event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("appointment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (*domain.Appointment, error) {
	var appt domain.Appointment
	var remoteEvent, remoteCalendar sql.NullString
	err := row.Scan(&appt.ID, &appt.ClientID, &appt.OwnerID, &appt.Title,
		&appt.Description, &appt.Kind, &appt.Location, &appt.Notes,
		&appt.ScheduledAt, &appt.Status, &remoteEvent, &remoteCalendar,
		&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	appt.RemoteEventID = remoteEvent.String
	appt.RemoteCalendarID = remoteCalendar.String
	return &appt, nil
}

func collectAppointments(rows *sql.Rows) ([]domain.Appointment, error) {
	var appts []domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		appts = append(appts, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating appointments: %w", err)
	}
	return appts, nil
}

// nullable maps an empty string to NULL so partial indexes on absence work.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ==================== Directory ====================

// directory implements driven.Directory.
type directory struct {
	store *Store
}

var _ driven.Directory = (*directory)(nil)

// GetUser retrieves a user by id. Returns nil when absent.
func (d *directory) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := d.store.db.QueryRowContext(ctx,
		`SELECT id, name, email, google_connected FROM users WHERE id = ?`, id)

	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.GoogleConnected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}

// GetClient retrieves a client by id. Returns nil when absent.
func (d *directory) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	row := d.store.db.QueryRowContext(ctx,
		`SELECT id, name, contact_email FROM clients WHERE id = ?`, id)

	var client domain.Client
	err := row.Scan(&client.ID, &client.Name, &client.ContactEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying client: %w", err)
	}
	return &client, nil
}

// SaveUser stores or updates a user. The google_connected flag is owned by
// the connection store and not written here on update.
func (d *directory) SaveUser(ctx context.Context, user domain.User) error {
	if user.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	_, err := d.store.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, google_connected, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			updated_at = excluded.updated_at
	`, user.ID, user.Name, user.Email, user.GoogleConnected, now, now)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// SaveClient stores or updates a client.
func (d *directory) SaveClient(ctx context.Context, client domain.Client) error {
	if client.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	_, err := d.store.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, contact_email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			contact_email = excluded.contact_email,
			updated_at = excluded.updated_at
	`, client.ID, client.Name, client.ContactEmail, now, now)
	if err != nil {
		return fmt.Errorf("saving client: %w", err)
	}
	return nil
}
