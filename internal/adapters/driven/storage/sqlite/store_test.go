package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onboardhq/syncgate/internal/adapters/driven/crypto"
	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestCipher(t *testing.T) driven.TokenCipher {
	t.Helper()
	c, err := crypto.NewCipher("store-test-secret")
	require.NoError(t, err)
	return c
}

func seedUser(t *testing.T, store *Store, id string) {
	t.Helper()
	require.NoError(t, store.Directory().SaveUser(context.Background(), domain.User{
		ID:    id,
		Name:  "Ana Souza",
		Email: "ana@example.com",
	}))
}

func seedClient(t *testing.T, store *Store, id string) {
	t.Helper()
	require.NoError(t, store.Directory().SaveClient(context.Background(), domain.Client{
		ID:           id,
		Name:         "Acme Ltda",
		ContactEmail: "contact@acme.example",
	}))
}

func TestConnectionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	conns := store.ConnectionStore(newTestCipher(t))

	userID := uuid.NewString()
	seedUser(t, store, userID)

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, conns.Upsert(ctx, domain.Connection{
		UserID:       userID,
		AccessToken:  "access-plain",
		RefreshToken: "refresh-plain",
		Expiry:       expiry,
		Scopes:       []string{"calendar", "gmail.send"},
	}))

	got, err := conns.Get(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "access-plain", got.AccessToken)
	assert.Equal(t, "refresh-plain", got.RefreshToken)
	assert.Equal(t, []string{"calendar", "gmail.send"}, got.Scopes)
	assert.WithinDuration(t, expiry, got.Expiry, time.Second)
}

func TestConnectionStore_TokensStoredEncrypted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	conns := store.ConnectionStore(newTestCipher(t))

	userID := uuid.NewString()
	seedUser(t, store, userID)

	require.NoError(t, conns.Upsert(ctx, domain.Connection{
		UserID:       userID,
		AccessToken:  "access-plain",
		RefreshToken: "refresh-plain",
		Expiry:       time.Now().Add(time.Hour),
	}))

	var rawAccess, rawRefresh string
	err := store.db.QueryRow(
		`SELECT access_token, refresh_token FROM google_connections WHERE user_id = ?`,
		userID).Scan(&rawAccess, &rawRefresh)
	require.NoError(t, err)
	assert.NotEqual(t, "access-plain", rawAccess)
	assert.NotEqual(t, "refresh-plain", rawRefresh)
}

func TestConnectionStore_GetAbsent(t *testing.T) {
	store := newTestStore(t)
	conns := store.ConnectionStore(newTestCipher(t))

	got, err := conns.Get(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConnectionStore_RequiresExistingUser(t *testing.T) {
	store := newTestStore(t)
	conns := store.ConnectionStore(newTestCipher(t))

	// No user row seeded. The foreign key must reject the record on
	// every pooled connection, not just the first one opened.
	err := conns.Upsert(context.Background(), domain.Connection{
		UserID:       uuid.NewString(),
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	require.Error(t, err)
}

func TestConnectionStore_FlagFollowsRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	conns := store.ConnectionStore(newTestCipher(t))

	userID := uuid.NewString()
	seedUser(t, store, userID)

	connected, err := conns.IsConnected(ctx, userID)
	require.NoError(t, err)
	assert.False(t, connected)

	require.NoError(t, conns.Upsert(ctx, domain.Connection{
		UserID:       userID,
		AccessToken:  "a",
		RefreshToken: "r",
		Expiry:       time.Now().Add(time.Hour),
	}))

	connected, err = conns.IsConnected(ctx, userID)
	require.NoError(t, err)
	assert.True(t, connected)

	require.NoError(t, conns.Delete(ctx, userID))

	connected, err = conns.IsConnected(ctx, userID)
	require.NoError(t, err)
	assert.False(t, connected)

	got, err := conns.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConnectionStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	conns := store.ConnectionStore(newTestCipher(t))

	userID := uuid.NewString()
	seedUser(t, store, userID)

	require.NoError(t, conns.Delete(ctx, userID))
	require.NoError(t, conns.Delete(ctx, userID))
}

func TestConnectionStore_IsConnected_UnknownUser(t *testing.T) {
	store := newTestStore(t)
	conns := store.ConnectionStore(newTestCipher(t))

	connected, err := conns.IsConnected(context.Background(), "no-such-user")
	require.NoError(t, err)
	assert.False(t, connected)
}

func saveAppointment(t *testing.T, store *Store, appt domain.Appointment) {
	t.Helper()
	require.NoError(t, store.AppointmentStore().Save(context.Background(), appt))
}

func TestAppointmentStore_ListUnsynced(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	appts := store.AppointmentStore()

	ownerID := uuid.NewString()
	clientID := uuid.NewString()
	seedUser(t, store, ownerID)
	seedClient(t, store, clientID)

	now := time.Now().UTC()
	base := domain.Appointment{ClientID: clientID, OwnerID: ownerID, Title: "Kickoff"}

	inWindow := base
	inWindow.ID = "in-window"
	inWindow.ScheduledAt = now.Add(2 * time.Hour)
	saveAppointment(t, store, inWindow)

	past := base
	past.ID = "past"
	past.ScheduledAt = now.Add(-2 * time.Hour)
	saveAppointment(t, store, past)

	beyond := base
	beyond.ID = "beyond-horizon"
	beyond.ScheduledAt = now.Add(60 * 24 * time.Hour)
	saveAppointment(t, store, beyond)

	cancelled := base
	cancelled.ID = "cancelled"
	cancelled.ScheduledAt = now.Add(3 * time.Hour)
	cancelled.Status = domain.AppointmentCancelled
	saveAppointment(t, store, cancelled)

	synced := base
	synced.ID = "already-synced"
	synced.ScheduledAt = now.Add(4 * time.Hour)
	synced.RemoteEventID = "evt_existing"
	synced.RemoteCalendarID = "primary"
	saveAppointment(t, store, synced)

	got, err := appts.ListUnsynced(ctx, now.Add(30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "in-window", got[0].ID)
}

func TestAppointmentStore_SetRemoteEvent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	appts := store.AppointmentStore()

	ownerID := uuid.NewString()
	clientID := uuid.NewString()
	seedUser(t, store, ownerID)
	seedClient(t, store, clientID)

	saveAppointment(t, store, domain.Appointment{
		ID: "appt-1", ClientID: clientID, OwnerID: ownerID,
		Title: "Review", ScheduledAt: time.Now().Add(time.Hour),
	})

	require.NoError(t, appts.SetRemoteEvent(ctx, "appt-1", "evt_123", "primary"))

	got, err := appts.Get(ctx, "appt-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "evt_123", got.RemoteEventID)
	assert.Equal(t, "primary", got.RemoteCalendarID)
	assert.True(t, got.IsSynced())

	// Marked appointments leave the work set.
	unsynced, err := appts.ListUnsynced(ctx, time.Now().Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestAppointmentStore_SetRemoteEvent_Unknown(t *testing.T) {
	store := newTestStore(t)
	err := store.AppointmentStore().SetRemoteEvent(context.Background(), "missing", "evt", "primary")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAppointmentStore_ListForDay(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	appts := store.AppointmentStore()

	ownerID := uuid.NewString()
	clientID := uuid.NewString()
	seedUser(t, store, ownerID)
	seedClient(t, store, clientID)

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	base := domain.Appointment{ClientID: clientID, OwnerID: ownerID, Title: "Meeting"}

	today := base
	today.ID = "today"
	today.ScheduledAt = day.Add(10 * time.Hour)
	saveAppointment(t, store, today)

	tomorrow := base
	tomorrow.ID = "tomorrow"
	tomorrow.ScheduledAt = day.Add(26 * time.Hour)
	saveAppointment(t, store, tomorrow)

	got, err := appts.ListForDay(ctx, day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "today", got[0].ID)
}

func TestDirectory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	dir := store.Directory()

	userID := uuid.NewString()
	seedUser(t, store, userID)

	user, err := dir.GetUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ana Souza", user.Name)
	assert.False(t, user.GoogleConnected)

	missing, err := dir.GetUser(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDirectory_SaveUserPreservesConnectedFlag(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	conns := store.ConnectionStore(newTestCipher(t))
	dir := store.Directory()

	userID := uuid.NewString()
	seedUser(t, store, userID)

	require.NoError(t, conns.Upsert(ctx, domain.Connection{
		UserID:       userID,
		AccessToken:  "a",
		RefreshToken: "r",
		Expiry:       time.Now().Add(time.Hour),
	}))

	// A profile update must not clear the flag.
	require.NoError(t, dir.SaveUser(ctx, domain.User{
		ID:    userID,
		Name:  "Ana S. Oliveira",
		Email: "ana@example.com",
	}))

	connected, err := conns.IsConnected(ctx, userID)
	require.NoError(t, err)
	assert.True(t, connected)
}
