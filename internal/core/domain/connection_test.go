package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnection_IsExpired(t *testing.T) {
	live := &Connection{Expiry: time.Now().Add(time.Hour)}
	assert.False(t, live.IsExpired())

	expired := &Connection{Expiry: time.Now().Add(-time.Minute)}
	assert.True(t, expired.IsExpired())

	noExpiry := &Connection{}
	assert.False(t, noExpiry.IsExpired())
}

func TestStatusOf(t *testing.T) {
	t.Run("nil projects to disconnected", func(t *testing.T) {
		st := StatusOf(nil)
		assert.False(t, st.Connected)
		assert.False(t, st.NeedsReconnect)
		assert.Nil(t, st.Expiry)
	})

	t.Run("live connection", func(t *testing.T) {
		expiry := time.Now().Add(time.Hour)
		st := StatusOf(&Connection{
			Expiry: expiry,
			Scopes: []string{"calendar"},
		})
		assert.True(t, st.Connected)
		assert.False(t, st.NeedsReconnect)
		assert.Equal(t, []string{"calendar"}, st.Scopes)
	})

	t.Run("recently expired stays quiet", func(t *testing.T) {
		st := StatusOf(&Connection{Expiry: time.Now().Add(-time.Hour)})
		assert.True(t, st.Connected)
		assert.False(t, st.NeedsReconnect, "a routinely expired token is refreshed in place")
	})

	t.Run("long expired needs reconnect", func(t *testing.T) {
		st := StatusOf(&Connection{Expiry: time.Now().Add(-48 * time.Hour)})
		assert.True(t, st.Connected)
		assert.True(t, st.NeedsReconnect)
	})
}

func TestAppointment_IsSynced(t *testing.T) {
	assert.False(t, (&Appointment{}).IsSynced())
	assert.True(t, (&Appointment{RemoteEventID: "evt_123"}).IsSynced())
}
