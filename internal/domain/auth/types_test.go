package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "future expiry", expiresAt: time.Now().Add(time.Hour), want: false},
		{name: "past expiry", expiresAt: time.Now().Add(-time.Minute), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{ID: "sess-1", UserID: "user-1", ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, s.Expired())
		})
	}
}

func TestNotificationKinds(t *testing.T) {
	// Wire values must match the provider's event names exactly.
	assert.Equal(t, NotificationKind("SIGNED_IN"), NotificationSignedIn)
	assert.Equal(t, NotificationKind("SIGNED_OUT"), NotificationSignedOut)
	assert.Equal(t, NotificationKind("TOKEN_REFRESHED"), NotificationTokenRefreshed)
	assert.Equal(t, NotificationKind("INITIAL_SESSION"), NotificationInitialSession)
}
