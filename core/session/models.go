package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// StoreMode says where sessions are persisted. The service starts
// Persistent and degrades to Ephemeral (process-local memory) the first
// time the backing store fails; the transition never reverses.
type StoreMode int

const (
	ModePersistent StoreMode = iota
	ModeEphemeral
)

func (m StoreMode) String() string {
	if m == ModeEphemeral {
		return "ephemeral"
	}
	return "persistent"
}

// Session is one authenticated presence of a user on a device.
// Valid iff now < ExpiresAt and, for admin sessions,
// now - LastActivity < the inactivity timeout.
type Session struct {
	Token        string    `json:"token"`
	UserID       string    `json:"user_id"`
	DeviceID     string    `json:"device_id"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`    // UTC
	LastActivity time.Time `json:"last_activity"` // UTC
	ExpiresAt    time.Time `json:"expires_at"`    // UTC
}

// NewToken returns an opaque random 32-byte hex token.
func NewToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return hex.EncodeToString(buf)
}
