package device

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Device is a physical machine a user has read from, keyed by its
// fingerprint. The same device row is touched on every login from it.
type Device struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Fingerprint string    `json:"fingerprint"`
	Platform    string    `json:"platform"`
	Timezone    string    `json:"timezone"`
	FirstSeen   time.Time `json:"first_seen"` // UTC
	LastSeen    time.Time `json:"last_seen"`  // UTC
}

// RegisterDevice is the payload a client submits on login.
type RegisterDevice struct {
	Signals Signals `json:"signals"`
}

func (rd RegisterDevice) Validate(validate *validator.Validate) error {
	return validate.Struct(rd)
}
