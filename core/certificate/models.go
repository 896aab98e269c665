package certificate

import "time"

// Certificate is awarded once per user, after the whole book is read.
// Serial is the public identifier printed on the certificate; anyone
// holding it can verify the award.
type Certificate struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Serial        string    `json:"serial"`
	RecipientName string    `json:"recipient_name"`
	IssuedAt      time.Time `json:"issued_at"` // UTC
}
