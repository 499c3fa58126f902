// Package domain defines the persistence models shared by the repository and
// HTTP layers. Bookings themselves are never stored; the only record kept is
// the outcome of a keyed submission so client retries can be replayed.
package domain

import "time"

// Idempotency records the outcome of a submission made with an
// Idempotency-Key header, keyed by (scope, key). Scope names the endpoint and
// the caller ("booking:" + client ip) so keys from different clients never
// collide.
type Idempotency struct {
	ID        string `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope     string `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1"`
	Key       string `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2"`
	MessageID string `gorm:"type:TEXT NOT NULL"`
	// RequestHash is the hex SHA-256 of the request body.
	RequestHash string    `gorm:"type:TEXT NOT NULL;default:''"`
	Status      int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt   time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
