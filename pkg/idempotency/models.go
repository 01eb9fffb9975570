package idempotency

import "time"

// Record is a stored placement attempt keyed by the client's Idempotency-Key.
// It carries the request fingerprint and, once completed, the response to replay.
type Record struct {
	ID          string `bson:"_id"`
	Key         string `bson:"key"`
	UserID      string `bson:"userId"`
	Method      string `bson:"method"`
	Path        string `bson:"path"`
	Fingerprint string `bson:"fingerprint"` // SHA256 of method, path and body

	// Set while a request holds the key
	LockedAt *time.Time `bson:"lockedAt,omitempty"`

	ResponseCode    int               `bson:"responseCode,omitempty"`
	ResponseBody    []byte            `bson:"responseBody,omitempty"`
	ResponseHeaders map[string]string `bson:"responseHeaders,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	ExpiresAt   time.Time  `bson:"expiresAt"` // TTL index
}

// IsCompleted returns true if a response has been stored
func (r *Record) IsCompleted() bool {
	return r.CompletedAt != nil
}

// IsLocked returns true if a request is currently processing the key
func (r *Record) IsLocked() bool {
	return r.LockedAt != nil && r.CompletedAt == nil
}
