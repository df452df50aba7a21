package model

import "time"

// Pool is a betting group. People join it with the short invite Code,
// which is 6 upper-case alphanumeric characters and unique across all
// pools (enforced by the database, not by the generator).
//
// OwnerID is nullable: a pool created by an anonymous caller has no owner
// until the first participant joins and adopts it. Once set, ownership
// never transitions back to unowned.
type Pool struct {
	ID        string    `json:"id"        db:"id"`
	Title     string    `json:"title"     db:"title"`
	Code      string    `json:"code"      db:"code"`
	OwnerID   string    `json:"ownerId,omitempty" db:"owner_id"` // empty = unowned
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Participant links a User to a Pool. The pair (UserID, PoolID) is unique:
// a user belongs to a pool at most once. Participants are created at join
// time and never updated.
type Participant struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	PoolID    string    `json:"poolId"    db:"pool_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PoolOwner is the slim owner projection embedded in pool listings.
type PoolOwner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PoolSummary is the shape returned by the pool listing and detail
// endpoints: the pool itself plus the bits of membership the clients
// render: total participant count, a few avatars for the stacked-faces
// widget, and the owner (nil when the pool is still unowned).
type PoolSummary struct {
	Pool
	ParticipantCount int        `json:"participantCount"`
	SampleAvatars    []string   `json:"sampleAvatars"` // at most 4, join order
	Owner            *PoolOwner `json:"owner,omitempty"`
}
