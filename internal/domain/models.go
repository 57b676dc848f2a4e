package domain

import (
	"time"

	"github.com/google/uuid"
)

// Base identifiers
type TempleID = uuid.UUID
type AdminID = uuid.UUID

// BlobRef is a stable, servable locator for one stored image: a relative path
// rooted at the public static prefix (e.g. "/uploads/2024-01-10/om.jpg").
// A ref belongs to at most one Darshan record at a time; whoever removes the
// ref from a record also deletes the physical blob.
type BlobRef string

// Temple is a location that publishes daily darshan photo sets.
type Temple struct {
	ID          TempleID  `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created"`
	UpdatedAt   time.Time `json:"updated"`
}

// Darshan is one day's photo set for a temple. At most one record exists per
// (TempleID, Day) pair; Images keeps upload order and is never empty while
// the record exists.
type Darshan struct {
	ID        uuid.UUID `json:"id"`
	TempleID  TempleID  `json:"temple_id"`
	Day       DayKey    `json:"date"`
	Images    []BlobRef `json:"images"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// Admin is a back-office user allowed to manage temples and darshan sets.
type Admin struct {
	ID        AdminID   `json:"id"`
	Username  string    `json:"username"`
	PassHash  string    `json:"-"` // never exposed
	CreatedAt time.Time `json:"created_at"`
}
