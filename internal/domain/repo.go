package domain

import "context"

// TemplePatch carries optional updates; nil fields keep the stored value.
type TemplePatch struct {
	Name        *string
	Image       *string
	Location    *string
	Description *string
}

type TemplesRepo interface {
	CreateTemple(ctx context.Context, t Temple) (Temple, error)
	TempleByID(ctx context.Context, id TempleID) (Temple, error)
	TemplesList(ctx context.Context) ([]Temple, error)
	UpdateTemple(ctx context.Context, id TempleID, p TemplePatch) (Temple, error)
	DeleteTemple(ctx context.Context, id TempleID) error
}

// DarshansRepo is the metadata index over (temple, day) photo sets.
type DarshansRepo interface {
	// Upsert creates the record for (templeID, day) or fully replaces its
	// image list. Repeated uploads for the same day supersede the prior batch.
	Upsert(ctx context.Context, templeID TempleID, day DayKey, images []BlobRef) (Darshan, error)
	// Find returns ErrNotFound when no record exists for the key; callers
	// decide whether absence is an error.
	Find(ctx context.Context, templeID TempleID, day DayKey) (Darshan, error)
	// RemoveImage filters ref out of the record's image list and persists the
	// shrunk list, deleting the record outright when the list becomes empty.
	// Returns the remaining refs and whether the ref was actually removed; a
	// ref that was never in the list is a no-op with removed=false, so the
	// caller knows not to touch the physical blob. ErrNotFound when no record
	// exists.
	RemoveImage(ctx context.Context, templeID TempleID, day DayKey, ref BlobRef) ([]BlobRef, bool, error)
	// FindOlderThan returns every record whose day is strictly before cutoff.
	// Used by the expiry sweeper; safe to call concurrently with upserts.
	FindOlderThan(ctx context.Context, cutoff DayKey) ([]Darshan, error)
	// Delete removes the record for the key. Missing record is not an error:
	// the sweeper may retry a purge that already completed.
	Delete(ctx context.Context, templeID TempleID, day DayKey) error
}

type AdminsRepo interface {
	CreateAdmin(ctx context.Context, username, passHash string) (Admin, error)
	AdminByUsername(ctx context.Context, username string) (Admin, error)
}
