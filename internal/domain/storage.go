package domain

import (
	"context"
	"io"
)

// BlobStorage stores image payloads outside the metadata index
// (local disk or S3/MinIO).
type BlobStorage interface {
	// Put stores the payload under the day's prefix using suggestedName as a
	// hint. Colliding names get a disambiguating suffix, never overwritten.
	// The returned ref is servable and stable.
	Put(ctx context.Context, r io.Reader, day DayKey, suggestedName, mime string) (BlobRef, error)
	// Delete is idempotent: a ref that no longer exists is success, because
	// sweep and manual deletion may race or retry.
	Delete(ctx context.Context, ref BlobRef) error
	Ping(ctx context.Context) error
}
