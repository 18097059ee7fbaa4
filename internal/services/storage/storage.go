// Package storage persists raw uploaded artifacts (document images, recorded
// answers) and hands back opaque references stored on the owning records.
package storage

import "context"

// Store saves binary content and returns a reference that can later be read
// back. Implementations must not interpret the content.
type Store interface {
	Save(ctx context.Context, content []byte, hint string) (string, error)
	Read(ctx context.Context, ref string) ([]byte, error)
}
