package credentials

import "context"

// Key names a secret held in a Store.
type Key string

// Keys used by the client. MostRecentCommunityID is not a credential but
// shares the store so the onboarding flow has a single persistence path.
const (
	IdentityToken         Key = "IdentityToken"
	RefreshToken          Key = "RefreshToken"
	MostRecentCommunityID Key = "MostRecentCommunityId"
)

// Store persists named secrets. Get returns an empty string and a nil
// error when the key has never been set; errors are reserved for backend
// failures. Implementations must be safe for concurrent use because
// multiple request pipelines read and write the token pair.
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, key Key) error
}
