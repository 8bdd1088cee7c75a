// Package identity resolves the stable participant identifier used as the
// player's uid in room documents.
package identity

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/neonrush/rush-engine/engine/store"
)

// KeyUserID persists the resolved identifier between runs
const KeyUserID = "neon_rush_uid"

// Provider yields a participant identifier from an external identity
// service. Failure is expected and non-fatal: the caller falls back to an
// anonymous identifier.
type Provider interface {
	Identify(ctx context.Context) (string, error)
}

// Anonymous generates guest identifiers locally
type Anonymous struct{}

func (Anonymous) Identify(context.Context) (string, error) {
	return "guest_" + uuid.NewString()[:8], nil
}

// Resolve returns a stable uid for this installation. It prefers a
// previously persisted uid, then the external provider, then a locally
// generated guest id. The result is persisted so later runs keep the same
// identity; persistence failure is logged but does not block startup.
func Resolve(ctx context.Context, p Provider, kv store.KeyValue) (string, error) {
	if uid, ok, err := kv.Get(KeyUserID); err == nil && ok && uid != "" {
		return uid, nil
	}

	uid, err := p.Identify(ctx)
	if err != nil {
		log.Printf("identity provider failed, using guest id: %v", err)
		uid, err = Anonymous{}.Identify(ctx)
		if err != nil {
			return "", fmt.Errorf("resolve identity: %w", err)
		}
	}
	if err := kv.Set(KeyUserID, uid); err != nil {
		log.Printf("could not persist uid: %v", err)
	}
	return uid, nil
}
