package ingestion

import (
	"context"
	"fmt"

	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/repository"
)

// Prober answers uniqueness questions against the members table.
type Prober struct {
	store repository.RecordStore
}

// NewProber wraps store.
func NewProber(store repository.RecordStore) Prober {
	return Prober{store: store}
}

// ExistsIdentity reports whether a member already holds normalizedID.
func (p Prober) ExistsIdentity(ctx context.Context, normalizedID string) (bool, error) {
	exists, err := p.store.LookupExists(ctx, domain.TableMembers, "identity_no", normalizedID)
	if err != nil {
		return false, fmt.Errorf("failed to check identity number: %w", err)
	}
	return exists, nil
}

// ExistsEmail reports whether a member already holds email. The caller passes
// the lowercased form.
func (p Prober) ExistsEmail(ctx context.Context, email string) (bool, error) {
	exists, err := p.store.LookupExists(ctx, domain.TableMembers, "email", email)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}
