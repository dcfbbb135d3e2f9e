package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/memberload/internal/credential"
	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/repository"
)

// Writer creates the permanent member record for a fully validated row.
type Writer struct {
	store       repository.RecordStore
	credentials credential.Provider
	timeout     time.Duration
	now         func() time.Time
}

// NewWriter builds a writer issuing credentials from provider.
func NewWriter(store repository.RecordStore, provider credential.Provider, timeout time.Duration) *Writer {
	return &Writer{
		store:       store,
		credentials: provider,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Persist inserts candidate into the members table.
func (w *Writer) Persist(ctx context.Context, candidate domain.MemberCandidate) (domain.PersistedMember, error) {
	secret, err := w.credentials.Issue()
	if err != nil {
		return domain.PersistedMember{}, fmt.Errorf("failed to issue credential: %w", err)
	}
	hash, err := credential.Hash(secret)
	if err != nil {
		return domain.PersistedMember{}, fmt.Errorf("failed to hash credential: %w", err)
	}

	joinedAt := w.now().UTC()
	fields := candidate.Fields()
	if rowErr := canonicalReferences(fields, ReferenceRules); rowErr != nil {
		return domain.PersistedMember{}, rowErr
	}
	fields["membership_status"] = domain.DefaultMembershipStatus
	fields["registration_method"] = domain.RegistrationMethodBulk
	fields["registration_status"] = true
	fields["join_date"] = joinedAt
	fields["password_hash"] = hash

	insertCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	id, err := w.store.Insert(insertCtx, domain.TableMembers, fields)
	if err != nil {
		return domain.PersistedMember{}, fmt.Errorf("failed to insert member: %w", err)
	}

	return domain.PersistedMember{
		MembershipID: id,
		Credential:   secret,
		JoinedAt:     joinedAt,
	}, nil
}
