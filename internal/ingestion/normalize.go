package ingestion

import (
	"strings"

	"github.com/rpattn/memberload/internal/domain"
)

// DefaultNationalIDTypes holds the identity type ids whose numbers are written
// with dashes (e.g. 900101-14-5678) and stored without them.
var DefaultNationalIDTypes = []domain.IdentityType{"1"}

// Normalizer canonicalises identity numbers before lookup and storage.
type Normalizer struct {
	nationalTypes map[domain.IdentityType]struct{}
}

// NewNormalizer builds a normalizer for the given national ID types. An empty
// list falls back to DefaultNationalIDTypes.
func NewNormalizer(nationalTypes []domain.IdentityType) Normalizer {
	if len(nationalTypes) == 0 {
		nationalTypes = DefaultNationalIDTypes
	}
	set := make(map[domain.IdentityType]struct{}, len(nationalTypes))
	for _, t := range nationalTypes {
		set[domain.IdentityType(strings.TrimSpace(string(t)))] = struct{}{}
	}
	return Normalizer{nationalTypes: set}
}

// Normalize strips every "-" from national ID numbers and returns other
// identity numbers unchanged.
func (n Normalizer) Normalize(identityNumber string, identityType domain.IdentityType) string {
	if _, ok := n.nationalTypes[identityType]; !ok {
		return identityNumber
	}
	return strings.ReplaceAll(identityNumber, "-", "")
}
