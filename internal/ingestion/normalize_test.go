package ingestion

import (
	"testing"

	"github.com/rpattn/memberload/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestNormalizerStripsDashesFromNationalIDs(t *testing.T) {
	n := NewNormalizer(nil)

	cases := []struct {
		name         string
		number       string
		identityType domain.IdentityType
		want         string
	}{
		{name: "national id", number: "900101-14-5678", identityType: "1", want: "900101145678"},
		{name: "national id with extra dashes", number: "000-111-22-3333", identityType: "1", want: "000111223333"},
		{name: "already normalized", number: "900101145678", identityType: "1", want: "900101145678"},
		{name: "only dashes", number: "--", identityType: "1", want: ""},
		{name: "passport untouched", number: "A-123-45", identityType: "2", want: "A-123-45"},
		{name: "blank type untouched", number: "900101-14-5678", identityType: "", want: "900101-14-5678"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, n.Normalize(tc.number, tc.identityType))
		})
	}
}

func TestNormalizerConfiguredTypes(t *testing.T) {
	n := NewNormalizer([]domain.IdentityType{"3", " 4 "})

	assert.Equal(t, "1234", n.Normalize("12-34", "3"))
	assert.Equal(t, "1234", n.Normalize("12-34", "4"))
	assert.Equal(t, "12-34", n.Normalize("12-34", "1"))
}
