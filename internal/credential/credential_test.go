package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticIssuesSamePlaceholder(t *testing.T) {
	provider := Static(DefaultPlaceholder)

	first, err := provider.Issue()
	require.NoError(t, err)
	second, err := provider.Issue()
	require.NoError(t, err)

	assert.Equal(t, DefaultPlaceholder, first)
	assert.Equal(t, first, second)
}

func TestStaticRejectsBlankPlaceholder(t *testing.T) {
	_, err := Static("  ").Issue()
	assert.Error(t, err)
}

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash(DefaultPlaceholder)
	require.NoError(t, err)

	assert.NotContains(t, encoded, DefaultPlaceholder)
	assert.True(t, Verify(DefaultPlaceholder, encoded))
	assert.False(t, Verify("wrong", encoded))
	assert.False(t, Verify(DefaultPlaceholder, "garbage"))

	again, err := Hash(DefaultPlaceholder)
	require.NoError(t, err)
	assert.NotEqual(t, encoded, again)
}

func TestHashRejectsEmptySecret(t *testing.T) {
	_, err := Hash("")
	assert.Error(t, err)
}
