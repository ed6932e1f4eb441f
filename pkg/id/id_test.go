package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReferenceIsUniqueAndOrdered(t *testing.T) {
	seen := make(map[string]struct{})
	prev := ""
	for i := 0; i < 500; i++ {
		ref := NewReference("dep")
		require.True(t, strings.HasPrefix(ref, "dep-"))
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
		assert.Greater(t, ref, prev)
		prev = ref
	}
}

func TestNewTrackingNumber(t *testing.T) {
	tn := NewTrackingNumber()
	assert.True(t, strings.HasPrefix(tn, "TRK"))
	assert.Len(t, tn, 3+26)
}

func TestIsValidUUID(t *testing.T) {
	_, err := IsValidUUID(Generate())
	assert.NoError(t, err)

	_, err = IsValidUUID("not-a-uuid")
	assert.Error(t, err)
}
