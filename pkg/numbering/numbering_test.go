package numbering

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFormat(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("WEST", 3600))

	order, err := Generate(OrderPrefix, now, 6)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20240501-[A-Z2-9]{6}$`), order)

	bordereau, err := Generate(BordereauPrefix, now, 4)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^BRD-20240501-[A-Z2-9]{4}$`), bordereau)
}

func TestGenerateVaries(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		n, err := Generate(OrderPrefix, time.Now(), 6)
		require.NoError(t, err)
		seen[n] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}
