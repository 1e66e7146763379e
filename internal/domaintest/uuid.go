package domaintest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewUUID returns a random player UUID in normalized (dashed, lowercase) form
func NewUUID(t *testing.T) string {
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return id.String()
}

// NewDashlessUUID returns a random player UUID the way step counter clients send it,
// along with its normalized form
func NewDashlessUUID(t *testing.T) (string, string) {
	normalized := NewUUID(t)
	return strings.ToUpper(strings.ReplaceAll(normalized, "-", "")), normalized
}
