package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyDecodesToValidRDBHeader(t *testing.T) {
	b := Empty()
	assert.True(t, len(b) > 9)
	assert.Equal(t, "REDIS0011", string(b[:9]))
}

func TestEmptyIsStable(t *testing.T) {
	assert.Equal(t, Empty(), Empty())
}
