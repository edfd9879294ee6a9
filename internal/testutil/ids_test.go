package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticIDGenerator(t *testing.T) {
	gen := NewStaticIDGenerator("visitor-1")
	assert.Equal(t, "visitor-1", gen.Generate())
	assert.Equal(t, "visitor-1", gen.Generate())
}

func TestStaticIDGenerator_Default(t *testing.T) {
	assert.Equal(t, "test-user-default", NewStaticIDGenerator("").Generate())
}
