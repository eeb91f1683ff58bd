package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartNeedsReorder(t *testing.T) {
	p := Part{QuantityOnHand: 10, ReorderThreshold: 3}
	assert.False(t, p.NeedsReorder())

	p.QuantityOnHand = 3
	assert.True(t, p.NeedsReorder())

	p.QuantityOnHand = 0
	assert.True(t, p.NeedsReorder())
}
