package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCents(0))
	assert.Equal(t, "$1.05", FormatCents(105))
	assert.Equal(t, "$120.00", FormatCents(12000))
	assert.Equal(t, "$0.09", FormatCents(9))
	assert.Equal(t, "-$12.34", FormatCents(-1234))
}
