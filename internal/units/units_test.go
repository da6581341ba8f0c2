package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	t.Parallel()

	for _, unit := range ValidUnits {
		assert.True(t, IsValid(unit), unit)
	}
	assert.False(t, IsValid("knots"))
	assert.False(t, IsValid(""))
}

func TestConvertSpeed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10.0, ConvertSpeed(10, MPS))
	assert.InDelta(t, 36.0, ConvertSpeed(10, KPH), 1e-9)
	assert.InDelta(t, 36.0, ConvertSpeed(10, KMPH), 1e-9)
	assert.InDelta(t, 22.369362920544, ConvertSpeed(10, MPH), 1e-9)

	// Unknown units pass through.
	assert.Equal(t, 10.0, ConvertSpeed(10, "knots"))
}
