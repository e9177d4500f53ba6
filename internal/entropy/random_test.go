package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStream_Reproducible(t *testing.T) {
	a := Stream(42, 3, 100)
	b := Stream(42, 3, 100)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestStream_DiffersByContext(t *testing.T) {
	base := Stream(42, 3, 100).Uint64()
	assert.NotEqual(t, base, Stream(42, 4, 100).Uint64(), "agent")
	assert.NotEqual(t, base, Stream(42, 3, 101).Uint64(), "tick")
	assert.NotEqual(t, base, Stream(43, 3, 100).Uint64(), "seed")
}

func TestNamed_Reproducible(t *testing.T) {
	assert.Equal(t, Named(7, "Ann").Uint64(), Named(7, "Ann").Uint64())
	assert.NotEqual(t, Named(7, "Ann").Uint64(), Named(7, "Bob").Uint64())
}
