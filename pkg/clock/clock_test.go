package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake(t *testing.T) {
	f := &Fake{Now: 100, Step: 10}

	assert.Equal(t, uint64(100), f.Micros())
	assert.Equal(t, uint64(110), f.Micros())

	f.Sleep(50 * time.Microsecond)
	assert.Equal(t, uint64(170), f.Now)

	f.Advance(time.Second)
	assert.Equal(t, uint64(1_000_170), f.Now)

	f.Sleep(-time.Second)
	assert.Equal(t, uint64(1_000_170), f.Now)
}

func TestSystem_Monotonic(t *testing.T) {
	s := NewSystem()
	a := s.Micros()
	s.Sleep(2 * time.Millisecond)
	b := s.Micros()
	assert.GreaterOrEqual(t, b-a, uint64(2000))
}
