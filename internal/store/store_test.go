package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New()
	s.Set([]byte("key"), []byte("value"), time.Time{})

	v, ok := s.Get([]byte("key"))
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), v)
}

func TestGetMissingKey(t *testing.T) {
	s := New()
	_, ok := s.Get([]byte("missing"))
	assert.False(t, ok)
}

func TestSetOverwritesExistingKey(t *testing.T) {
	s := New()
	s.Set([]byte("key"), []byte("first"), time.Time{})
	s.Set([]byte("key"), []byte("second"), time.Time{})

	v, ok := s.Get([]byte("key"))
	assert.True(t, ok)
	assert.Equal(t, []byte("second"), v)
}

func TestExpiryRemovesKey(t *testing.T) {
	s := New()
	s.Set([]byte("key"), []byte("value"), time.Now().Add(time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok := s.Get([]byte("key"))
	assert.False(t, ok)
}

func TestNoExpiryNeverExpires(t *testing.T) {
	s := New()
	s.Set([]byte("key"), []byte("value"), time.Time{})
	time.Sleep(5 * time.Millisecond)

	v, ok := s.Get([]byte("key"))
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), v)
}

func TestZeroDeadlineExpiresImmediately(t *testing.T) {
	s := New()
	s.Set([]byte("key"), []byte("value"), time.Now())
	time.Sleep(time.Millisecond)

	_, ok := s.Get([]byte("key"))
	assert.False(t, ok)
}

func TestBinarySafeValue(t *testing.T) {
	s := New()
	raw := []byte{0x00, 0xff, 0x10, '\r', '\n'}
	s.Set([]byte("bin"), raw, time.Time{})

	v, ok := s.Get([]byte("bin"))
	assert.True(t, ok)
	assert.Equal(t, raw, v)
}
