package ttlcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetThenGetReturnsValue(t *testing.T) {
	c := New[string](time.Minute)

	c.Set("k1", "v1")

	v, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
}

func TestCache_MissingKeyReturnsZeroValueAndFalse(t *testing.T) {
	c := New[string](time.Minute)

	v, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "", v)
}

func TestCache_ExpiredEntryIsEvictedOnGet(t *testing.T) {
	c := New[int](10 * time.Millisecond)

	c.Set("k1", 42)
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k1")
	assert.False(t, ok)
}

func TestCache_SetRefreshesExpiryForExistingKey(t *testing.T) {
	c := New[int](30 * time.Millisecond)

	c.Set("k1", 1)
	time.Sleep(15 * time.Millisecond)
	c.Set("k1", 2)
	time.Sleep(20 * time.Millisecond)

	v, ok := c.Get("k1")
	assert.True(t, ok, "entry refreshed partway through the TTL should still be live")
	assert.Equal(t, 2, v)
}
