package dedupcache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kuzu-memory/kuzu-memory/internal/dedupcache"
)

func TestSeenRecentlyFirstCallFalse(t *testing.T) {
	c := dedupcache.New(time.Minute)
	assert.False(t, c.SeenRecently("abc"))
}

func TestSeenRecentlySecondCallTrueWithinTTL(t *testing.T) {
	c := dedupcache.New(time.Minute)
	c.SeenRecently("abc")
	assert.True(t, c.SeenRecently("abc"))
}

func TestSeenRecentlyExpiresAfterTTL(t *testing.T) {
	c := dedupcache.New(20 * time.Millisecond)
	c.SeenRecently("abc")
	time.Sleep(40 * time.Millisecond)
	assert.False(t, c.SeenRecently("abc"))
}

func TestLenReflectsLiveEntries(t *testing.T) {
	c := dedupcache.New(time.Minute)
	c.SeenRecently("a")
	c.SeenRecently("b")
	assert.Equal(t, 2, c.Len())
}
