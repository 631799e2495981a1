package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/flightscrape/models"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(t *testing.T, max int) (*Cache, *clock) {
	t.Helper()
	c := New(max)
	t.Cleanup(c.Close)
	clk := &clock{t: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clk.now
	return c, clk
}

func TestCache_MaxAge(t *testing.T) {
	c, clk := newTestCache(t, 10)
	key := Key("https://example.com/s", "google-flights")
	resp := &models.SearchResponse{Success: true, Count: 3}

	c.Set(key, resp)

	got, ok := c.Get(key, 1000)
	assert.True(t, ok)
	assert.Same(t, resp, got)

	clk.t = clk.t.Add(2 * time.Second)
	_, ok = c.Get(key, 1000)
	assert.False(t, ok, "older than max_age")

	_, ok = c.Get(key, 0)
	assert.False(t, ok, "max_age 0 disables lookup")
}

func TestCache_EvictsOldest(t *testing.T) {
	c, clk := newTestCache(t, 2)

	c.Set("a", &models.SearchResponse{})
	clk.t = clk.t.Add(time.Second)
	c.Set("b", &models.SearchResponse{})
	clk.t = clk.t.Add(time.Second)
	c.Set("c", &models.SearchResponse{})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a", 60_000)
	assert.False(t, ok)
	_, ok = c.Get("c", 60_000)
	assert.True(t, ok)
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c, _ := newTestCache(t, 2)

	c.Set("a", &models.SearchResponse{})
	c.Set("b", &models.SearchResponse{})
	c.Set("b", &models.SearchResponse{Count: 1})

	assert.Equal(t, 2, c.Len())
}

func TestCache_EvictExpired(t *testing.T) {
	c, clk := newTestCache(t, 10)
	c.Set("old", &models.SearchResponse{})
	clk.t = clk.t.Add(2 * time.Hour)
	c.Set("new", &models.SearchResponse{})

	c.evictExpired()
	assert.Equal(t, 1, c.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("u", "p"), Key("u", "p"))
	assert.NotEqual(t, Key("u", "p"), Key("u", "q"))
	assert.NotEqual(t, Key("u1", "p"), Key("u2", "p"))
}
