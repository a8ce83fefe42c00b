// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package cache

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	c := New("test", time.Minute)
	defer c.Close()

	c.Set("customer:a", 42)
	v, ok := c.Get("customer:a")
	if !ok || v.(int) != 42 {
		t.Fatalf("Get = %v, %v", v, ok)
	}
	if _, ok := c.Get("customer:missing"); ok {
		t.Error("missing key reported as hit")
	}

	s := c.GetStats()
	if s.Hits != 1 || s.Misses != 1 || s.TotalKeys != 1 {
		t.Errorf("stats = %+v", s)
	}
	if c.HitRate() != 50 {
		t.Errorf("HitRate = %v, want 50", c.HitRate())
	}
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()

	c := New("test", 10*time.Millisecond)
	defer c.Close()

	c.Set("k", "v")
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}

	c.cleanup()
	if c.Len() != 0 {
		t.Errorf("Len after cleanup = %d", c.Len())
	}
	if c.GetStats().Evictions != 1 {
		t.Errorf("Evictions = %d", c.GetStats().Evictions)
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	t.Parallel()

	c := New("test", time.Minute)
	defer c.Close()

	c.Set(GenerateKey("customer", map[string]string{"metric": "Customer"}), 1)
	c.Set(GenerateKey("customer", map[string]string{"metric": "Family_Index"}), 2)
	c.Set(GenerateKey("traffic", nil), 3)

	if n := c.DeletePrefix("customer:"); n != 2 {
		t.Errorf("DeletePrefix removed %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if c.GetStats().TotalKeys != 1 {
		t.Errorf("TotalKeys = %d, want 1", c.GetStats().TotalKeys)
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	a := GenerateKey("performance", map[string]interface{}{"k": 3, "method": "tsne"})
	b := GenerateKey("performance", map[string]interface{}{"method": "tsne", "k": 3})
	c := GenerateKey("performance", map[string]interface{}{"k": 4, "method": "tsne"})

	if a != b {
		t.Error("map key order changed the cache key")
	}
	if a == c {
		t.Error("different params produced the same key")
	}
	if !strings.HasPrefix(a, "performance:") {
		t.Errorf("key %q lacks prefix", a)
	}
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := New("test", time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := GenerateKey("p", i%5)
			c.Set(key, i)
			c.Get(key)
			if i%10 == 0 {
				c.DeletePrefix("p:")
			}
		}(i)
	}
	wg.Wait()
	c.Close()
	c.Close()
}
