package schema

import (
	"fmt"
	"sync"
	"testing"
)

func TestCache_ReturnsSameModelForSameText(t *testing.T) {
	c := NewCache(10)
	raw := "TABLE t (a INT, b STRING)"

	first := c.Parse(raw)
	second := c.Parse(raw)

	if first != second {
		t.Error("expected cache hit to return the same model instance")
	}
	if c.Len() != 1 {
		t.Errorf("cache len = %d, want 1", c.Len())
	}
}

func TestCache_EvictsOldestBeyondCapacity(t *testing.T) {
	c := NewCache(2)
	for i := 0; i < 3; i++ {
		c.Parse(fmt.Sprintf("TABLE t%d (a INT)", i))
	}
	if c.Len() != 2 {
		t.Errorf("cache len = %d, want capacity 2", c.Len())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(10)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := c.Parse(fmt.Sprintf("TABLE t%d (a INT, b STRING)", i%4))
			if m.IsEmpty() {
				t.Errorf("unexpected empty model")
			}
		}(i)
	}
	wg.Wait()
}
