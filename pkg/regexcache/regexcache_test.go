package regexcache

import (
	"sync"
	"testing"
)

func TestGet_ValidPattern(t *testing.T) {
	Clear()
	re, err := Get(`\b(?:GET|POST)\b`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !re.MatchString("POST /api HTTP/1.1") {
		t.Error("expected match for request line")
	}
}

func TestGet_InvalidPattern(t *testing.T) {
	Clear()
	if _, err := Get(`[invalid`); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if Size() != 0 {
		t.Errorf("invalid pattern must not be cached, size = %d", Size())
	}
}

func TestGet_Caching(t *testing.T) {
	Clear()
	re1, _ := Get(`HTTP/\d`)
	re2, _ := Get(`HTTP/\d`)
	if re1 != re2 {
		t.Error("expected same regexp instance from cache")
	}
	if Size() != 1 {
		t.Errorf("Size() = %d, want 1", Size())
	}
}

func TestMustGet_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid pattern")
		}
	}()
	MustGet(`(unclosed`)
}

func TestCache_Isolated(t *testing.T) {
	var c Cache
	if _, err := c.Get(`a+`); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	c.Reset()
	if c.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", c.Len())
	}
}

func TestGet_Concurrent(t *testing.T) {
	Clear()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Get(`\bGET\b`); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if Size() != 1 {
		t.Errorf("Size() = %d, want 1", Size())
	}
}
