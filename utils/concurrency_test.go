package utils

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	if !s.Add("tokopedia|Rinso 800g") {
		t.Error("first Add should return true")
	}
	if s.Add("tokopedia|Rinso 800g") {
		t.Error("second Add of same key should return false")
	}
	if !s.Contains("tokopedia|Rinso 800g") {
		t.Error("Contains should report an added key")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() error {
			if s.Add("same") {
				atomic.AddInt64(&added, 1)
			}
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		t.Fatalf("unexpected pool error: %v", err)
	}

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolCollectsErrors(t *testing.T) {
	pool := NewWorkerPool(2, 0)
	errBlibli := errors.New("blibli failed")

	pool.Submit(func() error { return nil })
	pool.Submit(func() error { return errBlibli })

	err := pool.Wait()
	if !errors.Is(err, errBlibli) {
		t.Fatalf("Wait() = %v; want it to wrap %v", err, errBlibli)
	}

	if err := pool.Wait(); err != nil {
		t.Errorf("second Wait() should be clean, got %v", err)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() error {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
			return nil
		})
	}
	_ = pool.Wait()

	// allow a little scheduler jitter
	min := time.Duration(rateLimitMs-5) * time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}
