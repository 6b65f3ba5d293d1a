package lookup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingService answers CourseByID and MappingByCustomURL and counts calls.
type countingService struct {
	Service // nil; unused methods panic
	calls   atomic.Int32
	err     error
}

func (c *countingService) CourseByID(_ context.Context, id int64) (*Course, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	if id != 42 {
		return nil, ErrNotFound
	}
	return &Course{ID: 42, ShortName: "cs101"}, nil
}

func TestCached_HitsAfterFirstCall(t *testing.T) {
	backend := &countingService{}
	svc := NewCached(backend, time.Minute, 10)

	for i := 0; i < 3; i++ {
		got, err := svc.CourseByID(context.Background(), 42)
		if err != nil {
			t.Fatalf("CourseByID error: %v", err)
		}
		if got.ShortName != "cs101" {
			t.Fatalf("shortname = %q", got.ShortName)
		}
	}
	if n := backend.calls.Load(); n != 1 {
		t.Fatalf("backend calls = %d, want 1", n)
	}
}

func TestCached_NegativeCaching(t *testing.T) {
	backend := &countingService{}
	svc := NewCached(backend, time.Minute, 10)

	for i := 0; i < 2; i++ {
		if _, err := svc.CourseByID(context.Background(), 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if n := backend.calls.Load(); n != 1 {
		t.Fatalf("backend calls = %d, want 1", n)
	}
}

func TestCached_ErrorsNotCached(t *testing.T) {
	backend := &countingService{err: errors.New("db down")}
	svc := NewCached(backend, time.Minute, 10)

	for i := 0; i < 2; i++ {
		if _, err := svc.CourseByID(context.Background(), 42); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := backend.calls.Load(); n != 2 {
		t.Fatalf("backend calls = %d, want 2", n)
	}
}

func TestCached_ExpiresAfterTTL(t *testing.T) {
	backend := &countingService{}
	svc := NewCached(backend, 20*time.Millisecond, 10)

	_, _ = svc.CourseByID(context.Background(), 42)
	time.Sleep(40 * time.Millisecond)
	_, _ = svc.CourseByID(context.Background(), 42)

	if n := backend.calls.Load(); n != 2 {
		t.Fatalf("backend calls = %d, want 2", n)
	}
}

func TestCached_ZeroTTLPassesThrough(t *testing.T) {
	backend := &countingService{}
	if svc := NewCached(backend, 0, 10); svc != Service(backend) {
		t.Fatalf("zero ttl should return the backend unchanged")
	}
}

func TestCached_ConcurrentReads(t *testing.T) {
	backend := &countingService{}
	svc := NewCached(backend, time.Minute, 10)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CourseByID(context.Background(), 42); err != nil {
				t.Errorf("CourseByID error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := backend.calls.Load(); n < 1 || n > 32 {
		t.Fatalf("backend calls = %d", n)
	}
}
