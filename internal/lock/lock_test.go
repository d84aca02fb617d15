package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistry_SameIDSameLock(t *testing.T) {
	r := NewRegistry()

	if r.lockFor("demo") != r.lockFor("demo") {
		t.Error("lockFor should return the same lock for the same id")
	}
	if r.lockFor("demo") == r.lockFor("other") {
		t.Error("different ids should get different locks")
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	r := NewRegistry()

	const n = 50
	locks := make([]chan struct{}, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			locks[i] = r.lockFor("new-project")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if locks[i] != locks[0] {
			t.Fatalf("goroutine %d got a distinct lock", i)
		}
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistry_MutualExclusion(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := r.Acquire(ctx, "demo")
			if err != nil {
				t.Errorf("Acquire error: %v", err)
				return
			}
			defer h.Release()

			cur := atomic.AddInt32(&inside, 1)
			for {
				old := atomic.LoadInt32(&maxInside)
				if cur <= old || atomic.CompareAndSwapInt32(&maxInside, old, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max holders = %d, want 1", maxInside)
	}
	if r.Held("demo") {
		t.Error("lock should be free after all holders released")
	}
}

func TestRegistry_DistinctProjectsIndependent(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	a, err := r.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	defer a.Release()

	done := make(chan struct{})
	go func() {
		b, err := r.Acquire(ctx, "b")
		if err == nil {
			b.Release()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Acquire for a different project blocked")
	}
}

func TestRegistry_AcquireBlocksUntilRelease(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	first, _ := r.Acquire(ctx, "demo")

	acquired := make(chan *Handle)
	go func() {
		h, _ := r.Acquire(ctx, "demo")
		acquired <- h
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire returned while the lock was held")
	case <-time.After(30 * time.Millisecond):
	}

	first.Release()

	select {
	case h := <-acquired:
		if h.ID() != "demo" {
			t.Errorf("ID = %q, want demo", h.ID())
		}
		h.Release()
	case <-time.After(time.Second):
		t.Fatal("second Acquire did not proceed after Release")
	}
}

func TestRegistry_AcquireCancelled(t *testing.T) {
	r := NewRegistry()
	held, _ := r.Acquire(context.Background(), "demo")
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := r.Acquire(ctx, "demo"); err != context.DeadlineExceeded {
		t.Errorf("Acquire error = %v, want DeadlineExceeded", err)
	}
}

func TestRegistry_FreeLockWinsOverCancelledContext(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h, err := r.Acquire(ctx, "demo")
	if err != nil {
		t.Fatalf("Acquire error = %v, want lock", err)
	}
	h.Release()
}

func TestHandle_ReleaseIsIdempotent(t *testing.T) {
	r := NewRegistry()
	h, _ := r.Acquire(context.Background(), "demo")

	h.Release()
	h.Release()

	if r.Held("demo") {
		t.Error("lock should be free")
	}

	// A double release must not free a lock someone else now holds.
	other, ok := r.TryAcquire("demo")
	if !ok {
		t.Fatal("TryAcquire should succeed on a free lock")
	}
	h.Release()
	if !r.Held("demo") {
		t.Error("stale Release freed another holder's lock")
	}
	other.Release()
}

func TestRegistry_TryAcquire(t *testing.T) {
	r := NewRegistry()

	h, ok := r.TryAcquire("demo")
	if !ok {
		t.Fatal("TryAcquire should succeed")
	}
	if _, ok := r.TryAcquire("demo"); ok {
		t.Error("TryAcquire should fail while held")
	}
	h.Release()
	if r.Held("demo") {
		t.Error("Held should be false after Release")
	}
}
