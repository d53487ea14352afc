package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestResourceKeyOrder(t *testing.T) {
	if !bikeKey(9).less(stationKey(1)) {
		t.Error("Expected bikes to order before stations")
	}
	if !stationKey(1).less(stationKey(2)) {
		t.Error("Expected ascending station ids")
	}
	if bikeKey(3).less(bikeKey(3)) {
		t.Error("Expected a key not to be less than itself")
	}
}

func TestLockManager_ExclusiveAndReleased(t *testing.T) {
	m := newLockManager()
	ctx := context.Background()

	release, err := m.acquire(ctx, stationKey(2), bikeKey(1), stationKey(2))
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if m.size() != 2 {
		t.Errorf("Expected 2 held resources, got %d", m.size())
	}

	acquired := make(chan struct{})
	go func() {
		r, err := m.acquire(ctx, bikeKey(1))
		if err == nil {
			close(acquired)
			r()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("Expected second acquire to wait while the bike is held")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Expected waiter to acquire after release")
	}

	deadline := time.Now().Add(time.Second)
	for m.size() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.size() != 0 {
		t.Errorf("Expected lock table to drain, got %d entries", m.size())
	}
}

func TestLockManager_Cancellation(t *testing.T) {
	m := newLockManager()

	release, err := m.acquire(context.Background(), bikeKey(1), stationKey(1))
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Station 0 is free but must not stay held when station 1 times out.
	_, err = m.acquire(ctx, stationKey(0), stationKey(1))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}

	r, err := m.acquire(context.Background(), stationKey(0))
	if err != nil {
		t.Fatalf("Expected station 0 to be free, got %v", err)
	}
	r()
}

// Opposite request orders would deadlock without the global ordering.
func TestLockManager_NoDeadlockOnOppositeOrder(t *testing.T) {
	m := newLockManager()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 200)
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r, err := m.acquire(ctx, bikeKey(1), stationKey(1), stationKey(2))
			if err != nil {
				errs <- err
				return
			}
			r()
		}()
		go func() {
			defer wg.Done()
			r, err := m.acquire(ctx, stationKey(2), stationKey(1), bikeKey(1))
			if err != nil {
				errs <- err
				return
			}
			r()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("acquire failed: %v", err)
	}
}
