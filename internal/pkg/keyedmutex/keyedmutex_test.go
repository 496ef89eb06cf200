package keyedmutex

import (
	"sync"
	"testing"
)

func TestSerializesSameKey(t *testing.T) {
	km := New()
	var counter int

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("lecturer-7")
			counter++
			km.Unlock("lecturer-7")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	km := New()
	km.Lock("a")

	done := make(chan struct{})
	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()

	<-done // must complete while "a" is still held
	km.Unlock("a")
}

func TestEntriesAreReleased(t *testing.T) {
	km := New()
	for i := 0; i < 10; i++ {
		km.Lock("k")
		km.Unlock("k")
	}
	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.locks) != 0 {
		t.Errorf("lock map has %d entries after release, want 0", len(km.locks))
	}
}

func TestUnlockUnheldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Unlock of unheld key did not panic")
		}
	}()
	New().Unlock("never-locked")
}
