package services

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := newKeyedMutex()
	const n = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("enh_1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	if counter != n {
		t.Errorf("counter = %d, want %d", counter, n)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	unlockA := km.Lock("enh_a")
	// 不同鍵的鎖互不阻塞
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("enh_b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}

func TestKeyedMutexEntriesAreReclaimed(t *testing.T) {
	km := newKeyedMutex()
	unlock := km.Lock("enh_x")
	unlock()

	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.entries) != 0 {
		t.Errorf("entries not reclaimed, %d left", len(km.entries))
	}
}
