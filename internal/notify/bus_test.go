package notify

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	var received Event
	var wg sync.WaitGroup
	wg.Add(1)

	unsub := bus.Subscribe(SessionCreated, func(e Event) {
		received = e
		wg.Done()
	})
	defer unsub()

	bus.Publish(Event{Type: SessionCreated, Payload: "test-session"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if received.Type != SessionCreated {
			t.Errorf("Expected SessionCreated, got %v", received.Type)
		}
		if received.Payload != "test-session" {
			t.Errorf("Expected 'test-session', got %v", received.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()

	var count int32
	var wg sync.WaitGroup
	wg.Add(3)

	unsub := bus.SubscribeAll(func(e Event) {
		atomic.AddInt32(&count, 1)
		wg.Done()
	})
	defer unsub()

	bus.Publish(Event{Type: SessionCreated})
	bus.Publish(Event{Type: SessionUpdated})
	bus.Publish(Event{Type: ActivityAppended})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if atomic.LoadInt32(&count) != 3 {
			t.Errorf("Expected 3 events, got %d", count)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for events")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var count int32
	unsub := bus.Subscribe(SessionCreated, func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.PublishSync(Event{Type: SessionCreated})
	if atomic.LoadInt32(&count) != 1 {
		t.Errorf("Expected 1 event before unsub, got %d", count)
	}

	unsub()

	bus.PublishSync(Event{Type: SessionCreated})
	if atomic.LoadInt32(&count) != 1 {
		t.Errorf("Expected still 1 event after unsub, got %d", count)
	}
}

func TestBus_UnsubscribeGlobal(t *testing.T) {
	bus := NewBus()

	var count int32
	unsub := bus.SubscribeAll(func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.PublishSync(Event{Type: SessionCreated})
	if atomic.LoadInt32(&count) != 1 {
		t.Errorf("Expected 1 event before unsub, got %d", count)
	}

	unsub()

	bus.PublishSync(Event{Type: SessionUpdated})
	if atomic.LoadInt32(&count) != 1 {
		t.Errorf("Expected still 1 event after unsub, got %d", count)
	}
}

func TestBus_PublishSync(t *testing.T) {
	bus := NewBus()

	var received []EventType
	var mu sync.Mutex

	bus.Subscribe(SessionCreated, func(e Event) {
		mu.Lock()
		received = append(received, e.Type)
		mu.Unlock()
	})
	bus.Subscribe(SessionUpdated, func(e Event) {
		mu.Lock()
		received = append(received, e.Type)
		mu.Unlock()
	})

	bus.PublishSync(Event{Type: SessionCreated})
	bus.PublishSync(Event{Type: SessionUpdated})

	mu.Lock()
	if len(received) != 2 {
		t.Errorf("Expected 2 events, got %d", len(received))
	}
	mu.Unlock()
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()

	var count int32
	var wg sync.WaitGroup
	wg.Add(3)

	for i := 0; i < 3; i++ {
		bus.Subscribe(SessionCreated, func(e Event) {
			atomic.AddInt32(&count, 1)
			wg.Done()
		})
	}

	bus.Publish(Event{Type: SessionCreated})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if atomic.LoadInt32(&count) != 3 {
			t.Errorf("Expected 3 subscribers to receive event, got %d", count)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for events")
	}
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus()

	bus.Publish(Event{Type: SessionCreated})
	bus.PublishSync(Event{Type: SessionCreated})
}

func TestBus_EventTypeFiltering(t *testing.T) {
	bus := NewBus()

	var sessionCount, updatedCount int32

	bus.Subscribe(SessionCreated, func(e Event) {
		atomic.AddInt32(&sessionCount, 1)
	})
	bus.Subscribe(SessionUpdated, func(e Event) {
		atomic.AddInt32(&updatedCount, 1)
	})

	bus.PublishSync(Event{Type: SessionCreated})
	bus.PublishSync(Event{Type: SessionCreated})
	bus.PublishSync(Event{Type: SessionUpdated})

	if atomic.LoadInt32(&sessionCount) != 2 {
		t.Errorf("Expected 2 session events, got %d", sessionCount)
	}
	if atomic.LoadInt32(&updatedCount) != 1 {
		t.Errorf("Expected 1 updated event, got %d", updatedCount)
	}
}

func TestBus_SendQueueOverflowDropsRatherThanBlocks(t *testing.T) {
	bus := NewBus()

	release := make(chan struct{})
	var first sync.Once
	bus.Subscribe(SessionCreated, func(e Event) {
		first.Do(func() { <-release })
	})

	for i := 0; i < sendQueueDepth+10; i++ {
		bus.Publish(Event{Type: SessionCreated})
	}
	close(release)
}

func TestGlobalBus_Reset(t *testing.T) {
	var count int32
	Subscribe(SessionCreated, func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	PublishSync(Event{Type: SessionCreated})
	if atomic.LoadInt32(&count) != 1 {
		t.Errorf("Expected 1 event before reset, got %d", count)
	}

	Reset()

	PublishSync(Event{Type: SessionCreated})
	if atomic.LoadInt32(&count) != 1 {
		t.Errorf("Expected still 1 event after reset, got %d", count)
	}
}

func TestBus_ConcurrentSubscribePublish(t *testing.T) {
	bus := NewBus()

	var count int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(SessionCreated, func(e Event) {
				atomic.AddInt32(&count, 1)
			})
			defer unsub()

			for j := 0; j < 10; j++ {
				bus.Publish(Event{Type: SessionCreated})
			}
		}()
	}

	wg.Wait()
	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt32(&count) == 0 {
		t.Log("Warning: no events received, but no panic occurred")
	}
}
