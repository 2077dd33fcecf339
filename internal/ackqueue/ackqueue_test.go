package ackqueue

import (
	"testing"
	"time"
)

func TestQueue_PushRemove(t *testing.T) {
	q := New(20)
	if err := q.Push(Entry{PacketID: 1, Deadline: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := q.Push(Entry{PacketID: 2, Deadline: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	e, ok := q.Remove(1)
	if !ok || e.PacketID != 1 {
		t.Fatalf("Remove(1) = %+v, %v", e, ok)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	if _, ok := q.Remove(99); ok {
		t.Error("Remove(99) should fail, entry never pushed")
	}
}

func TestQueue_PushRejectsOverCapacity(t *testing.T) {
	q := New(2)
	q.Push(Entry{PacketID: 1, Deadline: time.Now().Add(time.Minute)})
	q.Push(Entry{PacketID: 2, Deadline: time.Now().Add(time.Minute)})
	if err := q.Push(Entry{PacketID: 3, Deadline: time.Now().Add(time.Minute)}); err != ErrFull {
		t.Errorf("Push at capacity: got %v, want ErrFull", err)
	}
}

func TestQueue_ExpiredRemovesOnlyPastDeadline(t *testing.T) {
	q := New(20)
	now := time.Now()
	q.Push(Entry{PacketID: 1, Deadline: now.Add(-time.Second)})
	q.Push(Entry{PacketID: 2, Deadline: now.Add(time.Hour)})
	q.Push(Entry{PacketID: 3, Deadline: now.Add(-time.Millisecond)})

	expired := q.Expired(now)
	if len(expired) != 2 {
		t.Fatalf("Expired returned %d entries, want 2", len(expired))
	}
	if expired[0].PacketID != 1 || expired[1].PacketID != 3 {
		t.Errorf("Expired order = %+v, want packet ids [1 3]", expired)
	}
	if q.Len() != 1 {
		t.Fatalf("Len() after Expired = %d, want 1", q.Len())
	}
	if _, ok := q.Remove(2); !ok {
		t.Error("entry 2 should still be pending")
	}
}
