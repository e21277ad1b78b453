package schedule

import (
	"container/heap"
	"testing"
	"time"
)

func TestQueuePriorityThenSubmissionOrder(t *testing.T) {
	var q taskQueue
	for i, prio := range []int{2, 0, 1, 0} {
		heap.Push(&q, &Task{Type: MsgRender, Priority: prio, ID: uint64(i + 1), seq: uint64(i + 1)})
	}

	// Priority 0 first in submission order, then 1, then 2.
	wantIDs := []uint64{2, 4, 3, 1}
	for i, want := range wantIDs {
		got := heap.Pop(&q).(*Task)
		if got.ID != want {
			t.Fatalf("pop %d = task %d (priority %d), want task %d", i, got.ID, got.Priority, want)
		}
	}
}

func TestQueueRemove(t *testing.T) {
	var q taskQueue
	tasks := make([]*Task, 4)
	for i := range tasks {
		tasks[i] = &Task{Type: MsgRender, Priority: i, ID: uint64(i + 1), seq: uint64(i + 1)}
		heap.Push(&q, tasks[i])
	}

	if !q.remove(tasks[2]) {
		t.Fatal("remove of a queued task failed")
	}
	if q.remove(tasks[2]) {
		t.Fatal("repeated remove succeeded")
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}
	for q.Len() > 0 {
		if got := heap.Pop(&q).(*Task); got == tasks[2] {
			t.Fatal("removed task still popped")
		}
	}
}

func TestBackoffSchedule(t *testing.T) {
	base := 1000 * time.Millisecond
	limit := 4000 * time.Millisecond
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{4, 4000 * time.Millisecond}, // capped
		{10, 4000 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt, base, limit); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
