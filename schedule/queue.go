package schedule

import "container/heap"

// taskQueue is a priority queue of pending tasks. Lower priority
// values run first; tasks with equal priority run in submission order
// (the sequence number breaks ties, making the queue stable).
type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority < q[j].Priority
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// remove takes a task out of the queue by its heap index.
func (q *taskQueue) remove(t *Task) bool {
	if t.index < 0 || t.index >= len(*q) || (*q)[t.index] != t {
		return false
	}
	heap.Remove(q, t.index)
	return true
}
