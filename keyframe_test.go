package compose

import "testing"

func TestTrackSetKeepsTimesSorted(t *testing.T) {
	tr := NewTrack(Keyframe{Time: 1, Value: Scalar(10)})
	tr.Set(Keyframe{Time: 3, Value: Scalar(30)})
	tr.Set(Keyframe{Time: 0, Value: Scalar(0)})
	tr.Set(Keyframe{Time: 2, Value: Scalar(20)})

	keys := tr.Keys()
	if len(keys) != 4 {
		t.Fatalf("Len = %d, want 4", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1].Time >= keys[i].Time {
			t.Fatalf("times not strictly increasing: %v then %v", keys[i-1].Time, keys[i].Time)
		}
	}
}

func TestTrackSetReplacesAtSameTime(t *testing.T) {
	tr := NewTrack(Keyframe{Time: 1, Value: Scalar(10)})
	tr.Set(Keyframe{Time: 1, Value: Scalar(99)})

	if tr.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tr.Len())
	}
	if got := tr.First().Value.Float(); got != 99 {
		t.Errorf("value = %v, want 99", got)
	}
}

func TestTrackEditsCounter(t *testing.T) {
	tr := NewTrack(Keyframe{Time: 0, Value: Scalar(1)})
	if tr.Edits() != 0 {
		t.Fatalf("fresh track edits = %d, want 0", tr.Edits())
	}
	tr.Set(Keyframe{Time: 1, Value: Scalar(2)})
	tr.Remove(1)
	if tr.Edits() != 2 {
		t.Errorf("edits = %d, want 2", tr.Edits())
	}
}

func TestTrackRemoveNeverEmpties(t *testing.T) {
	tr := NewTrack(Keyframe{Time: 0, Value: Scalar(1)})
	if tr.Remove(0) {
		t.Error("removed the last keyframe")
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
}

func TestTrackBracket(t *testing.T) {
	tr := NewTrack(Keyframe{Time: 1, Value: Scalar(10)})
	tr.Set(Keyframe{Time: 3, Value: Scalar(30)})
	tr.Set(Keyframe{Time: 5, Value: Scalar(50)})

	tests := []struct {
		name        string
		time        float64
		left, right float64
	}{
		{"before first clamps", 0, 1, 1},
		{"at first", 1, 1, 1},
		{"inside first span", 2, 1, 3},
		{"at middle key", 3, 3, 5},
		{"inside second span", 4, 3, 5},
		{"at last", 5, 5, 5},
		{"after last clamps", 9, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := tr.Bracket(tt.time)
			if l.Time != tt.left || r.Time != tt.right {
				t.Errorf("Bracket(%v) = (%v, %v), want (%v, %v)",
					tt.time, l.Time, r.Time, tt.left, tt.right)
			}
		})
	}
}

func TestTrackCloneIsIndependent(t *testing.T) {
	tr := NewTrack(Keyframe{Time: 0, Value: Scalar(1)})
	cl := tr.Clone()
	cl.Set(Keyframe{Time: 1, Value: Scalar(2)})

	if tr.Len() != 1 {
		t.Errorf("original Len = %d after clone edit, want 1", tr.Len())
	}
	if cl.Len() != 2 {
		t.Errorf("clone Len = %d, want 2", cl.Len())
	}
}
