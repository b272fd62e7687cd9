package voicepool

import "testing"

// TestFreePoolLIFOOrder verifies the pool seeds in ascending order and
// pops in descending order, matching the original PushStack loop.
func TestFreePoolLIFOOrder(t *testing.T) {
	p := New(4)

	if p.Len() != 4 {
		t.Fatalf("expected 4 free voices, got %d", p.Len())
	}

	want := []int{3, 2, 1, 0}
	for i, w := range want {
		got, ok := p.Pop()
		if !ok {
			t.Fatalf("pop %d: expected ok, got empty pool", i)
		}
		if got != w {
			t.Errorf("pop %d: want %d, got %d", i, w, got)
		}
	}

	if _, ok := p.Pop(); ok {
		t.Error("expected empty pool after draining all 4")
	}
}

// TestFreePoolPushPop verifies Pool LIFO invariant 6: playing and
// immediately retiring one voice always yields the same index.
func TestFreePoolPushPop(t *testing.T) {
	p := New(10)

	for i := 0; i < 20; i++ {
		v, ok := p.Pop()
		if !ok {
			t.Fatalf("iteration %d: expected a free voice", i)
		}
		if v != 9 {
			t.Errorf("iteration %d: expected voice 9 every time, got %d", i, v)
		}
		p.Push(v)
	}
}

// TestFreePoolPushBeyondCapacityIsNoOp verifies pushing more than the
// original capacity back in doesn't grow the pool.
func TestFreePoolPushBeyondCapacityIsNoOp(t *testing.T) {
	p := New(2)
	p.Push(0)
	p.Push(1)
	p.Push(2) // already full, must be a no-op

	count := 0
	for {
		if _, ok := p.Pop(); !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("expected exactly 2 poppable voices, got %d", count)
	}
}

func TestActiveSetAppendRemove(t *testing.T) {
	a := NewActiveSet(10)

	a.Append(3)
	a.Append(7)
	a.Append(1)

	if a.Len() != 3 {
		t.Fatalf("expected 3 active voices, got %d", a.Len())
	}

	if !a.Remove(7) {
		t.Fatal("expected to remove 7")
	}
	if a.Len() != 2 {
		t.Errorf("expected 2 active voices after remove, got %d", a.Len())
	}
	if a.Remove(7) {
		t.Error("expected second remove of 7 to fail")
	}

	values := a.Values()
	if len(values) != 2 || values[0] != 3 || values[1] != 1 {
		t.Errorf("expected remaining order [3 1], got %v", values)
	}
}

func TestVoiceHeadcountInvariant(t *testing.T) {
	const n = 10
	free := New(n)
	active := NewActiveSet(n)

	var playing []int
	for i := 0; i < n; i++ {
		v, ok := free.Pop()
		if !ok {
			t.Fatalf("expected a free voice at iteration %d", i)
		}
		active.Append(v)
		playing = append(playing, v)
	}

	if free.Len()+active.Len() != n {
		t.Fatalf("expected free+active == %d, got %d+%d", n, free.Len(), active.Len())
	}

	for _, v := range playing {
		active.Remove(v)
		free.Push(v)
	}

	if free.Len() != n || active.Len() != 0 {
		t.Errorf("expected pool fully drained back, got free=%d active=%d", free.Len(), active.Len())
	}
}
