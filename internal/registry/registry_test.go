package registry

import "testing"

func TestRegisterIdempotentPerEndpoint(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	w1, isNew1, full1 := r.Register("10.0.0.1", 5001, 20, 20, 0)
	if !isNew1 || full1 {
		t.Fatalf("expected first registration to be new and not full")
	}
	w2, isNew2, full2 := r.Register("10.0.0.1", 5001, 20, 20, 0)
	if isNew2 || full2 {
		t.Fatalf("expected repeat registration from same endpoint to reuse index")
	}
	if w1.Index != w2.Index {
		t.Fatalf("repeat registration got a different index: %d vs %d", w1.Index, w2.Index)
	}
}

func TestRegisterAssignsSequentialIndices(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	for i := 0; i < MaxNodes; i++ {
		addr := "10.0.0." + string(rune('1'+i))
		w, isNew, full := r.Register(addr, uint16(5001+i), 20, 20, 0)
		if !isNew || full {
			t.Fatalf("registration %d: expected new, got isNew=%v full=%v", i, isNew, full)
		}
		if w.Index != i {
			t.Fatalf("registration %d: got index %d", i, w.Index)
		}
	}
}

func TestRegisterRejectsFifth(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	for i := 0; i < MaxNodes; i++ {
		addr := "10.0.0." + string(rune('1'+i))
		if _, _, full := r.Register(addr, uint16(5001+i), 20, 20, 0); full {
			t.Fatalf("registration %d unexpectedly reported full", i)
		}
	}
	_, isNew, full := r.Register("10.0.0.99", 6000, 20, 20, 0)
	if isNew || !full {
		t.Fatalf("expected fifth registration to be dropped as full")
	}
}

func TestAllDeliveredRequiresAllFour(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	if r.AllDelivered() {
		t.Fatalf("expected false with no workers registered")
	}
	for i := 0; i < MaxNodes; i++ {
		addr := "10.0.0." + string(rune('1'+i))
		r.Register(addr, uint16(5001+i), 20, 20, 0)
		r.SetExpectedFragments(i, 1)
	}
	if r.AllDelivered() {
		t.Fatalf("expected false before any fragments arrive")
	}
	for i := 0; i < MaxNodes; i++ {
		r.IncrementFragments(i)
	}
	if !r.AllDelivered() {
		t.Fatalf("expected true once every worker has its expected fragment")
	}
}

func TestSetExpectedFragmentsFirstWriteWins(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()
	r.Register("10.0.0.1", 5001, 20, 20, 0)
	r.SetExpectedFragments(0, 3)
	r.SetExpectedFragments(0, 99) // UPLOAD-reported value would call this once only
	w, _ := r.ByIndex(0)
	if w.ExpectedFragments != 3 {
		t.Fatalf("expected first write to stick, got %d", w.ExpectedFragments)
	}
}
