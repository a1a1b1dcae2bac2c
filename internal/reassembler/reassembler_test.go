package reassembler

import (
	"testing"

	"github.com/NVIDIA/lstile/internal/registry"
	"github.com/NVIDIA/lstile/internal/wire"
)

func newRegisteredNode0(t *testing.T) (*registry.Registry, *Reassembler) {
	t.Helper()
	reg, err := registry.New()
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	reg.Register("10.0.0.1", 5001, 20, 20, ExpectedFragmentsHeuristic())
	re := New(20, 20)
	return reg, re
}

func TestHandleBlitsIntoWorkerRegion(t *testing.T) {
	reg, re := newRegisteredNode0(t)
	w, _ := reg.ByIndex(0)

	pixels := make([]byte, 8*10)
	for i := range pixels {
		pixels[i] = ' '
	}
	pixels[3] = 'X' // local (3,0)

	u := wire.Upload{
		NodeID: 0, TotalWidth: 10, TotalHeight: 20,
		FragmentID: 0, TotalFragments: 2,
		RowStart: 0, RowCount: 8,
		Pixels: pixels,
	}
	re.Handle(reg, u)

	got := re.Canvas.Cell(w.Region.XMin+3, w.Region.YMin+0)
	if got != 'X' {
		t.Fatalf("got %q, want 'X'", got)
	}
}

func TestHandleIdempotentAcrossRepeats(t *testing.T) {
	reg, re := newRegisteredNode0(t)
	pixels := []byte("X   ")
	u := wire.Upload{NodeID: 0, TotalWidth: 4, TotalHeight: 20, FragmentID: 0, TotalFragments: 1, RowStart: 0, RowCount: 1, Pixels: pixels}

	re.Handle(reg, u)
	first := re.Canvas.Render()
	re.Handle(reg, u)
	re.Handle(reg, u)
	if re.Canvas.Render() != first {
		t.Fatalf("repeated identical UPLOAD changed the canvas")
	}
}

func TestHandleAdoptsHeuristicThenUploadReportedTotal(t *testing.T) {
	reg, re := newRegisteredNode0(t)
	before, _ := reg.ByIndex(0)
	if before.ExpectedFragments != ExpectedFragmentsHeuristic() {
		t.Fatalf("expected heuristic at registration, got %d", before.ExpectedFragments)
	}

	u := wire.Upload{NodeID: 0, TotalWidth: 1, TotalHeight: 20, FragmentID: 0, TotalFragments: 7, RowStart: 0, RowCount: 1, Pixels: []byte(" ")}
	re.Handle(reg, u)

	after, _ := reg.ByIndex(0)
	if after.ExpectedFragments != 7 {
		t.Fatalf("expected UPLOAD-reported total_fragments=7 to supersede the heuristic, got %d", after.ExpectedFragments)
	}
}

func TestHandleIncrementsFragmentsReceived(t *testing.T) {
	reg, re := newRegisteredNode0(t)
	u1 := wire.Upload{NodeID: 0, TotalWidth: 1, TotalHeight: 20, FragmentID: 0, TotalFragments: 2, RowStart: 0, RowCount: 1, Pixels: []byte("A")}
	u2 := wire.Upload{NodeID: 0, TotalWidth: 1, TotalHeight: 20, FragmentID: 1, TotalFragments: 2, RowStart: 1, RowCount: 1, Pixels: []byte("B")}
	re.Handle(reg, u1)
	re.Handle(reg, u2)
	w, _ := reg.ByIndex(0)
	if w.FragmentsReceived != 2 {
		t.Fatalf("got %d fragments received, want 2", w.FragmentsReceived)
	}
}
