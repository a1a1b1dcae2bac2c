package router

import "testing"

// TestRoutingDeterminism checks every (source, direction) cell in §4.4's
// table and that Route is a pure function of its two arguments only.
func TestRoutingDeterminism(t *testing.T) {
	want := map[[2]int]int{
		{0, int(wireDirSouth)}: 2,
		{0, int(wireDirEast)}:  1,
		{1, int(wireDirSouth)}: 3,
		{1, int(wireDirWest)}:  0,
		{2, int(wireDirNorth)}: 0,
		{2, int(wireDirEast)}:  3,
		{3, int(wireDirNorth)}: 1,
		{3, int(wireDirWest)}:  2,
	}
	exits := map[[2]int]bool{
		{0, int(wireDirNorth)}: true,
		{0, int(wireDirWest)}:  true,
		{1, int(wireDirNorth)}: true,
		{1, int(wireDirEast)}:  true,
		{2, int(wireDirSouth)}: true,
		{2, int(wireDirWest)}:  true,
		{3, int(wireDirSouth)}: true,
		{3, int(wireDirEast)}:  true,
	}
	for src := 0; src < 4; src++ {
		for dir := uint8(0); dir < 4; dir++ {
			target, ok := Route(src, dir)
			key := [2]int{src, int(dir)}
			if exits[key] {
				if ok {
					t.Errorf("Route(%d,%d) = (%d,true), want canvas exit", src, dir, target)
				}
				continue
			}
			wantTarget, known := want[key]
			if !known {
				t.Fatalf("test table missing entry for (%d,%d)", src, dir)
			}
			if !ok || target != wantTarget {
				t.Errorf("Route(%d,%d) = (%d,%v), want (%d,true)", src, dir, target, ok, wantTarget)
			}
		}
	}
}

func TestRouteRejectsOutOfRange(t *testing.T) {
	if _, ok := Route(4, 0); ok {
		t.Fatalf("expected false for out-of-range source id")
	}
	if _, ok := Route(0, 9); ok {
		t.Fatalf("expected false for out-of-range direction")
	}
}

const (
	wireDirNorth = 0
	wireDirEast  = 1
	wireDirSouth = 2
	wireDirWest  = 3
)
