// Package reassembler implements the Upload Reassembler (spec §4.5):
// turning independent, possibly-duplicate UPLOAD fragments into writes
// against the global canvas.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package reassembler

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
	"github.com/seiflotfy/cuckoofilter"
	"github.com/sirupsen/logrus"

	"github.com/NVIDIA/lstile/internal/canvas"
	"github.com/NVIDIA/lstile/internal/registry"
	"github.com/NVIDIA/lstile/internal/wire"
)

// NodeBitmapW/H are the fixed per-worker local bitmap dimensions this
// deployment uses; MaxPayloadPixels bounds how many pixel bytes fit a
// single UPLOAD datagram alongside its fixed header (spec §4.5).
const (
	NodeBitmapW      = 40
	NodeBitmapH      = 30
	MaxPayloadPixels = wire.MaxPacketSize - wire.HeaderSize - 9 // 9 = uploadFixedSize
)

// ExpectedFragmentsHeuristic computes the registration-time estimate from
// spec §4.5: ceil(NodeBitmapH / rows_per_fragment). It is deliberately
// superseded by the first UPLOAD's total_fragments (spec §9 open
// question); it only needs to be a reasonable placeholder until then.
func ExpectedFragmentsHeuristic() int {
	rowsPerFragment := MaxPayloadPixels / NodeBitmapW
	if rowsPerFragment <= 0 {
		rowsPerFragment = 1
	}
	n := NodeBitmapH / rowsPerFragment
	if NodeBitmapH%rowsPerFragment != 0 {
		n++
	}
	return n
}

// Reassembler owns the global canvas and a duplicate filter. The
// idempotent-blit property comes from the canvas's own space-transparency
// rule, not from this filter (spec §4.5, §8); the filter decides whether a
// fragment is counted: one it reports as already seen is neither blitted
// nor added to fragments_received.
type Reassembler struct {
	Canvas *canvas.Canvas
	seen   *cuckoo.Filter
}

func New(canvasW, canvasH uint16) *Reassembler {
	return &Reassembler{
		Canvas: canvas.New(canvasW, canvasH),
		seen:   cuckoo.NewFilter(4096),
	}
}

// fragmentKey identifies a fragment for duplicate short-circuiting: node,
// fragment id, and a checksum of its pixels (two different fragments never
// overlap per spec, so node+fragment_id already disambiguates, but the
// checksum catches a retransmission that (incorrectly) reused an id with
// different content rather than silently treating it as the same one).
func fragmentKey(nodeID, fragmentID uint8, pixels []byte) []byte {
	sum := xxhash.Checksum64(pixels)
	return []byte(fmt.Sprintf("%d:%d:%x", nodeID, fragmentID, sum))
}

// Handle processes one UPLOAD datagram against reg and the canvas,
// following spec §4.5 (a)-(c). It returns whether the fragment was blitted
// and counted: false for an UPLOAD from an unregistered node, and for a
// fragment the filter already recognized, which is neither re-blitted nor
// counted again in fragments_received.
func (re *Reassembler) Handle(reg *registry.Registry, u wire.Upload) (blitted bool) {
	reg.SetExpectedFragments(int(u.NodeID), int(u.TotalFragments))

	w, ok := reg.ByIndex(int(u.NodeID))
	if !ok {
		logrus.WithField("node_id", u.NodeID).Warn("reassembler: UPLOAD from unregistered node")
		return false
	}

	key := fragmentKey(u.NodeID, u.FragmentID, u.Pixels)
	if re.seen.Lookup(key) {
		logrus.WithFields(logrus.Fields{"node_id": u.NodeID, "fragment_id": u.FragmentID}).Debug("reassembler: duplicate fragment filtered")
		return false
	}
	re.seen.Insert(key)

	re.Canvas.Blit(w.Region.XMin, w.Region.YMin, u.RowStart, uint16(u.TotalWidth), u.RowCount, u.Pixels)
	reg.IncrementFragments(int(u.NodeID))
	return true
}
