// Package registry tracks worker records W[i] keyed by their (address,
// port) endpoint (spec §3, §9). Lookups run through an in-memory buntdb
// index so registration reuse ("same endpoint -> same worker index") and
// the O(1)/O(n=4) scan spec §9 calls for are both a single indexed query,
// not a hand-rolled map-of-maps.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package registry

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/NVIDIA/lstile/internal/region"
)

// MaxNodes is the hard-coded worker count the protocol supports (spec §9
// open question: behavior with fewer is undefined and out of scope here).
const MaxNodes = 4

// Worker is W[i]: the per-worker record from spec §3.
type Worker struct {
	Index              int           `json:"index"`
	Addr               string        `json:"addr"`
	Port               uint16        `json:"port"`
	Region             region.Bounds `json:"region"`
	Active             bool          `json:"active"`
	Finished           bool          `json:"finished"`
	ExpectedFragments  int           `json:"expected_fragments"`
	FragmentsConfirmed bool          `json:"fragments_confirmed"`
	FragmentsReceived  int           `json:"fragments_received"`
}

// endpointKey is the buntdb key workers are indexed under, keyed on
// (host, node_port) rather than the UDP source port of the datagram
// (DESIGN.md open question). Four workers co-located on one host that all
// advertise the same node_port would collide into a single key; the
// deployment this repo targets runs one worker per host.
func endpointKey(addr string, port uint16) string {
	return fmt.Sprintf("ep:%s:%d", addr, port)
}

func indexKey(i int) string {
	return fmt.Sprintf("idx:%d", i)
}

// Registry is the orchestrator's worker table: one buntdb instance, opened
// against ":memory:" since spec explicitly excludes fault-tolerant
// recovery across restarts (no on-disk persistence is needed or wanted).
type Registry struct {
	db *buntdb.DB
}

func New() (*Registry, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "registry: open buntdb")
	}
	return &Registry{db: db}, nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

// Count returns how many workers are currently registered.
func (r *Registry) Count() int {
	n := 0
	_ = r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("idx:*", func(key, value string) bool {
			n++
			return true
		})
	})
	return n
}

// Lookup finds a worker by its (addr, port) endpoint.
func (r *Registry) Lookup(addr string, port uint16) (Worker, bool) {
	var w Worker
	found := false
	_ = r.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(endpointKey(addr, port))
		if err != nil {
			return nil
		}
		if err := json.Unmarshal([]byte(val), &w); err != nil {
			return nil
		}
		found = true
		return nil
	})
	return w, found
}

// ByIndex finds a worker by its assigned node id.
func (r *Registry) ByIndex(i int) (Worker, bool) {
	var w Worker
	found := false
	_ = r.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(indexKey(i))
		if err != nil {
			return nil
		}
		if err := json.Unmarshal([]byte(val), &w); err != nil {
			return nil
		}
		found = true
		return nil
	})
	return w, found
}

// Register is idempotent per (addr, port): a repeat REGISTER from the same
// endpoint returns the same worker and isNew=false. A fresh endpoint is
// assigned the next free index in registration order and gets its region
// from the allocator. full=true means four workers are already present and
// this REGISTER is dropped (spec §7).
func (r *Registry) Register(addr string, port uint16, canvasW, canvasH uint16, expectedHeuristic int) (w Worker, isNew bool, full bool) {
	if existing, ok := r.Lookup(addr, port); ok {
		return existing, false, false
	}
	count := r.Count()
	if count >= MaxNodes {
		return Worker{}, false, true
	}
	idx := count
	w = Worker{
		Index:             idx,
		Addr:              addr,
		Port:              port,
		Region:            region.Assign(idx, canvasW, canvasH),
		Active:            true,
		ExpectedFragments: expectedHeuristic,
	}
	r.save(w)
	return w, true, false
}

// SetExpectedFragments adopts an UPLOAD's reported total_fragments the
// first time one is seen for a worker (spec §4.5, §9): it supersedes the
// registration-time heuristic even though that heuristic is already
// nonzero, and is a no-op on every subsequent UPLOAD.
func (r *Registry) SetExpectedFragments(idx, totalFragments int) {
	w, ok := r.ByIndex(idx)
	if !ok {
		return
	}
	if !w.FragmentsConfirmed {
		w.ExpectedFragments = totalFragments
		w.FragmentsConfirmed = true
		r.save(w)
	}
}

// IncrementFragments bumps fragments_received for a worker after a
// successful UPLOAD blit.
func (r *Registry) IncrementFragments(idx int) {
	w, ok := r.ByIndex(idx)
	if !ok {
		return
	}
	w.FragmentsReceived++
	r.save(w)
}

// Finish marks a worker Finished (DONE, or a canvas-exit handover).
func (r *Registry) Finish(idx int) {
	w, ok := r.ByIndex(idx)
	if !ok {
		return
	}
	w.Finished = true
	r.save(w)
}

// AllDelivered reports whether all MaxNodes workers are registered and
// each has fragments_received >= expected_fragments (spec §4.6).
func (r *Registry) AllDelivered() bool {
	if r.Count() < MaxNodes {
		return false
	}
	for i := 0; i < MaxNodes; i++ {
		w, ok := r.ByIndex(i)
		if !ok || w.FragmentsReceived < w.ExpectedFragments {
			return false
		}
	}
	return true
}

func (r *Registry) save(w Worker) {
	buf, err := json.Marshal(w)
	if err != nil {
		return
	}
	_ = r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(endpointKey(w.Addr, w.Port), string(buf), nil)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(indexKey(w.Index), string(buf), nil)
		return err
	})
}
