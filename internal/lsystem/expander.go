// Package lsystem expands a parsed grammar into the deterministic symbol
// string the turtle walks (spec §4.1).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package lsystem

import (
	"github.com/OneOfOne/xxhash"

	"github.com/NVIDIA/lstile/internal/grammar"
)

// LMax bounds the expanded string's length (spec §3): expansion halts
// before writing a byte at or past LMax-1.
const LMax = 100_000

// Expand runs g's rewrite rules for g.Iterations passes over the axiom,
// single-pass per iteration (RHS symbols are never re-expanded within the
// same pass), truncating at LMax-1 bytes with no partial RHS write.
func Expand(g grammar.G) string {
	s := g.Axiom
	for i := 0; i < g.Iterations; i++ {
		next, hitBound := expandOnce(s, g.Rules)
		s = next
		if hitBound {
			break
		}
	}
	return s
}

// expandOnce performs a single left-to-right rewrite pass. It returns the
// result and whether truncation occurred (in which case Expand runs no
// further iterations and returns the truncated result as-is).
func expandOnce(s string, rules map[byte]string) (string, bool) {
	var buf []byte
	buf = make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		rhs, hasRule := rules[c]
		if !hasRule {
			if len(buf) >= LMax-1 {
				return string(buf), true
			}
			buf = append(buf, c)
			continue
		}
		if len(buf)+len(rhs) > LMax-1 {
			return string(buf), true
		}
		buf = append(buf, rhs...)
	}
	return string(buf), false
}

// Checksum returns the xxhash of s, logged once at startup so an operator
// can sanity-check a run without instrumenting the binary (SPEC_FULL.md).
func Checksum(s string) uint64 {
	return xxhash.Checksum64([]byte(s))
}
