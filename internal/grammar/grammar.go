// Package grammar parses the line-oriented L-system grammar file described
// in spec §4.1 and §6.4.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package grammar

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// G is the parsed grammar: axiom, turn angle, iteration count, and the
// partial letter->replacement rule set.
type G struct {
	Axiom      string
	Angle      int
	Iterations int
	Rules      map[byte]string
}

// Parse reads directives from r: `axiom:`, `angle:`, `iterations:`, and
// `rule: X -> RHS` lines. `#` starts a comment; blank lines are ignored;
// leading/trailing space around values is trimmed. Malformed rule lines are
// logged and skipped rather than failing the whole parse.
func Parse(r io.Reader) (G, error) {
	g := G{Rules: make(map[byte]string)}
	sc := bufio.NewScanner(r)
	lineNo := 0
	sawAxiom := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "axiom:"):
			g.Axiom = strings.TrimSpace(strings.TrimPrefix(line, "axiom:"))
			sawAxiom = true
		case strings.HasPrefix(line, "angle:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "angle:"))
			n, err := strconv.Atoi(v)
			if err != nil {
				logrus.WithField("line", lineNo).Warnf("grammar: malformed angle %q, skipping", v)
				continue
			}
			g.Angle = n
		case strings.HasPrefix(line, "iterations:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "iterations:"))
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				logrus.WithField("line", lineNo).Warnf("grammar: malformed iterations %q, skipping", v)
				continue
			}
			g.Iterations = n
		case strings.HasPrefix(line, "rule:"):
			body := strings.TrimSpace(strings.TrimPrefix(line, "rule:"))
			sym, rhs, ok := parseRule(body)
			if !ok {
				logrus.WithField("line", lineNo).Warnf("grammar: malformed rule %q, skipping", body)
				continue
			}
			g.Rules[sym] = rhs
		default:
			logrus.WithField("line", lineNo).Warnf("grammar: unrecognized directive %q, skipping", line)
		}
	}
	if err := sc.Err(); err != nil {
		return G{}, errors.Wrap(err, "grammar: scan failed")
	}
	if !sawAxiom || g.Axiom == "" {
		return G{}, errors.New("grammar: missing or empty axiom")
	}
	return g, nil
}

// parseRule splits "X -> RHS" into the single uppercase symbol and its
// replacement. It returns ok=false for anything else: missing "->", a
// multi-character or non-uppercase left-hand side.
func parseRule(body string) (sym byte, rhs string, ok bool) {
	idx := strings.Index(body, "->")
	if idx < 0 {
		return 0, "", false
	}
	lhs := strings.TrimSpace(body[:idx])
	rhs = strings.TrimSpace(body[idx+2:])
	if len(lhs) != 1 {
		return 0, "", false
	}
	c := lhs[0]
	if c < 'A' || c > 'Z' {
		return 0, "", false
	}
	return c, rhs, true
}
