// Package obslog wraps a package-level logrus logger so call sites read
// the way the teacher's nlog-style leveled logging does (ais/prxs3.go,
// cmd/cli/cli/object.go), without depending on aistore's own internal
// logging package.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package obslog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbose raises the log level to debug.
func SetVerbose(v bool) {
	if v {
		log.SetLevel(logrus.DebugLevel)
	}
}

// WithRunID returns a logger whose every line is tagged with run_id, so a
// single orchestrator process's lines can be correlated across a shared
// log stream (SPEC_FULL.md).
func WithRunID(runID string) *logrus.Entry {
	return log.WithField("run_id", runID)
}

func Infof(format string, args ...interface{})  { log.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { log.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }
func Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }
