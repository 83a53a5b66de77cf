// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package report delivers user-facing diagnostics for the upload tool.
//
// It distinguishes three channels: fatal failures whose technical cause is
// worth showing, fatal failures where only the remediation message helps the
// user, and warnings that never abort execution.
package report

import (
	"os"
	"sync"

	"github.com/alymahmoudd/teamscale-upload/src/logger"
)

// Reporter receives diagnostics from client construction and the upload flow.
//
// Fail and FailWithCause terminate the process in production implementations;
// callers must still treat them as returning and stop their own work, so that
// test implementations can record the failure instead of exiting.
type Reporter interface {
	// Fail reports a fatal error with a user-facing remediation message only.
	Fail(message string)
	// FailWithCause reports a fatal error together with its technical cause.
	FailWithCause(message string, cause error)
	// Warn reports a non-fatal problem. Execution continues.
	Warn(message string, cause error)
}

// CLIReporter implements Reporter on top of a Logger and terminates the
// process with exit code 1 on fatal reports.
type CLIReporter struct {
	log  logger.Logger
	exit func(code int)
}

// NewCLIReporter creates a reporter that logs through the given logger and
// exits the process on fatal errors.
func NewCLIReporter(log logger.Logger) *CLIReporter {
	return &CLIReporter{log: log, exit: os.Exit}
}

// Fail logs the remediation message and terminates the process.
func (r *CLIReporter) Fail(message string) {
	r.log.Println("ERROR: " + message)
	r.exit(1)
}

// FailWithCause logs the message plus the underlying cause and terminates
// the process.
func (r *CLIReporter) FailWithCause(message string, cause error) {
	r.log.Printf("ERROR: %s\nCaused by: %v", message, cause)
	r.exit(1)
}

// Warn logs the message and, if present, the underlying cause. Execution
// continues.
func (r *CLIReporter) Warn(message string, cause error) {
	if cause != nil {
		r.log.Printf("WARNING: %s (%v)", message, cause)
		return
	}
	r.log.Println("WARNING: " + message)
}

// Recorder implements Reporter by capturing every report. It never exits,
// which makes the fatal paths of client construction testable.
//
// Recorder is safe for concurrent use by multiple goroutines.
type Recorder struct {
	mu       sync.Mutex
	fatals   []string
	warnings []string
	causes   []error
}

// Fail records a fatal report.
func (r *Recorder) Fail(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fatals = append(r.fatals, message)
}

// FailWithCause records a fatal report and its cause.
func (r *Recorder) FailWithCause(message string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fatals = append(r.fatals, message)
	r.causes = append(r.causes, cause)
}

// Warn records a warning.
func (r *Recorder) Warn(message string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, message)
	if cause != nil {
		r.causes = append(r.causes, cause)
	}
}

// Fatals returns the recorded fatal messages.
func (r *Recorder) Fatals() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fatals...)
}

// Warnings returns the recorded warning messages.
func (r *Recorder) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

// Causes returns the recorded causes from fatal and warning reports.
func (r *Recorder) Causes() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.causes...)
}
