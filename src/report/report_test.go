// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alymahmoudd/teamscale-upload/src/logger"
)

func newTestReporter() (*CLIReporter, *bytes.Buffer, *int) {
	var buf bytes.Buffer
	log := logger.NewCLILogger()
	log.SetOutput(&buf)

	exitCode := -1
	r := NewCLIReporter(log)
	r.exit = func(code int) { exitCode = code }
	return r, &buf, &exitCode
}

func TestCLIReporterFail(t *testing.T) {
	r, buf, exitCode := newTestReporter()

	r.Fail("trust store file is missing")

	assert.Equal(t, 1, *exitCode)
	assert.Contains(t, buf.String(), "ERROR: trust store file is missing")
	assert.NotContains(t, buf.String(), "Caused by")
}

func TestCLIReporterFailWithCause(t *testing.T) {
	r, buf, exitCode := newTestReporter()

	r.FailWithCause("no trust managers derived", errors.New("empty manager set"))

	assert.Equal(t, 1, *exitCode)
	assert.Contains(t, buf.String(), "no trust managers derived")
	assert.Contains(t, buf.String(), "Caused by: empty manager set")
}

func TestCLIReporterWarnDoesNotExit(t *testing.T) {
	r, buf, exitCode := newTestReporter()

	r.Warn("could not disable certificate validation", errors.New("provider refused"))
	r.Warn("no cause attached", nil)

	assert.Equal(t, -1, *exitCode, "warnings must not terminate the process")
	assert.Contains(t, buf.String(), "WARNING: could not disable certificate validation (provider refused)")
	assert.Contains(t, buf.String(), "WARNING: no cause attached")
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}

	rec.Fail("plain fatal")
	rec.FailWithCause("fatal with cause", errors.New("boom"))
	rec.Warn("a warning", nil)

	require.Len(t, rec.Fatals(), 2)
	assert.Equal(t, []string{"plain fatal", "fatal with cause"}, rec.Fatals())
	assert.Equal(t, []string{"a warning"}, rec.Warnings())
	require.Len(t, rec.Causes(), 1)
	assert.EqualError(t, rec.Causes()[0], "boom")
}
