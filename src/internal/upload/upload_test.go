// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package upload_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alymahmoudd/teamscale-upload/src/internal/upload"
)

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coverage.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testRequest(serverURL string) upload.Request {
	return upload.Request{
		ServerURL: serverURL,
		Project:   "my-project",
		Username:  "build",
		AccessKey: "secret-key",
		Format:    "JACOCO",
		Partition: "Unit Tests",
		Message:   "nightly upload",
		UserAgent: "teamscale-upload/test",
	}
}

func TestPerformSendsMultipartReport(t *testing.T) {
	reportPath := writeReport(t, "<coverage/>")

	var (
		gotPath    string
		gotQuery   map[string]string
		gotUser    string
		gotKey     string
		gotContent string
		gotName    string
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"format":    r.URL.Query().Get("format"),
			"partition": r.URL.Query().Get("partition"),
			"message":   r.URL.Query().Get("message"),
		}
		gotUser, gotKey, _ = r.BasicAuth()

		file, header, err := r.FormFile("report")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		gotContent = string(data)
		gotName = header.Filename

		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	err := upload.Perform(context.Background(), ts.Client(), testRequest(ts.URL), reportPath)
	require.NoError(t, err)

	assert.Equal(t, "/api/projects/my-project/external-analysis/session/auto-create/report", gotPath)
	assert.Equal(t, "JACOCO", gotQuery["format"])
	assert.Equal(t, "Unit Tests", gotQuery["partition"])
	assert.Equal(t, "nightly upload", gotQuery["message"])
	assert.Equal(t, "build", gotUser)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "<coverage/>", gotContent)
	assert.Equal(t, "coverage.xml", gotName)
}

func TestPerformOmitsEmptyOptionalParameters(t *testing.T) {
	reportPath := writeReport(t, "data")

	var rawQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	req := testRequest(ts.URL)
	req.Partition = ""
	req.Message = ""

	require.NoError(t, upload.Perform(context.Background(), ts.Client(), req, reportPath))
	assert.NotContains(t, rawQuery, "partition=")
	assert.NotContains(t, rawQuery, "message=")
}

func TestPerformReportsRejection(t *testing.T) {
	reportPath := writeReport(t, "data")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("access key does not grant upload permission"))
	}))
	defer ts.Close()

	err := upload.Perform(context.Background(), ts.Client(), testRequest(ts.URL), reportPath)
	require.ErrorIs(t, err, upload.ErrRejected)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "access key does not grant upload permission")
}

func TestPerformTreatsRedirectAsError(t *testing.T) {
	reportPath := writeReport(t, "data")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "https://elsewhere.example.com/")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer ts.Close()

	// A client that never follows redirects, like the one the factory builds.
	client := &http.Client{
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	err := upload.Perform(context.Background(), client, testRequest(ts.URL), reportPath)
	require.ErrorIs(t, err, upload.ErrServerRedirect)
	assert.Contains(t, err.Error(), "elsewhere.example.com")
}

func TestPerformMissingReportFile(t *testing.T) {
	err := upload.Perform(context.Background(), http.DefaultClient,
		testRequest("http://localhost:1"), filepath.Join(t.TempDir(), "nope.xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening report file")
}

func TestPerformInvalidServerURL(t *testing.T) {
	reportPath := writeReport(t, "data")

	req := testRequest("http://bad url with spaces")
	err := upload.Perform(context.Background(), http.DefaultClient, req, reportPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server URL")
}
