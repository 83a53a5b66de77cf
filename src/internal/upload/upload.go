// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package upload sends coverage and finding reports to a Teamscale server
// using the security-configured HTTP client produced by the factory.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/alymahmoudd/teamscale-upload/src/internal/helper/gc"
)

var (
	// ErrServerRedirect indicates the server answered with a redirect.
	// Redirects are never followed: doing so could hand the upload
	// credentials to an unintended host. The server URL must point at the
	// final destination.
	ErrServerRedirect = errors.New("upload: server responded with a redirect")

	// ErrRejected indicates the server refused the report.
	ErrRejected = errors.New("upload: server rejected the report")
)

// Request describes one report upload.
type Request struct {
	ServerURL string
	Project   string
	Username  string
	AccessKey string
	Format    string
	Partition string
	Message   string
	UserAgent string
}

// endpoint builds the external-analysis upload URL for the request.
func (r Request) endpoint() (*url.URL, error) {
	base, err := url.Parse(strings.TrimSuffix(r.ServerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("upload: invalid server URL %q: %w", r.ServerURL, err)
	}

	u := base.JoinPath("api", "projects", r.Project,
		"external-analysis", "session", "auto-create", "report")

	q := u.Query()
	q.Set("format", r.Format)
	if r.Partition != "" {
		q.Set("partition", r.Partition)
	}
	if r.Message != "" {
		q.Set("message", r.Message)
	}
	u.RawQuery = q.Encode()

	return u, nil
}

// Perform uploads the report file at reportPath as a multipart POST. The
// body is streamed so large reports never have to fit in memory.
func Perform(ctx context.Context, client *http.Client, req Request, reportPath string) error {
	u, err := req.endpoint()
	if err != nil {
		return err
	}

	file, err := os.Open(filepath.Clean(reportPath))
	if err != nil {
		return fmt.Errorf("upload: opening report file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("report", filepath.Base(reportPath))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), pr)
	if err != nil {
		return fmt.Errorf("upload: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	httpReq.SetBasicAuth(req.Username, req.AccessKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("upload: sending report: %w", err)
	}
	defer resp.Body.Close()

	return checkResponse(resp)
}

// checkResponse classifies the server's answer. Redirect responses surface
// as configuration errors since redirects are never followed.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resp.Header.Get("Location")
		return fmt.Errorf("%w (%s to %q); redirects are not followed, point the server URL at the final destination",
			ErrServerRedirect, resp.Status, location)
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	body := ""
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, 4096)); err == nil {
		body = strings.TrimSpace(string(buf.Bytes()))
	}

	if body != "" {
		return fmt.Errorf("%w: %s: %s", ErrRejected, resp.Status, body)
	}
	return fmt.Errorf("%w: %s", ErrRejected, resp.Status)
}
