// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package httpclient assembles the outbound HTTP client used for report
// uploads. This is the only place in the tool where trust decisions are
// made: which certificate authorities are accepted, whether validation is
// enforced at all, and how timeouts apply.
package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/alymahmoudd/teamscale-upload/src/internal/security/trustpolicy"
	"github.com/alymahmoudd/teamscale-upload/src/internal/security/truststore"
	"github.com/alymahmoudd/teamscale-upload/src/report"
)

// Config holds the connection settings the client is built from.
//
// TrustStorePassword is meaningful only together with TrustStorePath; the
// factory does nothing with a password when no path is given. Timeout must
// be positive; the CLI validates this before construction.
type Config struct {
	ValidateSSL        bool
	TrustStorePath     string
	TrustStorePassword string
	Timeout            time.Duration
}

// Factory builds HTTP clients. Fatal configuration failures are delivered
// to the reporter, which terminates the process; no partial client is ever
// returned from a fatal path.
type Factory struct {
	reporter report.Reporter

	// bypass constructs the accept-all TLS configuration. Overridable in
	// tests to exercise the provider-refusal path.
	bypass func(base *tls.Config) (*tls.Config, error)
}

// NewFactory creates a client factory reporting through r.
func NewFactory(r report.Reporter) *Factory {
	return &Factory{
		reporter: r,
		bypass:   trustpolicy.BypassConfig,
	}
}

// Create assembles an HTTP client from cfg.
//
// The client never follows redirects, plain or TLS; blindly following a
// redirect could leak upload credentials to an unintended host, and the
// upload protocol never requires one. The configured timeout applies
// identically to connecting, the TLS handshake, and every read and write.
//
// When both a trust store and disabled validation are configured, disabling
// validation wins.
func (f *Factory) Create(cfg Config) *http.Client {
	tlsConf := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.TrustStorePath != "" {
		if err := configureTrustStore(tlsConf, cfg.TrustStorePath, cfg.TrustStorePassword); err != nil {
			f.failTrustStore(cfg.TrustStorePath, err)
			return nil
		}
	}

	if !cfg.ValidateSSL {
		bypassed, err := f.bypass(tlsConf)
		if err != nil {
			f.reporter.Warn("Could not disable SSL certificate validation. Leaving it enabled", err)
		} else {
			tlsConf = bypassed
		}
	}

	dialer := &net.Dialer{
		Timeout:   cfg.Timeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, timeout: cfg.Timeout}, nil
		},
		TLSClientConfig:     tlsConf,
		TLSHandshakeTimeout: cfg.Timeout,
		ForceAttemptHTTP2:   true,
		// The per-read deadline also binds the background read on an idle
		// pooled connection, tearing it down after Timeout of idleness; the
		// upload POSTs are not retryable, so connections are not pooled.
		DisableKeepAlives: true,
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: noRedirects,
	}
}

// noRedirects returns the redirect response itself instead of following it.
func noRedirects(_ *http.Request, _ []*http.Request) error {
	return http.ErrUseLastResponse
}

// configureTrustStore loads the keystore at path and attaches its derived
// trust material to the TLS client configuration. Every returned error
// wraps one of the truststore error kinds.
func configureTrustStore(tlsConf *tls.Config, path, password string) error {
	store, err := truststore.Load(path, password)
	if err != nil {
		return err
	}

	managers := trustpolicy.Derive(store)
	if len(managers) == 0 {
		return fmt.Errorf("%w: derived trust manager set is empty for a non-empty store", truststore.ErrInternal)
	}

	// Only the first derived manager is used; multi-manager stores are not
	// a supported input.
	x509Manager, ok := managers[0].(trustpolicy.X509Capable)
	if !ok {
		return fmt.Errorf("%w: derived trust manager does not expose X.509 capability", truststore.ErrInternal)
	}

	tlsConf.RootCAs = x509Manager.CertPool()
	return nil
}

// failTrustStore maps a trust store failure kind to the matching reporter
// channel. User-actionable kinds get remediation text without the technical
// cause; internal defects include the cause.
func (f *Factory) failTrustStore(path string, err error) {
	switch {
	case errors.Is(err, truststore.ErrMissingTrustMark):
		f.reporter.Fail("The certificates in the trust store file " + path + " are not marked as trusted." +
			" Stores exported with `openssl pkcs12 -export -nokeys` lack the trust mark `keytool` sets, so Java tools cannot use them either." +
			"\nPlease re-import the certificates with `keytool -importcert` or provide them as a PEM bundle instead.")
	case errors.Is(err, truststore.ErrCertificateInvalid):
		f.reporter.Fail("Failed to load one of the certificates in the trust store file " + path +
			"\nPlease make sure that the certificate is stored correctly and the certificate version and encoding are supported.")
	case errors.Is(err, truststore.ErrUnsupportedAlgorithm):
		f.reporter.Fail("Failed to verify the integrity of the trust store file " + path +
			" because it uses an unsupported hashing algorithm." +
			"\nPlease change the keystore so it uses a supported algorithm (the current defaults of `keytool` and `openssl pkcs12` are supported).")
	case errors.Is(err, truststore.ErrUnreadable):
		f.reporter.Fail("Failed to read the trust store file " + path +
			"\nPlease make sure that the file exists and is readable and that you provided the correct password." +
			" Please also make sure that the file is a valid Java keystore (JKS or PKCS#12) or a PEM bundle." +
			" You can inspect it with:\nteamscale-upload truststore " + path)
	default:
		f.reporter.FailWithCause("Failed to set up the trust store from "+path+
			"\nThis is a bug. Please report it.", err)
	}
}

// deadlineConn enforces the configured timeout on every read and write,
// giving per-phase read/write timeouts instead of a whole-request bound
// that would cap long uploads.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if err := c.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}
