// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package trustpolicy decides which peer certificates the upload client
// trusts: either the managers derived from a decoded trust store, or the
// shared accept-everything policy used when validation is disabled.
package trustpolicy

import (
	"crypto/fips140"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/alymahmoudd/teamscale-upload/src/internal/security/truststore"
)

// ErrBypassUnavailable indicates that the crypto provider on this host
// refuses to construct an accept-all TLS context. The caller keeps its
// previously configured, validating behavior.
var ErrBypassUnavailable = errors.New("trustpolicy: accept-all TLS context unavailable")

// Manager decides whether a presented peer certificate chain should be
// trusted. The signature matches the [tls.Config.VerifyPeerCertificate]
// callback so managers can be attached to a TLS context directly.
type Manager interface {
	VerifyPeerCertificate(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error
}

// X509Capable is implemented by managers that verify against X.509 trust
// material and can expose it as a certificate pool. The client factory
// requires this capability explicitly instead of silently falling back to
// an unsafe default.
type X509Capable interface {
	Manager
	CertPool() *x509.CertPool
}

// storeManager trusts exactly the certificates of one decoded trust store.
type storeManager struct {
	pool *x509.CertPool
}

// VerifyPeerCertificate verifies the presented chain against the store's
// certificate pool. Intermediates presented by the peer are honored.
func (m *storeManager) VerifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errors.New("trustpolicy: no peer certificates presented")
	}

	leaf, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("trustpolicy: parsing peer certificate: %w", err)
	}

	intermediates := x509.NewCertPool()
	for _, raw := range rawCerts[1:] {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return fmt.Errorf("trustpolicy: parsing peer intermediate: %w", err)
		}
		intermediates.AddCert(cert)
	}

	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:         m.pool,
		Intermediates: intermediates,
	})
	return err
}

// CertPool returns the store-derived certificate pool.
func (m *storeManager) CertPool() *x509.CertPool { return m.pool }

// Derive derives the trust-manager set for a decoded trust store using the
// default X.509 chain verification. The result currently holds exactly one
// manager; callers use the first entry and must still guard against an
// empty set.
func Derive(store *truststore.Store) []Manager {
	return []Manager{&storeManager{pool: store.Pool()}}
}

// acceptAllManager unconditionally accepts any certificate chain. It holds
// no state and is side-effect free.
type acceptAllManager struct{}

// VerifyPeerCertificate accepts any chain, including an absent one.
func (acceptAllManager) VerifyPeerCertificate(_ [][]byte, _ [][]*x509.Certificate) error {
	return nil
}

// AcceptAll is the shared accept-everything trust manager. It is immutable
// and safe to share across all clients and goroutines.
var AcceptAll Manager = acceptAllManager{}

// BypassConfig builds a TLS client configuration bound to AcceptAll and a
// hostname check that accepts any name, overriding whatever trust material
// base carries. base is not modified; pass nil to start from defaults.
//
// It fails with ErrBypassUnavailable when the crypto provider forbids
// accept-all contexts, which is the case in FIPS 140-3 mode.
func BypassConfig(base *tls.Config) (*tls.Config, error) {
	if fips140.Enabled() {
		return nil, fmt.Errorf("%w: FIPS 140-3 mode forbids disabling certificate verification", ErrBypassUnavailable)
	}

	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	// InsecureSkipVerify disables both chain and hostname verification;
	// AcceptAll is attached so the accepting policy is an explicit value
	// rather than an absence of checks.
	cfg.InsecureSkipVerify = true
	cfg.RootCAs = nil
	cfg.VerifyPeerCertificate = AcceptAll.VerifyPeerCertificate

	return cfg, nil
}
