// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package truststore loads the custom certificate trust store the upload
// tool can be pointed at instead of the system roots.
//
// A trust store is a password-protected on-disk keystore mapping aliases to
// [X.509] certificate chains. Supported encodings are the Java keystore
// formats JKS and PKCS#12 (.p12/.pfx), plus PKCS#7, raw DER, and PEM
// bundles. PKCS#12 stores written by `keytool` decode with both current
// (SHA-256 MAC, PBES2/AES) and legacy (SHA-1/3DES) ciphers, as do exports
// carrying a key pair; cert-only stores written by `openssl pkcs12 -export
// -nokeys` lack the trust mark keytool sets and are rejected with
// remediation, since Java tooling cannot use their entries either. The
// store is decoded once during client construction and not retained
// afterwards.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
package truststore

import (
	"bytes"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudflare/cfssl/helpers"
	"github.com/pavlo-v-chernykh/keystore-go/v4"
	"software.sslmate.com/src/go-pkcs12"
)

var (
	// ErrUnreadable indicates that the keystore file is missing, unreadable,
	// protected by a different password, or not a valid keystore at all.
	ErrUnreadable = errors.New("truststore: keystore unreadable")

	// ErrCertificateInvalid indicates that a certificate entry inside an
	// otherwise readable keystore cannot be decoded or used.
	ErrCertificateInvalid = errors.New("truststore: invalid certificate entry")

	// ErrMissingTrustMark indicates that a PKCS#12 store carries certificate
	// entries without the Java trust-anchor attribute, the shape
	// `openssl pkcs12 -export -nokeys` produces. Errors carrying this kind
	// also match ErrCertificateInvalid.
	ErrMissingTrustMark = errors.New("truststore: certificate entries not marked as trusted")

	// ErrUnsupportedAlgorithm indicates that the keystore integrity check or
	// entry encryption uses an algorithm this tool does not support.
	ErrUnsupportedAlgorithm = errors.New("truststore: unsupported keystore algorithm")

	// ErrInternal indicates a defect in the in-memory store construction
	// itself rather than a problem with the user's input.
	ErrInternal = errors.New("truststore: internal error")
)

// Entry is a single keystore entry: an alias naming one certificate chain.
type Entry struct {
	Alias string
	Chain []*x509.Certificate
}

// Store is the decoded, in-memory form of a trust store. It is immutable
// after Load returns.
type Store struct {
	entries []Entry
}

// Load reads and decodes the keystore at path using password.
//
// The returned error, if any, wraps exactly one of ErrUnreadable,
// ErrCertificateInvalid, ErrUnsupportedAlgorithm, or ErrInternal so callers
// can branch on the failure kind for remediation messaging. Unmarked
// PKCS#12 stores additionally match ErrMissingTrustMark.
func Load(path, password string) (*Store, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var entries []Entry
	switch {
	case isPEM(data):
		entries, err = decodePEM(data)
	case isJKS(data):
		entries, err = decodeJKS(data, password)
	default:
		entries, err = decodeBinary(data, password)
	}
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no certificate entries found", ErrUnreadable)
	}

	return &Store{entries: entries}, nil
}

// isPEM checks if the data is in PEM format.
func isPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// jksMagic is the file magic of the legacy Java KeyStore format.
const jksMagic = 0xfeedfeed

// isJKS checks if the data carries the JKS file magic.
func isJKS(data []byte) bool {
	return len(data) >= 4 && binary.BigEndian.Uint32(data[:4]) == jksMagic
}

// decodePEM decodes a PEM bundle into one entry per certificate block.
// Non-certificate blocks (e.g. stray private keys) are skipped; a trust
// store never needs key material.
func decodePEM(data []byte) ([]Entry, error) {
	var entries []Entry

	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}
		data = rest

		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCertificateInvalid, err)
		}

		entries = append(entries, Entry{
			Alias: aliasFor(block.Headers["friendlyName"], cert, len(entries)),
			Chain: []*x509.Certificate{cert},
		})
	}

	return entries, nil
}

// decodeJKS decodes a store in the JKS format, the default keytool wrote
// before Java 9. Trusted-certificate entries become one entry each;
// private-key entries contribute their certificate chain when the store
// password also unlocks them, mirroring how the Java trust-manager
// machinery treats key entries.
func decodeJKS(data []byte, password string) ([]Entry, error) {
	ks := keystore.New()
	if err := ks.Load(bytes.NewReader(data), []byte(password)); err != nil {
		// The JKS integrity digest cannot distinguish a wrong password
		// from a corrupted file.
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	aliases := ks.Aliases()
	sort.Strings(aliases)

	var entries []Entry
	for _, alias := range aliases {
		switch {
		case ks.IsTrustedCertificateEntry(alias):
			entry, err := ks.GetTrustedCertificateEntry(alias)
			if err != nil {
				return nil, fmt.Errorf("%w: reading entry %q: %v", ErrInternal, alias, err)
			}
			cert, err := x509.ParseCertificate(entry.Certificate.Content)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %q: %v", ErrCertificateInvalid, alias, err)
			}
			entries = append(entries, Entry{Alias: alias, Chain: []*x509.Certificate{cert}})

		case ks.IsPrivateKeyEntry(alias):
			entry, err := ks.GetPrivateKeyEntry(alias, []byte(password))
			if err != nil {
				// The chain is only reachable through the encrypted key,
				// and the entry may use a password of its own.
				continue
			}
			var chain []*x509.Certificate
			for _, stored := range entry.CertificateChain {
				cert, err := x509.ParseCertificate(stored.Content)
				if err != nil {
					return nil, fmt.Errorf("%w: entry %q: %v", ErrCertificateInvalid, alias, err)
				}
				chain = append(chain, cert)
			}
			if len(chain) > 0 {
				entries = append(entries, Entry{Alias: alias, Chain: chain})
			}
		}
	}

	return entries, nil
}

// decodeBinary decodes the password-protected PKCS#12 shapes first, then
// falls back to PKCS#7 and raw DER via cfssl.
//
// Trust stores written by keytool carry certificate bags marked with the
// Java trust-anchor attribute and decode directly. Exports carrying a key
// pair, as `openssl pkcs12 -export` produces, are refused by the
// trust-store decoder because of their extra authenticated-safe item, so
// the chain decoder runs before any failure is classified; their
// certificates are what matters here.
func decodeBinary(data []byte, password string) ([]Entry, error) {
	certs, storeErr := pkcs12.DecodeTrustStore(data, password)
	if storeErr == nil {
		return entriesFromCerts(certs), nil
	}

	_, cert, caCerts, chainErr := pkcs12.DecodeChain(data, password)
	if chainErr == nil {
		return entriesFromCerts(append([]*x509.Certificate{cert}, caCerts...)), nil
	}

	if err := classifyPKCS12(storeErr, chainErr); err != nil {
		return nil, err
	}

	// Not PKCS#12 at all. PKCS#7 bundles and plain DER certificates are
	// still acceptable trust stores; any key material they carry is not.
	certs, _, err := helpers.ParseCertificatesDER(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid keystore: %v", ErrUnreadable, err)
	}

	return entriesFromCerts(certs), nil
}

// classifyPKCS12 maps the failures of both PKCS#12 decoders onto an error
// kind. A nil result means the data is not recognizable as PKCS#12 and the
// remaining formats should be attempted.
func classifyPKCS12(storeErr, chainErr error) error {
	for _, err := range []error{storeErr, chainErr} {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) || errors.Is(err, pkcs12.ErrDecryption) {
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
	}

	// Certificate bags without the Java trust-anchor attribute, the shape
	// `openssl pkcs12 -export -nokeys` produces. The password and integrity
	// check already passed; only the entries are unusable, for keytool too.
	if strings.Contains(storeErr.Error(), "not marked as trusted") {
		return fmt.Errorf("%w: %w: `openssl pkcs12 -export` does not set the trust mark `keytool` sets",
			ErrCertificateInvalid, ErrMissingTrustMark)
	}

	// The chain decoder accepts more file shapes than the trust-store
	// decoder, so its failure names what actually blocked the decode.
	var notImplemented pkcs12.NotImplementedError
	for _, err := range []error{chainErr, storeErr} {
		if errors.As(err, &notImplemented) {
			return fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, notImplemented)
		}
	}

	return nil
}

// entriesFromCerts converts decoded certificates into one entry each.
// The PKCS#12 and DER decoders expose no usable alias, so aliases derive
// from the certificate subject.
func entriesFromCerts(certs []*x509.Certificate) []Entry {
	var entries []Entry
	for i, cert := range certs {
		entries = append(entries, Entry{
			Alias: aliasFor("", cert, i),
			Chain: []*x509.Certificate{cert},
		})
	}
	return entries
}

// aliasFor picks an alias for an entry: the stored friendly name, the
// certificate's common name, or a positional fallback.
func aliasFor(friendlyName string, cert *x509.Certificate, index int) string {
	if friendlyName != "" {
		return friendlyName
	}
	if cn := strings.TrimSpace(cert.Subject.CommonName); cn != "" {
		return strings.ToLower(cn)
	}
	return fmt.Sprintf("entry-%d", index+1)
}

// Len returns the number of entries in the store.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns the decoded entries in keystore order.
func (s *Store) Entries() []Entry { return append([]Entry(nil), s.entries...) }

// Certificates returns every certificate of every chain in keystore order.
func (s *Store) Certificates() []*x509.Certificate {
	var certs []*x509.Certificate
	for _, e := range s.entries {
		certs = append(certs, e.Chain...)
	}
	return certs
}

// Pool builds a certificate pool containing every certificate in the store.
func (s *Store) Pool() *x509.CertPool {
	pool := x509.NewCertPool()
	for _, cert := range s.Certificates() {
		pool.AddCert(cert)
	}
	return pool
}
