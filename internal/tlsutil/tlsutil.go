// Package tlsutil builds the secure-context material for TLS endpoints.
// When no certificate files are configured it falls back to generating a
// self-signed pair, which is enough for local development and tests.
package tlsutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// Material bundles everything a TLS listener or dialer needs.
type Material struct {
	// Certificate is the leaf certificate and private key.
	Certificate tls.Certificate

	// CAPool holds the trusted roots, or nil to use the system pool.
	CAPool *x509.CertPool

	// SelfSigned reports whether the certificate was generated rather
	// than loaded from disk.
	SelfSigned bool
}

// Load reads the certificate and key from disk, plus an optional CA
// bundle. With empty cert and key paths it generates a self-signed pair
// instead.
func Load(certFile, keyFile, caFile string) (*Material, error) {
	if certFile == "" && keyFile == "" {
		return SelfSigned()
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: load key pair: %w", err)
	}

	m := &Material{Certificate: cert}
	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("tlsutil: read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("tlsutil: no certificates in CA bundle %s", caFile)
		}
		m.CAPool = pool
	}
	return m, nil
}

// SelfSigned generates a fresh RSA-2048 certificate valid for one year,
// with localhost and loopback SANs. The subject is a fixed placeholder.
func SelfSigned() (*Material, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("tlsutil: generate serial: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Country:            []string{"XX"},
			Province:           []string{"State"},
			Locality:           []string{"City"},
			Organization:       []string{"Organization"},
			OrganizationalUnit: []string{"Unit"},
			CommonName:         "localhost",
		},
		NotBefore:             now,
		NotAfter:              now.AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: create certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: parse certificate: %w", err)
	}

	return &Material{
		Certificate: tls.Certificate{
			Certificate: [][]byte{der},
			PrivateKey:  key,
			Leaf:        leaf,
		},
		SelfSigned: true,
	}, nil
}

// ServerConfig returns a tls.Config serving this material.
func (m *Material) ServerConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{m.Certificate},
		MinVersion:   tls.VersionTLS12,
	}
}
