package cassandra

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
)

// TLSOptions configures an encrypted connection to the cluster. Setting a
// certificate and key enables mutual TLS.
type TLSOptions struct {
	CAFile     string `yaml:"caFile,omitempty"`
	CertFile   string `yaml:"certFile,omitempty"`
	KeyFile    string `yaml:"keyFile,omitempty"`
	VerifyHost bool   `yaml:"verifyHost,omitempty"`
}

// Enabled reports whether any TLS setting was provided.
func (o TLSOptions) Enabled() bool {
	return o.CAFile != "" || o.CertFile != "" || o.KeyFile != ""
}

// GetTLSConfig creates a TLS config for connecting to the cluster.
//
// Example usage:
//
//	cfg, err := GetTLSConfig(opts)
//	if err != nil {
//		return err
//	}
func GetTLSConfig(opts TLSOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !opts.VerifyHost, // nolint: gosec
	}

	if opts.CertFile != "" || opts.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load certfile/keyfile")
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if opts.CAFile != "" {
		caCert, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load cafile")
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, errors.Errorf("no certificates found in cafile: %s", opts.CAFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
