package cassandra

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeKeyPair generates a self-signed certificate and returns the paths of
// the certificate and key files.
func writeKeyPair(t *testing.T, dir string) (string, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "phalanx-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))

	return certFile, keyFile
}

func TestGetTLSConfig(t *testing.T) {
	tmpDir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, tmpDir)

	// the self-signed certificate doubles as the CA
	caFile := certFile

	emptyCA := filepath.Join(tmpDir, "empty.pem")
	require.NoError(t, os.WriteFile(emptyCA, []byte("not a certificate"), 0o600))

	tests := []struct {
		name     string
		opts     TLSOptions
		wantErr  string
		wantCert bool
		wantCA   bool
	}{
		{
			name:     "mutual tls",
			opts:     TLSOptions{CertFile: certFile, KeyFile: keyFile, CAFile: caFile},
			wantCert: true,
			wantCA:   true,
		},
		{
			name:   "ca only",
			opts:   TLSOptions{CAFile: caFile},
			wantCA: true,
		},
		{
			name:    "invalid cert file",
			opts:    TLSOptions{CertFile: "bogus.pem", KeyFile: keyFile},
			wantErr: "unable to load certfile/keyfile",
		},
		{
			name:    "missing key file",
			opts:    TLSOptions{CertFile: certFile},
			wantErr: "unable to load certfile/keyfile",
		},
		{
			name:    "invalid CA file",
			opts:    TLSOptions{CAFile: "bogus.pem"},
			wantErr: "unable to load cafile",
		},
		{
			name:    "CA file without certificates",
			opts:    TLSOptions{CAFile: emptyCA},
			wantErr: "no certificates found in cafile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := GetTLSConfig(tt.opts)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
			require.Equal(t, tt.wantCert, len(cfg.Certificates) == 1)
			require.Equal(t, tt.wantCA, cfg.RootCAs != nil)
		})
	}
}

func TestGetTLSConfigHostVerification(t *testing.T) {
	cfg, err := GetTLSConfig(TLSOptions{})
	require.NoError(t, err)
	require.True(t, cfg.InsecureSkipVerify)

	cfg, err = GetTLSConfig(TLSOptions{VerifyHost: true})
	require.NoError(t, err)
	require.False(t, cfg.InsecureSkipVerify)
}

func TestTLSOptionsEnabled(t *testing.T) {
	require.False(t, TLSOptions{}.Enabled())
	require.False(t, TLSOptions{VerifyHost: true}.Enabled())
	require.True(t, TLSOptions{CAFile: "ca.pem"}.Enabled())
	require.True(t, TLSOptions{CertFile: "cert.pem", KeyFile: "key.pem"}.Enabled())
}
