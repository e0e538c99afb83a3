package config

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pki is a throwaway CA plus one server certificate issued by it, written
// to a temp directory as PEM files.
type pki struct {
	caFile   string
	certFile string
	keyFile  string
	ca       *x509.Certificate
	leaf     *x509.Certificate
}

func newPKI(t *testing.T) pki {
	t.Helper()
	dir := t.TempDir()
	now := time.Now()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(100),
		Subject:               pkix.Name{CommonName: "HostPanel Test Root"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	require.NoError(t, err)
	ca, err := x509.ParseCertificate(caDER)
	require.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(101),
		Subject:      pkix.Name{CommonName: "panel.example.test"},
		DNSNames:     []string{"panel.example.test"},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, ca, &leafKey.PublicKey, caKey)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(leafDER)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(leafKey)
	require.NoError(t, err)

	p := pki{
		caFile:   filepath.Join(dir, "root.pem"),
		certFile: filepath.Join(dir, "panel.pem"),
		keyFile:  filepath.Join(dir, "panel-key.pem"),
		ca:       ca,
		leaf:     leaf,
	}
	savePEM(t, p.caFile, "CERTIFICATE", caDER)
	savePEM(t, p.certFile, "CERTIFICATE", leafDER)
	savePEM(t, p.keyFile, "EC PRIVATE KEY", keyDER)
	return p
}

func savePEM(t *testing.T, path, kind string, der []byte) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: kind, Bytes: der})
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestTLSEnabled(t *testing.T) {
	assert.False(t, (&Config{}).TLSEnabled())
	assert.False(t, (&Config{TLSCertFile: "panel.pem"}).TLSEnabled())
	assert.True(t, (&Config{TLSCertFile: "panel.pem", TLSKeyFile: "panel-key.pem"}).TLSEnabled())
}

func TestServerTLS_PlaintextWhenUnset(t *testing.T) {
	got, err := (&Config{}).ServerTLS()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestServerTLS_ServesPanelCertificate(t *testing.T) {
	p := newPKI(t)

	got, err := (&Config{TLSCertFile: p.certFile, TLSKeyFile: p.keyFile}).ServerTLS()
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Certificates, 1)
	assert.Equal(t, p.leaf.Raw, got.Certificates[0].Certificate[0])
	assert.Equal(t, uint16(tls.VersionTLS12), got.MinVersion)
	assert.Equal(t, []string{"h2", "http/1.1"}, got.NextProtos)
	assert.Equal(t, tls.NoClientCert, got.ClientAuth)
}

func TestServerTLS_ClientCAEnablesMutualTLS(t *testing.T) {
	p := newPKI(t)
	cfg := &Config{TLSCertFile: p.certFile, TLSKeyFile: p.keyFile, TLSClientCAFile: p.caFile}

	got, err := cfg.ServerTLS()
	require.NoError(t, err)
	assert.Equal(t, tls.RequireAndVerifyClientCert, got.ClientAuth)

	_, err = p.leaf.Verify(x509.VerifyOptions{
		Roots:     got.ClientCAs,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	})
	assert.NoError(t, err, "certificates issued by the configured CA must be accepted")
}

func TestServerTLS_Errors(t *testing.T) {
	p := newPKI(t)
	junk := filepath.Join(t.TempDir(), "junk.pem")
	require.NoError(t, os.WriteFile(junk, []byte("-----not pem-----"), 0o600))

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing certificate",
			cfg:  Config{TLSCertFile: filepath.Join(t.TempDir(), "absent.pem"), TLSKeyFile: p.keyFile},
			want: "load panel certificate",
		},
		{
			name: "key does not match",
			cfg:  Config{TLSCertFile: p.caFile, TLSKeyFile: p.keyFile},
			want: "load panel certificate",
		},
		{
			name: "missing client CA",
			cfg:  Config{TLSCertFile: p.certFile, TLSKeyFile: p.keyFile, TLSClientCAFile: filepath.Join(t.TempDir(), "absent.pem")},
			want: "read TLS_CLIENT_CA_FILE",
		},
		{
			name: "client CA without certificates",
			cfg:  Config{TLSCertFile: p.certFile, TLSKeyFile: p.keyFile, TLSClientCAFile: junk},
			want: "holds no PEM certificates",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.ServerTLS()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
