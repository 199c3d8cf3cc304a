package keystore_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"testing/fstest"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nssmahe/portal/foundation/keystore"
	"github.com/stretchr/testify/require"
)

func Test_LoadByFileSystem(t *testing.T) {
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(pk),
	})

	fsys := fstest.MapFS{
		"keys/54bb2165-71e1-41a6-af3e-7da4a0e1e2c1.pem": {Data: privatePEM},
		"keys/README.md": {Data: []byte("ignored")},
	}

	ks := keystore.New()
	n, err := ks.LoadByFileSystem(fsys)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	priv, err := ks.PrivateKey("54bb2165-71e1-41a6-af3e-7da4a0e1e2c1")
	require.NoError(t, err)
	require.Equal(t, string(privatePEM), priv)

	pub, err := ks.PublicKey("54bb2165-71e1-41a6-af3e-7da4a0e1e2c1")
	require.NoError(t, err)

	parsed, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pub))
	require.NoError(t, err)
	require.True(t, parsed.Equal(&pk.PublicKey))

	_, err = ks.PublicKey("unknown")
	require.Error(t, err)
}
