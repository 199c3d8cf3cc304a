package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/mail"
	"testing"

	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/unitest"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/password"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/foundation/keystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kid = "s4sKIjD9kIRjxs2tulPqGLdxSfgPErRN1Mu3Hd9k9NQ"

func newKeyStore(t *testing.T) *keystore.KeyStore {
	t.Helper()

	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(pk),
	}

	ks := keystore.New()
	require.NoError(t, ks.Add(kid, string(pem.EncodeToMemory(&block))))

	return ks
}

func Test_Auth(t *testing.T) {
	ctx := context.Background()

	userBus := userbus.NewCore(unitest.NewUserStore())
	pw := password.MustParse("gophers")

	active, err := userBus.Create(ctx, userbus.NewUser{
		Name:     name.MustParse("Admin"),
		Email:    mail.Address{Address: "admin@example.com"},
		Password: &pw,
		Status:   status.Active,
	})
	require.NoError(t, err)

	pending, err := userBus.Create(ctx, userbus.NewUser{
		Name:     name.MustParse("Pending"),
		Email:    mail.Address{Address: "pending@example.com"},
		Password: &pw,
		Status:   status.PendingApproval,
	})
	require.NoError(t, err)

	ks := newKeyStore(t)

	a := auth.New(auth.Config{
		Log:       unitest.Logger(),
		UserBus:   userBus,
		KeyLookup: ks,
		Issuer:    "portal",
	})

	t.Run("roundtrip", func(t *testing.T) {
		token, err := a.GenerateToken(kid, active)
		require.NoError(t, err)

		claims, err := a.Authenticate(ctx, "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, active.ID.String(), claims.Subject)
		assert.Equal(t, []string{"user"}, claims.Roles)

		usr, err := a.Principal(ctx, claims)
		require.NoError(t, err)
		assert.Equal(t, active.ID, usr.ID)
	})

	t.Run("inactive-principal", func(t *testing.T) {
		token, err := a.GenerateToken(kid, pending)
		require.NoError(t, err)

		claims, err := a.Authenticate(ctx, "Bearer "+token)
		require.NoError(t, err)

		_, err = a.Principal(ctx, claims)
		assert.True(t, errors.Is(err, auth.ErrUserNotActive))
	})

	t.Run("wrong-issuer", func(t *testing.T) {
		other := auth.New(auth.Config{Log: unitest.Logger(), UserBus: userBus, KeyLookup: ks, Issuer: "someone-else"})

		token, err := other.GenerateToken(kid, active)
		require.NoError(t, err)

		_, err = a.Authenticate(ctx, "Bearer "+token)
		assert.Error(t, err)
	})

	t.Run("missing-bearer", func(t *testing.T) {
		_, err := a.Authenticate(ctx, "Basic abc")
		assert.Error(t, err)
	})

	t.Run("login", func(t *testing.T) {
		_, err := a.Login(ctx, mail.Address{Address: "admin@example.com"}, "gophers")
		assert.NoError(t, err)

		_, err = a.Login(ctx, mail.Address{Address: "pending@example.com"}, "gophers")
		assert.True(t, errors.Is(err, userbus.ErrNotActive))

		_, err = a.Login(ctx, mail.Address{Address: "admin@example.com"}, "wrong")
		assert.True(t, errors.Is(err, userbus.ErrAuthenticationFailure))
	})
}

func Test_ExtractDomain(t *testing.T) {
	assert.Equal(t, "mit.nssmahe.edu", auth.ExtractDomain("mit.nssmahe.edu:8080"))
	assert.Equal(t, "mit.nssmahe.edu", auth.ExtractDomain("mit.nssmahe.edu"))
}
