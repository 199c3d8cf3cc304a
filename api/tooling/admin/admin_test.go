package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/nssmahe/portal/business/sdk/unitest"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/foundation/keystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GenKey(t *testing.T) {
	folder := t.TempDir()

	kid, err := genKey(folder)
	require.NoError(t, err)

	ks := keystore.New()
	n, err := ks.LoadByFileSystem(os.DirFS(folder))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ks.PublicKey(kid)
	require.NoError(t, err)
}

func Test_NewSuperAdmin(t *testing.T) {
	nu, err := newSuperAdmin("root@nss.manipal.edu", "Portal Admin", "gophers")
	require.NoError(t, err)
	assert.Equal(t, []role.Role{role.SuperAdmin}, nu.Roles)
	assert.True(t, nu.Status.Equal(status.Active))

	_, err = newSuperAdmin("not-an-email", "Portal Admin", "gophers")
	require.Error(t, err)
}

func Test_NewTenant(t *testing.T) {
	nt, err := newTenant("Manipal Institute of Technology", "", "nss.mit.edu", true)
	require.NoError(t, err)
	assert.Equal(t, "manipal-institute-of-technology", nt.Slug.String())
	require.NotNil(t, nt.Domain)
	assert.True(t, nt.AllowPublicRead)

	_, err = newTenant("MIT", "Bad Slug", "", false)
	require.Error(t, err)
}

func Test_Commands(t *testing.T) {
	root := newRootCommand(unitest.Logger())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"genkey", "--folder", t.TempDir()})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "KID:")

	root.SetArgs([]string{"seed-admin"})
	require.Error(t, root.Execute())
}
