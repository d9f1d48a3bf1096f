package routeguard_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/aussiebroadwan/garage/pkg/routeguard"
	"github.com/stretchr/testify/require"
)

func TestTableMatch(t *testing.T) {
	table := routeguard.DefaultTable()

	cases := map[string]jwtx.Role{
		"/admin":              jwtx.RoleAdmin,
		"/admin/":             jwtx.RoleAdmin,
		"/admin/users":        jwtx.RoleAdmin,
		"/customer/dashboard": jwtx.RoleCustomer,
		"/employee":           jwtx.RoleEmployee,
	}
	for path, want := range cases {
		rule, ok := table.Match(path)
		require.True(t, ok, path)
		require.Equal(t, want, rule.Role, path)
	}

	for _, path := range []string{"/", "/administrator", "/customers", "/login"} {
		_, ok := table.Match(path)
		require.False(t, ok, path)
	}
}

func TestTableExcluded(t *testing.T) {
	table := routeguard.DefaultTable()

	for _, path := range []string{"/api", "/api/auth/login", "/_next/data/x", "/static/a", "/robots.txt", "/admin/export.csv"} {
		require.True(t, table.Excluded(path), path)
	}
	for _, path := range []string{"/", "/admin", "/admin/v1.2/", "/apiary"} {
		require.False(t, table.Excluded(path), path)
	}
}

func TestTableHomeFor(t *testing.T) {
	table := routeguard.DefaultTable()
	require.Equal(t, "/admin", table.HomeFor(jwtx.RoleAdmin))
	require.Equal(t, "/", table.HomeFor(jwtx.RoleNone))
	require.Equal(t, "/", table.HomeFor("ROLE_UNKNOWN"))
}

func TestParseTable(t *testing.T) {
	t.Run("two-rule policy", func(t *testing.T) {
		table, err := routeguard.ParseTable([]byte(`
home: /login
rules:
  - prefix: /admin
    role: ROLE_ADMIN
  - prefix: /customer
    role: ROLE_CUSTOMER
`))
		require.NoError(t, err)
		require.Equal(t, "/login", table.Home)
		require.Len(t, table.Rules, 2)

		_, ok := table.Match("/employee")
		require.False(t, ok)

		// Defaults fill what the file leaves out.
		require.Equal(t, "/employee", table.HomeFor(jwtx.RoleEmployee))
		require.True(t, table.Excluded("/api/x"))
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		_, err := routeguard.ParseTable([]byte("rules:\n  - prefix: /ops\n    role: ROLE_OPS\n"))
		require.ErrorIs(t, err, routeguard.ErrInvalidTable)
	})

	t.Run("relative prefix rejected", func(t *testing.T) {
		_, err := routeguard.ParseTable([]byte("rules:\n  - prefix: admin\n    role: ROLE_ADMIN\n"))
		require.ErrorIs(t, err, routeguard.ErrInvalidTable)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := routeguard.ParseTable([]byte("rules: [oops"))
		require.Error(t, err)
	})
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("role_homes:\n  ROLE_ADMIN: /admin/overview\n"), 0o600))

	table, err := routeguard.LoadTable(path)
	require.NoError(t, err)
	require.Equal(t, "/admin/overview", table.HomeFor(jwtx.RoleAdmin))
	require.Len(t, table.Rules, 3)

	_, err = routeguard.LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
