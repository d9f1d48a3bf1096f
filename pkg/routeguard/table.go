package routeguard

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"gopkg.in/yaml.v3"
)

// Rule requires Role for every path under Prefix.
type Rule struct {
	Prefix string    `yaml:"prefix"`
	Role   jwtx.Role `yaml:"role"`
}

// Table is the protected-path policy. It is read-only once built.
type Table struct {
	// Home is where unauthenticated or unrecognised callers are sent.
	Home string `yaml:"home"`

	// Rules are checked in order; the first matching prefix wins.
	Rules []Rule `yaml:"rules"`

	// RoleHomes maps a role to its landing page for role-mismatch redirects.
	RoleHomes map[jwtx.Role]string `yaml:"role_homes"`

	// Exclude lists infra prefixes the guard never inspects.
	Exclude []string `yaml:"exclude"`
}

// DefaultTable protects the three portals.
func DefaultTable() *Table {
	return &Table{
		Home: "/",
		Rules: []Rule{
			{Prefix: "/admin", Role: jwtx.RoleAdmin},
			{Prefix: "/customer", Role: jwtx.RoleCustomer},
			{Prefix: "/employee", Role: jwtx.RoleEmployee},
		},
		RoleHomes: map[jwtx.Role]string{
			jwtx.RoleAdmin:    "/admin",
			jwtx.RoleCustomer: "/customer",
			jwtx.RoleEmployee: "/employee",
		},
		Exclude: []string{"/_next/", "/static/", "/assets/", "/api/"},
	}
}

var ErrInvalidTable = errors.New("routeguard: invalid table")

// LoadTable reads a YAML table from path. Missing fields fall back to the
// defaults, except rules: a file that lists rules replaces them entirely.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML table. See LoadTable.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal route table: %w", err)
	}

	def := DefaultTable()
	if t.Home == "" {
		t.Home = def.Home
	}
	if t.Rules == nil {
		t.Rules = def.Rules
	}
	if t.RoleHomes == nil {
		t.RoleHomes = def.RoleHomes
	}
	if t.Exclude == nil {
		t.Exclude = def.Exclude
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every rule is an absolute prefix bound to a known role.
func (t *Table) Validate() error {
	if !strings.HasPrefix(t.Home, "/") {
		return fmt.Errorf("%w: home %q must be an absolute path", ErrInvalidTable, t.Home)
	}
	for i, r := range t.Rules {
		if !strings.HasPrefix(r.Prefix, "/") || r.Prefix == "/" {
			return fmt.Errorf("%w: rule %d prefix %q", ErrInvalidTable, i, r.Prefix)
		}
		if !r.Role.Known() {
			return fmt.Errorf("%w: rule %d role %q", ErrInvalidTable, i, r.Role)
		}
	}
	return nil
}

// Excluded reports whether path is infrastructure the guard skips: build
// internals, static assets, API routes and anything that looks like a file.
func (t *Table) Excluded(path string) bool {
	for _, p := range t.Exclude {
		if strings.HasPrefix(path, p) || path+"/" == p {
			return true
		}
	}
	last := path[strings.LastIndex(path, "/")+1:]
	return strings.Contains(last, ".")
}

// Match returns the rule guarding path, if any. Prefixes match whole
// segments, so "/admin" covers "/admin/users" but not "/administrator".
func (t *Table) Match(path string) (Rule, bool) {
	for _, r := range t.Rules {
		prefix := strings.TrimSuffix(r.Prefix, "/")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return r, true
		}
	}
	return Rule{}, false
}

// HomeFor returns role's landing page, or the generic home.
func (t *Table) HomeFor(role jwtx.Role) string {
	if home, ok := t.RoleHomes[role]; ok && home != "" {
		return home
	}
	return t.Home
}
