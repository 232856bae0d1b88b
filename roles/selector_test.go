package roles

import (
	"slices"
	"testing"

	"github.com/ruffel/hostkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInventory() *Inventory {
	return &Inventory{Roles: map[string][]string{
		"web":    {" Web1 ", "web2:2222"},
		"worker": {"web1", "jobs1"},
		"db":     {"db1"},
	}}
}

func TestHasRole(t *testing.T) {
	t.Parallel()

	inv := testInventory()

	tests := []struct {
		name   string
		target hostkit.Target
		role   string
		want   bool
	}{
		{"trimmed case-insensitive", hostkit.Target{Host: "WEB1"}, "web", true},
		{"bare entry any port", hostkit.Target{Host: "web1", Port: 2200}, "web", true},
		{"host port entry", hostkit.Target{Host: "web2", Port: 2222}, "web", true},
		{"host port mismatch", hostkit.Target{Host: "web2", Port: 22}, "web", false},
		{"other role", hostkit.Target{Host: "db1"}, "web", false},
		{"unknown role", hostkit.Target{Host: "web1"}, "cache", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sel := Selector{Inventory: inv, Target: tt.target}
			assert.Equal(t, tt.want, sel.HasRole(tt.role))
		})
	}

	assert.False(t, Selector{Target: hostkit.Target{Host: "web1"}}.HasRole("web"))
}

func TestHostRoles(t *testing.T) {
	t.Parallel()

	sel := Selector{
		Inventory: testInventory(),
		Active:    []string{"db", "web", "worker"},
		Target:    hostkit.Target{Host: "web1"},
	}

	assert.Equal(t, []string{"web", "worker"}, slices.Collect(sel.HostRoles()))
	assert.Equal(t, []string{"worker"}, slices.Collect(sel.HostRoles("worker", "db")))
	assert.Empty(t, slices.Collect(sel.HostRoles("db")))
}

func TestPickRole(t *testing.T) {
	t.Parallel()

	inv := testInventory()

	web1 := Selector{Inventory: inv, Active: []string{"web", "worker"}, Target: hostkit.Target{Host: "web1"}}
	jobs1 := Selector{Inventory: inv, Active: []string{"web", "worker"}, Target: hostkit.Target{Host: "jobs1"}}
	db1 := Selector{Inventory: inv, Active: []string{"web", "worker"}, Target: hostkit.Target{Host: "db1"}}

	role, err := web1.PickRole(nil, false)
	require.NoError(t, err)
	assert.Equal(t, "web", role)

	role, err = web1.PickRole([]string{"worker", "db"}, true)
	require.NoError(t, err)
	assert.Equal(t, "worker", role)

	role, err = jobs1.PickRole(nil, true)
	require.NoError(t, err)
	assert.Equal(t, "worker", role)

	_, err = web1.PickRole(nil, true)
	require.ErrorIs(t, err, ErrMultipleRoles)
	assert.Contains(t, err.Error(), "web1")

	_, err = db1.PickRole(nil, true)
	require.ErrorIs(t, err, ErrNoRole)
	assert.Contains(t, err.Error(), "db1")

	role, err = db1.PickRole(nil, false)
	require.NoError(t, err)
	assert.Empty(t, role)

	// "db" is not active for this run, so it is not a candidate.
	_, err = db1.PickRole([]string{"db"}, true)
	require.ErrorIs(t, err, ErrNoRole)
}
