package rcpsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gocumulative/pkg/cumulative"
)

const demoYAML = `
name: demo
capacity: 4
horizon: 20
jobs:
  - { name: a, duration: 4, demand: 3, earliest: 0, latest: 0 }
  - { name: b, duration: 4, demand: 3, earliest: 0, latest: 10 }
`

// TestParse_Demo verifies the fields of a small well-formed instance.
func TestParse_Demo(t *testing.T) {
	in, err := Parse([]byte(demoYAML))
	require.NoError(t, err)

	assert.Equal(t, "demo", in.Name)
	assert.Equal(t, 4, in.Capacity)
	assert.Equal(t, 20, in.Horizon)
	require.Len(t, in.Jobs, 2)
	assert.Equal(t, JobSpec{Name: "a", Duration: 4, Demand: 3, Earliest: 0, Latest: 0}, in.Jobs[0])
	assert.Equal(t, int64(24), in.TotalEnergy())
	assert.Equal(t, 14, in.MaxLct())
}

// TestParse_Invalid verifies that malformed instances are rejected with
// an error rather than producing a half-built instance.
func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad syntax", "capacity: [\n"},
		{"zero capacity", "capacity: 0\njobs:\n  - { duration: 1, demand: 1, earliest: 0, latest: 0 }\n"},
		{"no jobs", "capacity: 2\njobs: []\n"},
		{"negative duration", "capacity: 2\njobs:\n  - { duration: -1, demand: 1, earliest: 0, latest: 0 }\n"},
		{"latest before earliest", "capacity: 2\njobs:\n  - { duration: 1, demand: 1, earliest: 5, latest: 2 }\n"},
		{"job beyond horizon", "capacity: 2\nhorizon: 3\njobs:\n  - { duration: 2, demand: 1, earliest: 0, latest: 2 }\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

// TestLoad verifies round-tripping through a file on disk, including the
// error path for a missing file.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoYAML), 0o644))

	in, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", in.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

// TestBuild verifies that Build produces one variable per job in file
// order and a constraint carrying the instance name.
func TestBuild(t *testing.T) {
	in, err := Parse([]byte(demoYAML))
	require.NoError(t, err)

	store, c, err := in.Build()
	require.NoError(t, err)

	assert.Equal(t, 2, store.NumVars())
	assert.Equal(t, 0, store.LowerBound(0))
	assert.Equal(t, 0, store.UpperBound(0))
	assert.Equal(t, 10, store.UpperBound(1))
	assert.Equal(t, 4, c.Capacity())
	assert.Equal(t, "demo", c.Name())
	assert.Equal(t, 2, c.NumJobs())
}

// TestBuild_Propagates verifies the built pair feeds straight into the
// propagation engine: job a's compulsory part [0,4) leaves one free unit,
// so job b cannot start before time 4.
func TestBuild_Propagates(t *testing.T) {
	in, err := Parse([]byte(demoYAML))
	require.NoError(t, err)
	store, c, err := in.Build()
	require.NoError(t, err)

	eng := cumulative.NewEngine(cumulative.DefaultConfig())
	res := eng.Propagate(c, store, store)
	assert.Equal(t, cumulative.StatusTightened, res.Status)
	assert.Equal(t, 4, store.LowerBound(1), "b must wait for a's compulsory part")
}

// TestBuild_ZeroDemandJob verifies that a zero-demand job still gets a
// variable even though the constraint drops it.
func TestBuild_ZeroDemandJob(t *testing.T) {
	in, err := Parse([]byte(`
capacity: 2
jobs:
  - { duration: 3, demand: 0, earliest: 0, latest: 5 }
  - { duration: 2, demand: 1, earliest: 1, latest: 4 }
`))
	require.NoError(t, err)

	store, c, err := in.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, store.NumVars())
	assert.Equal(t, 1, c.NumJobs(), "zero-demand job is dropped from the constraint")
	assert.Equal(t, "j0", in.JobName(0))
}
