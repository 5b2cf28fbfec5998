package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/misinfo-cascade/pkg/export"
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
	"github.com/dd0wney/misinfo-cascade/pkg/sweep"
)

// Integer ids exercise the decimal rendering of numeric node ids.
const chainJSON = `{
	"directed": true,
	"nodes": [
		{"id": 0, "credulity": 1, "tendency_to_share": 1},
		{"id": 1, "credulity": 1, "tendency_to_share": 1},
		{"id": 2, "credulity": 1, "tendency_to_share": 1},
		{"id": 3, "is_fact_checker": true}
	],
	"links": [
		{"source": 0, "target": 1, "trust_weight": 1},
		{"source": 1, "target": 2, "trust_weight": 1},
		{"source": 2, "target": 3, "trust_weight": 1}
	]
}`

func writeGraph(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, []byte(chainJSON), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "misinfo version "+version)

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, version, v["version"])
}

func TestRunCmd_JSON(t *testing.T) {
	path := writeGraph(t)

	out, err := execute(t, "run", path, "--initial", "0", "--steps", "3", "--seed", "11", "--json")
	require.NoError(t, err)

	var res runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, uint64(11), res.Seed)
	assert.Equal(t, 4, res.Nodes)
	assert.Equal(t, []graph.NodeID{"0", "1", "2"}, res.Final)
	require.Len(t, res.TimeSeries, 4)
	assert.Equal(t, simulation.TimeSeriesRow{Timestep: 3, NewlyInfected: 0, TotalInfected: 3}, res.TimeSeries[3])
}

func TestRunCmd_Outputs(t *testing.T) {
	path := writeGraph(t)
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "metrics.zip")
	tracePath := filepath.Join(dir, "run.json"+export.CompressedExt)

	out, err := execute(t, "run", path, "--initial", "0", "--steps", "2", "--seed", "5",
		"--out", zipPath, "--trace", tracePath)
	require.NoError(t, err)
	assert.Contains(t, out, "final infected: 3 of 4")

	_, err = os.Stat(zipPath)
	assert.NoError(t, err)

	trace, err := export.LoadTrace(tracePath)
	require.NoError(t, err)
	require.NotNil(t, trace.Seed)
	assert.Equal(t, uint64(5), *trace.Seed)
	assert.Len(t, trace.Nodes, 4)
	assert.Equal(t, 2, trace.Result.InfectionTimes["2"])
}

func TestRunCmd_Errors(t *testing.T) {
	path := writeGraph(t)

	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"unknown seed", []string{"run", path, "--initial", "9"}, simulation.ErrInvalidConfig},
		{"fact-checker seed", []string{"run", path, "--initial", "3"}, simulation.ErrInvalidConfig},
		{"negative steps", []string{"run", path, "--steps=-1"}, simulation.ErrInvalidConfig},
		{"too many random", []string{"run", path, "--random-initial", "9"}, simulation.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.is), "got %v", err)
		})
	}

	_, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRunCmd_ConfigFile(t *testing.T) {
	path := writeGraph(t)
	cfgPath := filepath.Join(t.TempDir(), "misinfo.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(strings.Join([]string{
		"simulation:",
		"  initial_infected: [\"1\"]",
		"  num_timesteps: 1",
		"  seed: 2",
		"logging:",
		"  level: error",
	}, "\n")), 0644))

	out, err := execute(t, "--config", cfgPath, "run", path, "--json")
	require.NoError(t, err)

	var res runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []graph.NodeID{"1", "2"}, res.Final)
}

func TestSweepCmd(t *testing.T) {
	path := writeGraph(t)

	out, err := execute(t, "sweep", path, "--initial", "0", "--steps", "2",
		"--runs", "6", "--workers", "3", "--base-seed", "9", "--json")
	require.NoError(t, err)

	var summary sweep.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 6, summary.Completed)
	assert.Equal(t, uint64(9), summary.BaseSeed)
	assert.Equal(t, 3.0, summary.MeanFinalInfected)
	assert.Equal(t, 3, summary.Reachable)
}

func TestSweepCmd_Text(t *testing.T) {
	path := writeGraph(t)

	out, err := execute(t, "sweep", path, "--random-initial", "1", "--steps", "3", "--runs", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "4 requested, 4 completed, 0 failed")
}

func TestViewCmd_MissingTrace(t *testing.T) {
	_, err := execute(t, "view", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
