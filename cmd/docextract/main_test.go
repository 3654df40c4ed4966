package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunOptionsApply(t *testing.T) {
	cfg := common.Default()
	o := &runOptions{
		input:           "in",
		output:          "out",
		dryRun:          true,
		noDedup:         true,
		workers:         3,
		formats:         []string{"json"},
		documentTimeout: "2s",
	}
	require.NoError(t, o.apply(cfg))
	assert.Equal(t, "in", cfg.Input.Dir)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.True(t, cfg.Output.DryRun)
	assert.False(t, cfg.Pipeline.Deduplicate)
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	assert.Equal(t, []string{"json"}, cfg.Output.Formats)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.DocumentTimeout)

	assert.Error(t, (&runOptions{formats: []string{"pdf"}}).apply(common.Default()))
	assert.Error(t, (&runOptions{documentTimeout: "soon"}).apply(common.Default()))
}

func TestRootRunsEmptyDirectory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")

	stdout, err := execute(t, "--input", in, "--output", out, "--formats", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Total processed:  0")
	assert.FileExists(t, filepath.Join(out, "json", "extracted_data.json"))
	assert.FileExists(t, filepath.Join(out, "json", "validation_report.json"))
}

func TestRunDryRunWithStore(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	db := filepath.Join(t.TempDir(), "docextract.db")

	stdout, err := execute(t, "run", "--input", in, "--output", out, "--dry-run", "--store", "sqlite://"+db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Processing complete")
	assert.NoDirExists(t, out)

	stdout, err = execute(t, "store", "batches", "--store", "sqlite://"+db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "COMPLETED")

	stdout, err = execute(t, "store", "ping", "--store", "sqlite://"+db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok")
}

func TestRunMissingInput(t *testing.T) {
	_, err := execute(t, "--input", filepath.Join(t.TempDir(), "missing"), "--dry-run")
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeInput))
}

func TestConfigFileFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docextract.toml")
	require.NoError(t, os.WriteFile(path, []byte("[pipeline]\nworkers = -2\n"), 0o644))

	_, err := execute(t, "--config", path, "--input", dir, "--dry-run")
	require.Error(t, err)
}

func TestTextRequiresArgument(t *testing.T) {
	_, err := execute(t, "text")
	assert.Error(t, err)
}
