package mergeconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, ConflictStyleZealous, cfg.DefaultStyle)
	assert.Equal(t, "myers", cfg.DefaultAlgo)
	assert.Empty(t, cfg.Drivers)
}

func TestLoad_DecodesDriverTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".zetamerge.toml")
	contents := `
default_conflict_style = "diff3"

[[driver]]
pattern = "*.bin"
program = "bindiff-merge"

[[driver]]
pattern = "vendor/*.go"
conflict_style = "merge"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ConflictStyleDiff3, cfg.DefaultStyle)
	require.Len(t, cfg.Drivers, 2)
	assert.Equal(t, "bindiff-merge", cfg.Drivers[0].Program)
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`[[driver]]
pattern = "*.txt"
program = "txt-merge"
`), 0o644))

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	program, ok := cfg.ProgramFor("notes.txt")
	assert.True(t, ok)
	assert.Equal(t, "txt-merge", program)
}

func TestProgramFor_NoMatchReturnsFalse(t *testing.T) {
	cfg := defaults()
	program, ok := cfg.ProgramFor("anything.go")
	assert.False(t, ok)
	assert.Empty(t, program)
}

func TestProgramFor_BasenameFallbackMatchesNestedPaths(t *testing.T) {
	cfg := defaults()
	cfg.Drivers = []Driver{{Pattern: "*.bin", Program: "bindiff-merge"}}

	program, ok := cfg.ProgramFor("deep/nested/dir/asset.bin")
	assert.True(t, ok)
	assert.Equal(t, "bindiff-merge", program)
}

func TestProgramFor_LastMatchWins(t *testing.T) {
	cfg := defaults()
	cfg.Drivers = []Driver{
		{Pattern: "*.go", Program: "first"},
		{Pattern: "*.go", Program: "second"},
	}

	program, ok := cfg.ProgramFor("main.go")
	assert.True(t, ok)
	assert.Equal(t, "second", program)
}

func TestStyleFor_FallsBackThroughDefaults(t *testing.T) {
	cfg := defaults()
	assert.Equal(t, ConflictStyleZealous, cfg.StyleFor("f.txt"))

	cfg.DefaultStyle = ConflictStyleDiff3
	assert.Equal(t, ConflictStyleDiff3, cfg.StyleFor("f.txt"))

	cfg.Drivers = []Driver{{Pattern: "*.txt", Style: ConflictStyleMerge}}
	assert.Equal(t, ConflictStyleMerge, cfg.StyleFor("f.txt"))
}

func TestAlgoFor_FallsBackThroughDefaults(t *testing.T) {
	cfg := defaults()
	assert.Equal(t, "myers", cfg.AlgoFor("f.txt"))

	cfg.Drivers = []Driver{{Pattern: "*.txt", Algo: "myers"}}
	assert.Equal(t, "myers", cfg.AlgoFor("f.txt"))
}

func TestLoad_RejectsUnsupportedDiffAlgorithm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".zetamerge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_diff_algorithm = "patience"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patience")
}

func TestValidate_RejectsUnsupportedDriverAlgorithm(t *testing.T) {
	cfg := defaults()
	cfg.Drivers = []Driver{{Pattern: "*.go", Algo: "histogram"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "histogram")
}
