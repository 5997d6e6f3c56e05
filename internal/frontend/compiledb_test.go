package frontend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCompileCommands_FiltersNonC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compile_commands.json")
	data := `[
		{"directory": "/src", "file": "main.c", "command": "cc -c main.c"},
		{"directory": "/src", "file": "entry.S", "command": "cc -c entry.S"},
		{"directory": "/src", "file": "defs.h", "command": "cc -c defs.h"},
		{"directory": "/src", "file": "lib/util.c", "arguments": ["cc", "-c", "lib/util.c"]}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cmds, err := LoadCompileCommands(path)
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, filepath.Join("/src", "main.c"), cmds[0].SourcePath())
	assert.Equal(t, filepath.Join("/src", "lib", "util.c"), cmds[1].SourcePath())
}

func TestLoadCompileCommands_AbsolutePathKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compile_commands.json")
	data := `[{"directory": "/build", "file": "/src/main.c"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cmds, err := LoadCompileCommands(path)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "/src/main.c", cmds[0].SourcePath())
}

func TestLoadCompileCommands_MissingFileFails(t *testing.T) {
	_, err := LoadCompileCommands(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadCompileCommands_MalformedJSONFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compile_commands.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := LoadCompileCommands(path)
	assert.Error(t, err)
}
