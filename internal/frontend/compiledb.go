package frontend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CompileCommand is one entry of a compile_commands.json compilation
// database, the interchange format build systems emit and the batch
// runner consumes.
type CompileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

// SourcePath resolves the entry's file against its directory.
func (c CompileCommand) SourcePath() string {
	if filepath.IsAbs(c.File) {
		return c.File
	}
	return filepath.Join(c.Directory, c.File)
}

// LoadCompileCommands reads a compilation database and returns its C
// entries. Non-C entries (assembly, headers listed by some generators)
// are skipped.
func LoadCompileCommands(path string) ([]CompileCommand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compilation database: %w", err)
	}
	var all []CompileCommand
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse compilation database %s: %w", path, err)
	}
	cmds := make([]CompileCommand, 0, len(all))
	for _, c := range all {
		if strings.HasSuffix(c.File, ".c") {
			cmds = append(cmds, c)
		}
	}
	return cmds, nil
}
