// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// globalValueFlags take a separate value that precedes the command path.
var globalValueFlags = []string{"--config"}

// TestCommandScriptCoverage checks that every runnable leaf command is
// exercised by at least one testdata/script file.
func TestCommandScriptCoverage(t *testing.T) {
	t.Parallel()

	commands := leafCommands(newRootCommand(NewApp(Dependencies{})), "")
	covered := scriptCoverage(t, filepath.Join("testdata", "script"), commands)

	var uncovered []string
	for _, path := range commands {
		if !covered[path] {
			uncovered = append(uncovered, path)
		}
	}
	slices.Sort(uncovered)
	for _, path := range uncovered {
		t.Errorf("uncovered command: %q has no script in testdata/script", path)
	}
}

// leafCommands returns the paths of visible commands that have a handler and
// no visible children.
func leafCommands(cmd *cobra.Command, prefix string) []string {
	var paths []string
	for _, child := range cmd.Commands() {
		if child.Hidden {
			continue
		}
		path := strings.TrimSpace(prefix + " " + child.Name())
		sub := leafCommands(child, path)
		if child.Runnable() && hasNoVisibleChildren(child) {
			paths = append(paths, path)
		}
		paths = append(paths, sub...)
	}
	return paths
}

func hasNoVisibleChildren(cmd *cobra.Command) bool {
	for _, c := range cmd.Commands() {
		if !c.Hidden {
			return false
		}
	}
	return true
}

// scriptCoverage collects the known command paths invoked by
// `exec versionfetch ...` lines.
func scriptCoverage(t *testing.T, dir string, known []string) map[string]bool {
	t.Helper()

	execRe := regexp.MustCompile(`^!?\s*exec\s+versionfetch\s+(.+)`)
	files, err := filepath.Glob(filepath.Join(dir, "*.txtar"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no scripts found in %s: %v", dir, err)
	}

	covered := make(map[string]bool)
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			t.Fatalf("failed to open %s: %v", file, err)
		}
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			m := execRe.FindStringSubmatch(strings.TrimSpace(sc.Text()))
			if m == nil {
				continue
			}
			if path := matchCommand(strings.Fields(m[1]), known); path != "" {
				covered[path] = true
			}
		}
		_ = f.Close() // Read-only file; close error non-critical.
	}
	return covered
}

// matchCommand returns the longest known command path formed by the leading
// non-flag words of args.
func matchCommand(args, known []string) string {
	var words []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if slices.Contains(globalValueFlags, arg) {
				i++
			}
			continue
		}
		words = append(words, arg)
	}

	for n := len(words); n > 0; n-- {
		if path := strings.Join(words[:n], " "); slices.Contains(known, path) {
			return path
		}
	}
	return ""
}
