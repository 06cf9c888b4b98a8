package main

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"evalgallery/internal/config"
)

func TestReadmeConfigKeysMatchAllowedKeys(t *testing.T) {
	section := readmeSection(t, "Supported config keys:", "Environment overrides:")
	documented := uniqueSorted(regexp.MustCompile("(?m)^- `([a-z0-9_.]+)`").FindAllStringSubmatch(section, -1))

	allowed := slices.Clone(config.AllowedKeys())
	slices.Sort(allowed)
	if !slices.Equal(documented, allowed) {
		t.Fatalf("README config keys mismatch\ndocumented: %v\nallowed:    %v", documented, allowed)
	}
}

func TestReadmeCommandsMatchCLI(t *testing.T) {
	section := readmeSection(t, "## Commands", "## HTTP API")
	// Command path words run until the first argument, flag or comment.
	documented := uniqueSorted(regexp.MustCompile(`(?m)^evalgallery((?: [a-z]+)+)`).FindAllStringSubmatch(section, -1))

	cfg := config.Default()
	actual := leafCommandPaths(newRootCmd(&cfg))
	if !slices.Equal(documented, actual) {
		t.Fatalf("README command surface mismatch\ndocumented: %v\nactual:     %v", documented, actual)
	}
}

func TestReadmeDocumentsEnvironmentKeys(t *testing.T) {
	readme := loadReadme(t)
	for _, key := range []string{
		"EVALGALLERY_ALLOW_REMOTE",
		"EVALGALLERY_API_URL",
		"EVALGALLERY_CONFIG_DIR",
		"EVALGALLERY_DB",
		"EVALGALLERY_HTTP_TIMEOUT",
		logLevelEnvKey,
		"EVALGALLERY_STORAGE_ROOT",
	} {
		if !strings.Contains(readme, key) {
			t.Fatalf("README does not document %s", key)
		}
	}
}

func loadReadme(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "..", "README.md"))
	if err != nil {
		t.Fatalf("read README.md: %v", err)
	}
	return string(data)
}

func readmeSection(t *testing.T, start, end string) string {
	t.Helper()
	readme := loadReadme(t)
	_, after, ok := strings.Cut(readme, start)
	if !ok {
		t.Fatalf("README has no %q section", start)
	}
	section, _, _ := strings.Cut(after, end)
	return section
}

func leafCommandPaths(root *cobra.Command) []string {
	var paths []string
	var walk func(cmd *cobra.Command, prefix string)
	walk = func(cmd *cobra.Command, prefix string) {
		children := 0
		for _, child := range cmd.Commands() {
			if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
				continue
			}
			children++
			walk(child, strings.TrimSpace(prefix+" "+child.Name()))
		}
		if children == 0 && prefix != "" {
			paths = append(paths, prefix)
		}
	}
	walk(root, "")
	slices.Sort(paths)
	return paths
}

func uniqueSorted(matches [][]string) []string {
	var out []string
	for _, m := range matches {
		value := strings.TrimSpace(m[1])
		if !slices.Contains(out, value) {
			out = append(out, value)
		}
	}
	slices.Sort(out)
	return out
}
