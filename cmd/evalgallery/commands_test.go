package main

import (
	"testing"

	"github.com/spf13/cobra"

	"evalgallery/internal/config"
)

func TestLeafCommandsDeclareUsage(t *testing.T) {
	cfg := config.Default()
	root := newRootCmd(&cfg)

	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		if cmd.Short == "" {
			t.Fatalf("command %q has no short description", cmd.CommandPath())
		}
		if !cmd.HasSubCommands() {
			if cmd.RunE == nil {
				t.Fatalf("leaf command %q has no RunE", cmd.CommandPath())
			}
			if cmd.Args == nil && cmd.Name() != "srv" {
				t.Fatalf("leaf command %q does not validate its arguments", cmd.CommandPath())
			}
		}
		for _, child := range cmd.Commands() {
			walk(child)
		}
	}
	walk(root)
}

func TestCommandsRejectWrongArgs(t *testing.T) {
	cfg := testConfig(t)
	for _, args := range [][]string{
		{"get"},
		{"rename", "at-abcd1234"},
		{"cover", "set"},
		{"list", "extra"},
	} {
		if _, err := runCLI(t, cfg, args...); err == nil {
			t.Fatalf("expected %v to fail argument validation", args)
		}
	}
}
