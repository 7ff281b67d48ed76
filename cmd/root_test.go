package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"ingest", "schema", "link"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "fda-apps", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestIngestCommand_Flags(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("input")
	require.NotNil(t, flag, "ingest command should have --input flag")

	dry := ingestCmd.Flags().Lookup("dry-run")
	require.NotNil(t, dry, "ingest command should have --dry-run flag")
	assert.Equal(t, "false", dry.DefValue)
}

func TestLinkCommand_Flags(t *testing.T) {
	flag := linkCmd.Flags().Lookup("format")
	require.NotNil(t, flag, "link command should have --format flag")
	assert.Equal(t, "json", flag.DefValue)
}
