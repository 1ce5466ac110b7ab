package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVersionCommand tests the version command
func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "", "version")
	require.NoError(t, err, "version command should succeed")

	assert.Contains(t, output, "cpdash version", "should contain 'cpdash version'")
	assert.Contains(t, output, Version, "should contain version number")
}

// TestVersionFlag tests the --version flag
func TestVersionFlag(t *testing.T) {
	output, err := execute(t, "", "--version")
	require.NoError(t, err, "version flag should succeed")

	assert.Equal(t, "cpdash version "+Version+"\n", output)
}

// TestVersionShortFlag tests the -v flag
func TestVersionShortFlag(t *testing.T) {
	flag := rootCmd.Flags().Lookup("version")
	require.NotNil(t, flag, "-v flag should be registered")
	assert.Equal(t, "v", flag.Shorthand, "shorthand should be -v")
}
