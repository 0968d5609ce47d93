package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestRootEchoesCommand(t *testing.T) {
	dir := t.TempDir()
	flags := []string{"--backend", "pebble", "--db-path", dir, "--warm-up", "0s"}

	out := runRoot(t, append([]string{"20", "add"}, flags...)...)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "Command: add 20", lines[0])
	assert.Contains(t, out, " ms, 20 x 1\n")

	// unknown commands are echoed and run the query benchmark
	out = runRoot(t, append([]string{"1000", "bogus"}, flags...)...)
	lines = strings.Split(out, "\n")
	assert.Equal(t, "Command: bogus 1000", lines[0])
	assert.Contains(t, out, " ms, 20 x 1000\n")
}

func TestRootNegativeRepetitionAfterDoubleDash(t *testing.T) {
	flags := []string{"--backend", "pebble", "--db-path", t.TempDir(), "--warm-up", "0s"}

	out := runRoot(t, append(flags, "--", "query", "-3")...)
	assert.True(t, strings.HasPrefix(out, "Command: query -3\n"))
	assert.Contains(t, out, "N/A μs per item")

	assert.Contains(t, rootCmd.Use, "--")
	assert.Contains(t, rootCmd.Long, `"--"`)
}
