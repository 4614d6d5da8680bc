// cmd/sabwatch/main_test.go
package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/sabwatch/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath = ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestValidate_FromEnvironment(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "abc123")
	t.Setenv(config.EnvURL, "http://sab.local:8080")
	t.Setenv(config.EnvCheckInterval, "30")

	out, err := runCommand(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "config OK")
	assert.Contains(t, out, "http://sab.local:8080")
	assert.Contains(t, out, "every 30s")
	assert.NotContains(t, out, "abc123")
}

func TestValidate_MissingAPIKeyFails(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")

	out, err := runCommand(t, "validate")
	require.Error(t, err)

	var ce *config.ConfigurationError
	assert.ErrorAs(t, err, &ce)
	assert.Contains(t, out, "service.api_key")
}
