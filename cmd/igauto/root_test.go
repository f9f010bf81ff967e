package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-ig-automation/internal/services"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "igauto "+Version+"\n", out)
}

func TestCleanupCommand(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("LOG_LEVEL", "error")

	// 41 days before the reference day: inside the sweep.
	mr.HSet("stats:daily:2024-01-20", "comments_replied", "3")
	// 10 days before: retained.
	mr.HSet("stats:daily:2024-02-20", "comments_replied", "1")

	out, err := run(t, "cleanup", "--env-file", "", "--at", "2024-03-01")
	require.NoError(t, err)

	var res services.CleanupResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.EqualValues(t, 1, res.KeysDeleted)
	assert.Contains(t, res.Days, "2024-01-20")
	assert.False(t, mr.Exists("stats:daily:2024-01-20"))
	assert.True(t, mr.Exists("stats:daily:2024-02-20"))
}

func TestCleanupCommand_BadDay(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	_, err := run(t, "cleanup", "--env-file", "", "--at", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--at")
}
