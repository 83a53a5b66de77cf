// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alymahmoudd/teamscale-upload/src/config"
)

const sampleYAML = `
server: https://teamscale.example.com
project: my-project
user: build
format: JACOCO
partition: Unit Tests
timeout-seconds: 30
truststore: /etc/ssl/teamscale.p12
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teamscale-upload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFile(t *testing.T) {
	settings, err := config.LoadFile(config.Default(), writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://teamscale.example.com", settings.ServerURL)
	assert.Equal(t, "my-project", settings.Project)
	assert.Equal(t, "build", settings.User)
	assert.Equal(t, "JACOCO", settings.Format)
	assert.Equal(t, "Unit Tests", settings.Partition)
	assert.Equal(t, uint(30), settings.TimeoutSeconds)
	assert.Equal(t, "/etc/ssl/teamscale.p12", settings.TrustStorePath)
	assert.False(t, settings.Insecure)
}

func TestLoadFileKeepsBaselineForOmittedKeys(t *testing.T) {
	settings, err := config.LoadFile(config.Default(), writeConfig(t, "project: p\n"))
	require.NoError(t, err)

	assert.Equal(t, uint(60), settings.TimeoutSeconds, "default timeout survives a partial file")
	assert.Equal(t, "p", settings.Project)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := config.LoadFile(config.Default(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFileMalformed(t *testing.T) {
	_, err := config.LoadFile(config.Default(), writeConfig(t, "server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestSecretsAreNotReadFromYAML(t *testing.T) {
	settings, err := config.LoadFile(config.Default(), writeConfig(t, "accesskey: leaked\n"))
	require.NoError(t, err)
	assert.Empty(t, settings.AccessKey, "secrets must come from the environment or flags only")
}

func TestApplyEnvOverlays(t *testing.T) {
	t.Setenv("TEAMSCALE_ACCESS_KEY", "from-env")
	t.Setenv("TEAMSCALE_SERVER_URL", "https://env.example.com")
	t.Setenv("TEAMSCALE_TIMEOUT_SECONDS", "15")

	settings := config.Default()
	settings.Project = "kept"
	require.NoError(t, settings.ApplyEnv())

	assert.Equal(t, "from-env", settings.AccessKey)
	assert.Equal(t, "https://env.example.com", settings.ServerURL)
	assert.Equal(t, uint(15), settings.TimeoutSeconds)
	assert.Equal(t, "kept", settings.Project, "unset variables leave existing values untouched")
}

func TestValidate(t *testing.T) {
	settings := config.Settings{
		ServerURL:      "https://teamscale.example.com",
		Project:        "p",
		User:           "u",
		AccessKey:      "k",
		Format:         "SIMPLE",
		TimeoutSeconds: 60,
	}
	require.NoError(t, settings.Validate())

	settings.AccessKey = ""
	err := settings.Validate()
	require.ErrorIs(t, err, config.ErrIncomplete)
	assert.Contains(t, err.Error(), "access key")

	settings.AccessKey = "k"
	settings.TimeoutSeconds = 0
	err = settings.Validate()
	require.ErrorIs(t, err, config.ErrIncomplete)
	assert.Contains(t, err.Error(), "timeout")
}
