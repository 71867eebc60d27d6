package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func requiredEnv() map[string]string {
	return map[string]string{
		"PERSONAL_TOKEN": "token",
		"SOURCE_OWNER":   "octo",
		"SOURCE_REPO":    "old",
		"DEST_OWNER":     "octo",
		"DEST_REPO":      "new",
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env(requiredEnv()))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.True(t, cfg.IncludeComments)
	require.True(t, cfg.CopyState)
	require.Equal(t, "all", cfg.State)
	require.Equal(t, RateLimitFixed, cfg.RateLimitMode)
	require.Equal(t, time.Second, cfg.Delays.Page)
	require.Equal(t, time.Second, cfg.Delays.Issue)
	require.Equal(t, 500*time.Millisecond, cfg.Delays.Comment)
	require.False(t, cfg.TelemetryEnabled)
}

func TestLoadFrom_BooleansAreTrueOnlyForTrue(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"false", false},
		{"yes", false},
		{"1", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			values := requiredEnv()
			values["INCLUDE_COMMENTS"] = tt.value
			values["COPY_STATE"] = tt.value

			cfg, err := LoadFrom(env(values))
			require.NoError(t, err)
			require.Equal(t, tt.expected, cfg.IncludeComments)
			require.Equal(t, tt.expected, cfg.CopyState)
		})
	}
}

func TestLoadFrom_ParsesDelays(t *testing.T) {
	values := requiredEnv()
	values["PAGE_DELAY"] = "2s"
	values["COMMENT_DELAY"] = "0"

	cfg, err := LoadFrom(env(values))
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, cfg.Delays.Page)
	require.Equal(t, time.Second, cfg.Delays.Issue)
	require.Equal(t, time.Duration(0), cfg.Delays.Comment)
}

func TestLoadFrom_InvalidDelay(t *testing.T) {
	values := requiredEnv()
	values["ISSUE_DELAY"] = "soon"

	_, err := LoadFrom(env(values))
	require.ErrorContains(t, err, "ISSUE_DELAY")
}

func TestValidate_ListsEveryMissingVariable(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{"SOURCE_OWNER": "octo", "DEST_OWNER": "octo"}))
	require.NoError(t, err)

	err = cfg.Validate()
	var missingErr *MissingVariablesError
	require.True(t, errors.As(err, &missingErr))
	require.Equal(t, []string{"PERSONAL_TOKEN", "SOURCE_REPO", "DEST_REPO"}, missingErr.Keys)
	require.Equal(t, "missing required environment variables: PERSONAL_TOKEN, SOURCE_REPO, DEST_REPO", err.Error())
}

func TestValidate_RejectsUnknownState(t *testing.T) {
	values := requiredEnv()
	values["ISSUE_STATE"] = "merged"

	cfg, err := LoadFrom(env(values))
	require.NoError(t, err)
	require.ErrorContains(t, cfg.Validate(), "merged")
}

func TestValidate_RejectsUnknownRateLimitMode(t *testing.T) {
	values := requiredEnv()
	values["RATE_LIMIT_MODE"] = "turbo"

	cfg, err := LoadFrom(env(values))
	require.NoError(t, err)
	require.ErrorContains(t, cfg.Validate(), "turbo")
}
