// Package config provides configuration management for the issue copier.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cchalm/issues-copy/internal/ratelimit"
)

const (
	RateLimitFixed    = "fixed"
	RateLimitAdaptive = "adaptive"
)

// Config holds the configuration for a copy run
type Config struct {
	Token string

	SourceOwner string
	SourceRepo  string
	DestOwner   string
	DestRepo    string

	IncludeComments bool
	CopyState       bool
	State           string

	CheckpointFile string
	APIURL         string

	RateLimitMode    string
	RateLimitReserve int
	Delays           ratelimit.Delays

	TelemetryEnabled bool
	OTLPEndpoint     string
}

// MissingVariablesError lists every required environment variable that is not set
type MissingVariablesError struct {
	Keys []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Keys, ", "))
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom loads configuration using getenv to look up variables. Required variables are not checked here so that
// flags can still supply them; see Validate
func LoadFrom(getenv func(string) string) (Config, error) {
	config := Config{
		Token:       getenv("PERSONAL_TOKEN"),
		SourceOwner: getenv("SOURCE_OWNER"),
		SourceRepo:  getenv("SOURCE_REPO"),
		DestOwner:   getenv("DEST_OWNER"),
		DestRepo:    getenv("DEST_REPO"),

		IncludeComments: true,
		CopyState:       true,
		State:           "all",

		CheckpointFile: getenv("CHECKPOINT_FILE"),
		APIURL:         getenv("GITHUB_API_URL"),

		RateLimitMode:    RateLimitFixed,
		RateLimitReserve: 50,
		Delays:           ratelimit.DefaultDelays(),

		OTLPEndpoint: getenv("OTLP_ENDPOINT"),
	}

	parsers := []error{
		parseOptional(getenv, &config.IncludeComments, "INCLUDE_COMMENTS", parseBool),
		parseOptional(getenv, &config.CopyState, "COPY_STATE", parseBool),
		parseOptional(getenv, &config.TelemetryEnabled, "TELEMETRY_ENABLED", parseBool),
		parseOptional(getenv, &config.State, "ISSUE_STATE", identity),
		parseOptional(getenv, &config.RateLimitMode, "RATE_LIMIT_MODE", identity),
		parseOptional(getenv, &config.RateLimitReserve, "RATE_LIMIT_RESERVE", strconv.Atoi),
		parseOptional(getenv, &config.Delays.Page, "PAGE_DELAY", time.ParseDuration),
		parseOptional(getenv, &config.Delays.Issue, "ISSUE_DELAY", time.ParseDuration),
		parseOptional(getenv, &config.Delays.Comment, "COMMENT_DELAY", time.ParseDuration),
	}
	for _, err := range parsers {
		if err != nil {
			return Config{}, err
		}
	}

	return config, nil
}

// Validate checks that the required configuration is present and that enumerated values are known. Every missing
// required variable is reported at once
func (c Config) Validate() error {
	var missing []string
	required := []struct {
		key   string
		value string
	}{
		{"PERSONAL_TOKEN", c.Token},
		{"SOURCE_OWNER", c.SourceOwner},
		{"SOURCE_REPO", c.SourceRepo},
		{"DEST_OWNER", c.DestOwner},
		{"DEST_REPO", c.DestRepo},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return &MissingVariablesError{Keys: missing}
	}

	switch c.State {
	case "open", "closed", "all":
	default:
		return fmt.Errorf("invalid issue state '%s', expected open, closed or all", c.State)
	}

	switch c.RateLimitMode {
	case RateLimitFixed, RateLimitAdaptive:
	default:
		return fmt.Errorf("invalid rate limit mode '%s', expected %s or %s", c.RateLimitMode, RateLimitFixed, RateLimitAdaptive)
	}

	if c.Delays.Page < 0 || c.Delays.Issue < 0 || c.Delays.Comment < 0 {
		return fmt.Errorf("delays must not be negative")
	}

	return nil
}

func parseOptional[T any](getenv func(string) string, dest *T, key string, parseFn func(string) (T, error)) error {
	str := getenv(key)
	if str == "" {
		return nil // Leave default value
	}
	v, err := parseFn(str)
	if err != nil {
		return fmt.Errorf("failed to parse environment variable '%s' value '%s' as '%T': %w", key, str, *dest, err)
	}
	*dest = v
	return nil
}

// parseBool treats only "true", in any case, as true
func parseBool(s string) (bool, error) {
	return strings.EqualFold(s, "true"), nil
}

func identity(s string) (string, error) {
	return s, nil
}
