// Package config loads runtime settings from a dotenv file and the process
// environment. Values already present in the environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	DefaultEnvFile          = ".env"
	DefaultAgentOpsEndpoint = "https://otlp.agentops.ai/v1/traces"
	DefaultTraceExporter    = "otlp"
	DefaultLogLevel         = "info"
)

const (
	keyAgentOpsAPIKey   = "agentops_api_key"
	keyAgentOpsEndpoint = "agentops_endpoint"
	keyTraceExporter    = "agentops_exporter"
	keySentryDSN        = "sentry_dsn"
	keyLogLevel         = "log_level"
)

const envAgentOpsAPIKey = "AGENTOPS_API_KEY"

var ErrMissingAPIKey = errors.New("AGENTOPS_API_KEY not found in environment variables")

type Config struct {
	AgentOpsAPIKey   string
	AgentOpsEndpoint string
	TraceExporter    string
	SentryDSN        string
	LogLevel         string

	// EnvFile is the dotenv file that was read, empty when none was found.
	EnvFile string
}

// Load reads envFile (a missing file is fine) and the environment. It fails
// with ErrMissingAPIKey when no telemetry key is configured.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault(keyAgentOpsEndpoint, DefaultAgentOpsEndpoint)
	v.SetDefault(keyTraceExporter, DefaultTraceExporter)
	v.SetDefault(keyLogLevel, DefaultLogLevel)
	v.AutomaticEnv()

	cfg := &Config{}

	if envFile != "" {
		path, err := homedir.Expand(envFile)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", envFile, err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
		} else {
			cfg.EnvFile = path
		}
	}

	cfg.AgentOpsAPIKey = v.GetString(keyAgentOpsAPIKey)
	cfg.AgentOpsEndpoint = v.GetString(keyAgentOpsEndpoint)
	cfg.TraceExporter = strings.ToLower(v.GetString(keyTraceExporter))
	cfg.SentryDSN = v.GetString(keySentryDSN)
	cfg.LogLevel = strings.ToLower(v.GetString(keyLogLevel))

	if cfg.LogLevel == "trace" {
		cfg.TraceExporter = "stdout"
	}

	// The environment wins even when it holds an empty key.
	if key, ok := os.LookupEnv(envAgentOpsAPIKey); ok && key == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.AgentOpsAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}
