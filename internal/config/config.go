// Package config loads the agent's configuration via
// github.com/spf13/viper: defaults, then a config file
// (depagent.yaml/.toml/.json, whichever is present in the working
// directory), then DEPAGENT_-prefixed environment variables, exactly
// spec.md §6's enumerated options plus the additive ValidationConfig
// discriminated union SPEC_FULL.md §11 describes.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ValidationKind discriminates the three VALIDATION_CONFIG shapes spec.md
// §6 names.
type ValidationKind string

const (
	ValidationScript             ValidationKind = "script"
	ValidationPytest             ValidationKind = "pytest"
	ValidationSmokeThenPytest    ValidationKind = "smoke_test_with_pytest_report"
)

// ValidationConfig is the discriminated union backing VALIDATION_CONFIG.
type ValidationConfig struct {
	Type            ValidationKind `mapstructure:"type"`
	SmokeTestScript string         `mapstructure:"smoke_test_script"`
	PytestTarget    string         `mapstructure:"pytest_target"`
	ProjectDir      string         `mapstructure:"project_dir"`
}

// Config is the fully resolved set of spec.md §6 options, plus the
// GithubActionsLogging flag SPEC_FULL.md §11 adds (auto-detected, never
// user-set).
type Config struct {
	RequirementsFile          string           `mapstructure:"requirements_file"`
	PrimaryRequirementsFile   string           `mapstructure:"primary_requirements_file"`
	MetricsOutputFile         string           `mapstructure:"metrics_output_file"`
	MaxRunPasses              int              `mapstructure:"max_run_passes"`
	MaxLLMBacktrackAttempts   int              `mapstructure:"max_llm_backtrack_attempts"`
	AcceptableFailureThreshold int             `mapstructure:"acceptable_failure_threshold"`
	Validation                ValidationConfig `mapstructure:"validation_config"`
	RegistryIndexURL          string           `mapstructure:"registry_index_url"`
	OracleEndpoint            string           `mapstructure:"oracle_endpoint"`
	OracleAPIKey              string           `mapstructure:"oracle_api_key"`
	ProjectDir                string           `mapstructure:"project_dir"`
	GithubActionsLogging      bool             `mapstructure:"-"`
}

// defaults mirrors the conservative values the Python prototype's
// AGENT_CONFIG literal used (dependency_agent.go's equivalent), so a bare
// invocation with no config file still behaves sensibly.
func defaults(v *viper.Viper) {
	v.SetDefault("requirements_file", "requirements.txt")
	v.SetDefault("primary_requirements_file", "primary_requirements.txt")
	v.SetDefault("metrics_output_file", "metrics_output.txt")
	v.SetDefault("max_run_passes", 5)
	v.SetDefault("max_llm_backtrack_attempts", 3)
	v.SetDefault("acceptable_failure_threshold", 0)
	v.SetDefault("validation_config.type", string(ValidationPytest))
	v.SetDefault("validation_config.pytest_target", ".")
	v.SetDefault("registry_index_url", "https://pypi.org/pypi")
	v.SetDefault("project_dir", ".")
}

// Load reads configuration from, in ascending priority: built-in defaults,
// a depagent.{yaml,toml,json} file in dir (if present), and DEPAGENT_
// prefixed environment variables (e.g. DEPAGENT_MAX_RUN_PASSES).
// GithubActionsLogging is derived separately from the GITHUB_ACTIONS
// environment variable, never from the config file.
func Load(dir string, githubActionsEnv string) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigName("depagent")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("DEPAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, errors.Wrap(err, "reading depagent config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshaling depagent config")
	}
	cfg.GithubActionsLogging = githubActionsEnv != ""
	return cfg, nil
}
