// Package config loads layered sessiontree configuration from files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/temirov/sessiontree/internal/types"
	"github.com/temirov/sessiontree/internal/utils"
)

const (
	// DefaultFormat is the output format used when neither flags nor configuration select one.
	DefaultFormat = types.FormatRaw
	// DefaultReportThreshold is the exclusive size ceiling of report entries.
	DefaultReportThreshold int64 = 100000
	// DefaultFreeCapacity is the total device capacity assumed by free.
	DefaultFreeCapacity int64 = 70000000
	// DefaultFreeRequired is the unused space free must reach.
	DefaultFreeRequired int64 = 30000000

	environmentKeySeparator = "_"
	configurationKeySep     = "."
)

// environmentKeys lists every configuration key that can be overridden through the environment.
var environmentKeys = []string{
	"report.format",
	"report.threshold",
	"report.summary",
	"report.tree",
	"report.match",
	"report.clipboard",
	"tree.format",
	"tree.summary",
	"tree.clipboard",
	"free.format",
	"free.capacity",
	"free.required",
	"free.clipboard",
	"replay.deduplicate_listings",
	"source.s3.region",
	"source.s3.endpoint",
	"source.s3.path_style",
}

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// SkipEnvironment disables .env loading and SESSIONTREE_ overrides.
	SkipEnvironment bool
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Report ReportConfiguration `mapstructure:"report" yaml:"report"`
	Tree   TreeConfiguration   `mapstructure:"tree" yaml:"tree"`
	Free   FreeConfiguration   `mapstructure:"free" yaml:"free"`
	Replay ReplayConfiguration `mapstructure:"replay" yaml:"replay"`
	Source SourceConfiguration `mapstructure:"source" yaml:"source"`
}

// ReportConfiguration defines defaults for the report command.
type ReportConfiguration struct {
	Format    string   `mapstructure:"format" yaml:"format,omitempty"`
	Threshold *int64   `mapstructure:"threshold" yaml:"threshold,omitempty"`
	Summary   *bool    `mapstructure:"summary" yaml:"summary,omitempty"`
	Tree      *bool    `mapstructure:"tree" yaml:"tree,omitempty"`
	Match     []string `mapstructure:"match" yaml:"match"`
	Clipboard *bool    `mapstructure:"clipboard" yaml:"clipboard,omitempty"`
}

// TreeConfiguration defines defaults for the tree command.
type TreeConfiguration struct {
	Format    string `mapstructure:"format" yaml:"format,omitempty"`
	Summary   *bool  `mapstructure:"summary" yaml:"summary,omitempty"`
	Clipboard *bool  `mapstructure:"clipboard" yaml:"clipboard,omitempty"`
}

// FreeConfiguration defines defaults for the free command.
type FreeConfiguration struct {
	Format    string `mapstructure:"format" yaml:"format,omitempty"`
	Capacity  *int64 `mapstructure:"capacity" yaml:"capacity,omitempty"`
	Required  *int64 `mapstructure:"required" yaml:"required,omitempty"`
	Clipboard *bool  `mapstructure:"clipboard" yaml:"clipboard,omitempty"`
}

// ReplayConfiguration controls how listings are replayed into the tree.
type ReplayConfiguration struct {
	DeduplicateListings *bool `mapstructure:"deduplicate_listings" yaml:"deduplicate_listings,omitempty"`
}

// SourceConfiguration configures remote session sources.
type SourceConfiguration struct {
	S3 S3Configuration `mapstructure:"s3" yaml:"s3"`
}

// S3Configuration configures the S3 client used for s3:// locations.
type S3Configuration struct {
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	PathStyle *bool  `mapstructure:"path_style" yaml:"path_style,omitempty"`
}

// LoadApplicationConfiguration loads configuration from global and local files, then the environment.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if globalPath := GlobalConfigurationPath(); globalPath != "" {
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	if options.SkipEnvironment {
		return merged, nil
	}
	if err := loadDotEnv(filepath.Join(workingDirectory, utils.DotEnvFileName)); err != nil {
		return ApplicationConfiguration{}, err
	}
	environmentConfig, envErr := loadConfigurationFromEnvironment()
	if envErr != nil {
		return ApplicationConfiguration{}, envErr
	}
	return merged.Merge(environmentConfig), nil
}

// GlobalConfigurationPath returns the per-user configuration file or an empty string when no home directory exists.
func GlobalConfigurationPath() string {
	homeDirectory, err := os.UserHomeDir()
	if err != nil || homeDirectory == "" {
		return ""
	}
	return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

func loadDotEnv(path string) error {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("stat environment file %s: %w", path, statErr)
	}
	if info.IsDir() {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load environment file %s: %w", path, err)
	}
	return nil
}

func loadConfigurationFromEnvironment() (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetEnvPrefix(utils.EnvironmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySep, environmentKeySeparator))
	for _, key := range environmentKeys {
		if err := reader.BindEnv(key); err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment key %s: %w", key, err)
		}
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode environment configuration: %w", decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Report = result.Report.merge(override.Report)
	result.Tree = result.Tree.merge(override.Tree)
	result.Free = result.Free.merge(override.Free)
	if override.Replay.DeduplicateListings != nil {
		result.Replay.DeduplicateListings = cloneBool(override.Replay.DeduplicateListings)
	}
	result.Source.S3 = result.Source.S3.merge(override.Source.S3)
	return result
}

func (config ReportConfiguration) merge(override ReportConfiguration) ReportConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Threshold != nil {
		result.Threshold = cloneInt64(override.Threshold)
	}
	if override.Summary != nil {
		result.Summary = cloneBool(override.Summary)
	}
	if override.Tree != nil {
		result.Tree = cloneBool(override.Tree)
	}
	if len(override.Match) > 0 {
		result.Match = append([]string{}, override.Match...)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

func (config TreeConfiguration) merge(override TreeConfiguration) TreeConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Summary != nil {
		result.Summary = cloneBool(override.Summary)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

func (config FreeConfiguration) merge(override FreeConfiguration) FreeConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Capacity != nil {
		result.Capacity = cloneInt64(override.Capacity)
	}
	if override.Required != nil {
		result.Required = cloneInt64(override.Required)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

func (config S3Configuration) merge(override S3Configuration) S3Configuration {
	result := config
	if override.Region != "" {
		result.Region = override.Region
	}
	if override.Endpoint != "" {
		result.Endpoint = override.Endpoint
	}
	if override.PathStyle != nil {
		result.PathStyle = cloneBool(override.PathStyle)
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
