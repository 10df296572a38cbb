package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/temirov/sessiontree/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	templateIndent = 2
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// DefaultApplicationConfiguration returns the configuration written by config init.
func DefaultApplicationConfiguration() ApplicationConfiguration {
	enabled := true
	disabled := false
	threshold := DefaultReportThreshold
	capacity := DefaultFreeCapacity
	required := DefaultFreeRequired
	return ApplicationConfiguration{
		Report: ReportConfiguration{
			Format:    DefaultFormat,
			Threshold: &threshold,
			Summary:   cloneBool(&enabled),
			Tree:      cloneBool(&disabled),
			Match:     []string{},
			Clipboard: cloneBool(&disabled),
		},
		Tree: TreeConfiguration{
			Format:    DefaultFormat,
			Summary:   cloneBool(&enabled),
			Clipboard: cloneBool(&disabled),
		},
		Free: FreeConfiguration{
			Format:    DefaultFormat,
			Capacity:  &capacity,
			Required:  &required,
			Clipboard: cloneBool(&disabled),
		},
		Replay: ReplayConfiguration{DeduplicateListings: cloneBool(&disabled)},
		Source: SourceConfiguration{S3: S3Configuration{PathStyle: cloneBool(&disabled)}},
	}
}

// RenderConfiguration serializes configuration as YAML.
func RenderConfiguration(configuration ApplicationConfiguration) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(templateIndent)
	if err := encoder.Encode(configuration); err != nil {
		return nil, fmt.Errorf("render configuration: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("render configuration: %w", err)
	}
	return buffer.Bytes(), nil
}

// InitializeConfiguration writes the default configuration to the requested target.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}
	var destinationPath string
	switch target {
	case InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		destinationPath = filepath.Join(workingDirectory, utils.ConfigFileName)
	case InitTargetGlobal:
		destinationPath = GlobalConfigurationPath()
		if destinationPath == "" {
			return "", fmt.Errorf("resolve home directory for configuration")
		}
		configurationDirectory := filepath.Dir(destinationPath)
		if err := os.MkdirAll(configurationDirectory, 0o755); err != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, err)
		}
	default:
		return "", fmt.Errorf("unsupported init target %q", target)
	}

	if _, err := os.Stat(destinationPath); err == nil {
		if !options.Force {
			return "", fmt.Errorf("configuration file already exists at %s", destinationPath)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, err)
	}

	content, renderErr := RenderConfiguration(DefaultApplicationConfiguration())
	if renderErr != nil {
		return "", renderErr
	}
	if err := os.WriteFile(destinationPath, content, 0o600); err != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, err)
	}

	return destinationPath, nil
}
