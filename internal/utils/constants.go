// Package utils provides helpers shared across the sessiontree CLI.
package utils

const (
	// ApplicationName is the executable and configuration namespace.
	ApplicationName = "sessiontree"
	// ConfigFileName is the local configuration file looked up in the working directory.
	ConfigFileName = ".sessiontree.yaml"
	// GlobalConfigDirectoryName is the directory under the user home holding global configuration.
	GlobalConfigDirectoryName = ".sessiontree"
	// GlobalConfigFileName is the configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// EnvironmentPrefix prefixes environment overrides, e.g. SESSIONTREE_REPORT_THRESHOLD.
	EnvironmentPrefix = "SESSIONTREE"
	// StandardInputLocation selects standard input as the session source.
	StandardInputLocation = "-"
	// DotEnvFileName is loaded from the working directory before environment overrides apply.
	DotEnvFileName = ".env"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

const (
	// LoggerInitializationFailedMessageFormat reports logger construction failures.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal command failures.
	ApplicationExecutionFailedMessage = "sessiontree failed"
)

// EmptyString represents a reusable empty string constant.
const EmptyString = ""
