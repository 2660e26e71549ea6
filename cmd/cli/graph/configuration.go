package graph

import "strings"

const (
	defaultKindsDirectoryConstant           = "taskcluster/kinds"
	defaultProjectRepoParamPrefixConstant   = "comm_"
	kindsDirectoryConfigKeyConstant         = "kinds_directory"
	parametersConfigKeyConstant             = "parameters"
	projectRepoParamPrefixConfigKeyConstant = "project_repo_param_prefix"
)

// CommandConfiguration captures the tools.graph configuration section.
type CommandConfiguration struct {
	KindsDirectory         string `mapstructure:"kinds_directory"`
	Parameters             string `mapstructure:"parameters"`
	ProjectRepoParamPrefix string `mapstructure:"project_repo_param_prefix"`
}

// DefaultCommandConfiguration returns the built-in graph settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		KindsDirectory:         defaultKindsDirectoryConstant,
		ProjectRepoParamPrefix: defaultProjectRepoParamPrefixConstant,
	}
}

// DefaultConfigurationValues exposes the defaults as Viper keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + "." + kindsDirectoryConfigKeyConstant:         defaults.KindsDirectory,
		prefix + "." + parametersConfigKeyConstant:             defaults.Parameters,
		prefix + "." + projectRepoParamPrefixConfigKeyConstant: defaults.ProjectRepoParamPrefix,
	}
}

// Sanitize trims values and restores defaults for blank settings.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := CommandConfiguration{
		KindsDirectory:         strings.TrimSpace(configuration.KindsDirectory),
		Parameters:             strings.TrimSpace(configuration.Parameters),
		ProjectRepoParamPrefix: strings.TrimSpace(configuration.ProjectRepoParamPrefix),
	}
	if len(sanitized.KindsDirectory) == 0 {
		sanitized.KindsDirectory = defaults.KindsDirectory
	}
	if len(sanitized.ProjectRepoParamPrefix) == 0 {
		sanitized.ProjectRepoParamPrefix = defaults.ProjectRepoParamPrefix
	}
	return sanitized
}
