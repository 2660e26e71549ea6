package l10n

import "strings"

const (
	rootConfigKeyConstant               = "root"
	referenceDirectoryConfigKeyConstant = "reference_directory"
	dryRunConfigKeyConstant             = "dry_run"
	recipesConfigKeyConstant            = "recipes"
)

// CommandConfiguration captures the tools.l10n configuration section.
type CommandConfiguration struct {
	Root               string   `mapstructure:"root"`
	ReferenceDirectory string   `mapstructure:"reference_directory"`
	DryRun             bool     `mapstructure:"dry_run"`
	Recipes            []string `mapstructure:"recipes"`
}

// DefaultCommandConfiguration returns the built-in l10n settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{}
}

// DefaultConfigurationValues exposes the defaults as Viper keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + "." + rootConfigKeyConstant:               defaults.Root,
		prefix + "." + referenceDirectoryConfigKeyConstant: defaults.ReferenceDirectory,
		prefix + "." + dryRunConfigKeyConstant:             defaults.DryRun,
		prefix + "." + recipesConfigKeyConstant:            []string{},
	}
}

// Sanitize trims configured paths and drops blank recipe names.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := CommandConfiguration{
		Root:               strings.TrimSpace(configuration.Root),
		ReferenceDirectory: strings.TrimSpace(configuration.ReferenceDirectory),
		DryRun:             configuration.DryRun,
	}
	for _, recipeName := range configuration.Recipes {
		if trimmed := strings.TrimSpace(recipeName); len(trimmed) > 0 {
			sanitized.Recipes = append(sanitized.Recipes, trimmed)
		}
	}
	return sanitized
}
