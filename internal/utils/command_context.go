package utils

import (
	"context"

	"github.com/spf13/afero"
)

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	fileSystemContextKeyConstant            = commandContextKey("fileSystem")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return context.WithValue(orBackground(parentContext), configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, available := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	return configurationFilePath, available
}

// WithFileSystem attaches the filesystem commands read kinds, parameters and locales from.
func (accessor CommandContextAccessor) WithFileSystem(parentContext context.Context, fileSystem afero.Fs) context.Context {
	return context.WithValue(orBackground(parentContext), fileSystemContextKeyConstant, fileSystem)
}

// FileSystem returns the attached filesystem, falling back to the OS filesystem.
func (accessor CommandContextAccessor) FileSystem(executionContext context.Context) afero.Fs {
	if executionContext != nil {
		if fileSystem, available := executionContext.Value(fileSystemContextKeyConstant).(afero.Fs); available && fileSystem != nil {
			return fileSystem
		}
	}
	return afero.NewOsFs()
}

func orBackground(parentContext context.Context) context.Context {
	if parentContext == nil {
		return context.Background()
	}
	return parentContext
}
