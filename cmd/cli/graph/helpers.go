package graph

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/commgraph/internal/taskgraph"
	"github.com/temirov/commgraph/internal/utils"
	pathutils "github.com/temirov/commgraph/internal/utils/path"
)

const (
	yamlIndentConstant           = 2
	readParametersErrorTemplate  = "unable to read parameters %s: %w"
	parseParametersErrorTemplate = "unable to parse parameters %s: %w"
	readTasksErrorTemplate       = "unable to read tasks %s: %w"
	parseTasksErrorTemplate      = "unable to parse tasks %s: %w"
	encodeTasksErrorTemplate     = "unable to write tasks: %w"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveConfiguration(provider func() CommandConfiguration) CommandConfiguration {
	if provider == nil {
		return DefaultCommandConfiguration()
	}
	return provider().Sanitize()
}

// stringOption prefers an explicitly set flag over the configured value.
func stringOption(command *cobra.Command, flagName string, configured string) string {
	if command != nil && command.Flags().Changed(flagName) {
		value, _ := command.Flags().GetString(flagName)
		return value
	}
	return configured
}

func commandFileSystem(command *cobra.Command) afero.Fs {
	return utils.NewCommandContextAccessor().FileSystem(command.Context())
}

func loadParameters(fileSystem afero.Fs, resolver *pathutils.Resolver, parametersPath string) (taskgraph.Parameters, error) {
	resolvedPath := resolver.Resolve(parametersPath)
	if len(resolvedPath) == 0 {
		return taskgraph.Parameters{}, nil
	}
	contentBytes, readError := afero.ReadFile(fileSystem, resolvedPath)
	if readError != nil {
		return nil, fmt.Errorf(readParametersErrorTemplate, resolvedPath, readError)
	}
	parameters := taskgraph.Parameters{}
	if unmarshalError := yaml.Unmarshal(contentBytes, &parameters); unmarshalError != nil {
		return nil, fmt.Errorf(parseParametersErrorTemplate, resolvedPath, unmarshalError)
	}
	if parameters == nil {
		parameters = taskgraph.Parameters{}
	}
	return parameters, nil
}

func loadTasks(fileSystem afero.Fs, tasksPath string) ([]taskgraph.Task, error) {
	contentBytes, readError := afero.ReadFile(fileSystem, tasksPath)
	if readError != nil {
		return nil, fmt.Errorf(readTasksErrorTemplate, tasksPath, readError)
	}
	decoded := []map[string]any{}
	if unmarshalError := yaml.Unmarshal(contentBytes, &decoded); unmarshalError != nil {
		return nil, fmt.Errorf(parseTasksErrorTemplate, tasksPath, unmarshalError)
	}
	tasks := make([]taskgraph.Task, 0, len(decoded))
	for _, entry := range decoded {
		tasks = append(tasks, taskgraph.Task(entry))
	}
	return tasks, nil
}

func writeTasks(output io.Writer, tasks []taskgraph.Task) error {
	encoder := yaml.NewEncoder(utils.NewFlushingWriter(output))
	encoder.SetIndent(yamlIndentConstant)
	documents := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		documents = append(documents, map[string]any(task))
	}
	if encodeError := encoder.Encode(documents); encodeError != nil {
		return fmt.Errorf(encodeTasksErrorTemplate, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(encodeTasksErrorTemplate, closeError)
	}
	return nil
}
