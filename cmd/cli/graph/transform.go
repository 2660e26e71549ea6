package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/commgraph/internal/taskgraph"
	"github.com/temirov/commgraph/internal/transforms"
	pathutils "github.com/temirov/commgraph/internal/utils/path"
)

const (
	transformCommandUseConstant              = "task-transform"
	transformCommandShortDescriptionConstant = "Apply transforms to task records"
	transformCommandLongDescriptionConstant  = "task-transform applies a sequence of registered transforms to a YAML list of task records and prints the result as YAML."
	tasksFlagNameConstant                    = "tasks"
	tasksFlagUsageConstant                   = "YAML file containing a list of task records"
	transformsFlagNameConstant               = "transforms"
	transformsFlagUsageConstant              = "Transform identifiers applied in order (default: every registered transform)"
	kindFlagNameConstant                     = "kind"
	kindFlagUsageConstant                    = "Kind name exposed to transforms"
	tasksRequiredMessageConstant             = "task file required; specify --tasks"
	createRegistryErrorTemplate              = "unable to construct transform registry: %w"
	tasksTransformedMessageConstant          = "tasks transformed"
	logFieldTransformsConstant               = "transforms"
)

// TaskTransformCommandBuilder assembles the task-transform command.
type TaskTransformCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the task-transform command.
func (builder *TaskTransformCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   transformCommandUseConstant,
		Short: transformCommandShortDescriptionConstant,
		Long:  transformCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(tasksFlagNameConstant, "", tasksFlagUsageConstant)
	command.Flags().StringSlice(transformsFlagNameConstant, nil, transformsFlagUsageConstant)
	command.Flags().String(kindFlagNameConstant, "", kindFlagUsageConstant)
	command.Flags().String(parametersFlagNameConstant, "", parametersFlagUsageConstant)

	return command, nil
}

func (builder *TaskTransformCommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := resolveLogger(builder.LoggerProvider)
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	fileSystem := commandFileSystem(command)
	resolver := pathutils.NewResolver("")

	tasksPath, _ := command.Flags().GetString(tasksFlagNameConstant)
	tasksPath = resolver.Resolve(tasksPath)
	if len(tasksPath) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return errors.New(tasksRequiredMessageConstant)
	}

	parameters, parametersError := loadParameters(fileSystem, resolver, stringOption(command, parametersFlagNameConstant, configuration.Parameters))
	if parametersError != nil {
		return parametersError
	}
	tasks, tasksError := loadTasks(fileSystem, tasksPath)
	if tasksError != nil {
		return tasksError
	}

	registry, registryError := transforms.NewDefaultRegistry()
	if registryError != nil {
		return fmt.Errorf(createRegistryErrorTemplate, registryError)
	}
	identifiers, _ := command.Flags().GetStringSlice(transformsFlagNameConstant)
	if len(identifiers) == 0 {
		identifiers = registry.Identifiers()
	}
	sequence, sequenceError := registry.BuildSequence(identifiers)
	if sequenceError != nil {
		return sequenceError
	}

	kind, _ := command.Flags().GetString(kindFlagNameConstant)
	transformConfig := taskgraph.TransformConfig{
		Kind:   strings.TrimSpace(kind),
		Params: parameters,
		Graph:  taskgraph.GraphConfig{ProjectRepoParamPrefix: configuration.ProjectRepoParamPrefix},
		Logger: logger,
	}
	transformed, transformError := taskgraph.Collect(sequence.Apply(transformConfig, taskgraph.FromSlice(tasks)))
	if transformError != nil {
		return transformError
	}

	logger.Info(tasksTransformedMessageConstant, zap.Strings(logFieldTransformsConstant, sequence.Names()), zap.Int(logFieldTaskCountConstant, len(transformed)))
	return writeTasks(command.OutOrStdout(), transformed)
}
