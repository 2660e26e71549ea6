package graph

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/commgraph/internal/generator"
	"github.com/temirov/commgraph/internal/taskgraph"
	pathutils "github.com/temirov/commgraph/internal/utils/path"
)

const (
	generateCommandUseConstant              = "kind-generate <kind>"
	generateCommandShortDescriptionConstant = "Generate the tasks of a kind"
	generateCommandLongDescriptionConstant  = "kind-generate reads <kinds-dir>/<kind>/kind.yml, runs its loader and transforms, and prints the resulting tasks as YAML."
	kindsDirectoryFlagNameConstant          = "kinds-dir"
	kindsDirectoryFlagUsageConstant         = "Directory containing kind subdirectories"
	parametersFlagNameConstant              = "parameters"
	parametersFlagUsageConstant             = "YAML file with graph parameters"
	createGeneratorErrorTemplate            = "unable to construct generator: %w"
	kindGeneratedMessageConstant            = "kind generated"
	logFieldKindConstant                    = "kind"
	logFieldTaskCountConstant               = "tasks"
)

// KindGenerateCommandBuilder assembles the kind-generate command.
type KindGenerateCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the kind-generate command.
func (builder *KindGenerateCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   generateCommandUseConstant,
		Short: generateCommandShortDescriptionConstant,
		Long:  generateCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(kindsDirectoryFlagNameConstant, "", kindsDirectoryFlagUsageConstant)
	command.Flags().String(parametersFlagNameConstant, "", parametersFlagUsageConstant)

	return command, nil
}

func (builder *KindGenerateCommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := resolveLogger(builder.LoggerProvider)
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	fileSystem := commandFileSystem(command)
	resolver := pathutils.NewResolver("")

	parameters, parametersError := loadParameters(fileSystem, resolver, stringOption(command, parametersFlagNameConstant, configuration.Parameters))
	if parametersError != nil {
		return parametersError
	}

	kindGenerator, generatorError := generator.New(fileSystem, taskgraph.GraphConfig{ProjectRepoParamPrefix: configuration.ProjectRepoParamPrefix}, logger)
	if generatorError != nil {
		return fmt.Errorf(createGeneratorErrorTemplate, generatorError)
	}

	kind := strings.TrimSpace(arguments[0])
	kindsDirectory := resolver.Resolve(stringOption(command, kindsDirectoryFlagNameConstant, configuration.KindsDirectory))
	tasks, generateError := kindGenerator.GenerateKind(command.Context(), kindsDirectory, kind, parameters)
	if generateError != nil {
		return generateError
	}

	logger.Info(kindGeneratedMessageConstant, zap.String(logFieldKindConstant, kind), zap.Int(logFieldTaskCountConstant, len(tasks)))
	return writeTasks(command.OutOrStdout(), tasks)
}
