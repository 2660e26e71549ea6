// Package generator loads a kind end to end: its kind.yml, the loader it
// declares and the transform sequence it lists.
package generator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/commgraph/internal/taskgraph"
	"github.com/temirov/commgraph/internal/taskgraph/loader"
	"github.com/temirov/commgraph/internal/transforms"
)

const (
	loaderConfigKeyConstant      = "loader"
	transformsConfigKeyConstant  = "transforms"
	kindRequiredMessageConstant  = "kind name must be provided"
	transformsInvalidTemplate    = "transforms in %s must be a list of identifiers"
	generateKindErrorTemplate    = "unable to generate kind %s: %w"
	kindGeneratedMessageConstant = "generated kind"
	kindLoadingMessageConstant   = "loading kind"
	logFieldKindConstant         = "kind"
	logFieldPathConstant         = "path"
	logFieldLoaderConstant       = "loader"
	logFieldTransformsConstant   = "transforms"
	logFieldTaskCountConstant    = "tasks"
)

// Generator wires the loader and transform registries together.
type Generator struct {
	Loaders    *loader.Registry
	Transforms *transforms.Registry
	Reader     loader.KindConfigReader
	Graph      taskgraph.GraphConfig
	Logger     *zap.Logger
}

// New constructs a generator with the default loader and transform registries.
func New(fileSystem afero.Fs, graph taskgraph.GraphConfig, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loaders, loadersError := loader.NewDefaultRegistry(fileSystem, logger)
	if loadersError != nil {
		return nil, loadersError
	}
	transformRegistry, transformsError := transforms.NewDefaultRegistry()
	if transformsError != nil {
		return nil, transformsError
	}
	return &Generator{
		Loaders:    loaders,
		Transforms: transformRegistry,
		Reader:     loader.NewKindConfigReader(fileSystem),
		Graph:      graph,
		Logger:     logger,
	}, nil
}

// GenerateKind loads <kindsDirectory>/<kind>, applies its transforms and returns
// the resulting tasks. loadedTasks are the tasks of kinds generated earlier.
func (generator *Generator) GenerateKind(executionContext context.Context, kindsDirectory string, kind string, parameters taskgraph.Parameters, loadedTasks ...taskgraph.Task) ([]taskgraph.Task, error) {
	trimmedKind := strings.TrimSpace(kind)
	if len(trimmedKind) == 0 {
		return nil, fmt.Errorf(generateKindErrorTemplate, kind, errors.New(kindRequiredMessageConstant))
	}

	tasks, generateError := generator.generate(executionContext, filepath.Join(kindsDirectory, trimmedKind), trimmedKind, parameters, loadedTasks)
	if generateError != nil {
		return nil, fmt.Errorf(generateKindErrorTemplate, trimmedKind, generateError)
	}
	return tasks, nil
}

func (generator *Generator) generate(executionContext context.Context, kindPath string, kind string, parameters taskgraph.Parameters, loadedTasks []taskgraph.Task) ([]taskgraph.Task, error) {
	logger := generator.logger()

	kindConfig, readError := generator.Reader.Read(kindPath)
	if readError != nil {
		return nil, readError
	}

	loaderIdentifier := loader.IdentifierDefault
	if configuredLoader, hasLoader := kindConfig[loaderConfigKeyConstant].(string); hasLoader && len(strings.TrimSpace(configuredLoader)) > 0 {
		loaderIdentifier = configuredLoader
	}
	logger.Debug(kindLoadingMessageConstant,
		zap.String(logFieldKindConstant, kind),
		zap.String(logFieldPathConstant, kindPath),
		zap.String(logFieldLoaderConstant, loaderIdentifier),
	)

	loaderFunc, lookupError := generator.Loaders.Lookup(loaderIdentifier)
	if lookupError != nil {
		return nil, lookupError
	}
	loadResult, loadError := loaderFunc(kind, kindPath, kindConfig, parameters, loadedTasks)
	if loadError != nil {
		return nil, loadError
	}

	transformIdentifiers, transformsError := transformList(loadResult.Config[transformsConfigKeyConstant], kindPath)
	if transformsError != nil {
		return nil, transformsError
	}
	sequence, sequenceError := generator.Transforms.BuildSequence(transformIdentifiers)
	if sequenceError != nil {
		return nil, sequenceError
	}

	transformConfig := taskgraph.TransformConfig{
		Kind:       kind,
		Path:       kindPath,
		Params:     parameters,
		Graph:      generator.Graph,
		KindConfig: map[string]any(loadResult.Config),
		Logger:     logger,
	}

	tasks := []taskgraph.Task{}
	for task, taskError := range sequence.Apply(transformConfig, loadResult.Jobs) {
		if taskError != nil {
			return nil, taskError
		}
		if contextError := executionContext.Err(); contextError != nil {
			return nil, contextError
		}
		tasks = append(tasks, task)
	}

	logger.Debug(kindGeneratedMessageConstant,
		zap.String(logFieldKindConstant, kind),
		zap.Strings(logFieldTransformsConstant, sequence.Names()),
		zap.Int(logFieldTaskCountConstant, len(tasks)),
	)
	return tasks, nil
}

func (generator *Generator) logger() *zap.Logger {
	if generator.Logger == nil {
		return zap.NewNop()
	}
	return generator.Logger
}

func transformList(value any, kindPath string) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	entries, isList := taskgraph.AsList(value)
	if !isList {
		return nil, fmt.Errorf(transformsInvalidTemplate, kindPath)
	}
	identifiers := make([]string, 0, len(entries))
	for _, entry := range entries {
		identifier, isText := entry.(string)
		if !isText {
			return nil, fmt.Errorf(transformsInvalidTemplate, kindPath)
		}
		identifiers = append(identifiers, identifier)
	}
	return identifiers, nil
}
