package loader

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/commgraph/internal/taskgraph"
)

const (
	// IdentifierDefault names the loader that reads jobs declared in kind.yml.
	IdentifierDefault = "taskgraph.loader.default:loader"
	// IdentifierReference names the loader that includes jobs from another graph.
	IdentifierReference = "comm_taskgraph:reference_loader"

	loaderIdentifierRequiredMessageConstant = "loader identifier must be non-empty"
	loaderFunctionRequiredMessageConstant   = "loader function must be provided"
	duplicateLoaderTemplateConstant         = "loader %s already registered"
	unknownLoaderTemplateConstant           = "unknown loader %s"
)

// KindConfig is the decoded kind.yml mapping.
type KindConfig map[string]any

// LoadResult carries the loaded jobs and the configuration remaining after the loader consumed its keys.
type LoadResult struct {
	Jobs   taskgraph.Stream
	Config KindConfig
}

// LoaderFunc materializes the jobs of a kind.
type LoaderFunc func(kind string, path string, config KindConfig, parameters taskgraph.Parameters, loadedTasks []taskgraph.Task) (LoadResult, error)

// UnknownLoaderError reports a loader identifier missing from the registry.
type UnknownLoaderError struct {
	Identifier string
}

// Error describes the unknown loader.
func (unknownLoaderError UnknownLoaderError) Error() string {
	return fmt.Sprintf(unknownLoaderTemplateConstant, unknownLoaderError.Identifier)
}

// Registry maps loader identifiers to loader functions.
type Registry struct {
	loaders map[string]LoaderFunc
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: map[string]LoaderFunc{}}
}

// NewDefaultRegistry registers the default and reference loaders.
func NewDefaultRegistry(fileSystem afero.Fs, logger *zap.Logger) (*Registry, error) {
	registry := NewRegistry()
	reader := NewKindConfigReader(fileSystem)

	defaultLoader := &DefaultLoader{Reader: reader, FileSystem: fileSystem}
	if registerError := registry.Register(IdentifierDefault, defaultLoader.Load); registerError != nil {
		return nil, registerError
	}

	referenceLoader := &ReferenceLoader{Registry: registry, Reader: reader, Logger: logger}
	if registerError := registry.Register(IdentifierReference, referenceLoader.Load); registerError != nil {
		return nil, registerError
	}

	return registry, nil
}

// Register adds a loader under the provided identifier.
func (registry *Registry) Register(identifier string, loaderFunc LoaderFunc) error {
	trimmedIdentifier := strings.TrimSpace(identifier)
	if len(trimmedIdentifier) == 0 {
		return errors.New(loaderIdentifierRequiredMessageConstant)
	}
	if loaderFunc == nil {
		return errors.New(loaderFunctionRequiredMessageConstant)
	}
	if _, exists := registry.loaders[trimmedIdentifier]; exists {
		return fmt.Errorf(duplicateLoaderTemplateConstant, trimmedIdentifier)
	}
	registry.loaders[trimmedIdentifier] = loaderFunc
	return nil
}

// Lookup returns the loader registered under identifier.
func (registry *Registry) Lookup(identifier string) (LoaderFunc, error) {
	loaderFunc, exists := registry.loaders[strings.TrimSpace(identifier)]
	if !exists {
		return nil, UnknownLoaderError{Identifier: identifier}
	}
	return loaderFunc, nil
}

// Identifiers lists registered identifiers in sorted order.
func (registry *Registry) Identifiers() []string {
	identifiers := make([]string, 0, len(registry.loaders))
	for identifier := range registry.loaders {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	return identifiers
}
