package transforms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/commgraph/internal/taskgraph"
)

const (
	// IdentifierRemoveWidevineAndStubInstaller names the signing cleanup transform.
	IdentifierRemoveWidevineAndStubInstaller = "comm_taskgraph:remove_widevine_and_stub_installer"
	// IdentifierBeetmoverAddLangpack names the langpack upstream artifact transform.
	IdentifierBeetmoverAddLangpack = "comm_taskgraph:beetmover_add_langpack"
	// IdentifierUpdateVerifyConfig names the update-verify-config command transform.
	IdentifierUpdateVerifyConfig = "comm_taskgraph.transforms.update_verify_config:transforms"

	transformIdentifierRequiredMessageConstant = "transform identifier must be non-empty"
	transformRequiredMessageConstant           = "transform must be provided"
	duplicateTransformTemplateConstant         = "transform %s already registered"
	unknownTransformTemplateConstant           = "unknown transform %s"
)

// UnknownTransformError reports a transform identifier missing from the registry.
type UnknownTransformError struct {
	Identifier string
}

// Error describes the unknown transform.
func (unknownTransformError UnknownTransformError) Error() string {
	return fmt.Sprintf(unknownTransformTemplateConstant, unknownTransformError.Identifier)
}

// Registry maps transform identifiers to transforms.
type Registry struct {
	transforms map[string]taskgraph.Transform
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{transforms: map[string]taskgraph.Transform{}}
}

// NewDefaultRegistry registers every Thunderbird transform.
func NewDefaultRegistry() (*Registry, error) {
	updateVerifyConfig, updateVerifyError := NewUpdateVerifyConfigCommand()
	if updateVerifyError != nil {
		return nil, updateVerifyError
	}

	registry := NewRegistry()
	registrations := []struct {
		identifier string
		transform  taskgraph.Transform
	}{
		{identifier: IdentifierRemoveWidevineAndStubInstaller, transform: RemoveWidevineAndStubInstaller},
		{identifier: IdentifierBeetmoverAddLangpack, transform: BeetmoverAddLangpack},
		{identifier: IdentifierUpdateVerifyConfig, transform: updateVerifyConfig},
	}
	for _, registration := range registrations {
		if registerError := registry.Register(registration.identifier, registration.transform); registerError != nil {
			return nil, registerError
		}
	}
	return registry, nil
}

// Register adds a transform under the provided identifier.
func (registry *Registry) Register(identifier string, transform taskgraph.Transform) error {
	trimmedIdentifier := strings.TrimSpace(identifier)
	if len(trimmedIdentifier) == 0 {
		return errors.New(transformIdentifierRequiredMessageConstant)
	}
	if transform == nil {
		return errors.New(transformRequiredMessageConstant)
	}
	if _, exists := registry.transforms[trimmedIdentifier]; exists {
		return fmt.Errorf(duplicateTransformTemplateConstant, trimmedIdentifier)
	}
	registry.transforms[trimmedIdentifier] = transform
	return nil
}

// Lookup returns the transform registered under identifier.
func (registry *Registry) Lookup(identifier string) (taskgraph.Transform, error) {
	transform, exists := registry.transforms[strings.TrimSpace(identifier)]
	if !exists {
		return nil, UnknownTransformError{Identifier: identifier}
	}
	return transform, nil
}

// Identifiers lists registered identifiers in sorted order.
func (registry *Registry) Identifiers() []string {
	identifiers := make([]string, 0, len(registry.transforms))
	for identifier := range registry.transforms {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	return identifiers
}

// BuildSequence composes the identified transforms in the order given.
func (registry *Registry) BuildSequence(identifiers []string) (*taskgraph.Sequence, error) {
	sequence := taskgraph.NewSequence()
	for _, identifier := range identifiers {
		transform, lookupError := registry.Lookup(identifier)
		if lookupError != nil {
			return nil, lookupError
		}
		sequence.Add(strings.TrimSpace(identifier), transform)
	}
	return sequence, nil
}
