package migration

import (
	"errors"
	"strings"
)

const (
	targetRequiredMessage    = "target resource must be provided"
	referenceRequiredMessage = "reference resource must be provided"
)

// Registration groups the rules registered for one target resource.
type Registration struct {
	Target    string
	Reference string
	Rules     []Rule
}

type resourcePair struct {
	target    string
	reference string
}

// Context collects rules for later batch application.
type Context struct {
	registrations map[resourcePair]*Registration
	order         []resourcePair
}

// NewContext constructs an empty migration context.
func NewContext() *Context {
	return &Context{registrations: map[resourcePair]*Registration{}}
}

// AddTransforms registers rules for the target resource. Rules already
// registered for the same target and reference are ignored.
func (migrationContext *Context) AddTransforms(target string, reference string, rules []Rule) error {
	trimmedTarget := strings.TrimSpace(target)
	if len(trimmedTarget) == 0 {
		return errors.New(targetRequiredMessage)
	}
	trimmedReference := strings.TrimSpace(reference)
	if len(trimmedReference) == 0 {
		return errors.New(referenceRequiredMessage)
	}

	pair := resourcePair{target: trimmedTarget, reference: trimmedReference}
	registration, exists := migrationContext.registrations[pair]
	if !exists {
		registration = &Registration{Target: trimmedTarget, Reference: trimmedReference}
		migrationContext.registrations[pair] = registration
		migrationContext.order = append(migrationContext.order, pair)
	}

	for _, rule := range rules {
		if containsRule(registration.Rules, rule) {
			continue
		}
		registration.Rules = append(registration.Rules, rule)
	}
	return nil
}

// Registrations returns the registered resources in registration order.
func (migrationContext *Context) Registrations() []Registration {
	registrations := make([]Registration, 0, len(migrationContext.order))
	for _, pair := range migrationContext.order {
		registration := migrationContext.registrations[pair]
		registrations = append(registrations, Registration{
			Target:    registration.Target,
			Reference: registration.Reference,
			Rules:     append([]Rule(nil), registration.Rules...),
		})
	}
	return registrations
}

func containsRule(rules []Rule, candidate Rule) bool {
	for _, rule := range rules {
		if rule == candidate {
			return true
		}
	}
	return false
}
