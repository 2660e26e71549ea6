package taskgraph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	keyedByPrefixConstant              = "by-"
	keyedByDefaultAlternativeConstant  = "default"
	keyedByMissingAttributeTemplate    = "no attribute %s and no value for 'default' found"
	keyedByNoMatchTemplate             = "no %s matching %q nor 'default' found"
	keyedByMultipleMatchesTemplate     = "multiple matching values for %s %q found"
	keyedByInvalidAlternativeTemplate  = "invalid %s alternative %q: %v"
	keyedByAlternativesNotMappingError = "keyed-by alternatives must be a mapping"
	keyedByOnlyDefaultTemplate         = "keyed-by %s unnecessary with only value 'default'"
)

// ResolveKeyedBy replaces the keyed-by value at a dotted field path with its
// resolved value. Attributes are the item's top-level keys overlaid with
// extraValues. A missing container is left untouched.
func ResolveKeyedBy(item Task, field string, itemName string, extraValues map[string]any) error {
	segments := splitPath(field)
	if len(segments) == 0 {
		return nil
	}

	containerPath := segments[:len(segments)-1]
	containerValue, containerExists := lookupPath(map[string]any(item), containerPath)
	if !containerExists {
		return nil
	}
	if _, isMapping := AsMapping(containerValue); !isMapping {
		return nil
	}
	container, containerError := item.EnsureMapping(strings.Join(containerPath, pathSeparatorConstant))
	if containerError != nil {
		return containerError
	}

	leafKey := segments[len(segments)-1]
	value, valueExists := container[leafKey]
	if !valueExists {
		return nil
	}

	attributes := make(map[string]any, len(item)+len(extraValues))
	for key, attributeValue := range item {
		attributes[key] = attributeValue
	}
	for key, attributeValue := range extraValues {
		attributes[key] = attributeValue
	}

	resolved, resolveError := EvaluateKeyedBy(value, field, itemName, attributes)
	if resolveError != nil {
		return resolveError
	}
	container[leafKey] = resolved
	return nil
}

// EvaluateKeyedBy resolves nested by-<attribute> mappings against attributes.
func EvaluateKeyedBy(value any, field string, itemName string, attributes map[string]any) (any, error) {
	current := value
	for {
		keyedBy, alternatives, isKeyed := keyedByValue(current)
		if !isKeyed {
			return current, nil
		}
		if alternatives == nil {
			return nil, KeyedByError{Field: field, ItemName: itemName, Message: keyedByAlternativesNotMappingError}
		}
		if _, hasDefault := alternatives[keyedByDefaultAlternativeConstant]; hasDefault && len(alternatives) == 1 {
			return nil, KeyedByError{Field: field, ItemName: itemName, Message: fmt.Sprintf(keyedByOnlyDefaultTemplate, keyedBy)}
		}

		attributeValue, attributeExists := attributes[keyedBy]
		if !attributeExists || attributeValue == nil {
			defaultValue, hasDefault := alternatives[keyedByDefaultAlternativeConstant]
			if !hasDefault {
				return nil, KeyedByError{Field: field, ItemName: itemName, Message: fmt.Sprintf(keyedByMissingAttributeTemplate, keyedBy)}
			}
			current = defaultValue
			continue
		}

		key := fmt.Sprint(attributeValue)
		matches, matchError := matchAlternatives(alternatives, key, keyedBy)
		if matchError != nil {
			return nil, KeyedByError{Field: field, ItemName: itemName, Message: matchError.Error()}
		}
		switch len(matches) {
		case 0:
			return nil, KeyedByError{Field: field, ItemName: itemName, Message: fmt.Sprintf(keyedByNoMatchTemplate, keyedBy, key)}
		case 1:
			current = matches[0]
		default:
			return nil, KeyedByError{Field: field, ItemName: itemName, Message: fmt.Sprintf(keyedByMultipleMatchesTemplate, keyedBy, key)}
		}
	}
}

func keyedByValue(value any) (string, map[string]any, bool) {
	mapping, isMapping := AsMapping(value)
	if !isMapping || len(mapping) != 1 {
		return "", nil, false
	}
	for key, alternatives := range mapping {
		if !strings.HasPrefix(key, keyedByPrefixConstant) {
			return "", nil, false
		}
		alternativeMapping, alternativesAreMapping := AsMapping(alternatives)
		if !alternativesAreMapping {
			return strings.TrimPrefix(key, keyedByPrefixConstant), nil, true
		}
		return strings.TrimPrefix(key, keyedByPrefixConstant), alternativeMapping, true
	}
	return "", nil, false
}

// matchAlternatives returns the exact match, else every anchored regex match,
// else the default alternative.
func matchAlternatives(alternatives map[string]any, key string, keyedBy string) ([]any, error) {
	if exact, exists := alternatives[key]; exists {
		return []any{exact}, nil
	}

	patterns := make([]string, 0, len(alternatives))
	for pattern := range alternatives {
		if pattern == keyedByDefaultAlternativeConstant {
			continue
		}
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	matches := []any{}
	for _, pattern := range patterns {
		expression, compileError := regexp.Compile("^(?:" + pattern + ")$")
		if compileError != nil {
			return nil, fmt.Errorf(keyedByInvalidAlternativeTemplate, keyedBy, pattern, compileError)
		}
		if expression.MatchString(key) {
			matches = append(matches, alternatives[pattern])
		}
	}
	if len(matches) > 0 {
		return matches, nil
	}

	if defaultValue, hasDefault := alternatives[keyedByDefaultAlternativeConstant]; hasDefault {
		return []any{defaultValue}, nil
	}
	return nil, nil
}
