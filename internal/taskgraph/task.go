package taskgraph

import (
	"fmt"
	"strings"

	"github.com/mohae/deepcopy"
)

const (
	pathSeparatorConstant = "."
)

// Task is one schedulable unit of work described by nested mappings.
type Task map[string]any

// Clone returns a deep copy of the task record.
func (task Task) Clone() Task {
	if task == nil {
		return nil
	}
	copied, copiedSuccessfully := deepcopy.Copy(map[string]any(task)).(map[string]any)
	if !copiedSuccessfully {
		return Task{}
	}
	return Task(copied)
}

// Name returns the task name or an empty string.
func (task Task) Name() string {
	value, _ := task.String(nameKeyConstant)
	return value
}

// Lookup walks a dotted path through nested mappings.
func (task Task) Lookup(path string) (any, bool) {
	return lookupPath(map[string]any(task), splitPath(path))
}

// String returns the string stored at a dotted path.
func (task Task) String(path string) (string, bool) {
	value, exists := task.Lookup(path)
	if !exists || value == nil {
		return "", false
	}
	switch typed := value.(type) {
	case string:
		return typed, true
	default:
		return fmt.Sprint(typed), true
	}
}

// Mapping returns the nested mapping stored at a dotted path.
func (task Task) Mapping(path string) (map[string]any, bool) {
	value, exists := task.Lookup(path)
	if !exists {
		return nil, false
	}
	mapping, isMapping := AsMapping(value)
	return mapping, isMapping
}

// EnsureMapping returns the nested mapping at a dotted path, creating missing levels.
func (task Task) EnsureMapping(path string) (map[string]any, error) {
	current := map[string]any(task)
	for _, segment := range splitPath(path) {
		existing, exists := current[segment]
		if !exists || existing == nil {
			created := map[string]any{}
			current[segment] = created
			current = created
			continue
		}
		mapping, isMapping := AsMapping(existing)
		if !isMapping {
			return nil, fmt.Errorf(notMappingErrorTemplateConstant, path, segment)
		}
		current[segment] = mapping
		current = mapping
	}
	return current, nil
}

// AsMapping converts decoded YAML mapping variants into map[string]any.
func AsMapping(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case Task:
		return map[string]any(typed), true
	case map[any]any:
		converted := make(map[string]any, len(typed))
		for key, entry := range typed {
			converted[fmt.Sprint(key)] = entry
		}
		return converted, true
	default:
		return nil, false
	}
}

// AsList converts decoded YAML sequences into []any.
func AsList(value any) ([]any, bool) {
	switch typed := value.(type) {
	case []any:
		return typed, true
	case []string:
		converted := make([]any, 0, len(typed))
		for _, entry := range typed {
			converted = append(converted, entry)
		}
		return converted, true
	case []map[string]any:
		converted := make([]any, 0, len(typed))
		for _, entry := range typed {
			converted = append(converted, entry)
		}
		return converted, true
	default:
		return nil, false
	}
}

// Truthy reports whether a decoded value would be considered set on a command line.
func Truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case string:
		return len(typed) > 0
	case bool:
		return typed
	case int:
		return typed != 0
	case int64:
		return typed != 0
	case uint64:
		return typed != 0
	case float64:
		return typed != 0
	case []any:
		return len(typed) > 0
	case map[string]any:
		return len(typed) > 0
	default:
		return true
	}
}

func splitPath(path string) []string {
	trimmed := strings.TrimSpace(path)
	if len(trimmed) == 0 {
		return nil
	}
	return strings.Split(trimmed, pathSeparatorConstant)
}

func lookupPath(root map[string]any, segments []string) (any, bool) {
	if len(segments) == 0 {
		return root, true
	}
	var current any = root
	for _, segment := range segments {
		mapping, isMapping := AsMapping(current)
		if !isMapping {
			return nil, false
		}
		value, exists := mapping[segment]
		if !exists {
			return nil, false
		}
		current = value
	}
	return current, true
}
