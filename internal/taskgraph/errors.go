package taskgraph

import (
	"errors"
	"fmt"
)

const (
	nameKeyConstant                    = "name"
	notMappingErrorTemplateConstant    = "%s: %s is not a mapping"
	configurationErrorTemplateConstant = "%q does not define `%s`"
	streamConsumedMessageConstant      = "task stream already consumed"
)

// ErrStreamConsumed reports a second iteration over a single-use stream.
var ErrStreamConsumed = errors.New(streamConsumedMessageConstant)

// ConfigurationError reports a required configuration key missing from a kind or graph configuration.
type ConfigurationError struct {
	Path string
	Key  string
}

// Error describes the missing key.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Path, configurationError.Key)
}

// KeyedByError reports a keyed-by value that could not be resolved.
type KeyedByError struct {
	Field    string
	ItemName string
	Message  string
}

// Error describes the failed resolution.
func (keyedByError KeyedByError) Error() string {
	return fmt.Sprintf("%s while determining %s of item %s", keyedByError.Message, keyedByError.Field, keyedByError.ItemName)
}
