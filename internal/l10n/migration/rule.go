// Package migration registers Fluent copy rules and applies them to locale
// directories.
package migration

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	ruleSeparatorConstant         = "="
	doubleOpenBraceConstant       = "{{"
	doubleCloseBraceConstant      = "}}"
	singleOpenBraceConstant       = "{"
	singleCloseBraceConstant      = "}"
	quoteConstant                 = `"`
	keySeparatorConstant          = "."
	missingSeparatorMessage       = "expected <key> = { COPY_PATTERN(...) }"
	invalidKeyTemplate            = "invalid target key %q"
	unbalancedBracesMessage       = "placeable must be wrapped in { } or {{ }}"
	unsupportedExpressionTemplate = "unsupported expression %q"
	unknownPlaceholderTemplate    = "unknown placeholder %q"
	emptySourcePathMessage        = "source path must not be empty"
	templateErrorTemplate         = "rule template line %d: %s"
	duplicateTargetKeyTemplate    = "target key %q declared twice"
)

var (
	targetKeyExpression   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*(\.[a-zA-Z][a-zA-Z0-9_-]*)?$`)
	copyPatternExpression = regexp.MustCompile(`^COPY_PATTERN\(\s*([a-zA-Z_][a-zA-Z0-9_]*|"[^"]*")\s*,\s*"([a-zA-Z][a-zA-Z0-9_-]*(?:\.[a-zA-Z][a-zA-Z0-9_-]*)?)"\s*\)$`)
)

// Rule copies the pattern stored under SourceKey in SourcePath to TargetKey.
// Keys are message identifiers optionally followed by .attribute.
type Rule struct {
	TargetKey  string
	SourcePath string
	SourceKey  string
}

// TargetMessage returns the message identifier of the target key.
func (rule Rule) TargetMessage() string {
	message, _ := splitKey(rule.TargetKey)
	return message
}

// TemplateError reports a malformed rule template line.
type TemplateError struct {
	Line    int
	Message string
}

// Error describes the malformed line.
func (templateError TemplateError) Error() string {
	return fmt.Sprintf(templateErrorTemplate, templateError.Line, templateError.Message)
}

// TransformsFrom parses a rule template with one rule per non-blank line:
//
//	target-key = { COPY_PATTERN(from_path, "source-key") }
//
// Bare identifiers are replaced from substitutions; quoted paths are used as is.
func TransformsFrom(template string, substitutions map[string]string) ([]Rule, error) {
	rules := []Rule{}
	seenTargets := map[string]struct{}{}
	for lineIndex, rawLine := range strings.Split(template, "\n") {
		line := strings.TrimSpace(rawLine)
		if len(line) == 0 {
			continue
		}
		lineNumber := lineIndex + 1

		rule, parseError := parseRuleLine(line, substitutions)
		if parseError != nil {
			return nil, TemplateError{Line: lineNumber, Message: parseError.Error()}
		}
		if _, duplicate := seenTargets[rule.TargetKey]; duplicate {
			return nil, TemplateError{Line: lineNumber, Message: fmt.Sprintf(duplicateTargetKeyTemplate, rule.TargetKey)}
		}
		seenTargets[rule.TargetKey] = struct{}{}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseRuleLine(line string, substitutions map[string]string) (Rule, error) {
	targetKey, expression, hasSeparator := strings.Cut(line, ruleSeparatorConstant)
	if !hasSeparator {
		return Rule{}, errors.New(missingSeparatorMessage)
	}
	targetKey = strings.TrimSpace(targetKey)
	if !targetKeyExpression.MatchString(targetKey) {
		return Rule{}, fmt.Errorf(invalidKeyTemplate, targetKey)
	}

	placeable, unwrapError := unwrapPlaceable(strings.TrimSpace(expression))
	if unwrapError != nil {
		return Rule{}, unwrapError
	}
	matches := copyPatternExpression.FindStringSubmatch(placeable)
	if matches == nil {
		return Rule{}, fmt.Errorf(unsupportedExpressionTemplate, placeable)
	}

	sourcePath, resolveError := resolveSourcePath(matches[1], substitutions)
	if resolveError != nil {
		return Rule{}, resolveError
	}
	return Rule{TargetKey: targetKey, SourcePath: sourcePath, SourceKey: matches[2]}, nil
}

func unwrapPlaceable(expression string) (string, error) {
	switch {
	case strings.HasPrefix(expression, doubleOpenBraceConstant) && strings.HasSuffix(expression, doubleCloseBraceConstant):
		return strings.TrimSpace(expression[len(doubleOpenBraceConstant) : len(expression)-len(doubleCloseBraceConstant)]), nil
	case strings.HasPrefix(expression, singleOpenBraceConstant) && strings.HasSuffix(expression, singleCloseBraceConstant) && len(expression) >= 2:
		inner := strings.TrimSpace(expression[len(singleOpenBraceConstant) : len(expression)-len(singleCloseBraceConstant)])
		if strings.HasPrefix(inner, singleOpenBraceConstant) || strings.HasSuffix(inner, singleCloseBraceConstant) {
			return "", errors.New(unbalancedBracesMessage)
		}
		return inner, nil
	default:
		return "", errors.New(unbalancedBracesMessage)
	}
}

func resolveSourcePath(argument string, substitutions map[string]string) (string, error) {
	var sourcePath string
	if strings.HasPrefix(argument, quoteConstant) {
		sourcePath = strings.Trim(argument, quoteConstant)
	} else {
		substituted, known := substitutions[argument]
		if !known {
			return "", fmt.Errorf(unknownPlaceholderTemplate, argument)
		}
		sourcePath = substituted
	}
	if len(strings.TrimSpace(sourcePath)) == 0 {
		return "", errors.New(emptySourcePathMessage)
	}
	return sourcePath, nil
}

func splitKey(key string) (string, string) {
	message, attribute, _ := strings.Cut(key, keySeparatorConstant)
	return message, attribute
}
