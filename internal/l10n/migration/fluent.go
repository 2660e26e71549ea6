package migration

import (
	"regexp"
	"strings"
)

const (
	commentPrefixConstant      = "#"
	attributePrefixConstant    = "."
	lineBreakConstant          = "\n"
	patternIndentConstant      = "    "
	attributeIndentConstant    = "        "
	messageSeparatorConstant   = " = "
	emptyPatternSuffixConstant = " ="
)

var (
	entryExpression     = regexp.MustCompile(`^(-?[a-zA-Z][a-zA-Z0-9_-]*)\s*=\s*(.*)$`)
	attributeExpression = regexp.MustCompile(`^\.([a-zA-Z][a-zA-Z0-9_-]*)\s*=\s*(.*)$`)
)

// Attribute is a named pattern attached to a message.
type Attribute struct {
	Name    string
	Pattern []string
}

// Message is a Fluent message or term with its value and attribute patterns.
// Patterns are stored one dedented line per element.
type Message struct {
	ID         string
	Pattern    []string
	Attributes []Attribute
}

// Resource is the parsed subset of a Fluent file needed for copy migrations.
type Resource struct {
	Messages []Message
	index    map[string]int
}

// ParseResource reads messages, terms and attributes from Fluent source.
// Comments and unparseable lines end the current entry and are otherwise ignored.
func ParseResource(content string) *Resource {
	resource := &Resource{index: map[string]int{}}
	var current *Message
	var currentAttribute *Attribute

	closeEntry := func() {
		if current == nil {
			return
		}
		current.Pattern = dedent(current.Pattern)
		for attributeIndex := range current.Attributes {
			current.Attributes[attributeIndex].Pattern = dedent(current.Attributes[attributeIndex].Pattern)
		}
		if _, exists := resource.index[current.ID]; !exists {
			resource.index[current.ID] = len(resource.Messages)
			resource.Messages = append(resource.Messages, *current)
		}
		current = nil
		currentAttribute = nil
	}

	for _, rawLine := range strings.Split(content, lineBreakConstant) {
		line := strings.TrimRight(rawLine, "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case len(trimmed) == 0:
			continue
		case line != strings.TrimLeft(line, " "):
			if current == nil {
				continue
			}
			if matches := attributeExpression.FindStringSubmatch(trimmed); matches != nil {
				current.Attributes = append(current.Attributes, Attribute{Name: matches[1], Pattern: patternStart(matches[2])})
				currentAttribute = &current.Attributes[len(current.Attributes)-1]
				continue
			}
			continuation := strings.TrimRight(line, " \t")
			if currentAttribute != nil {
				currentAttribute.Pattern = append(currentAttribute.Pattern, continuation)
				continue
			}
			current.Pattern = append(current.Pattern, continuation)
		case strings.HasPrefix(trimmed, commentPrefixConstant):
			closeEntry()
		default:
			closeEntry()
			if matches := entryExpression.FindStringSubmatch(trimmed); matches != nil {
				current = &Message{ID: matches[1], Pattern: patternStart(matches[2])}
			}
		}
	}
	closeEntry()
	return resource
}

// Has reports whether the resource defines the message identifier.
func (resource *Resource) Has(messageID string) bool {
	_, exists := resource.index[messageID]
	return exists
}

// Lookup returns the pattern stored under a message key or message.attribute key.
func (resource *Resource) Lookup(key string) ([]string, bool) {
	messageID, attributeName := splitKey(key)
	position, exists := resource.index[messageID]
	if !exists {
		return nil, false
	}
	message := resource.Messages[position]
	if len(attributeName) == 0 {
		if len(message.Pattern) == 0 {
			return nil, false
		}
		return message.Pattern, true
	}
	for _, attribute := range message.Attributes {
		if attribute.Name == attributeName {
			return attribute.Pattern, len(attribute.Pattern) > 0
		}
	}
	return nil, false
}

// Serialize renders a message in Fluent syntax without a trailing newline.
func (message Message) Serialize() string {
	lines := []string{}
	lines = append(lines, renderPattern(message.ID, message.Pattern, "")...)
	for _, attribute := range message.Attributes {
		lines = append(lines, renderPattern(attributePrefixConstant+attribute.Name, attribute.Pattern, patternIndentConstant)...)
	}
	return strings.Join(lines, lineBreakConstant)
}

func renderPattern(identifier string, pattern []string, indent string) []string {
	switch len(pattern) {
	case 0:
		return []string{indent + identifier + emptyPatternSuffixConstant}
	case 1:
		return []string{indent + identifier + messageSeparatorConstant + pattern[0]}
	default:
		continuationIndent := patternIndentConstant
		if len(indent) > 0 {
			continuationIndent = attributeIndentConstant
		}
		lines := []string{indent + identifier + emptyPatternSuffixConstant}
		for _, patternLine := range pattern {
			lines = append(lines, continuationIndent+patternLine)
		}
		return lines
	}
}

// dedent strips the common indentation of continuation lines.
func dedent(pattern []string) []string {
	minimumIndent := -1
	for _, patternLine := range pattern {
		indent := len(patternLine) - len(strings.TrimLeft(patternLine, " "))
		if indent == 0 {
			continue
		}
		if minimumIndent < 0 || indent < minimumIndent {
			minimumIndent = indent
		}
	}
	if minimumIndent <= 0 {
		return pattern
	}
	dedented := make([]string, 0, len(pattern))
	for _, patternLine := range pattern {
		if strings.HasPrefix(patternLine, strings.Repeat(" ", minimumIndent)) {
			patternLine = patternLine[minimumIndent:]
		}
		dedented = append(dedented, patternLine)
	}
	return dedented
}

func patternStart(firstLine string) []string {
	trimmed := strings.TrimSpace(firstLine)
	if len(trimmed) == 0 {
		return nil
	}
	return []string{trimmed}
}
