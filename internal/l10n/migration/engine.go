package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// StatusCopied marks a key copied into the target resource.
	StatusCopied Status = "copied"
	// StatusExists marks a key skipped because the target already defines its message.
	StatusExists Status = "exists"
	// StatusMissingSource marks a key whose source resource or source key is absent.
	StatusMissingSource Status = "missing-source"
	// StatusNotInReference marks a key skipped because the reference resource lacks its message.
	StatusNotInReference Status = "not-in-reference"

	resourceFilePermissions      = 0o644
	resourceDirectoryPermissions = 0o755
	readResourceErrorTemplate    = "failed to read %s: %w"
	writeResourceErrorTemplate   = "failed to write %s: %w"
	migrationAppliedMessage      = "applied migration"
	migrationDryRunMessage       = "computed migration (dry run)"
	logFieldLocaleConstant       = "locale"
	logFieldTargetConstant       = "target"
	logFieldCopiedConstant       = "copied"
)

// Status classifies the outcome of one rule.
type Status string

// Outcome records what happened to one rule in one locale.
type Outcome struct {
	Locale    string
	Target    string
	TargetKey string
	SourceKey string
	Status    Status
}

// Report lists rule outcomes in application order.
type Report struct {
	Outcomes []Outcome
}

// Count returns the number of outcomes with the given status.
func (report Report) Count(status Status) int {
	count := 0
	for _, outcome := range report.Outcomes {
		if outcome.Status == status {
			count++
		}
	}
	return count
}

// Engine applies registered copy rules to locale directories.
type Engine struct {
	FileSystem         afero.Fs
	ReferenceDirectory string
	DryRun             bool
	Logger             *zap.Logger
}

// Apply copies every registered rule into the resources of localeDirectory.
// Messages the target already defines are never rewritten.
func (engine *Engine) Apply(executionContext context.Context, migrationContext *Context, localeDirectory string) (Report, error) {
	report := Report{}
	locale := filepath.Base(localeDirectory)
	sources := map[string]*Resource{}

	for _, registration := range migrationContext.Registrations() {
		if contextError := executionContext.Err(); contextError != nil {
			return report, contextError
		}

		targetPath := filepath.Join(localeDirectory, registration.Target)
		targetContent, _, readError := engine.readOptional(targetPath)
		if readError != nil {
			return report, readError
		}
		target := ParseResource(targetContent)

		var reference *Resource
		if len(strings.TrimSpace(engine.ReferenceDirectory)) > 0 {
			referenceContent, referenceExists, referenceError := engine.readOptional(filepath.Join(engine.ReferenceDirectory, registration.Reference))
			if referenceError != nil {
				return report, referenceError
			}
			if referenceExists {
				reference = ParseResource(referenceContent)
			} else {
				reference = ParseResource("")
			}
		}

		messages := []Message{}
		messagePositions := map[string]int{}
		for _, rule := range registration.Rules {
			outcome := Outcome{Locale: locale, Target: registration.Target, TargetKey: rule.TargetKey, SourceKey: rule.SourceKey}
			messageID, attributeName := splitKey(rule.TargetKey)

			switch {
			case reference != nil && !reference.Has(messageID):
				outcome.Status = StatusNotInReference
			case target.Has(messageID):
				outcome.Status = StatusExists
			default:
				pattern, found, sourceError := engine.lookupSource(sources, filepath.Join(localeDirectory, rule.SourcePath), rule.SourceKey)
				if sourceError != nil {
					return report, sourceError
				}
				if !found {
					outcome.Status = StatusMissingSource
					break
				}
				position, pending := messagePositions[messageID]
				if !pending {
					position = len(messages)
					messagePositions[messageID] = position
					messages = append(messages, Message{ID: messageID})
				}
				if len(attributeName) == 0 {
					messages[position].Pattern = pattern
				} else {
					messages[position].Attributes = append(messages[position].Attributes, Attribute{Name: attributeName, Pattern: pattern})
				}
				outcome.Status = StatusCopied
			}
			report.Outcomes = append(report.Outcomes, outcome)
		}

		if len(messages) == 0 {
			continue
		}
		if !engine.DryRun {
			if writeError := engine.write(targetPath, appendMessages(targetContent, messages)); writeError != nil {
				return report, writeError
			}
		}

		logMessage := migrationAppliedMessage
		if engine.DryRun {
			logMessage = migrationDryRunMessage
		}
		engine.logger().Debug(logMessage,
			zap.String(logFieldLocaleConstant, locale),
			zap.String(logFieldTargetConstant, registration.Target),
			zap.Int(logFieldCopiedConstant, len(messages)),
		)
	}
	return report, nil
}

func (engine *Engine) lookupSource(cache map[string]*Resource, sourcePath string, sourceKey string) ([]string, bool, error) {
	source, cached := cache[sourcePath]
	if !cached {
		content, exists, readError := engine.readOptional(sourcePath)
		if readError != nil {
			return nil, false, readError
		}
		if !exists {
			content = ""
		}
		source = ParseResource(content)
		cache[sourcePath] = source
	}
	pattern, found := source.Lookup(sourceKey)
	return pattern, found, nil
}

func (engine *Engine) readOptional(filePath string) (string, bool, error) {
	contentBytes, readError := afero.ReadFile(engine.fileSystem(), filePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf(readResourceErrorTemplate, filePath, readError)
	}
	return string(contentBytes), true, nil
}

func (engine *Engine) write(filePath string, content string) error {
	fileSystem := engine.fileSystem()
	if mkdirError := fileSystem.MkdirAll(filepath.Dir(filePath), resourceDirectoryPermissions); mkdirError != nil {
		return fmt.Errorf(writeResourceErrorTemplate, filePath, mkdirError)
	}
	if writeError := afero.WriteFile(fileSystem, filePath, []byte(content), resourceFilePermissions); writeError != nil {
		return fmt.Errorf(writeResourceErrorTemplate, filePath, writeError)
	}
	return nil
}

func (engine *Engine) fileSystem() afero.Fs {
	if engine.FileSystem == nil {
		return afero.NewOsFs()
	}
	return engine.FileSystem
}

func (engine *Engine) logger() *zap.Logger {
	if engine.Logger == nil {
		return zap.NewNop()
	}
	return engine.Logger
}

func appendMessages(content string, messages []Message) string {
	var builder strings.Builder
	builder.WriteString(content)
	if len(content) > 0 {
		if !strings.HasSuffix(content, lineBreakConstant) {
			builder.WriteString(lineBreakConstant)
		}
		builder.WriteString(lineBreakConstant)
	}
	for messageIndex, message := range messages {
		if messageIndex > 0 {
			builder.WriteString(lineBreakConstant)
		}
		builder.WriteString(message.Serialize())
		builder.WriteString(lineBreakConstant)
	}
	return builder.String()
}
