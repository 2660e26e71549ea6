package transforms

import (
	"fmt"

	"github.com/temirov/commgraph/internal/taskgraph"
)

const (
	langpackArtifactPrefixConstant = "public/build"
	langpackArtifactNameConstant   = "target.langpack.xpi"
	langpackDefaultLocaleConstant  = "en-US"
	langpackTaskReferenceConstant  = "<build>"
	langpackTaskTypeConstant       = "build"
	localeAttributePathConstant    = "attributes.locale"
	artifactLocaleKeyConstant      = "locale"
	artifactTaskIDKeyConstant      = "taskId"
	artifactTaskTypeKeyConstant    = "taskType"
	taskReferenceKeyConstant       = "task-reference"
	langpackPathTemplateConstant   = "%s/%s"
	langpackPayloadErrorTemplate   = "unable to add langpack to %s: %w"
)

// BeetmoverAddLangpack appends the unsigned langpack produced by the build
// task to each beetmover task's upstream artifacts.
var BeetmoverAddLangpack taskgraph.Transform = taskgraph.MapTransform(beetmoverAddLangpack)

func beetmoverAddLangpack(config taskgraph.TransformConfig, job taskgraph.Task) (taskgraph.Task, error) {
	payload, payloadError := job.EnsureMapping(payloadPathConstant)
	if payloadError != nil {
		return nil, fmt.Errorf(langpackPayloadErrorTemplate, job.Name(), payloadError)
	}

	locale, hasLocale := job.String(localeAttributePathConstant)
	artifactPrefix := langpackArtifactPrefixConstant
	if hasLocale && len(locale) > 0 {
		artifactPrefix = fmt.Sprintf(langpackPathTemplateConstant, artifactPrefix, locale)
	} else {
		locale = langpackDefaultLocaleConstant
	}

	langpackPath := fmt.Sprintf(langpackPathTemplateConstant, artifactPrefix, langpackArtifactNameConstant)
	langpackArtifact := map[string]any{
		artifactLocaleKeyConstant:   locale,
		artifactTaskTypeKeyConstant: langpackTaskTypeConstant,
		pathsKeyConstant:            []any{langpackPath},
		artifactTaskIDKeyConstant:   map[string]any{taskReferenceKeyConstant: langpackTaskReferenceConstant},
	}

	upstreamArtifacts, _ := taskgraph.AsList(payload[upstreamArtifactsKeyConstant])
	payload[upstreamArtifactsKeyConstant] = append(upstreamArtifacts, langpackArtifact)

	return job, nil
}
