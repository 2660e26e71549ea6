package transforms

import (
	"strings"

	"github.com/temirov/commgraph/internal/taskgraph"
)

const (
	widevineScopeConstant           = "project:comm:thunderbird:releng:signing:format:widevine"
	stubSigningScopeConstant        = "project:comm:thunderbird:releng:signing:format:sha2signcodestub"
	widevineFormatConstant          = "widevine"
	stubSigningFormatConstant       = "sha2signcodestub"
	setupStubPathSuffixConstant     = "/setup-stub.exe"
	stubInstallerPathSuffixConstant = "/target.stub-installer.exe"
	signedSetupStubEnvConstant      = "SIGNED_SETUP_STUB"
	taskKeyConstant                 = "task"
	scopesKeyConstant               = "scopes"
	payloadPathConstant             = "task.payload"
	upstreamArtifactsKeyConstant    = "upstreamArtifacts"
	artifactsKeyConstant            = "artifacts"
	envKeyConstant                  = "env"
	formatsKeyConstant              = "formats"
	pathsKeyConstant                = "paths"
	artifactNameKeyConstant         = "name"
)

var removedScopes = []string{widevineScopeConstant, stubSigningScopeConstant}

var removedPathSuffixes = []string{setupStubPathSuffixConstant, stubInstallerPathSuffixConstant}

// RemoveWidevineAndStubInstaller strips widevine signing and stub installer
// packaging from task records. Records are never dropped and missing
// structures are left alone.
var RemoveWidevineAndStubInstaller taskgraph.Transform = taskgraph.MapTransform(removeWidevineAndStubInstaller)

func removeWidevineAndStubInstaller(config taskgraph.TransformConfig, job taskgraph.Task) (taskgraph.Task, error) {
	task, hasTask := job.Mapping(taskKeyConstant)
	if !hasTask {
		return job, nil
	}

	if scopes, hasScopes := taskgraph.AsList(task[scopesKeyConstant]); hasScopes {
		task[scopesKeyConstant] = withoutStrings(scopes, removedScopes)
	}

	payload, hasPayload := job.Mapping(payloadPathConstant)
	if !hasPayload {
		return job, nil
	}

	if upstreamArtifacts, hasUpstream := taskgraph.AsList(payload[upstreamArtifactsKeyConstant]); hasUpstream {
		kept := make([]any, 0, len(upstreamArtifacts))
		for _, rawArtifact := range upstreamArtifacts {
			artifact, isMapping := taskgraph.AsMapping(rawArtifact)
			if !isMapping {
				kept = append(kept, rawArtifact)
				continue
			}
			if formats, hasFormats := taskgraph.AsList(artifact[formatsKeyConstant]); hasFormats {
				formats = withoutStrings(formats, []string{widevineFormatConstant})
				artifact[formatsKeyConstant] = formats
				if isOnlyStubSigning(formats) {
					continue
				}
			}
			if paths, hasPaths := taskgraph.AsList(artifact[pathsKeyConstant]); hasPaths {
				artifact[pathsKeyConstant] = withoutSuffixes(paths, removedPathSuffixes)
			}
			kept = append(kept, artifact)
		}
		payload[upstreamArtifactsKeyConstant] = kept
	}

	if artifacts, hasArtifacts := taskgraph.AsList(payload[artifactsKeyConstant]); hasArtifacts {
		kept := make([]any, 0, len(artifacts))
		for _, rawArtifact := range artifacts {
			if artifact, isMapping := taskgraph.AsMapping(rawArtifact); isMapping {
				if name, hasName := artifact[artifactNameKeyConstant].(string); hasName && strings.HasSuffix(name, stubInstallerPathSuffixConstant) {
					continue
				}
			}
			kept = append(kept, rawArtifact)
		}
		payload[artifactsKeyConstant] = kept
	}

	if environment, hasEnvironment := taskgraph.AsMapping(payload[envKeyConstant]); hasEnvironment {
		delete(environment, signedSetupStubEnvConstant)
		payload[envKeyConstant] = environment
	}

	return job, nil
}

func isOnlyStubSigning(formats []any) bool {
	if len(formats) != 1 {
		return false
	}
	format, isText := formats[0].(string)
	return isText && format == stubSigningFormatConstant
}

func withoutStrings(values []any, removed []string) []any {
	kept := make([]any, 0, len(values))
	for _, value := range values {
		if text, isText := value.(string); isText && containsString(removed, text) {
			continue
		}
		kept = append(kept, value)
	}
	return kept
}

func withoutSuffixes(values []any, suffixes []string) []any {
	kept := make([]any, 0, len(values))
	for _, value := range values {
		if text, isText := value.(string); isText && hasAnySuffix(text, suffixes) {
			continue
		}
		kept = append(kept, value)
	}
	return kept
}

func containsString(values []string, candidate string) bool {
	for _, value := range values {
		if value == candidate {
			return true
		}
	}
	return false
}

func hasAnySuffix(value string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(value, suffix) {
			return true
		}
	}
	return false
}
