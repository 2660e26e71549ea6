package taskgraph

import (
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
)

const (
	defaultProjectRepoParamPrefixConstant = "comm_"
	headRepositoryParameterSuffixConstant = "head_repository"
	headRevisionParameterSuffixConstant   = "head_rev"
	projectParameterConstant              = "project"
	releaseTypeParameterConstant          = "release_type"
	buildDateParameterConstant            = "moz_build_date"
	parametersDecodeErrorTemplateConstant = "unable to decode parameters: %w"
	releaseLevelProductionConstant        = "production"
	releaseLevelStagingConstant           = "staging"
	mozillaESRProjectPrefixConstant       = "mozilla-esr"
	commESRProjectPrefixConstant          = "comm-esr"
	mapstructureTagNameConstant           = "mapstructure"
	missingParameterErrorTemplateConstant = "parameter %s is not set"
)

var releaseProjects = map[string]struct{}{
	"mozilla-central": {},
	"mozilla-beta":    {},
	"mozilla-release": {},
	"comm-central":    {},
	"comm-beta":       {},
	"comm-release":    {},
}

// Parameters holds the run parameters resolved once per graph generation.
type Parameters map[string]any

// String returns the parameter rendered as a string.
func (parameters Parameters) String(key string) (string, bool) {
	value, exists := parameters[key]
	if !exists || value == nil {
		return "", false
	}
	if text, isText := value.(string); isText {
		return text, true
	}
	return fmt.Sprint(value), true
}

// RequireString returns the parameter or an error when it is missing.
func (parameters Parameters) RequireString(key string) (string, error) {
	value, exists := parameters.String(key)
	if !exists {
		return "", fmt.Errorf(missingParameterErrorTemplateConstant, key)
	}
	return value, nil
}

// Decode populates target from the parameters using mapstructure tags.
func (parameters Parameters) Decode(target any) error {
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          mapstructureTagNameConstant,
		Result:           target,
		WeaklyTypedInput: true,
	})
	if decoderError != nil {
		return fmt.Errorf(parametersDecodeErrorTemplateConstant, decoderError)
	}
	if decodeError := decoder.Decode(map[string]any(parameters)); decodeError != nil {
		return fmt.Errorf(parametersDecodeErrorTemplateConstant, decodeError)
	}
	return nil
}

// GraphConfig captures graph-wide settings.
type GraphConfig struct {
	ProjectRepoParamPrefix string `mapstructure:"project-repo-param-prefix" yaml:"project-repo-param-prefix"`
	TaskgraphRoot          string `mapstructure:"taskgraph-root" yaml:"taskgraph-root"`
}

// RepoParamPrefix returns the configured parameter prefix, defaulting to comm_.
func (graphConfig GraphConfig) RepoParamPrefix() string {
	trimmed := strings.TrimSpace(graphConfig.ProjectRepoParamPrefix)
	if len(trimmed) == 0 {
		return defaultProjectRepoParamPrefixConstant
	}
	return trimmed
}

// TransformConfig is the read-only context handed to every transform step.
type TransformConfig struct {
	Kind       string
	Path       string
	Params     Parameters
	Graph      GraphConfig
	KindConfig map[string]any
	Logger     *zap.Logger
}

// LoggerOrNop returns the configured logger or a no-op logger.
func (config TransformConfig) LoggerOrNop() *zap.Logger {
	if config.Logger == nil {
		return zap.NewNop()
	}
	return config.Logger
}

// BranchRepository returns the head repository URL of the project being built.
func BranchRepository(config TransformConfig) (string, error) {
	return config.Params.RequireString(config.Graph.RepoParamPrefix() + headRepositoryParameterSuffixConstant)
}

// BranchRevision returns the head revision of the project being built.
func BranchRevision(config TransformConfig) (string, error) {
	return config.Params.RequireString(config.Graph.RepoParamPrefix() + headRevisionParameterSuffixConstant)
}

// Project returns the project parameter.
func Project(config TransformConfig) string {
	project, _ := config.Params.String(projectParameterConstant)
	return project
}

// ReleaseType returns the release_type parameter.
func ReleaseType(config TransformConfig) string {
	releaseType, _ := config.Params.String(releaseTypeParameterConstant)
	return releaseType
}

// BuildDate returns the moz_build_date parameter.
func BuildDate(config TransformConfig) (string, error) {
	return config.Params.RequireString(buildDateParameterConstant)
}

// ReleaseLevel classifies a project as production or staging.
func ReleaseLevel(project string) string {
	trimmed := strings.TrimSpace(project)
	if _, isRelease := releaseProjects[trimmed]; isRelease {
		return releaseLevelProductionConstant
	}
	if strings.HasPrefix(trimmed, mozillaESRProjectPrefixConstant) || strings.HasPrefix(trimmed, commESRProjectPrefixConstant) {
		return releaseLevelProductionConstant
	}
	return releaseLevelStagingConstant
}
