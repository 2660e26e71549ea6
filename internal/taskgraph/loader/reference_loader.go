package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/commgraph/internal/taskgraph"
)

const (
	basePathConfigKeyConstant        = "base-path"
	loaderConfigKeyConstant          = "loader"
	toolchainKindConstant            = "toolchain"
	toolchainAliasPathConstant       = "run.toolchain-alias"
	allowListInvalidTemplateConstant = "jobs in %s must be a list of job names"
	subLoaderErrorTemplateConstant   = "loader %s failed for %s: %w"
	referenceLoadedMessageConstant   = "reference loader resolved sub-graph"
	logFieldKindConstant             = "kind"
	logFieldSubPathConstant          = "sub_path"
	logFieldLoaderConstant           = "loader"
	logFieldAllowListConstant        = "jobs"
)

// ReferenceLoader includes selected jobs from a task graph rooted at a different base path.
type ReferenceLoader struct {
	Registry *Registry
	Reader   KindConfigReader
	Logger   *zap.Logger
}

// Load reads <base-path>/<kind>/kind.yml, runs the loader it declares, and keeps
// only the jobs whose name or alias appears in the optional jobs allow-list.
// The returned configuration is config without base-path and jobs, updated
// with the sub-graph configuration.
func (referenceLoader *ReferenceLoader) Load(kind string, path string, config KindConfig, parameters taskgraph.Parameters, loadedTasks []taskgraph.Task) (LoadResult, error) {
	basePath, hasBasePath := config[basePathConfigKeyConstant].(string)
	if !hasBasePath || len(strings.TrimSpace(basePath)) == 0 {
		return LoadResult{}, taskgraph.ConfigurationError{Path: path, Key: basePathConfigKeyConstant}
	}

	allowList, allowListError := readAllowList(config[jobsConfigKeyConstant], path)
	if allowListError != nil {
		return LoadResult{}, allowListError
	}

	subPath := filepath.Join(basePath, kind)
	subConfig, readError := referenceLoader.Reader.Read(subPath)
	if readError != nil {
		return LoadResult{}, readError
	}

	loaderIdentifier, hasLoader := subConfig[loaderConfigKeyConstant].(string)
	if !hasLoader || len(strings.TrimSpace(loaderIdentifier)) == 0 {
		return LoadResult{}, taskgraph.ConfigurationError{Path: subPath, Key: loaderConfigKeyConstant}
	}

	registry := referenceLoader.Registry
	if registry == nil {
		return LoadResult{}, UnknownLoaderError{Identifier: loaderIdentifier}
	}
	loaderFunc, lookupError := registry.Lookup(loaderIdentifier)
	if lookupError != nil {
		return LoadResult{}, lookupError
	}

	subResult, loadError := loaderFunc(kind, subPath, subConfig, parameters, loadedTasks)
	if loadError != nil {
		return LoadResult{}, fmt.Errorf(subLoaderErrorTemplateConstant, loaderIdentifier, subPath, loadError)
	}

	remaining := KindConfig{}
	for key, value := range config {
		if key == basePathConfigKeyConstant || key == jobsConfigKeyConstant {
			continue
		}
		remaining[key] = value
	}
	mergedSubConfig := subResult.Config
	if mergedSubConfig == nil {
		mergedSubConfig = subConfig
	}
	for key, value := range mergedSubConfig {
		remaining[key] = value
	}

	if referenceLoader.Logger != nil {
		referenceLoader.Logger.Debug(
			referenceLoadedMessageConstant,
			zap.String(logFieldKindConstant, kind),
			zap.String(logFieldSubPathConstant, subPath),
			zap.String(logFieldLoaderConstant, loaderIdentifier),
			zap.Strings(logFieldAllowListConstant, sortedKeys(allowList)),
		)
	}

	jobs := subResult.Jobs
	if jobs == nil {
		jobs = taskgraph.FromSlice(nil)
	}
	if allowList != nil {
		jobs = taskgraph.Filter(jobs, func(job taskgraph.Task) bool {
			for alias := range JobAliases(kind, job) {
				if _, allowed := allowList[alias]; allowed {
					return true
				}
			}
			return false
		})
	}

	return LoadResult{Jobs: jobs, Config: remaining}, nil
}

// JobAliases returns the names a job answers to: its own name and, for
// toolchain jobs, any declared toolchain-alias.
func JobAliases(kind string, job taskgraph.Task) map[string]struct{} {
	aliases := map[string]struct{}{job.Name(): {}}
	if kind != toolchainKindConstant {
		return aliases
	}

	rawAlias, hasAlias := job.Lookup(toolchainAliasPathConstant)
	if !hasAlias || !taskgraph.Truthy(rawAlias) {
		return aliases
	}
	if aliasText, isText := rawAlias.(string); isText {
		aliases[aliasText] = struct{}{}
		return aliases
	}
	if aliasList, isList := taskgraph.AsList(rawAlias); isList {
		for _, entry := range aliasList {
			if aliasText, isText := entry.(string); isText && len(aliasText) > 0 {
				aliases[aliasText] = struct{}{}
			}
		}
	}
	return aliases
}

func readAllowList(rawJobs any, path string) (map[string]struct{}, error) {
	if rawJobs == nil {
		return nil, nil
	}
	entries, isList := taskgraph.AsList(rawJobs)
	if !isList {
		return nil, fmt.Errorf(allowListInvalidTemplateConstant, path)
	}
	allowList := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		name, isText := entry.(string)
		if !isText {
			return nil, fmt.Errorf(allowListInvalidTemplateConstant, path)
		}
		allowList[name] = struct{}{}
	}
	return allowList, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
