package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/mohae/deepcopy"
	"github.com/spf13/afero"

	"github.com/temirov/commgraph/internal/taskgraph"
)

const (
	jobsConfigKeyConstant             = "jobs"
	jobsFromConfigKeyConstant         = "jobs-from"
	jobDefaultsConfigKeyConstant      = "job-defaults"
	jobNameKeyConstant                = "name"
	duplicateJobTemplateConstant      = "duplicate job name %s in %s"
	jobNotMappingTemplateConstant     = "job %s in %s is not a mapping"
	jobsInvalidTemplateConstant       = "%s in %s must be a mapping or a list of mappings"
	jobsFromInvalidTemplateConstant   = "jobs-from in %s must be a list of file patterns"
	jobsFromGlobErrorTemplateConstant = "invalid jobs-from pattern %s: %w"
	jobsFromNoMatchTemplateConstant   = "jobs-from pattern %s matched no files in %s"
	jobDefaultsMergeErrorTemplate     = "unable to apply job-defaults to %s: %w"
	jobWithoutNameTemplateConstant    = "job at index %d in %s has no name"
)

// DefaultLoader yields the jobs declared inline in kind.yml and in jobs-from files.
type DefaultLoader struct {
	Reader     KindConfigReader
	FileSystem afero.Fs
}

type namedJob struct {
	name string
	job  map[string]any
}

// Load materializes the kind's jobs with job-defaults applied.
func (defaultLoader *DefaultLoader) Load(kind string, path string, config KindConfig, parameters taskgraph.Parameters, loadedTasks []taskgraph.Task) (LoadResult, error) {
	inlineJobs, inlineError := collectJobs(config[jobsConfigKeyConstant], jobsConfigKeyConstant, path)
	if inlineError != nil {
		return LoadResult{}, inlineError
	}

	fileJobs, fileError := defaultLoader.collectJobsFromFiles(config[jobsFromConfigKeyConstant], path)
	if fileError != nil {
		return LoadResult{}, fileError
	}

	defaults, _ := taskgraph.AsMapping(config[jobDefaultsConfigKeyConstant])

	seenNames := map[string]struct{}{}
	tasks := make([]taskgraph.Task, 0, len(inlineJobs)+len(fileJobs))
	for _, entry := range append(inlineJobs, fileJobs...) {
		if _, duplicate := seenNames[entry.name]; duplicate {
			return LoadResult{}, fmt.Errorf(duplicateJobTemplateConstant, entry.name, path)
		}
		seenNames[entry.name] = struct{}{}

		job, mergeError := applyJobDefaults(defaults, entry.job)
		if mergeError != nil {
			return LoadResult{}, fmt.Errorf(jobDefaultsMergeErrorTemplate, entry.name, mergeError)
		}
		job[jobNameKeyConstant] = entry.name
		tasks = append(tasks, taskgraph.Task(job))
	}

	return LoadResult{Jobs: taskgraph.FromSlice(tasks), Config: config}, nil
}

func (defaultLoader *DefaultLoader) collectJobsFromFiles(rawPatterns any, path string) ([]namedJob, error) {
	if rawPatterns == nil {
		return nil, nil
	}
	patterns, isList := taskgraph.AsList(rawPatterns)
	if !isList {
		return nil, fmt.Errorf(jobsFromInvalidTemplateConstant, path)
	}

	fileSystem := defaultLoader.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	kindFileSystem := afero.NewIOFS(afero.NewBasePathFs(fileSystem, path))

	collected := []namedJob{}
	for _, rawPattern := range patterns {
		pattern, isString := rawPattern.(string)
		if !isString {
			return nil, fmt.Errorf(jobsFromInvalidTemplateConstant, path)
		}
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))

		matches, globError := doublestar.Glob(kindFileSystem, pattern)
		if globError != nil {
			return nil, fmt.Errorf(jobsFromGlobErrorTemplateConstant, pattern, globError)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf(jobsFromNoMatchTemplateConstant, pattern, path)
		}
		sort.Strings(matches)

		for _, match := range matches {
			jobFilePath := filepath.Join(path, filepath.FromSlash(match))
			mapping, readError := defaultLoader.Reader.ReadYAML(jobFilePath)
			if readError != nil {
				return nil, readError
			}
			jobs, collectError := collectJobs(mapping, jobFilePath, jobFilePath)
			if collectError != nil {
				return nil, collectError
			}
			collected = append(collected, jobs...)
		}
	}
	return collected, nil
}

// collectJobs accepts either a name-keyed mapping, ordered by name, or a list
// of mappings carrying their own name, kept in declaration order.
func collectJobs(rawJobs any, field string, path string) ([]namedJob, error) {
	if rawJobs == nil {
		return nil, nil
	}

	if mapping, isMapping := taskgraph.AsMapping(rawJobs); isMapping {
		names := make([]string, 0, len(mapping))
		for name := range mapping {
			names = append(names, name)
		}
		sort.Strings(names)

		jobs := make([]namedJob, 0, len(names))
		for _, name := range names {
			job, jobIsMapping := taskgraph.AsMapping(mapping[name])
			if !jobIsMapping {
				if mapping[name] != nil {
					return nil, fmt.Errorf(jobNotMappingTemplateConstant, name, path)
				}
				job = map[string]any{}
			}
			jobs = append(jobs, namedJob{name: name, job: job})
		}
		return jobs, nil
	}

	list, isList := taskgraph.AsList(rawJobs)
	if !isList {
		return nil, fmt.Errorf(jobsInvalidTemplateConstant, field, path)
	}
	jobs := make([]namedJob, 0, len(list))
	for index, rawJob := range list {
		job, jobIsMapping := taskgraph.AsMapping(rawJob)
		if !jobIsMapping {
			return nil, fmt.Errorf(jobsInvalidTemplateConstant, field, path)
		}
		name, hasName := job[jobNameKeyConstant].(string)
		if !hasName || len(strings.TrimSpace(name)) == 0 {
			return nil, fmt.Errorf(jobWithoutNameTemplateConstant, index, path)
		}
		jobs = append(jobs, namedJob{name: name, job: job})
	}
	return jobs, nil
}

func applyJobDefaults(defaults map[string]any, job map[string]any) (map[string]any, error) {
	copiedJob, _ := deepcopy.Copy(job).(map[string]any)
	if copiedJob == nil {
		copiedJob = map[string]any{}
	}
	if len(defaults) == 0 {
		return copiedJob, nil
	}

	merged, _ := deepcopy.Copy(defaults).(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}
	if mergeError := mergo.Merge(&merged, copiedJob, mergo.WithOverride); mergeError != nil {
		return nil, mergeError
	}
	return merged, nil
}
