package transforms

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/commgraph/internal/taskgraph"
)

const (
	updateVerifyDescriptionTemplate      = "generate update verify config for %s"
	updateVerifyPythonConstant           = "python"
	updateVerifyScriptConstant           = "testing/mozharness/scripts/release/update-verify-config-creator.py"
	updateVerifyOutputFileConstant       = "update-verify.cfg"
	updateVerifyRunUsingConstant         = "mach"
	commandSeparatorConstant             = " "
	argumentPrefixConstant               = "--"
	extraPathPrefixConstant              = "extra."
	descriptionKeyConstant               = "description"
	runKeyConstant                       = "run"
	runUsingKeyConstant                  = "using"
	runMachKeyConstant                   = "mach"
	buildPlatformPathConstant            = "attributes.build_platform"
	shippingProductPathConstant          = "shipping-product"
	extraKeyConstant                     = "extra"
	platformAttributeConstant            = "platform"
	releaseTypeAttributeConstant         = "release-type"
	releaseLevelAttributeConstant        = "release-level"
	includeVersionArgumentConstant       = "include-version"
	marChannelIDOverrideArgumentConstant = "mar-channel-id-override"
	singleQuoteConstant                  = "'"
	missingTaskFieldErrorTemplate        = "task %s does not define %s"
	updateVerifyErrorTemplate            = "unable to build update verify command for %s: %w"
	unwrappedPatternErrorTemplate        = "pattern %s for %s is not wrapped in single quotes"
	repositoryURLErrorTemplate           = "unable to parse repository URL %q: %w"
	updateVerifyCommandMessage           = "synthesized update verify command"
	taskNameFieldConstant                = "task"
	commandFieldConstant                 = "command"
)

var includeVersionPatterns = map[string]string{
	"beta":         `'^(\d+\.\d+b\d+)$'`,
	"nonbeta":      `'^\d+\.\d+(\.\d+)?$'`,
	"release-next": `'^91\.\d+(\.\d+)?$'`,
}

var marChannelIDOverridePatterns = map[string]string{
	"beta": `'^\d+\.\d+(\.\d+)?$$,thunderbird-comm-beta,thunderbird-comm-release'`,
}

var patternTables = map[string]map[string]string{
	includeVersionArgumentConstant:       includeVersionPatterns,
	marChannelIDOverrideArgumentConstant: marChannelIDOverridePatterns,
}

var keyedByArguments = []string{
	"channel",
	"archive-prefix",
	"previous-archive-prefix",
	"aus-server",
	"override-certs",
	includeVersionArgumentConstant,
	marChannelIDOverrideArgumentConstant,
	"last-watershed",
}

var optionalArguments = []string{
	"updater-platform",
}

// UnknownPatternError reports a keyed-by result with no entry in its pattern table.
type UnknownPatternError struct {
	Argument string
	Key      string
}

// Error describes the missing table entry.
func (unknownPatternError UnknownPatternError) Error() string {
	return fmt.Sprintf("no %s pattern named %q", unknownPatternError.Argument, unknownPatternError.Key)
}

// NewUpdateVerifyConfigCommand validates the pattern tables and returns the
// transform that fills in the update-verify-config command of each task.
func NewUpdateVerifyConfigCommand() (taskgraph.Transform, error) {
	for argument, table := range patternTables {
		if validationError := ensureWrappedSingleQuote(argument, table); validationError != nil {
			return nil, validationError
		}
	}
	return updateVerifyConfigCommand, nil
}

func ensureWrappedSingleQuote(argument string, table map[string]string) error {
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pattern := table[key]
		if len(pattern) < 2 || !strings.HasPrefix(pattern, singleQuoteConstant) || !strings.HasSuffix(pattern, singleQuoteConstant) {
			return fmt.Errorf(unwrappedPatternErrorTemplate, key, argument)
		}
	}
	return nil
}

func updateVerifyConfigCommand(config taskgraph.TransformConfig, tasks taskgraph.Stream) taskgraph.Stream {
	return func(yield func(taskgraph.Task, error) bool) {
		releaseConfig, releaseError := taskgraph.GetReleaseConfig(config)
		if releaseError != nil {
			yield(nil, releaseError)
			return
		}
		logger := config.LoggerOrNop()

		for task, upstreamError := range tasks {
			if upstreamError != nil {
				yield(nil, upstreamError)
				return
			}

			command, commandError := BuildUpdateVerifyCommand(config, releaseConfig, task)
			if commandError != nil {
				yield(nil, fmt.Errorf(updateVerifyErrorTemplate, task.Name(), commandError))
				return
			}

			run, runError := task.EnsureMapping(runKeyConstant)
			if runError != nil {
				yield(nil, fmt.Errorf(updateVerifyErrorTemplate, task.Name(), runError))
				return
			}
			run[runUsingKeyConstant] = updateVerifyRunUsingConstant
			run[runMachKeyConstant] = strings.Join(command, commandSeparatorConstant)

			logger.Debug(updateVerifyCommandMessage, zap.String(taskNameFieldConstant, task.Name()), zap.Strings(commandFieldConstant, command))

			if !yield(task, nil) {
				return
			}
		}
	}
}

// BuildUpdateVerifyCommand sets the task description and returns the
// update-verify-config-creator argument vector. Keyed-by values under extra
// are resolved in place.
func BuildUpdateVerifyCommand(config taskgraph.TransformConfig, releaseConfig taskgraph.ReleaseConfig, task taskgraph.Task) ([]string, error) {
	buildPlatform, platformError := requireTaskString(task, buildPlatformPathConstant)
	if platformError != nil {
		return nil, platformError
	}
	task[descriptionKeyConstant] = fmt.Sprintf(updateVerifyDescriptionTemplate, buildPlatform)

	requiredValues := make(map[string]string)
	for _, path := range []string{"extra.product", shippingProductPathConstant, "extra.app-name", "extra.branch-prefix", "extra.platform"} {
		value, valueError := requireTaskString(task, path)
		if valueError != nil {
			return nil, valueError
		}
		requiredValues[path] = value
	}

	buildDate, buildDateError := taskgraph.BuildDate(config)
	if buildDateError != nil {
		return nil, buildDateError
	}
	revision, revisionError := taskgraph.BranchRevision(config)
	if revisionError != nil {
		return nil, revisionError
	}
	repository, repositoryError := taskgraph.BranchRepository(config)
	if repositoryError != nil {
		return nil, repositoryError
	}
	repositoryURL, parseError := url.Parse(repository)
	if parseError != nil {
		return nil, fmt.Errorf(repositoryURLErrorTemplate, repository, parseError)
	}

	command := []string{
		updateVerifyPythonConstant,
		updateVerifyScriptConstant,
		"--product", requiredValues["extra.product"],
		"--stage-product", requiredValues[shippingProductPathConstant],
		"--app-name", requiredValues["extra.app-name"],
		"--branch-prefix", requiredValues["extra.branch-prefix"],
		"--platform", requiredValues["extra.platform"],
		"--to-version", releaseConfig.Version,
		"--to-app-version", releaseConfig.AppVersion,
		"--to-build-number", strconv.Itoa(releaseConfig.BuildNumber),
		"--to-buildid", buildDate,
		"--to-revision", revision,
		"--output-file", updateVerifyOutputFileConstant,
		"--repo-path", strings.TrimLeft(repositoryURL.Path, "/"),
	}

	for _, partialVersion := range taskgraph.PartialVersionList(releaseConfig.PartialVersions) {
		command = append(command, "--partial-version", partialVersion)
	}

	extra, extraError := task.EnsureMapping(extraKeyConstant)
	if extraError != nil {
		return nil, extraError
	}
	for _, argument := range optionalArguments {
		if value := extra[argument]; taskgraph.Truthy(value) {
			command = append(command, argumentPrefixConstant+argument, fmt.Sprint(value))
		}
	}

	keyedByValues := map[string]any{
		platformAttributeConstant:     buildPlatform,
		releaseTypeAttributeConstant:  taskgraph.ReleaseType(config),
		releaseLevelAttributeConstant: taskgraph.ReleaseLevel(taskgraph.Project(config)),
	}
	for _, argument := range keyedByArguments {
		if resolveError := taskgraph.ResolveKeyedBy(task, extraPathPrefixConstant+argument, task.Name(), keyedByValues); resolveError != nil {
			return nil, resolveError
		}
		value := extra[argument]
		if !taskgraph.Truthy(value) {
			continue
		}
		rendered := fmt.Sprint(value)
		if table, hasTable := patternTables[argument]; hasTable {
			pattern, known := table[rendered]
			if !known {
				return nil, UnknownPatternError{Argument: argument, Key: rendered}
			}
			extra[argument] = pattern
			rendered = pattern
		}
		command = append(command, argumentPrefixConstant+argument, rendered)
	}

	return command, nil
}

func requireTaskString(task taskgraph.Task, path string) (string, error) {
	value, exists := task.Lookup(path)
	if !exists || value == nil {
		return "", fmt.Errorf(missingTaskFieldErrorTemplate, task.Name(), path)
	}
	if text, isText := value.(string); isText {
		return text, nil
	}
	return fmt.Sprint(value), nil
}
