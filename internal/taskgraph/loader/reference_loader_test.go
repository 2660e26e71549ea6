package loader_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/commgraph/internal/taskgraph"
	"github.com/temirov/commgraph/internal/taskgraph/loader"
)

const (
	testBasePathConstant         = "/gecko/taskcluster/kinds"
	testCommKindPathConstant     = "/comm/taskcluster/kinds/toolchain"
	testToolchainKindConstant    = "toolchain"
	testToolchainKindYAMLContent = `loader: taskgraph.loader.default:loader
transforms:
  - gecko_taskgraph.transforms.toolchain:transforms
jobs:
  - name: foo
    run:
      using: toolchain-script
  - name: bar
    run:
      using: toolchain-script
  - name: baz
    run:
      using: toolchain-script
      toolchain-alias: foo
`
)

func writeFile(testInstance *testing.T, fileSystem afero.Fs, filePath string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, afero.WriteFile(fileSystem, filePath, []byte(content), 0o644))
}

func jobNames(testInstance *testing.T, jobs taskgraph.Stream) []string {
	testInstance.Helper()
	collected, collectError := taskgraph.Collect(jobs)
	require.NoError(testInstance, collectError)
	names := make([]string, 0, len(collected))
	for _, job := range collected {
		names = append(names, job.Name())
	}
	return names
}

func newReferenceRegistry(testInstance *testing.T, fileSystem afero.Fs) *loader.Registry {
	testInstance.Helper()
	registry, registryError := loader.NewDefaultRegistry(fileSystem, zap.NewNop())
	require.NoError(testInstance, registryError)
	return registry
}

func TestReferenceLoaderFiltersByNameOrAlias(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeFile(testInstance, fileSystem, filepath.Join(testBasePathConstant, testToolchainKindConstant, "kind.yml"), testToolchainKindYAMLContent)

	registry := newReferenceRegistry(testInstance, fileSystem)
	referenceLoader, lookupError := registry.Lookup(loader.IdentifierReference)
	require.NoError(testInstance, lookupError)

	config := loader.KindConfig{
		"loader":    loader.IdentifierReference,
		"base-path": testBasePathConstant,
		"jobs":      []any{"foo"},
	}

	result, loadError := referenceLoader(testToolchainKindConstant, testCommKindPathConstant, config, taskgraph.Parameters{}, nil)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"foo", "baz"}, jobNames(testInstance, result.Jobs))
}

func TestReferenceLoaderAliasOnlyAppliesToToolchainKind(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeFile(testInstance, fileSystem, filepath.Join(testBasePathConstant, "fetch", "kind.yml"), testToolchainKindYAMLContent)

	registry := newReferenceRegistry(testInstance, fileSystem)
	referenceLoader, _ := registry.Lookup(loader.IdentifierReference)

	result, loadError := referenceLoader("fetch", "/comm/taskcluster/kinds/fetch", loader.KindConfig{
		"base-path": testBasePathConstant,
		"jobs":      []any{"foo"},
	}, taskgraph.Parameters{}, nil)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"foo"}, jobNames(testInstance, result.Jobs))
}

func TestReferenceLoaderWithoutAllowListReturnsEverything(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeFile(testInstance, fileSystem, filepath.Join(testBasePathConstant, testToolchainKindConstant, "kind.yml"), testToolchainKindYAMLContent)

	registry := newReferenceRegistry(testInstance, fileSystem)
	referenceLoader, _ := registry.Lookup(loader.IdentifierReference)

	config := loader.KindConfig{
		"loader":            loader.IdentifierReference,
		"base-path":         testBasePathConstant,
		"kind-dependencies": []any{"fetch"},
	}

	result, loadError := referenceLoader(testToolchainKindConstant, testCommKindPathConstant, config, taskgraph.Parameters{}, nil)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"foo", "bar", "baz"}, jobNames(testInstance, result.Jobs))

	require.NotContains(testInstance, result.Config, "base-path")
	require.Equal(testInstance, loader.IdentifierDefault, result.Config["loader"])
	require.Equal(testInstance, []any{"gecko_taskgraph.transforms.toolchain:transforms"}, result.Config["transforms"])
	require.Equal(testInstance, []any{"fetch"}, result.Config["kind-dependencies"])

	require.Contains(testInstance, config, "base-path")
}

func TestReferenceLoaderConfigurationErrors(testInstance *testing.T) {
	testCases := []struct {
		name           string
		subKindContent string
		config         loader.KindConfig
		expectedPath   string
		expectedKey    string
		expectUnknown  bool
	}{
		{
			name:         "missing_base_path",
			config:       loader.KindConfig{"jobs": []any{"foo"}},
			expectedPath: testCommKindPathConstant,
			expectedKey:  "base-path",
		},
		{
			name:           "missing_sub_loader",
			subKindContent: "jobs:\n  foo: {}\n",
			config:         loader.KindConfig{"base-path": testBasePathConstant},
			expectedPath:   filepath.Join(testBasePathConstant, testToolchainKindConstant),
			expectedKey:    "loader",
		},
		{
			name:           "unregistered_sub_loader",
			subKindContent: "loader: gecko_taskgraph.loader.test:loader\n",
			config:         loader.KindConfig{"base-path": testBasePathConstant},
			expectUnknown:  true,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			fileSystem := afero.NewMemMapFs()
			if len(testCase.subKindContent) > 0 {
				writeFile(subtest, fileSystem, filepath.Join(testBasePathConstant, testToolchainKindConstant, "kind.yml"), testCase.subKindContent)
			}

			registry := newReferenceRegistry(subtest, fileSystem)
			referenceLoader, _ := registry.Lookup(loader.IdentifierReference)

			_, loadError := referenceLoader(testToolchainKindConstant, testCommKindPathConstant, testCase.config, taskgraph.Parameters{}, nil)
			require.Error(subtest, loadError)

			if testCase.expectUnknown {
				var unknownLoaderError loader.UnknownLoaderError
				require.ErrorAs(subtest, loadError, &unknownLoaderError)
				require.Equal(subtest, "gecko_taskgraph.loader.test:loader", unknownLoaderError.Identifier)
				return
			}

			var configurationError taskgraph.ConfigurationError
			require.ErrorAs(subtest, loadError, &configurationError)
			require.Equal(subtest, testCase.expectedPath, configurationError.Path)
			require.Equal(subtest, testCase.expectedKey, configurationError.Key)
		})
	}
}

func TestJobAliasesAcceptsAliasLists(testInstance *testing.T) {
	job := taskgraph.Task{
		"name": "linux64-clang",
		"run":  map[string]any{"toolchain-alias": []any{"linux64-clang-toolchain", "clang"}},
	}

	aliases := loader.JobAliases(testToolchainKindConstant, job)
	require.Len(testInstance, aliases, 3)
	require.Contains(testInstance, aliases, "clang")
	require.Contains(testInstance, aliases, "linux64-clang")
}
