package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/commgraph/internal/utils"
)

const (
	testWorkingKindsDirectoryConstant = "/comm/taskcluster/kinds"
	testConfigurationPathConstant     = "/etc/commgraph/config.yaml"
	testConfigurationContentConstant  = "common:\n  log_level: debug\n  log_format: console\ntools:\n  graph:\n    kinds_directory: /comm/taskcluster/kinds\n"
	testBeetmoverKindContentConstant  = "transforms:\n  - comm_taskgraph:beetmover_add_langpack\njobs:\n  linux64: {}\n"
)

type applicationFixture struct {
	application  *Application
	outputBuffer *bytes.Buffer
	logBuffer    *bytes.Buffer
}

func newApplicationFixture(testInstance *testing.T, fileSystem afero.Fs, arguments ...string) applicationFixture {
	testInstance.Helper()
	application := NewApplicationWithFileSystem(fileSystem)
	logBuffer := &bytes.Buffer{}
	application.loggerFactory = &utils.LoggerFactory{Output: logBuffer}
	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(&bytes.Buffer{})
	application.rootCommand.SetArgs(arguments)
	return applicationFixture{application: application, outputBuffer: outputBuffer, logBuffer: logBuffer}
}

func writeFile(testInstance *testing.T, fileSystem afero.Fs, filePath string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, afero.WriteFile(fileSystem, filePath, []byte(content), 0o644))
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	application := NewApplicationWithFileSystem(afero.NewMemMapFs())
	registered := map[string]bool{}
	for _, command := range application.rootCommand.Commands() {
		registered[command.Name()] = true
	}
	for _, expectedName := range []string{"kind-generate", "task-transform", "l10n-migrate"} {
		require.True(testInstance, registered[expectedName], expectedName)
	}
}

func TestApplicationEmbeddedDefaults(testInstance *testing.T) {
	fixture := newApplicationFixture(testInstance, afero.NewMemMapFs())
	require.NoError(testInstance, fixture.application.initializeConfiguration(fixture.application.rootCommand))

	configuration := fixture.application.configuration
	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
	require.Equal(testInstance, "taskcluster/kinds", configuration.Tools.Graph.KindsDirectory)
	require.Equal(testInstance, "comm_", configuration.Tools.Graph.ProjectRepoParamPrefix)
	require.False(testInstance, configuration.Tools.L10n.DryRun)

	embeddedContent, embeddedType := EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", embeddedType)
	decoded := map[string]any{}
	require.NoError(testInstance, yaml.Unmarshal(embeddedContent, &decoded))
	require.Contains(testInstance, decoded, "tools")
}

func TestApplicationConfigurationFileAndFlags(testInstance *testing.T) {
	testCases := []struct {
		name              string
		arguments         []string
		expectedLogLevel  string
		expectedLogFormat string
		expectError       bool
	}{
		{
			name:              "file_values",
			arguments:         []string{"--config", testConfigurationPathConstant},
			expectedLogLevel:  "debug",
			expectedLogFormat: "console",
		},
		{
			name:              "flags_override_file",
			arguments:         []string{"--config", testConfigurationPathConstant, "--log-level", "warn", "--log-format", "structured"},
			expectedLogLevel:  "warn",
			expectedLogFormat: "structured",
		},
		{
			name:        "invalid_log_level",
			arguments:   []string{"--log-level", "verbose"},
			expectError: true,
		},
		{
			name:        "missing_configuration_file",
			arguments:   []string{"--config", "/absent/config.yaml"},
			expectError: true,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			fileSystem := afero.NewMemMapFs()
			writeFile(subtest, fileSystem, testConfigurationPathConstant, testConfigurationContentConstant)

			fixture := newApplicationFixture(subtest, fileSystem)
			rootCommand := fixture.application.rootCommand
			require.NoError(subtest, rootCommand.ParseFlags(testCase.arguments))

			initializationError := fixture.application.initializeConfiguration(rootCommand)
			if testCase.expectError {
				require.Error(subtest, initializationError)
				return
			}
			require.NoError(subtest, initializationError)
			require.Equal(subtest, testCase.expectedLogLevel, fixture.application.configuration.Common.LogLevel)
			require.Equal(subtest, testCase.expectedLogFormat, fixture.application.configuration.Common.LogFormat)
			require.Equal(subtest, testWorkingKindsDirectoryConstant, fixture.application.configuration.Tools.Graph.KindsDirectory)

			configurationFilePath, available := fixture.application.commandContextAccessor.ConfigurationFilePath(rootCommand.Context())
			require.True(subtest, available)
			require.Equal(subtest, testConfigurationPathConstant, configurationFilePath)
			require.Equal(subtest, fileSystem, fixture.application.commandContextAccessor.FileSystem(rootCommand.Context()))
		})
	}
}

func TestApplicationExecutesKindGenerate(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeFile(testInstance, fileSystem, testConfigurationPathConstant, testConfigurationContentConstant)
	writeFile(testInstance, fileSystem, filepath.Join(testWorkingKindsDirectoryConstant, "beetmover", "kind.yml"), testBeetmoverKindContentConstant)

	fixture := newApplicationFixture(testInstance, fileSystem, "--config", testConfigurationPathConstant, "kind-generate", "beetmover")
	require.NoError(testInstance, fixture.application.Execute())

	tasks := []map[string]any{}
	require.NoError(testInstance, yaml.Unmarshal(fixture.outputBuffer.Bytes(), &tasks))
	require.Len(testInstance, tasks, 1)
	require.Equal(testInstance, "linux64", tasks[0]["name"])
	require.Contains(testInstance, fixture.logBuffer.String(), "kind generated")
}
