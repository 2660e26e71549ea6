package graph_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/commgraph/cmd/cli/graph"
	"github.com/temirov/commgraph/internal/utils"
)

const (
	testKindsDirectoryConstant = "/comm/taskcluster/kinds"
	testTasksPathConstant      = "/work/tasks.yml"
	testParametersPathConstant = "/work/parameters.yml"
	testBeetmoverKindContent   = `transforms:
  - comm_taskgraph:beetmover_add_langpack
jobs:
  linux64:
    attributes:
      locale: fr
`
	testSigningTasksContent = `- label: signing-win64
  task:
    payload:
      upstreamArtifacts:
        - formats: [autograph_authenticode_sha2, widevine]
          paths: [public/build/target.zip]
        - formats: [sha2signcodestub]
          paths: [public/build/setup-stub.exe]
`
	testParametersContent = "project: comm-central\n"
)

func writeFile(testInstance *testing.T, fileSystem afero.Fs, filePath string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, afero.WriteFile(fileSystem, filePath, []byte(content), 0o644))
}

func executeCommand(testInstance *testing.T, command *cobra.Command, fileSystem afero.Fs, arguments ...string) (string, error) {
	testInstance.Helper()
	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)
	executionContext := utils.NewCommandContextAccessor().WithFileSystem(context.Background(), fileSystem)
	executionError := command.ExecuteContext(executionContext)
	return outputBuffer.String(), executionError
}

func decodeTasks(testInstance *testing.T, output string) []map[string]any {
	testInstance.Helper()
	decoded := []map[string]any{}
	require.NoError(testInstance, yaml.Unmarshal([]byte(output), &decoded))
	return decoded
}

func TestKindGenerateCommand(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeFile(testInstance, fileSystem, filepath.Join(testKindsDirectoryConstant, "beetmover", "kind.yml"), testBeetmoverKindContent)
	writeFile(testInstance, fileSystem, testParametersPathConstant, testParametersContent)

	builder := graph.KindGenerateCommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() graph.CommandConfiguration {
			return graph.CommandConfiguration{KindsDirectory: testKindsDirectoryConstant}
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, fileSystem, "beetmover", "--parameters", testParametersPathConstant)
	require.NoError(testInstance, executionError)

	tasks := decodeTasks(testInstance, output)
	require.Len(testInstance, tasks, 1)
	require.Equal(testInstance, "linux64", tasks[0]["name"])
	payload := tasks[0]["task"].(map[string]any)["payload"].(map[string]any)
	artifacts := payload["upstreamArtifacts"].([]any)
	require.Len(testInstance, artifacts, 1)
	require.Equal(testInstance, []any{"public/build/fr/target.langpack.xpi"}, artifacts[0].(map[string]any)["paths"])
}

func TestKindGenerateCommandFlagOverridesConfiguration(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeFile(testInstance, fileSystem, filepath.Join(testKindsDirectoryConstant, "beetmover", "kind.yml"), testBeetmoverKindContent)

	builder := graph.KindGenerateCommandBuilder{
		ConfigurationProvider: func() graph.CommandConfiguration {
			return graph.CommandConfiguration{KindsDirectory: "/elsewhere"}
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command, fileSystem, "beetmover")
	require.Error(testInstance, executionError)

	command, buildError = builder.Build()
	require.NoError(testInstance, buildError)
	output, executionError := executeCommand(testInstance, command, fileSystem, "beetmover", "--kinds-dir", testKindsDirectoryConstant)
	require.NoError(testInstance, executionError)
	require.Len(testInstance, decodeTasks(testInstance, output), 1)
}

func TestTaskTransformCommand(testInstance *testing.T) {
	testCases := []struct {
		name              string
		arguments         []string
		expectError       bool
		expectedArtifacts int
	}{
		{
			name:              "signing_cleanup",
			arguments:         []string{"--tasks", testTasksPathConstant, "--transforms", "comm_taskgraph:remove_widevine_and_stub_installer"},
			expectedArtifacts: 1,
		},
		{
			name:              "signing_then_langpack",
			arguments:         []string{"--tasks", testTasksPathConstant, "--transforms", "comm_taskgraph:remove_widevine_and_stub_installer,comm_taskgraph:beetmover_add_langpack"},
			expectedArtifacts: 2,
		},
		{
			name:        "unknown_transform",
			arguments:   []string{"--tasks", testTasksPathConstant, "--transforms", "comm_taskgraph:missing"},
			expectError: true,
		},
		{
			name:        "missing_tasks_flag",
			arguments:   []string{},
			expectError: true,
		},
		{
			name:        "missing_tasks_file",
			arguments:   []string{"--tasks", "/work/absent.yml"},
			expectError: true,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			fileSystem := afero.NewMemMapFs()
			writeFile(subtest, fileSystem, testTasksPathConstant, testSigningTasksContent)

			builder := graph.TaskTransformCommandBuilder{}
			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			output, executionError := executeCommand(subtest, command, fileSystem, testCase.arguments...)
			if testCase.expectError {
				require.Error(subtest, executionError)
				return
			}
			require.NoError(subtest, executionError)

			tasks := decodeTasks(subtest, output)
			require.Len(subtest, tasks, 1)
			payload := tasks[0]["task"].(map[string]any)["payload"].(map[string]any)
			artifacts := payload["upstreamArtifacts"].([]any)
			require.Len(subtest, artifacts, testCase.expectedArtifacts)
			require.Equal(subtest, []any{"autograph_authenticode_sha2"}, artifacts[0].(map[string]any)["formats"])
		})
	}
}

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	sanitized := graph.CommandConfiguration{KindsDirectory: "  ", Parameters: " params.yml "}.Sanitize()
	require.Equal(testInstance, graph.DefaultCommandConfiguration().KindsDirectory, sanitized.KindsDirectory)
	require.Equal(testInstance, "params.yml", sanitized.Parameters)
	require.Equal(testInstance, "comm_", sanitized.ProjectRepoParamPrefix)

	defaults := graph.DefaultConfigurationValues("tools.graph")
	require.Equal(testInstance, "taskcluster/kinds", defaults["tools.graph.kinds_directory"])
}
