package l10n_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/commgraph/cmd/cli/l10n"
	"github.com/temirov/commgraph/internal/utils"
)

const (
	testRootConstant           = "/l10n"
	testReferenceConstant      = "/comm/en-US"
	testConnectionPathConstant = "mail/messenger/preferences/connection.ftl"
	testLanguagesPathConstant  = "mail/messenger/preferences/languages.ftl"
	testConnectionContent      = "connection-dialog-window2 =\n    .title = Paramètres de connexion\n"
	testReferenceContent       = "connection-dialog-title = Connection Settings\n"
)

func writeFile(testInstance *testing.T, fileSystem afero.Fs, filePath string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, afero.WriteFile(fileSystem, filePath, []byte(content), 0o644))
}

func newFixture(testInstance *testing.T) afero.Fs {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	writeFile(testInstance, fileSystem, filepath.Join(testRootConstant, "fr", testConnectionPathConstant), testConnectionContent)
	writeFile(testInstance, fileSystem, filepath.Join(testReferenceConstant, testConnectionPathConstant), testReferenceContent)
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Join(testRootConstant, ".hg"), 0o755))
	return fileSystem
}

func executeMigrate(testInstance *testing.T, fileSystem afero.Fs, configuration l10n.CommandConfiguration, arguments ...string) ([][]string, error) {
	testInstance.Helper()
	builder := l10n.MigrateCommandBuilder{
		ConfigurationProvider: func() l10n.CommandConfiguration { return configuration },
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)
	executionError := command.ExecuteContext(utils.NewCommandContextAccessor().WithFileSystem(context.Background(), fileSystem))
	if executionError != nil {
		return nil, executionError
	}
	records, parseError := csv.NewReader(outputBuffer).ReadAll()
	require.NoError(testInstance, parseError)
	return records, nil
}

func TestMigrateCommandCopiesTranslations(testInstance *testing.T) {
	fileSystem := newFixture(testInstance)

	records, executionError := executeMigrate(testInstance, fileSystem, l10n.CommandConfiguration{}, "bug_1703164_connection", "--l10n-root", testRootConstant, "--reference-dir", testReferenceConstant)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, [][]string{
		{"locale", "target", "key", "source_key", "status"},
		{"fr", testConnectionPathConstant, "connection-dialog-title", "connection-dialog-window2.title", "copied"},
	}, records)

	content, readError := afero.ReadFile(fileSystem, filepath.Join(testRootConstant, "fr", testConnectionPathConstant))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(content), "connection-dialog-title = Paramètres de connexion")

	records, executionError = executeMigrate(testInstance, fileSystem, l10n.CommandConfiguration{Root: testRootConstant, ReferenceDirectory: testReferenceConstant}, "bug_1703164_connection")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "exists", records[1][4])
}

func TestMigrateCommandDryRunLeavesFilesUntouched(testInstance *testing.T) {
	fileSystem := newFixture(testInstance)

	records, executionError := executeMigrate(testInstance, fileSystem, l10n.CommandConfiguration{Root: testRootConstant, DryRun: true})
	require.NoError(testInstance, executionError)
	require.Len(testInstance, records, 3)
	require.Equal(testInstance, []string{"fr", testConnectionPathConstant, "connection-dialog-title", "connection-dialog-window2.title", "copied"}, records[1])
	require.Equal(testInstance, []string{"fr", testLanguagesPathConstant, "messenger-languages-dialog-title", "messenger-languages-window2.title", "missing-source"}, records[2])

	content, readError := afero.ReadFile(fileSystem, filepath.Join(testRootConstant, "fr", testConnectionPathConstant))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, testConnectionContent, string(content))
}

func TestMigrateCommandErrors(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration l10n.CommandConfiguration
		arguments     []string
	}{
		{name: "missing_root"},
		{name: "absent_root", arguments: []string{"--l10n-root", "/absent"}},
		{name: "unknown_recipe", configuration: l10n.CommandConfiguration{Root: testRootConstant}, arguments: []string{"bug_0"}},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			_, executionError := executeMigrate(subtest, newFixture(subtest), testCase.configuration, testCase.arguments...)
			require.Error(subtest, executionError)
		})
	}
}

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	sanitized := l10n.CommandConfiguration{Root: " /l10n ", Recipes: []string{" ", "bug_1703164_connection "}}.Sanitize()
	require.Equal(testInstance, "/l10n", sanitized.Root)
	require.Equal(testInstance, []string{"bug_1703164_connection"}, sanitized.Recipes)
}
