package migration_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/commgraph/internal/l10n/migration"
)

const (
	testConnectionResourceConstant = "mail/messenger/preferences/connection.ftl"
)

func TestTransformsFrom(testInstance *testing.T) {
	substitutions := map[string]string{"from_path": testConnectionResourceConstant}

	testCases := []struct {
		name          string
		template      string
		expectedRules []migration.Rule
	}{
		{
			name:     "double_braces",
			template: "\nconnection-dialog-title = {{COPY_PATTERN(from_path, \"connection-dialog-window2.title\")}}\n",
			expectedRules: []migration.Rule{
				{TargetKey: "connection-dialog-title", SourcePath: testConnectionResourceConstant, SourceKey: "connection-dialog-window2.title"},
			},
		},
		{
			name:     "single_braces_with_spacing",
			template: "connection-dialog-title = { COPY_PATTERN( from_path , \"connection-dialog-window2.title\" ) }",
			expectedRules: []migration.Rule{
				{TargetKey: "connection-dialog-title", SourcePath: testConnectionResourceConstant, SourceKey: "connection-dialog-window2.title"},
			},
		},
		{
			name: "quoted_path_and_attribute_target",
			template: `
proxy-dialog.title = { COPY_PATTERN("mail/messenger/proxy.ftl", "proxy-window.title") }
proxy-dialog-label = { COPY_PATTERN(from_path, "proxy-label") }
`,
			expectedRules: []migration.Rule{
				{TargetKey: "proxy-dialog.title", SourcePath: "mail/messenger/proxy.ftl", SourceKey: "proxy-window.title"},
				{TargetKey: "proxy-dialog-label", SourcePath: testConnectionResourceConstant, SourceKey: "proxy-label"},
			},
		},
		{
			name:          "blank_template",
			template:      "\n   \n",
			expectedRules: []migration.Rule{},
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			rules, parseError := migration.TransformsFrom(testCase.template, substitutions)
			require.NoError(subtest, parseError)
			require.Equal(subtest, testCase.expectedRules, rules)
		})
	}
}

func TestTransformsFromRejectsMalformedTemplates(testInstance *testing.T) {
	testCases := []struct {
		name         string
		template     string
		expectedLine int
	}{
		{name: "unknown_placeholder", template: `title = { COPY_PATTERN(to_path, "title") }`, expectedLine: 1},
		{name: "missing_separator", template: "\ntitle { COPY_PATTERN(from_path, \"title\") }", expectedLine: 2},
		{name: "unbalanced_braces", template: `title = {{ COPY_PATTERN(from_path, "title") }`, expectedLine: 1},
		{name: "unsupported_expression", template: `title = { COPY(from_path, "title") }`, expectedLine: 1},
		{name: "invalid_target_key", template: `1title = { COPY_PATTERN(from_path, "title") }`, expectedLine: 1},
		{name: "empty_quoted_path", template: `title = { COPY_PATTERN("", "title") }`, expectedLine: 1},
		{
			name:         "duplicate_target",
			template:     "title = { COPY_PATTERN(from_path, \"a\") }\ntitle = { COPY_PATTERN(from_path, \"b\") }",
			expectedLine: 2,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			_, parseError := migration.TransformsFrom(testCase.template, map[string]string{"from_path": testConnectionResourceConstant})
			var templateError migration.TemplateError
			require.ErrorAs(subtest, parseError, &templateError)
			require.Equal(subtest, testCase.expectedLine, templateError.Line)
		})
	}
}

func TestContextAddTransformsIsIdempotent(testInstance *testing.T) {
	rules, parseError := migration.TransformsFrom(
		`connection-dialog-title = {{COPY_PATTERN(from_path, "connection-dialog-window2.title")}}`,
		map[string]string{"from_path": testConnectionResourceConstant},
	)
	require.NoError(testInstance, parseError)

	migrationContext := migration.NewContext()
	require.NoError(testInstance, migrationContext.AddTransforms(testConnectionResourceConstant, testConnectionResourceConstant, rules))
	require.NoError(testInstance, migrationContext.AddTransforms(testConnectionResourceConstant, testConnectionResourceConstant, rules))

	registrations := migrationContext.Registrations()
	require.Len(testInstance, registrations, 1)
	require.Equal(testInstance, rules, registrations[0].Rules)

	require.Error(testInstance, migrationContext.AddTransforms(" ", testConnectionResourceConstant, rules))
	require.Error(testInstance, migrationContext.AddTransforms(testConnectionResourceConstant, "", rules))
}
