package migration_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/commgraph/internal/l10n/migration"
)

const testConnectionFluentContent = `# This Source Code Form is subject to the terms of the Mozilla Public
# License, v. 2.0.

connection-dialog-window2 =
    .title = Connection Settings
    .style =
        { PLATFORM() ->
            [macos] width: 44em
           *[other] width: 49em
        }

connection-proxy-legend = Configure Proxies to Access the Internet

connection-proxy-description =
    Choose how the application connects
    to the Internet.

-brand-short-name = Thunderbird
`

func TestParseResourceLookup(testInstance *testing.T) {
	resource := migration.ParseResource(testConnectionFluentContent)

	testCases := []struct {
		name            string
		key             string
		expectedPattern []string
		expectedFound   bool
	}{
		{name: "attribute", key: "connection-dialog-window2.title", expectedPattern: []string{"Connection Settings"}, expectedFound: true},
		{
			name: "multiline_attribute",
			key:  "connection-dialog-window2.style",
			expectedPattern: []string{
				"{ PLATFORM() ->",
				"    [macos] width: 44em",
				"   *[other] width: 49em",
				"}",
			},
			expectedFound: true,
		},
		{name: "inline_value", key: "connection-proxy-legend", expectedPattern: []string{"Configure Proxies to Access the Internet"}, expectedFound: true},
		{
			name:            "multiline_value",
			key:             "connection-proxy-description",
			expectedPattern: []string{"Choose how the application connects", "to the Internet."},
			expectedFound:   true,
		},
		{name: "term", key: "-brand-short-name", expectedPattern: []string{"Thunderbird"}, expectedFound: true},
		{name: "message_without_value", key: "connection-dialog-window2", expectedFound: false},
		{name: "missing_attribute", key: "connection-dialog-window2.label", expectedFound: false},
		{name: "missing_message", key: "connection-dialog-title", expectedFound: false},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			pattern, found := resource.Lookup(testCase.key)
			require.Equal(subtest, testCase.expectedFound, found)
			if testCase.expectedFound {
				require.Equal(subtest, testCase.expectedPattern, pattern)
			}
		})
	}
}

func TestMessageSerialize(testInstance *testing.T) {
	testCases := []struct {
		name     string
		message  migration.Message
		expected string
	}{
		{
			name:     "single_line",
			message:  migration.Message{ID: "connection-dialog-title", Pattern: []string{"Connection Settings"}},
			expected: "connection-dialog-title = Connection Settings",
		},
		{
			name:     "multiline",
			message:  migration.Message{ID: "proxy-description", Pattern: []string{"first", "second"}},
			expected: "proxy-description =\n    first\n    second",
		},
		{
			name: "attributes_only",
			message: migration.Message{
				ID: "proxy-dialog",
				Attributes: []migration.Attribute{
					{Name: "title", Pattern: []string{"Proxy"}},
					{Name: "style", Pattern: []string{"{ PLATFORM() ->", "   *[other] width: 49em", "}"}},
				},
			},
			expected: "proxy-dialog =\n    .title = Proxy\n    .style =\n        { PLATFORM() ->\n           *[other] width: 49em\n        }",
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expected, testCase.message.Serialize())
		})
	}
}
