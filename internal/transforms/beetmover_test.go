package transforms_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/commgraph/internal/taskgraph"
	"github.com/temirov/commgraph/internal/transforms"
)

func TestBeetmoverAddLangpack(testInstance *testing.T) {
	existingArtifact := map[string]any{
		"taskId":   map[string]any{"task-reference": "<repackage>"},
		"taskType": "repackage",
		"paths":    []any{"public/build/fr/target.tar.bz2"},
		"locale":   "fr",
	}

	testCases := []struct {
		name              string
		task              taskgraph.Task
		expectedArtifacts []any
	}{
		{
			name: "locale_attribute",
			task: taskgraph.Task{
				"name":       "beetmover-fr",
				"attributes": map[string]any{"locale": "fr"},
				"task": map[string]any{
					"payload": map[string]any{"upstreamArtifacts": []any{existingArtifact}},
				},
			},
			expectedArtifacts: []any{
				existingArtifact,
				map[string]any{
					"locale":   "fr",
					"paths":    []any{"public/build/fr/target.langpack.xpi"},
					"taskId":   map[string]any{"task-reference": "<build>"},
					"taskType": "build",
				},
			},
		},
		{
			name: "default_locale_without_payload",
			task: taskgraph.Task{"name": "beetmover-linux64", "attributes": map[string]any{}},
			expectedArtifacts: []any{
				map[string]any{
					"locale":   "en-US",
					"paths":    []any{"public/build/target.langpack.xpi"},
					"taskId":   map[string]any{"task-reference": "<build>"},
					"taskType": "build",
				},
			},
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			transformed := applyTransform(subtest, transforms.BeetmoverAddLangpack, taskgraph.TransformConfig{}, testCase.task)
			require.Len(subtest, transformed, 1)

			payload, hasPayload := transformed[0].Mapping("task.payload")
			require.True(subtest, hasPayload)
			require.Equal(subtest, testCase.expectedArtifacts, payload["upstreamArtifacts"])
		})
	}
}

func TestBeetmoverAddLangpackRejectsMalformedPayload(testInstance *testing.T) {
	task := taskgraph.Task{"name": "beetmover-de", "task": map[string]any{"payload": "signed"}}
	_, collectError := taskgraph.Collect(transforms.BeetmoverAddLangpack(taskgraph.TransformConfig{}, taskgraph.FromSlice([]taskgraph.Task{task})))
	require.Error(testInstance, collectError)
}
