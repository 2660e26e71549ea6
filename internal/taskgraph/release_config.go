package taskgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	partialVersionsSeparatorConstant   = ","
	partialVersionBuildMarkerConstant  = "build"
	partialVersionTemplateConstant     = "%sbuild%d"
	releaseConfigErrorTemplateConstant = "unable to build release config: %w"
)

var partialUpdateKinds = map[string]struct{}{
	"release-bouncer-sub":                      {},
	"release-bouncer-check":                    {},
	"release-update-verify-config":             {},
	"release-secondary-update-verify-config":   {},
	"release-balrog-submit-toplevel":           {},
	"release-secondary-balrog-submit-toplevel": {},
}

// PartialUpdate describes one previous release offered as a partial update source.
type PartialUpdate struct {
	BuildNumber int `mapstructure:"buildNumber"`
}

// ReleaseConfig is the release snapshot consumed by release transforms.
type ReleaseConfig struct {
	Version         string
	AppVersion      string
	NextVersion     string
	BuildNumber     int
	PartialVersions string
}

type releaseParameters struct {
	Version        string                   `mapstructure:"version"`
	AppVersion     string                   `mapstructure:"app_version"`
	NextVersion    string                   `mapstructure:"next_version"`
	BuildNumber    int                      `mapstructure:"build_number"`
	PartialUpdates map[string]PartialUpdate `mapstructure:"partial_updates"`
}

// GetReleaseConfig derives the release snapshot from the transform parameters.
func GetReleaseConfig(config TransformConfig) (ReleaseConfig, error) {
	var decoded releaseParameters
	if decodeError := config.Params.Decode(&decoded); decodeError != nil {
		return ReleaseConfig{}, fmt.Errorf(releaseConfigErrorTemplateConstant, decodeError)
	}

	releaseConfig := ReleaseConfig{
		Version:     decoded.Version,
		AppVersion:  decoded.AppVersion,
		NextVersion: decoded.NextVersion,
		BuildNumber: decoded.BuildNumber,
	}

	if _, usesPartials := partialUpdateKinds[config.Kind]; usesPartials && len(decoded.PartialUpdates) > 0 {
		releaseConfig.PartialVersions = FormatPartialVersions(decoded.PartialUpdates)
	}

	return releaseConfig, nil
}

// FormatPartialVersions renders partial updates as "<version>build<N>" entries ordered by version.
func FormatPartialVersions(partialUpdates map[string]PartialUpdate) string {
	versions := make([]string, 0, len(partialUpdates))
	for version := range partialUpdates {
		versions = append(versions, version)
	}
	sort.SliceStable(versions, func(leftIndex int, rightIndex int) bool {
		return versionLess(versions[leftIndex], versions[rightIndex])
	})

	entries := make([]string, 0, len(versions))
	for _, version := range versions {
		entries = append(entries, fmt.Sprintf(partialVersionTemplateConstant, version, partialUpdates[version].BuildNumber))
	}
	return strings.Join(entries, partialVersionsSeparatorConstant)
}

// PartialVersionList splits a partial_versions value and strips each build suffix.
func PartialVersionList(partialVersions string) []string {
	if len(strings.TrimSpace(partialVersions)) == 0 {
		return nil
	}
	parts := strings.Split(partialVersions, partialVersionsSeparatorConstant)
	versions := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if len(trimmed) == 0 {
			continue
		}
		version, _, _ := strings.Cut(trimmed, partialVersionBuildMarkerConstant)
		versions = append(versions, version)
	}
	return versions
}

func versionLess(left string, right string) bool {
	leftVersion, leftError := semver.NewVersion(left)
	rightVersion, rightError := semver.NewVersion(right)
	if leftError != nil || rightError != nil {
		return left < right
	}
	if leftVersion.Equal(rightVersion) {
		return left < right
	}
	return leftVersion.LessThan(rightVersion)
}
