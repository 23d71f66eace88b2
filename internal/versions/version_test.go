package versions_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/cascade/internal/versions"
)

func TestParseRecognizesReleaseBranches(testInstance *testing.T) {
	testCases := []struct {
		branchName      string
		expectedVersion versions.ReleaseVersion
	}{
		{branchName: "release/1.2.3", expectedVersion: versions.ReleaseVersion{Major: 1, Minor: 2, Patch: 3}},
		{branchName: "release/0.0.0", expectedVersion: versions.ReleaseVersion{}},
		{branchName: "release/10.20.30", expectedVersion: versions.ReleaseVersion{Major: 10, Minor: 20, Patch: 30}},
		{branchName: "hotfix/release/2.0.007", expectedVersion: versions.ReleaseVersion{Major: 2, Patch: 7}},
		{branchName: "refs/heads/release/4.5.6", expectedVersion: versions.ReleaseVersion{Major: 4, Minor: 5, Patch: 6}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.branchName, func(testInstance *testing.T) {
			version, isRelease := versions.Parse(testCase.branchName)
			require.True(testInstance, isRelease)
			require.Equal(testInstance, testCase.expectedVersion, version)
		})
	}
}

func TestParseRoundTripsGeneratedNames(testInstance *testing.T) {
	for major := uint64(0); major < 3; major++ {
		for minor := uint64(0); minor < 12; minor += 5 {
			for patch := uint64(0); patch < 101; patch += 50 {
				branchName := fmt.Sprintf("release/%d.%d.%d", major, minor, patch)
				version, isRelease := versions.Parse(branchName)
				require.True(testInstance, isRelease, branchName)
				require.Equal(testInstance, versions.ReleaseVersion{Major: major, Minor: minor, Patch: patch}, version)
			}
		}
	}
}

func TestParseRejectsNonReleaseBranches(testInstance *testing.T) {
	testCases := []string{
		"",
		"master",
		"1.2.3",
		"/1.2.3",
		"release/1.2",
		"release/1.2.3.4",
		"release/1.2.3-rc1",
		"release/v1.2.3",
		"release/1.x.3",
		"release/1.2.3/",
		"release/-1.2.3",
		"release/99999999999999999999.0.0",
	}

	for _, branchName := range testCases {
		testInstance.Run(fmt.Sprintf("%q", branchName), func(testInstance *testing.T) {
			_, isRelease := versions.Parse(branchName)
			require.False(testInstance, isRelease)
		})
	}
}

func TestCompareOrdersLexicographically(testInstance *testing.T) {
	testCases := []struct {
		name     string
		left     versions.ReleaseVersion
		right    versions.ReleaseVersion
		expected int
	}{
		{name: "equal", left: versions.ReleaseVersion{Major: 1, Minor: 2, Patch: 3}, right: versions.ReleaseVersion{Major: 1, Minor: 2, Patch: 3}, expected: 0},
		{name: "patch_greater", left: versions.ReleaseVersion{Major: 1, Minor: 2, Patch: 4}, right: versions.ReleaseVersion{Major: 1, Minor: 2, Patch: 3}, expected: 1},
		{name: "minor_greater_patch_lower", left: versions.ReleaseVersion{Major: 1, Minor: 3}, right: versions.ReleaseVersion{Major: 1, Minor: 2, Patch: 9}, expected: 1},
		{name: "minor_lower_patch_greater", left: versions.ReleaseVersion{Major: 1, Minor: 1, Patch: 9}, right: versions.ReleaseVersion{Major: 1, Minor: 2, Patch: 3}, expected: -1},
		{name: "major_greater", left: versions.ReleaseVersion{Major: 2}, right: versions.ReleaseVersion{Major: 1, Minor: 99, Patch: 99}, expected: 1},
		{name: "major_lower", left: versions.ReleaseVersion{Major: 0, Minor: 99}, right: versions.ReleaseVersion{Major: 1}, expected: -1},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, testCase.left.Compare(testCase.right))
			require.Equal(testInstance, -testCase.expected, testCase.right.Compare(testCase.left))
			require.Equal(testInstance, testCase.expected > 0, testCase.left.IsNewerThan(testCase.right))
		})
	}
}

func TestReleaseVersionString(testInstance *testing.T) {
	require.Equal(testInstance, "1.2.3", versions.ReleaseVersion{Major: 1, Minor: 2, Patch: 3}.String())
}
