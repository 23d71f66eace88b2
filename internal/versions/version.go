package versions

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	releaseBranchPatternConstant  = `^(.+)/(\d+)\.(\d+)\.(\d+)$`
	versionStringTemplateConstant = "%d.%d.%d"
	decimalBaseConstant           = 10
	componentBitSizeConstant      = 64
	expectedSubmatchCountConstant = 5
)

var releaseBranchPattern = regexp.MustCompile(releaseBranchPatternConstant)

// ReleaseVersion is the major.minor.patch triple carried by a release branch name.
type ReleaseVersion struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// Parse extracts the release version from a branch name shaped like <prefix>/<major>.<minor>.<patch>.
// The boolean is false when the name is not a release branch.
func Parse(branchName string) (ReleaseVersion, bool) {
	submatches := releaseBranchPattern.FindStringSubmatch(branchName)
	if len(submatches) != expectedSubmatchCountConstant {
		return ReleaseVersion{}, false
	}

	components := make([]uint64, 0, 3)
	for _, rawComponent := range submatches[2:] {
		component, parseError := strconv.ParseUint(rawComponent, decimalBaseConstant, componentBitSizeConstant)
		if parseError != nil {
			return ReleaseVersion{}, false
		}
		components = append(components, component)
	}

	return ReleaseVersion{Major: components[0], Minor: components[1], Patch: components[2]}, true
}

// Compare orders versions by major, then minor, then patch. It returns -1, 0 or 1.
func (version ReleaseVersion) Compare(other ReleaseVersion) int {
	switch {
	case version.Major != other.Major:
		return compareComponent(version.Major, other.Major)
	case version.Minor != other.Minor:
		return compareComponent(version.Minor, other.Minor)
	default:
		return compareComponent(version.Patch, other.Patch)
	}
}

// IsNewerThan reports whether version sorts strictly after other.
func (version ReleaseVersion) IsNewerThan(other ReleaseVersion) bool {
	return version.Compare(other) > 0
}

// String renders the version as major.minor.patch.
func (version ReleaseVersion) String() string {
	return fmt.Sprintf(versionStringTemplateConstant, version.Major, version.Minor, version.Patch)
}

func compareComponent(left uint64, right uint64) int {
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	default:
		return 0
	}
}
