package cascade

import (
	"slices"
	"strings"

	"github.com/temirov/cascade/internal/versions"
)

const (
	referencesSegmentConstant = "refs/"
	headsSegmentConstant      = "heads/"
)

// NormalizeBranchName strips the first "refs/" and then the first "heads/" from a reference.
func NormalizeBranchName(reference string) string {
	normalized := strings.Replace(strings.TrimSpace(reference), referencesSegmentConstant, "", 1)
	return strings.Replace(normalized, headsSegmentConstant, "", 1)
}

type releaseCandidate struct {
	branch  string
	version versions.ReleaseVersion
}

// BuildMergeChain returns the candidates newer than trigger in ascending version order followed by mainBranch.
// Candidates may be full references; they are normalized to branch names. Names that are not release
// branches are ignored and equal versions keep their listing order.
func BuildMergeChain(trigger versions.ReleaseVersion, candidateReferences []string, mainBranch string) []string {
	candidates := make([]releaseCandidate, 0, len(candidateReferences))
	for _, reference := range candidateReferences {
		branch := NormalizeBranchName(reference)
		version, isRelease := versions.Parse(branch)
		if !isRelease || !version.IsNewerThan(trigger) {
			continue
		}
		candidates = append(candidates, releaseCandidate{branch: branch, version: version})
	}

	slices.SortStableFunc(candidates, func(left releaseCandidate, right releaseCandidate) int {
		return left.version.Compare(right.version)
	})

	chain := make([]string, 0, len(candidates)+1)
	for _, candidate := range candidates {
		chain = append(chain, candidate.branch)
	}
	return append(chain, mainBranch)
}
