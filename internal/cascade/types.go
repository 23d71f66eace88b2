package cascade

import (
	"fmt"
	"strings"

	"github.com/temirov/cascade/internal/githubcli"
	"github.com/temirov/cascade/internal/versions"
)

const (
	// DefaultMainBranch is the final target of every chain unless configured otherwise.
	DefaultMainBranch = "master"
	// AutomaticMainBranch asks the service to resolve the repository default branch.
	AutomaticMainBranch = "auto"
	// DefaultReleaseReferencePrefix selects the references listed as candidates.
	DefaultReleaseReferencePrefix = "heads/release"
	// DefaultPageSize is the number of references requested per page.
	DefaultPageSize = 100

	repositoryFullNameTemplateConstant = "%s/%s"
)

// StepOutcome records what happened to a single merge in the chain.
type StepOutcome string

// Step outcome enumerations.
const (
	StepOutcomePlanned  StepOutcome = StepOutcome("planned")
	StepOutcomeMerged   StepOutcome = StepOutcome(githubcli.MergeOutcomeMerged)
	StepOutcomeUpToDate StepOutcome = StepOutcome(githubcli.MergeOutcomeUpToDate)
	StepOutcomeConflict StepOutcome = StepOutcome(githubcli.MergeOutcomeConflict)
	StepOutcomeFailed   StepOutcome = StepOutcome(githubcli.MergeOutcomeFailed)
)

// RepositoryReference identifies the hosted repository.
type RepositoryReference struct {
	Owner string
	Name  string
}

// FullName returns owner/name.
func (reference RepositoryReference) FullName() string {
	return fmt.Sprintf(repositoryFullNameTemplateConstant, reference.Owner, reference.Name)
}

// ResolveRepository derives the repository from the repo input, which may be "name" or "owner/name".
// An empty owner is taken from the repo input.
func ResolveRepository(repositoryInput string, ownerInput string) (RepositoryReference, error) {
	trimmedRepository := strings.TrimSpace(repositoryInput)
	if len(trimmedRepository) == 0 {
		return RepositoryReference{}, ErrRepositoryRequired
	}

	owner := strings.TrimSpace(ownerInput)
	if len(owner) == 0 {
		separatorIndex := strings.Index(trimmedRepository, "/")
		if separatorIndex > 0 {
			owner = trimmedRepository[:separatorIndex]
		}
	}
	if len(owner) == 0 {
		return RepositoryReference{}, ErrOwnerRequired
	}

	name := strings.TrimPrefix(trimmedRepository, owner+"/")
	if len(name) == 0 || strings.Contains(name, "/") {
		return RepositoryReference{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: fmt.Sprintf(repositoryMismatchMessageTemplateConstant, trimmedRepository, owner)}
	}

	return RepositoryReference{Owner: owner, Name: name}, nil
}

// Options configures a cascade run.
type Options struct {
	Repository             RepositoryReference
	TriggerReference       string
	MainBranch             string
	ReleaseReferencePrefix string
	PageSize               int
	Paginate               bool
	DryRun                 bool
	TolerateMergeErrors    bool
}

// MergeStep describes one attempted or planned merge.
type MergeStep struct {
	Source    string
	Target    string
	Outcome   StepOutcome
	CommitSHA string
	Cause     error
}

// Result captures the observable outcome of a run. It is populated as far as the run progressed,
// including when Run returns an error.
type Result struct {
	Repository        RepositoryReference
	TriggerBranch     string
	TriggerVersion    versions.ReleaseVersion
	Skipped           bool
	DryRun            bool
	Chain             []string
	Steps             []MergeStep
	PullRequest       *githubcli.PullRequest
	PullRequestReused bool
}
