package cascade

import (
	"errors"
	"fmt"
	"strings"
)

const (
	repositoryFieldNameConstant               = "repository"
	triggerReferenceFieldNameConstant         = "branch"
	requiredValueMessageConstant              = "value required"
	repositoryMismatchMessageTemplateConstant = "%s does not name a repository of %s"
	repositoryRequiredMessageConstant         = "repository is required"
	ownerRequiredMessageConstant              = "repository owner is required"
	githubClientMissingMessageConstant        = "GitHub client not configured"
	defaultBranchUnknownMessageConstant       = "repository default branch could not be determined"
	mergeConflictTemplateConstant             = "merge conflict from branch %s into %s"
	mergeConflictPullRequestTemplateConstant  = "merge conflict from branch %s into %s; opened pull request #%d %s"
	unexpectedMergeErrorTemplateConstant      = "unable to merge branch %s into %s: %v"
	pullRequestCreationErrorTemplateConstant  = "merge conflict from branch %s into %s and the pull request could not be opened: %v"
	invalidInputErrorTemplateConstant         = "%s: %s"
)

var (
	// ErrRepositoryRequired indicates the repo input was empty.
	ErrRepositoryRequired = errors.New(repositoryRequiredMessageConstant)
	// ErrOwnerRequired indicates the owner could not be determined.
	ErrOwnerRequired = errors.New(ownerRequiredMessageConstant)
	// ErrDefaultBranchUnknown indicates main branch auto detection returned nothing.
	ErrDefaultBranchUnknown = errors.New(defaultBranchUnknownMessageConstant)

	errGitHubClientMissing = errors.New(githubClientMissingMessageConstant)
)

// InvalidInputError describes option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// PullRequestReference is the minimal pull request identity carried by MergeConflictError.
type PullRequestReference struct {
	Number int
	URL    string
}

// MergeConflictError reports a conflicting merge for which a pull request was opened.
type MergeConflictError struct {
	Source      string
	Target      string
	PullRequest PullRequestReference
}

// Error names both branches and the pull request.
func (conflictError MergeConflictError) Error() string {
	if conflictError.PullRequest.Number == 0 {
		return fmt.Sprintf(mergeConflictTemplateConstant, conflictError.Source, conflictError.Target)
	}
	return strings.TrimSpace(fmt.Sprintf(mergeConflictPullRequestTemplateConstant, conflictError.Source, conflictError.Target, conflictError.PullRequest.Number, conflictError.PullRequest.URL))
}

// PullRequestCreationError reports a conflicting merge whose pull request could not be opened.
type PullRequestCreationError struct {
	Source string
	Target string
	Cause  error
}

// Error names both branches and the pull request failure.
func (creationError PullRequestCreationError) Error() string {
	return fmt.Sprintf(pullRequestCreationErrorTemplateConstant, creationError.Source, creationError.Target, creationError.Cause)
}

// Unwrap exposes the pull request failure.
func (creationError PullRequestCreationError) Unwrap() error {
	return creationError.Cause
}

// UnexpectedMergeError reports a merge failure other than a conflict.
type UnexpectedMergeError struct {
	Source string
	Target string
	Cause  error
}

// Error names both branches and the cause.
func (mergeError UnexpectedMergeError) Error() string {
	return fmt.Sprintf(unexpectedMergeErrorTemplateConstant, mergeError.Source, mergeError.Target, mergeError.Cause)
}

// Unwrap exposes the collaborator failure.
func (mergeError UnexpectedMergeError) Unwrap() error {
	return mergeError.Cause
}
