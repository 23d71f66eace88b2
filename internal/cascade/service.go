package cascade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/cascade/internal/githubcli"
	"github.com/temirov/cascade/internal/versions"
)

const (
	mergeCommitMessageTemplateConstant        = "Automatic merge from branch %s into %s"
	pullRequestTitleTemplateConstant          = "Automatic merge failure from branch %s into %s"
	listReferencesErrorTemplateConstant       = "unable to list release branches: %w"
	resolveDefaultBranchErrorTemplateConstant = "unable to resolve default branch: %w"
	mergeRequestErrorTemplateConstant         = "unable to request merge of %s into %s: %w"
	unexpectedOutcomeTemplateConstant         = "unexpected merge outcome %q"
	pullRequestLookupLimitConstant            = 100
	repositoryLogFieldConstant                = "repository"
	triggerBranchLogFieldConstant             = "trigger_branch"
	triggerVersionLogFieldConstant            = "trigger_version"
	sourceBranchLogFieldConstant              = "source_branch"
	targetBranchLogFieldConstant              = "target_branch"
	chainLogFieldConstant                     = "merge_chain"
	outcomeLogFieldConstant                   = "outcome"
	commitLogFieldConstant                    = "commit_sha"
	statusCodeLogFieldConstant                = "status_code"
	pullRequestNumberLogFieldConstant         = "pull_request_number"
	pullRequestURLLogFieldConstant            = "pull_request_url"
	mainBranchLogFieldConstant                = "main_branch"
	notReleaseMessageConstant                 = "cascade merge not required"
	chainBuiltMessageConstant                 = "cascade merge chain built"
	plannedMergeMessageConstant               = "planned merge"
	mergeCompletedMessageConstant             = "merge completed"
	mergeConflictMessageConstant              = "merge conflict detected"
	mergeFailureToleratedMessageConstant      = "merge failed; continuing"
	pullRequestReusedMessageConstant          = "reusing open pull request"
	pullRequestOpenedMessageConstant          = "opened pull request"
	pullRequestLookupFailedMessageConstant    = "unable to look up open pull requests"
	defaultBranchResolvedMessageConstant      = "resolved default branch"
	cascadeCompletedMessageConstant           = "cascade merge completed"
)

// GitHubOperations captures the hosting operations the cascade depends on.
type GitHubOperations interface {
	ListMatchingRefs(executionContext context.Context, repository string, referencePrefix string, options githubcli.MatchingRefsOptions) ([]string, error)
	MergeBranches(executionContext context.Context, repository string, request githubcli.MergeRequest) (githubcli.MergeResult, error)
	CreatePullRequest(executionContext context.Context, repository string, request githubcli.PullRequestRequest) (githubcli.PullRequest, error)
	ListPullRequests(executionContext context.Context, repository string, options githubcli.PullRequestListOptions) ([]githubcli.PullRequest, error)
	ResolveRepoMetadata(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
}

// ServiceDependencies describes required collaborators for the cascade.
type ServiceDependencies struct {
	Logger       *zap.Logger
	GitHubClient GitHubOperations
}

// Service orchestrates the cascade merge.
type Service struct {
	logger       *zap.Logger
	gitHubClient GitHubOperations
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitHubClient == nil {
		return nil, errGitHubClientMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{logger: logger, gitHubClient: dependencies.GitHubClient}, nil
}

// Run performs the cascade for options.TriggerReference. A trigger that is not a release branch yields a
// skipped result and no error. The returned result reflects the progress made even when an error is returned.
func (service *Service) Run(executionContext context.Context, options Options) (Result, error) {
	if validationError := validateOptions(options); validationError != nil {
		return Result{}, validationError
	}
	options = applyDefaults(options)

	repository := options.Repository.FullName()
	triggerBranch := NormalizeBranchName(options.TriggerReference)
	result := Result{Repository: options.Repository, TriggerBranch: triggerBranch, DryRun: options.DryRun}

	triggerVersion, isRelease := versions.Parse(triggerBranch)
	if !isRelease {
		service.logger.Info(notReleaseMessageConstant, zap.String(triggerBranchLogFieldConstant, triggerBranch))
		result.Skipped = true
		return result, nil
	}
	result.TriggerVersion = triggerVersion

	mainBranch, mainBranchError := service.resolveMainBranch(executionContext, repository, options.MainBranch)
	if mainBranchError != nil {
		return result, mainBranchError
	}

	references, listError := service.gitHubClient.ListMatchingRefs(executionContext, repository, options.ReleaseReferencePrefix, githubcli.MatchingRefsOptions{
		PageSize: options.PageSize,
		Paginate: options.Paginate,
	})
	if listError != nil {
		return result, fmt.Errorf(listReferencesErrorTemplateConstant, listError)
	}

	result.Chain = BuildMergeChain(triggerVersion, references, mainBranch)
	service.logger.Info(
		chainBuiltMessageConstant,
		zap.String(repositoryLogFieldConstant, repository),
		zap.String(triggerBranchLogFieldConstant, triggerBranch),
		zap.Stringer(triggerVersionLogFieldConstant, triggerVersion),
		zap.Strings(chainLogFieldConstant, result.Chain),
	)

	currentSource := triggerBranch
	for _, target := range result.Chain {
		if options.DryRun {
			service.logger.Info(plannedMergeMessageConstant, zap.String(sourceBranchLogFieldConstant, currentSource), zap.String(targetBranchLogFieldConstant, target))
			result.Steps = append(result.Steps, MergeStep{Source: currentSource, Target: target, Outcome: StepOutcomePlanned})
			currentSource = target
			continue
		}

		step, stepError := service.mergeStep(executionContext, repository, currentSource, target, options, &result)
		result.Steps = append(result.Steps, step)
		if stepError != nil {
			return result, stepError
		}
		currentSource = target
	}

	service.logger.Info(cascadeCompletedMessageConstant, zap.String(repositoryLogFieldConstant, repository), zap.String(triggerBranchLogFieldConstant, triggerBranch))
	return result, nil
}

func (service *Service) mergeStep(executionContext context.Context, repository string, source string, target string, options Options, result *Result) (MergeStep, error) {
	step := MergeStep{Source: source, Target: target}

	mergeResult, requestError := service.gitHubClient.MergeBranches(executionContext, repository, githubcli.MergeRequest{
		Base:          target,
		Head:          source,
		CommitMessage: fmt.Sprintf(mergeCommitMessageTemplateConstant, source, target),
	})
	if requestError != nil {
		step.Outcome = StepOutcomeFailed
		step.Cause = requestError
		return step, fmt.Errorf(mergeRequestErrorTemplateConstant, source, target, requestError)
	}

	step.Cause = mergeResult.Cause
	step.CommitSHA = mergeResult.CommitSHA

	switch mergeResult.Outcome {
	case githubcli.MergeOutcomeMerged, githubcli.MergeOutcomeUpToDate:
		step.Outcome = StepOutcome(mergeResult.Outcome)
		service.logger.Info(
			mergeCompletedMessageConstant,
			zap.String(sourceBranchLogFieldConstant, source),
			zap.String(targetBranchLogFieldConstant, target),
			zap.String(outcomeLogFieldConstant, string(mergeResult.Outcome)),
			zap.String(commitLogFieldConstant, mergeResult.CommitSHA),
		)
		return step, nil
	case githubcli.MergeOutcomeConflict:
		step.Outcome = StepOutcomeConflict
		service.logger.Warn(mergeConflictMessageConstant, zap.String(sourceBranchLogFieldConstant, source), zap.String(targetBranchLogFieldConstant, target))
		return step, service.openConflictPullRequest(executionContext, repository, source, target, result)
	default:
		step.Outcome = StepOutcomeFailed
		if step.Cause == nil {
			step.Cause = fmt.Errorf(unexpectedOutcomeTemplateConstant, mergeResult.Outcome)
		}
		if contextError := executionContext.Err(); contextError != nil {
			return step, UnexpectedMergeError{Source: source, Target: target, Cause: errors.Join(step.Cause, contextError)}
		}
		if options.TolerateMergeErrors {
			service.logger.Warn(
				mergeFailureToleratedMessageConstant,
				zap.String(sourceBranchLogFieldConstant, source),
				zap.String(targetBranchLogFieldConstant, target),
				zap.Int(statusCodeLogFieldConstant, mergeResult.StatusCode),
				zap.Error(step.Cause),
			)
			return step, nil
		}
		return step, UnexpectedMergeError{Source: source, Target: target, Cause: step.Cause}
	}
}

func (service *Service) openConflictPullRequest(executionContext context.Context, repository string, source string, target string, result *Result) error {
	existing, found := service.findOpenPullRequest(executionContext, repository, result.Repository.Owner, source, target)
	if found {
		service.logger.Info(
			pullRequestReusedMessageConstant,
			zap.Int(pullRequestNumberLogFieldConstant, existing.Number),
			zap.String(pullRequestURLLogFieldConstant, existing.URL),
		)
		result.PullRequest = &existing
		result.PullRequestReused = true
		return MergeConflictError{Source: source, Target: target, PullRequest: PullRequestReference{Number: existing.Number, URL: existing.URL}}
	}

	message := fmt.Sprintf(pullRequestTitleTemplateConstant, source, target)
	pullRequest, creationError := service.gitHubClient.CreatePullRequest(executionContext, repository, githubcli.PullRequestRequest{
		Title: message,
		Body:  message,
		Head:  source,
		Base:  target,
	})
	if creationError != nil {
		return PullRequestCreationError{Source: source, Target: target, Cause: creationError}
	}

	service.logger.Info(
		pullRequestOpenedMessageConstant,
		zap.Int(pullRequestNumberLogFieldConstant, pullRequest.Number),
		zap.String(pullRequestURLLogFieldConstant, pullRequest.URL),
	)
	result.PullRequest = &pullRequest
	return MergeConflictError{Source: source, Target: target, PullRequest: PullRequestReference{Number: pullRequest.Number, URL: pullRequest.URL}}
}

// findOpenPullRequest looks for an open pull request of source into target left by an earlier run.
// Only heads owned by the repository owner qualify, so a fork branch with the same name is ignored.
// Lookup failures are logged and treated as not found.
func (service *Service) findOpenPullRequest(executionContext context.Context, repository string, owner string, source string, target string) (githubcli.PullRequest, bool) {
	pullRequests, listError := service.gitHubClient.ListPullRequests(executionContext, repository, githubcli.PullRequestListOptions{
		State:       githubcli.PullRequestStateOpen,
		BaseBranch:  target,
		ResultLimit: pullRequestLookupLimitConstant,
	})
	if listError != nil {
		service.logger.Warn(pullRequestLookupFailedMessageConstant, zap.String(targetBranchLogFieldConstant, target), zap.Error(listError))
		return githubcli.PullRequest{}, false
	}
	for _, pullRequest := range pullRequests {
		if pullRequest.HeadRefName == source && strings.EqualFold(pullRequest.HeadRepositoryOwner, owner) {
			return pullRequest, true
		}
	}
	return githubcli.PullRequest{}, false
}

func (service *Service) resolveMainBranch(executionContext context.Context, repository string, configuredBranch string) (string, error) {
	if !strings.EqualFold(configuredBranch, AutomaticMainBranch) {
		return configuredBranch, nil
	}

	metadata, metadataError := service.gitHubClient.ResolveRepoMetadata(executionContext, repository)
	if metadataError != nil {
		return "", fmt.Errorf(resolveDefaultBranchErrorTemplateConstant, metadataError)
	}
	defaultBranch := strings.TrimSpace(metadata.DefaultBranch)
	if len(defaultBranch) == 0 {
		return "", ErrDefaultBranchUnknown
	}
	service.logger.Info(defaultBranchResolvedMessageConstant, zap.String(mainBranchLogFieldConstant, defaultBranch))
	return defaultBranch, nil
}

func validateOptions(options Options) error {
	if len(strings.TrimSpace(options.Repository.Owner)) == 0 {
		return ErrOwnerRequired
	}
	if len(strings.TrimSpace(options.Repository.Name)) == 0 {
		return ErrRepositoryRequired
	}
	if len(strings.TrimSpace(options.TriggerReference)) == 0 {
		return InvalidInputError{FieldName: triggerReferenceFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

func applyDefaults(options Options) Options {
	options.MainBranch = strings.TrimSpace(options.MainBranch)
	if len(options.MainBranch) == 0 {
		options.MainBranch = DefaultMainBranch
	}
	options.ReleaseReferencePrefix = strings.TrimSpace(options.ReleaseReferencePrefix)
	if len(options.ReleaseReferencePrefix) == 0 {
		options.ReleaseReferencePrefix = DefaultReleaseReferencePrefix
	}
	if options.PageSize <= 0 {
		options.PageSize = DefaultPageSize
	}
	return options
}

// IsMergeConflict reports whether err stems from a conflicting merge.
func IsMergeConflict(err error) bool {
	var conflictError MergeConflictError
	var creationError PullRequestCreationError
	return errors.As(err, &conflictError) || errors.As(err, &creationError)
}
