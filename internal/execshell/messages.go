package execshell

import (
	"encoding/json"
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	fallbackUnknownValueLabelConstant       = "unknown"
	endpointPathSeparatorConstant           = "/"
	endpointQuerySeparatorConstant          = "?"
	endpointRepositoryPrefixConstant        = "repos/"
)

const (
	githubRepoSubcommandNameConstant     = "repo"
	githubRepoViewSubcommandNameConstant = "view"
	githubAPICommandNameConstant         = "api"
	githubMethodFlagConstant             = "-X"
	githubPostMethodConstant             = "POST"
	githubMatchingRefsSegmentConstant    = "/git/matching-refs/"
	githubMergesSuffixConstant           = "/merges"
	githubPullsSuffixConstant            = "/pulls"
)

const (
	githubRepoViewStartTemplateConstant                = "Retrieving repository details for %s"
	githubRepoViewSuccessTemplateConstant              = "Retrieved repository details for %s"
	githubRepoViewFailureTemplateConstant              = "Failed to retrieve repository details for %s (exit code %d%s)"
	githubRepoViewExecutionFailureTemplateConstant     = "Unable to retrieve repository details for %s: %s"
	githubMatchingRefsStartTemplateConstant            = "Listing %s references in %s"
	githubMatchingRefsSuccessTemplateConstant          = "Listed %s references in %s"
	githubMatchingRefsFailureTemplateConstant          = "Failed to list %s references in %s (exit code %d%s)"
	githubMatchingRefsExecutionFailureTemplateConstant = "Unable to list %s references in %s: %s"
	githubMergeStartTemplateConstant                   = "Merging %s into %s in %s"
	githubMergeSuccessTemplateConstant                 = "Merged %s into %s in %s"
	githubMergeFailureTemplateConstant                 = "Failed to merge %s into %s in %s (exit code %d%s)"
	githubMergeExecutionFailureTemplateConstant        = "Unable to merge %s into %s in %s: %s"
	githubPullRequestStartTemplateConstant             = "Opening pull request from %s into %s in %s"
	githubPullRequestSuccessTemplateConstant           = "Opened pull request from %s into %s in %s"
	githubPullRequestFailureTemplateConstant           = "Failed to open pull request from %s into %s in %s (exit code %d%s)"
	githubPullRequestExecutionFailureTemplateConstant  = "Unable to open pull request from %s into %s in %s: %s"
)

// CommandMessageFormatter builds human-readable lifecycle messages for shell commands.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage describes a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage describes a command that could not be executed.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGitHub || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(command.Details.Arguments[0]) {
	case githubRepoSubcommandNameConstant:
		return formatter.describeGitHubRepoCommand(command, result, failure, stage)
	case githubAPICommandNameConstant:
		return formatter.describeGitHubAPICommand(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitHubRepoCommand(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 3 || strings.TrimSpace(arguments[1]) != githubRepoViewSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	repository := formatter.ensureValue(arguments[2])

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(githubRepoViewStartTemplateConstant, repository)
	case messageStageSuccess:
		return fmt.Sprintf(githubRepoViewSuccessTemplateConstant, repository)
	case messageStageFailure:
		return fmt.Sprintf(githubRepoViewFailureTemplateConstant, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(githubRepoViewExecutionFailureTemplateConstant, repository, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitHubAPICommand(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 2 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	endpoint := strings.TrimSpace(arguments[1])
	if queryIndex := strings.Index(endpoint, endpointQuerySeparatorConstant); queryIndex >= 0 {
		endpoint = endpoint[:queryIndex]
	}
	method := strings.TrimSpace(findFlagValue(arguments, githubMethodFlagConstant))

	switch {
	case strings.Contains(endpoint, githubMatchingRefsSegmentConstant):
		segmentIndex := strings.Index(endpoint, githubMatchingRefsSegmentConstant)
		repository := formatter.extractRepositoryFromEndpoint(endpoint[:segmentIndex])
		prefix := formatter.ensureValue(endpoint[segmentIndex+len(githubMatchingRefsSegmentConstant):])
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(githubMatchingRefsStartTemplateConstant, prefix, repository)
		case messageStageSuccess:
			return fmt.Sprintf(githubMatchingRefsSuccessTemplateConstant, prefix, repository)
		case messageStageFailure:
			return fmt.Sprintf(githubMatchingRefsFailureTemplateConstant, prefix, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(githubMatchingRefsExecutionFailureTemplateConstant, prefix, repository, formatter.describeFailure(failure))
		}
	case method == githubPostMethodConstant && strings.HasSuffix(endpoint, githubMergesSuffixConstant):
		repository := formatter.extractRepositoryFromEndpoint(strings.TrimSuffix(endpoint, githubMergesSuffixConstant))
		head, base := formatter.extractHeadAndBase(command.Details.StandardInput)
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(githubMergeStartTemplateConstant, head, base, repository)
		case messageStageSuccess:
			return fmt.Sprintf(githubMergeSuccessTemplateConstant, head, base, repository)
		case messageStageFailure:
			return fmt.Sprintf(githubMergeFailureTemplateConstant, head, base, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(githubMergeExecutionFailureTemplateConstant, head, base, repository, formatter.describeFailure(failure))
		}
	case method == githubPostMethodConstant && strings.HasSuffix(endpoint, githubPullsSuffixConstant):
		repository := formatter.extractRepositoryFromEndpoint(strings.TrimSuffix(endpoint, githubPullsSuffixConstant))
		head, base := formatter.extractHeadAndBase(command.Details.StandardInput)
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(githubPullRequestStartTemplateConstant, head, base, repository)
		case messageStageSuccess:
			return fmt.Sprintf(githubPullRequestSuccessTemplateConstant, head, base, repository)
		case messageStageFailure:
			return fmt.Sprintf(githubPullRequestFailureTemplateConstant, head, base, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(githubPullRequestExecutionFailureTemplateConstant, head, base, repository, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmedValue
}

// extractRepositoryFromEndpoint turns "repos/owner/name" into "owner/name".
func (formatter CommandMessageFormatter) extractRepositoryFromEndpoint(endpointPrefix string) string {
	trimmedPrefix := strings.Trim(strings.TrimSpace(endpointPrefix), endpointPathSeparatorConstant)
	return formatter.ensureValue(strings.TrimPrefix(trimmedPrefix, endpointRepositoryPrefixConstant))
}

func (formatter CommandMessageFormatter) extractHeadAndBase(payload []byte) (string, string) {
	var references struct {
		Head string `json:"head"`
		Base string `json:"base"`
	}
	if len(payload) == 0 {
		return formatter.ensureValue(emptyStringConstant), formatter.ensureValue(emptyStringConstant)
	}
	if decodingError := json.Unmarshal(payload, &references); decodingError != nil {
		return formatter.ensureValue(emptyStringConstant), formatter.ensureValue(emptyStringConstant)
	}
	return formatter.ensureValue(references.Head), formatter.ensureValue(references.Base)
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments)-1; argumentIndex++ {
		if arguments[argumentIndex] == flag {
			return arguments[argumentIndex+1]
		}
	}
	return emptyStringConstant
}
