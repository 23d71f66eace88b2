package githubcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/temirov/cascade/internal/execshell"
	"github.com/temirov/cascade/internal/githubauth"
)

const (
	repoSubcommandConstant                   = "repo"
	viewSubcommandConstant                   = "view"
	pullRequestSubcommandConstant            = "pr"
	listSubcommandConstant                   = "list"
	apiSubcommandConstant                    = "api"
	jsonFlagConstant                         = "--json"
	repoFlagConstant                         = "--repo"
	stateFlagConstant                        = "--state"
	baseFlagConstant                         = "--base"
	limitFlagConstant                        = "--limit"
	methodFlagConstant                       = "-X"
	inputFlagConstant                        = "--input"
	paginateFlagConstant                     = "--paginate"
	stdinReferenceConstant                   = "-"
	acceptHeaderFlagConstant                 = "-H"
	acceptHeaderValueConstant                = "Accept: application/vnd.github+json"
	httpMethodPostConstant                   = "POST"
	repositoryFieldNameConstant              = "repository"
	referencePrefixFieldNameConstant         = "reference_prefix"
	baseBranchFieldNameConstant              = "base_branch"
	headBranchFieldNameConstant              = "head_branch"
	titleFieldNameConstant                   = "title"
	stateFieldNameConstant                   = "state"
	requiredValueMessageConstant             = "value required"
	executorNotConfiguredMessageConstant     = "github cli executor not configured"
	pullRequestLimitDefaultValueConstant     = 100
	matchingRefsPageSizeDefaultValueConstant = 100
	pullRequestJSONFieldsConstant            = "number,title,headRefName,headRepositoryOwner,url"
	repoViewJSONFieldsConstant               = "defaultBranchRef,nameWithOwner,description"
	operationErrorMessageTemplateConstant    = "%s operation failed"
	operationErrorWithCauseTemplateConstant  = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant    = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant     = "%s payload encoding failed: %s"
	invalidInputErrorTemplateConstant        = "%s: %s"
	matchingRefsEndpointTemplateConstant     = "repos/%s/git/matching-refs/%s?per_page=%d"
	mergesEndpointTemplateConstant           = "repos/%s/merges"
	pullsEndpointTemplateConstant            = "repos/%s/pulls"
	httpStatusPatternConstant                = `\(HTTP (\d{3})\)`
	httpStatusConflictConstant               = 409
	repositoryMetadataOperationNameConstant  = OperationName("ResolveRepoMetadata")
	listPullRequestsOperationNameConstant    = OperationName("ListPullRequests")
	listMatchingRefsOperationNameConstant    = OperationName("ListMatchingRefs")
	mergeBranchesOperationNameConstant       = OperationName("MergeBranches")
	createPullRequestOperationNameConstant   = OperationName("CreatePullRequest")
)

var httpStatusPattern = regexp.MustCompile(httpStatusPatternConstant)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// PullRequestState describes acceptable GitHub pull request states.
type PullRequestState string

// PullRequestStateOpen selects open pull requests.
const PullRequestStateOpen PullRequestState = PullRequestState("open")

// MergeOutcome classifies the response of the merges endpoint.
type MergeOutcome string

// Merge outcome enumerations.
const (
	MergeOutcomeMerged   MergeOutcome = MergeOutcome("merged")
	MergeOutcomeUpToDate MergeOutcome = MergeOutcome("up_to_date")
	MergeOutcomeConflict MergeOutcome = MergeOutcome("conflict")
	MergeOutcomeFailed   MergeOutcome = MergeOutcome("failed")
)

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	NameWithOwner string
	Description   string
	DefaultBranch string
}

// PullRequest represents minimal pull request details returned by GitHub.
// HeadRepositoryOwner is the login owning the head branch; it differs from the base owner for forks.
type PullRequest struct {
	Number              int
	Title               string
	HeadRefName         string
	HeadRepositoryOwner string
	URL                 string
}

// PullRequestListOptions configures ListPullRequests queries.
type PullRequestListOptions struct {
	State       PullRequestState
	BaseBranch  string
	ResultLimit int
}

// MatchingRefsOptions configures ListMatchingRefs queries.
type MatchingRefsOptions struct {
	PageSize int
	Paginate bool
}

// MergeRequest describes a branch merge performed server side.
type MergeRequest struct {
	Base          string
	Head          string
	CommitMessage string
}

// MergeResult is the explicit outcome of MergeBranches. Cause is set for conflict and failed outcomes.
type MergeResult struct {
	Outcome    MergeOutcome
	CommitSHA  string
	StatusCode int
	Cause      error
}

// PullRequestRequest describes a pull request to open.
type PullRequestRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor            GitHubCommandExecutor
	authenticationToken string
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// NewClient constructs a GitHub CLI client. A non-empty token is handed to gh through GH_TOKEN.
func NewClient(executor GitHubCommandExecutor, authenticationToken string) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor, authenticationToken: strings.TrimSpace(authenticationToken)}, nil
}

// ResolveRepoMetadata retrieves canonical metadata for a repository using gh repo view.
func (client *Client) ResolveRepoMetadata(executionContext context.Context, repository string) (RepositoryMetadata, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return RepositoryMetadata{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := client.commandDetails([]string{
		repoSubcommandConstant,
		viewSubcommandConstant,
		repositoryIdentifier,
		jsonFlagConstant,
		repoViewJSONFieldsConstant,
	}, nil)

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryMetadata{}, OperationError{Operation: repositoryMetadataOperationNameConstant, Cause: executionError}
	}

	var response struct {
		NameWithOwner    string `json:"nameWithOwner"`
		Description      string `json:"description"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return RepositoryMetadata{}, ResponseDecodingError{Operation: repositoryMetadataOperationNameConstant, Cause: decodingError}
	}

	return RepositoryMetadata{
		NameWithOwner: response.NameWithOwner,
		Description:   response.Description,
		DefaultBranch: response.DefaultBranchRef.Name,
	}, nil
}

// ListMatchingRefs returns the fully qualified references (refs/heads/...) starting with referencePrefix.
// Only the first page is requested unless options.Paginate is set.
func (client *Client) ListMatchingRefs(executionContext context.Context, repository string, referencePrefix string, options MatchingRefsOptions) ([]string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedPrefix := strings.Trim(strings.TrimSpace(referencePrefix), "/")
	if len(trimmedPrefix) == 0 {
		return nil, InvalidInputError{FieldName: referencePrefixFieldNameConstant, Message: requiredValueMessageConstant}
	}

	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = matchingRefsPageSizeDefaultValueConstant
	}

	arguments := []string{
		apiSubcommandConstant,
		fmt.Sprintf(matchingRefsEndpointTemplateConstant, repositoryIdentifier, trimmedPrefix, pageSize),
		acceptHeaderFlagConstant,
		acceptHeaderValueConstant,
	}
	if options.Paginate {
		arguments = append(arguments, paginateFlagConstant)
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, client.commandDetails(arguments, nil))
	if executionError != nil {
		return nil, OperationError{Operation: listMatchingRefsOperationNameConstant, Cause: executionError}
	}

	// gh api --paginate writes one JSON array per page back to back.
	decoder := json.NewDecoder(strings.NewReader(executionResult.StandardOutput))
	references := make([]string, 0)
	for {
		var page []struct {
			Ref string `json:"ref"`
		}
		decodingError := decoder.Decode(&page)
		if errors.Is(decodingError, io.EOF) {
			break
		}
		if decodingError != nil {
			return nil, ResponseDecodingError{Operation: listMatchingRefsOperationNameConstant, Cause: decodingError}
		}
		for _, entry := range page {
			if len(strings.TrimSpace(entry.Ref)) == 0 {
				continue
			}
			references = append(references, entry.Ref)
		}
	}

	return references, nil
}

// MergeBranches merges head into base on GitHub. Transport and API failures are reported through the
// result so callers must handle every outcome; the error return is reserved for invalid requests and
// for a cancelled or expired executionContext.
func (client *Client) MergeBranches(executionContext context.Context, repository string, request MergeRequest) (MergeResult, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return MergeResult{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Base)) == 0 {
		return MergeResult{}, InvalidInputError{FieldName: baseBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Head)) == 0 {
		return MergeResult{}, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := struct {
		Base          string `json:"base"`
		Head          string `json:"head"`
		CommitMessage string `json:"commit_message,omitempty"`
	}{
		Base:          request.Base,
		Head:          request.Head,
		CommitMessage: request.CommitMessage,
	}

	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return MergeResult{}, PayloadEncodingError{Operation: mergeBranchesOperationNameConstant, Cause: encodingError}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, client.postDetails(fmt.Sprintf(mergesEndpointTemplateConstant, repositoryIdentifier), payloadBytes))
	if executionError != nil && contextTerminated(executionContext, executionError) {
		return MergeResult{}, OperationError{Operation: mergeBranchesOperationNameConstant, Cause: errors.Join(executionError, context.Cause(executionContext))}
	}
	if executionError != nil {
		statusCode := extractHTTPStatus(executionError)
		outcome := MergeOutcomeFailed
		if statusCode == httpStatusConflictConstant {
			outcome = MergeOutcomeConflict
		}
		return MergeResult{
			Outcome:    outcome,
			StatusCode: statusCode,
			Cause:      OperationError{Operation: mergeBranchesOperationNameConstant, Cause: executionError},
		}, nil
	}

	if len(strings.TrimSpace(executionResult.StandardOutput)) == 0 {
		return MergeResult{Outcome: MergeOutcomeUpToDate}, nil
	}

	var response struct {
		SHA string `json:"sha"`
	}
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return MergeResult{
			Outcome: MergeOutcomeFailed,
			Cause:   ResponseDecodingError{Operation: mergeBranchesOperationNameConstant, Cause: decodingError},
		}, nil
	}

	return MergeResult{Outcome: MergeOutcomeMerged, CommitSHA: response.SHA}, nil
}

// CreatePullRequest opens a pull request from request.Head into request.Base.
func (client *Client) CreatePullRequest(executionContext context.Context, repository string, request PullRequestRequest) (PullRequest, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Title)) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: titleFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Base)) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: baseBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Head)) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := struct {
		Title string `json:"title"`
		Body  string `json:"body,omitempty"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}{
		Title: request.Title,
		Body:  request.Body,
		Head:  request.Head,
		Base:  request.Base,
	}

	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return PullRequest{}, PayloadEncodingError{Operation: createPullRequestOperationNameConstant, Cause: encodingError}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, client.postDetails(fmt.Sprintf(pullsEndpointTemplateConstant, repositoryIdentifier), payloadBytes))
	if executionError != nil {
		return PullRequest{}, OperationError{Operation: createPullRequestOperationNameConstant, Cause: executionError}
	}

	var response struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
		Head    struct {
			Ref  string `json:"ref"`
			Repo struct {
				Owner struct {
					Login string `json:"login"`
				} `json:"owner"`
			} `json:"repo"`
		} `json:"head"`
	}
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return PullRequest{}, ResponseDecodingError{Operation: createPullRequestOperationNameConstant, Cause: decodingError}
	}

	return PullRequest{
		Number:              response.Number,
		Title:               response.Title,
		HeadRefName:         response.Head.Ref,
		HeadRepositoryOwner: response.Head.Repo.Owner.Login,
		URL:                 response.HTMLURL,
	}, nil
}

// ListPullRequests enumerates pull requests using gh pr list.
func (client *Client) ListPullRequests(executionContext context.Context, repository string, options PullRequestListOptions) ([]PullRequest, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	if len(strings.TrimSpace(options.BaseBranch)) == 0 {
		return nil, InvalidInputError{FieldName: baseBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	if len(options.State) == 0 {
		return nil, InvalidInputError{FieldName: stateFieldNameConstant, Message: requiredValueMessageConstant}
	}

	resultLimit := options.ResultLimit
	if resultLimit <= 0 {
		resultLimit = pullRequestLimitDefaultValueConstant
	}

	commandDetails := client.commandDetails([]string{
		pullRequestSubcommandConstant,
		listSubcommandConstant,
		repoFlagConstant,
		repositoryIdentifier,
		stateFlagConstant,
		string(options.State),
		baseFlagConstant,
		options.BaseBranch,
		jsonFlagConstant,
		pullRequestJSONFieldsConstant,
		limitFlagConstant,
		strconv.Itoa(resultLimit),
	}, nil)

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listPullRequestsOperationNameConstant, Cause: executionError}
	}

	var response []struct {
		Number              int    `json:"number"`
		Title               string `json:"title"`
		HeadRefName         string `json:"headRefName"`
		HeadRepositoryOwner struct {
			Login string `json:"login"`
		} `json:"headRepositoryOwner"`
		URL string `json:"url"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listPullRequestsOperationNameConstant, Cause: decodingError}
	}

	pullRequests := make([]PullRequest, 0, len(response))
	for _, pullRequestEntry := range response {
		pullRequests = append(pullRequests, PullRequest{
			Number:              pullRequestEntry.Number,
			Title:               pullRequestEntry.Title,
			HeadRefName:         pullRequestEntry.HeadRefName,
			HeadRepositoryOwner: pullRequestEntry.HeadRepositoryOwner.Login,
			URL:                 pullRequestEntry.URL,
		})
	}

	return pullRequests, nil
}

func (client *Client) postDetails(endpoint string, payload []byte) execshell.CommandDetails {
	return client.commandDetails([]string{
		apiSubcommandConstant,
		endpoint,
		methodFlagConstant,
		httpMethodPostConstant,
		inputFlagConstant,
		stdinReferenceConstant,
		acceptHeaderFlagConstant,
		acceptHeaderValueConstant,
	}, payload)
}

func (client *Client) commandDetails(arguments []string, standardInput []byte) execshell.CommandDetails {
	details := execshell.CommandDetails{Arguments: arguments}
	if len(standardInput) > 0 {
		details.StandardInput = bytes.Clone(standardInput)
	}
	if len(client.authenticationToken) > 0 {
		details.EnvironmentVariables = map[string]string{githubauth.EnvGitHubCLIToken: client.authenticationToken}
	}
	return details
}

// contextTerminated reports whether a failure was caused by cancellation or an expired deadline.
func contextTerminated(executionContext context.Context, executionError error) bool {
	if executionContext.Err() != nil {
		return true
	}
	return errors.Is(executionError, context.Canceled) || errors.Is(executionError, context.DeadlineExceeded)
}

// extractHTTPStatus reads the "(HTTP nnn)" suffix gh prints for failed API calls.
func extractHTTPStatus(executionError error) int {
	var failedError execshell.CommandFailedError
	if !errors.As(executionError, &failedError) {
		return 0
	}
	submatches := httpStatusPattern.FindStringSubmatch(failedError.Result.StandardError)
	if len(submatches) != 2 {
		return 0
	}
	statusCode, conversionError := strconv.Atoi(submatches[1])
	if conversionError != nil {
		return 0
	}
	return statusCode
}
