package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMessagesForMatchingRefs(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGitHub,
		Details: CommandDetails{
			Arguments: []string{"api", "repos/acme/widgets/git/matching-refs/heads/release?per_page=100"},
		},
	}

	require.Equal(t, "Listing heads/release references in acme/widgets", formatter.BuildStartedMessage(command))
	require.Equal(t, "Listed heads/release references in acme/widgets", formatter.BuildSuccessMessage(command))
}

func TestBuildMessagesForMergeReadsPayload(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGitHub,
		Details: CommandDetails{
			Arguments:     []string{"api", "repos/acme/widgets/merges", "-X", "POST", "--input", "-"},
			StandardInput: []byte(`{"base":"release/1.3.0","head":"release/1.2.4","commit_message":"m"}`),
		},
	}

	require.Equal(t, "Merging release/1.2.4 into release/1.3.0 in acme/widgets", formatter.BuildStartedMessage(command))
	require.Equal(t,
		"Failed to merge release/1.2.4 into release/1.3.0 in acme/widgets (exit code 1: gh: Merge conflict (HTTP 409))",
		formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 1, StandardError: "gh: Merge conflict (HTTP 409)\n"}),
	)
}

func TestBuildMessagesForMergeWithUnreadablePayload(t *testing.T) {
	formatter := CommandMessageFormatter{}
	testCases := []struct {
		name    string
		payload []byte
	}{
		{name: "empty", payload: nil},
		{name: "malformed", payload: []byte(`{"base":`)},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := ShellCommand{
				Name: CommandGitHub,
				Details: CommandDetails{
					Arguments:     []string{"api", "repos/acme/widgets/merges", "-X", "POST", "--input", "-"},
					StandardInput: testCase.payload,
				},
			}
			require.Equal(t, "Merging unknown into unknown in acme/widgets", formatter.BuildStartedMessage(command))
		})
	}
}

func TestBuildMessagesForPullRequestCreation(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGitHub,
		Details: CommandDetails{
			Arguments:     []string{"api", "repos/acme/widgets/pulls", "-X", "POST", "--input", "-"},
			StandardInput: []byte(`{"head":"release/1.2.4","base":"master"}`),
		},
	}

	require.Equal(t, "Opened pull request from release/1.2.4 into master in acme/widgets", formatter.BuildSuccessMessage(command))
	require.Equal(t,
		"Unable to open pull request from release/1.2.4 into master in acme/widgets: boom",
		formatter.BuildExecutionFailureMessage(command, errors.New("boom")),
	)
}

func TestBuildMessagesForRepoViewAndGenericCommands(t *testing.T) {
	formatter := CommandMessageFormatter{}
	repoView := ShellCommand{Name: CommandGitHub, Details: CommandDetails{Arguments: []string{"repo", "view", "acme/widgets", "--json", "defaultBranchRef"}}}
	require.Equal(t, "Retrieving repository details for acme/widgets", formatter.BuildStartedMessage(repoView))

	generic := ShellCommand{Name: CommandGitHub, Details: CommandDetails{Arguments: []string{"--version"}, WorkingDirectory: "/workspace"}}
	require.Equal(t, "Running gh --version (in /workspace)", formatter.BuildStartedMessage(generic))
	require.Equal(t, "gh --version (in /workspace) failed: unknown error", formatter.BuildExecutionFailureMessage(generic, nil))
}
