package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/cascade/internal/githubauth"
)

func TestResolveTokenPreference(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvGitHubCLIToken, "")
	testInstance.Setenv(githubauth.EnvGitHubToken, "")
	testInstance.Setenv(githubauth.EnvGitHubAPIToken, "")

	testCases := []struct {
		name          string
		explicitToken string
		environment   map[string]string
		expectFound   bool
		expectedToken githubauth.Token
	}{
		{
			name:          "explicit_wins",
			explicitToken: "  explicit  ",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "cli"},
			expectFound:   true,
			expectedToken: githubauth.Token{Value: "explicit", Source: githubauth.TokenSourceExplicit},
		},
		{
			name:          "cli_token_preferred",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "cli", githubauth.EnvGitHubToken: "actions"},
			expectFound:   true,
			expectedToken: githubauth.Token{Value: "cli", Source: githubauth.EnvGitHubCLIToken},
		},
		{
			name:          "blank_values_skipped",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "   ", githubauth.EnvGitHubAPIToken: "api"},
			expectFound:   true,
			expectedToken: githubauth.Token{Value: "api", Source: githubauth.EnvGitHubAPIToken},
		},
		{
			name:        "missing",
			environment: map[string]string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			token, found := githubauth.ResolveToken(testCase.explicitToken, testCase.environment)
			require.Equal(testInstance, testCase.expectFound, found)
			require.Equal(testInstance, testCase.expectedToken, token)
		})
	}
}

func TestResolveTokenFallsBackToProcessEnvironment(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvGitHubCLIToken, "")
	testInstance.Setenv(githubauth.EnvGitHubToken, " process-token ")
	testInstance.Setenv(githubauth.EnvGitHubAPIToken, "")

	token, found := githubauth.ResolveToken("", nil)
	require.True(testInstance, found)
	require.Equal(testInstance, githubauth.Token{Value: "process-token", Source: githubauth.EnvGitHubToken}, token)
}
