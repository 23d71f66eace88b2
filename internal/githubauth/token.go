package githubauth

import (
	"os"
	"strings"
)

// Environment variable names used by GitHub authentication helpers.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

// TokenSourceExplicit marks a token supplied through configuration rather than the environment.
const TokenSourceExplicit = "configuration"

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// Token pairs a resolved credential with the place it was found. Source never contains the secret.
type Token struct {
	Value  string
	Source string
}

// ResolveToken returns the explicit token when present, otherwise the first non-empty GitHub
// authentication token observed in the provided environment map or the process environment.
func ResolveToken(explicitToken string, environment map[string]string) (Token, bool) {
	trimmedExplicitToken := strings.TrimSpace(explicitToken)
	if len(trimmedExplicitToken) > 0 {
		return Token{Value: trimmedExplicitToken, Source: TokenSourceExplicit}, true
	}
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return Token{Value: value, Source: key}, true
		}
	}
	for _, key := range tokenPreference {
		if value, ok := os.LookupEnv(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return Token{Value: value, Source: key}, true
			}
		}
	}
	return Token{}, false
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
