// Package githubcli wraps the GitHub CLI for cascade merges.
//
// It issues gh api calls for matching references, server side merges and pull
// request creation, decodes their JSON responses into typed values, and routes
// every invocation through execshell so tests can substitute the executor.
package githubcli
