// Package cascade merges a release branch forward through every newer release
// branch and finally the main branch.
//
// The Service lists candidate branches through the GitHub CLI client, builds
// the ascending merge chain and walks it, threading each merged target forward
// as the next source. A conflicting merge opens a pull request for the exact
// branch pair and stops the walk.
package cascade
