// Package versions recognizes release branch names and orders their versions.
package versions
