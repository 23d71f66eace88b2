// Package cli constructs the release-cascade command-line interface. It wires
// the Cobra root command, the viper configuration loader with GitHub Actions
// input bindings, and the run logger, then hands the resolved options to the
// cascade service and renders its summary.
package cli
