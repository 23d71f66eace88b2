// Package flags provides helpers for binding standardized cascade flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DryRunFlagName exposes the dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the dry-run flag purpose.
	DryRunFlagUsage = "Plan the merge chain without merging or opening pull requests"
	// PaginateFlagName exposes the pagination flag name.
	PaginateFlagName = "paginate"
	// PaginateFlagUsage describes the pagination flag purpose.
	PaginateFlagUsage = "List every page of release branches instead of the first page only"
	// TolerateMergeErrorsFlagName exposes the tolerate-merge-errors flag name.
	TolerateMergeErrorsFlagName = "tolerate-merge-errors"
	// TolerateMergeErrorsFlagUsage describes the tolerate-merge-errors flag purpose.
	TolerateMergeErrorsFlagUsage = "Log non-conflict merge failures and continue with the next branch"
)

// ExecutionDefaults describes default flag values.
type ExecutionDefaults struct {
	DryRun              bool
	Paginate            bool
	TolerateMergeErrors bool
}

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	DryRun              ExecutionFlagDefinition
	Paginate            ExecutionFlagDefinition
	TolerateMergeErrors ExecutionFlagDefinition
}

// DefaultExecutionFlagDefinitions returns the standard execution flag definitions.
func DefaultExecutionFlagDefinitions() ExecutionFlagDefinitions {
	return ExecutionFlagDefinitions{
		DryRun:              ExecutionFlagDefinition{Name: DryRunFlagName, Usage: DryRunFlagUsage, Enabled: true},
		Paginate:            ExecutionFlagDefinition{Name: PaginateFlagName, Usage: PaginateFlagUsage, Enabled: true},
		TolerateMergeErrors: ExecutionFlagDefinition{Name: TolerateMergeErrorsFlagName, Usage: TolerateMergeErrorsFlagUsage, Enabled: true},
	}
}

// ExecutionFlagValues stores execution flag values.
type ExecutionFlagValues struct {
	DryRun              bool
	Paginate            bool
	TolerateMergeErrors bool
}

// BindExecutionFlags attaches yes/no execution toggles to the provided command using persistent scope.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults, definitions ExecutionFlagDefinitions) *ExecutionFlagValues {
	values := &ExecutionFlagValues{
		DryRun:              defaults.DryRun,
		Paginate:            defaults.Paginate,
		TolerateMergeErrors: defaults.TolerateMergeErrors,
	}
	if command == nil {
		return values
	}

	persistentFlagSet := command.PersistentFlags()

	bindToggleFlag(persistentFlagSet, &values.DryRun, definitions.DryRun, defaults.DryRun)
	bindToggleFlag(persistentFlagSet, &values.Paginate, definitions.Paginate, defaults.Paginate)
	bindToggleFlag(persistentFlagSet, &values.TolerateMergeErrors, definitions.TolerateMergeErrors, defaults.TolerateMergeErrors)

	return values
}

func bindToggleFlag(flagSet *pflag.FlagSet, target *bool, definition ExecutionFlagDefinition, defaultValue bool) {
	if flagSet == nil {
		return
	}
	if !definition.Enabled {
		return
	}
	if len(definition.Name) == 0 {
		return
	}
	if flagSet.Lookup(definition.Name) != nil {
		return
	}

	AddToggleFlag(flagSet, target, definition.Name, definition.Shorthand, defaultValue, definition.Usage)
}
