package flags

import "github.com/spf13/cobra"

const (
	// RepositoryFlagName exposes the repository flag name.
	RepositoryFlagName = "repo"
	// RepositoryFlagUsage describes the repository flag purpose.
	RepositoryFlagUsage = "Repository to cascade, as owner/name or name"
	// OwnerFlagName exposes the repository owner flag name.
	OwnerFlagName = "owner"
	// OwnerFlagUsage describes the repository owner flag purpose.
	OwnerFlagUsage = "Repository owner; defaults to the owner part of --repo"
	// BranchFlagName exposes the trigger branch flag name.
	BranchFlagName = "branch"
	// BranchFlagUsage describes the trigger branch flag purpose.
	BranchFlagUsage = "Branch or reference that triggered the cascade, e.g. refs/heads/release/1.2.3"
	// MainBranchFlagName exposes the main branch flag name.
	MainBranchFlagName = "main-branch"
	// MainBranchFlagUsage describes the main branch flag purpose.
	MainBranchFlagUsage = "Final merge target; \"auto\" uses the repository default branch"
)

// RepositoryFlagDefinition captures configuration for repository context flags.
type RepositoryFlagDefinition struct {
	Name    string
	Usage   string
	Enabled bool
}

// RepositoryFlagDefinitions groups repository context flag definitions.
type RepositoryFlagDefinitions struct {
	Owner RepositoryFlagDefinition
	Name  RepositoryFlagDefinition
}

// DefaultRepositoryFlagDefinitions returns the --owner and --repo definitions.
func DefaultRepositoryFlagDefinitions() RepositoryFlagDefinitions {
	return RepositoryFlagDefinitions{
		Owner: RepositoryFlagDefinition{Name: OwnerFlagName, Usage: OwnerFlagUsage, Enabled: true},
		Name:  RepositoryFlagDefinition{Name: RepositoryFlagName, Usage: RepositoryFlagUsage, Enabled: true},
	}
}

// RepositoryFlagValues stores repository context flag values.
type RepositoryFlagValues struct {
	Owner string
	Name  string
}

// BindRepositoryFlags attaches repository context flags to the provided command.
func BindRepositoryFlags(command *cobra.Command, defaults RepositoryFlagValues, definitions RepositoryFlagDefinitions) *RepositoryFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	persistentFlagSet := command.PersistentFlags()
	if definitions.Owner.Enabled && len(definitions.Owner.Name) > 0 {
		persistentFlagSet.StringVar(&values.Owner, definitions.Owner.Name, defaults.Owner, definitions.Owner.Usage)
	}
	if definitions.Name.Enabled && len(definitions.Name.Name) > 0 {
		persistentFlagSet.StringVar(&values.Name, definitions.Name.Name, defaults.Name, definitions.Name.Usage)
	}

	return &values
}

// BranchFlagDefinition captures configuration for a branch context flag.
type BranchFlagDefinition struct {
	Name    string
	Usage   string
	Enabled bool
}

// BranchFlagDefinitions groups the trigger and main branch flag definitions.
type BranchFlagDefinitions struct {
	Trigger BranchFlagDefinition
	Main    BranchFlagDefinition
}

// DefaultBranchFlagDefinitions returns the --branch and --main-branch definitions.
func DefaultBranchFlagDefinitions() BranchFlagDefinitions {
	return BranchFlagDefinitions{
		Trigger: BranchFlagDefinition{Name: BranchFlagName, Usage: BranchFlagUsage, Enabled: true},
		Main:    BranchFlagDefinition{Name: MainBranchFlagName, Usage: MainBranchFlagUsage, Enabled: true},
	}
}

// BranchFlagValues stores branch context flag values.
type BranchFlagValues struct {
	Trigger string
	Main    string
}

// BindBranchFlags attaches branch context flags to the provided command.
func BindBranchFlags(command *cobra.Command, defaults BranchFlagValues, definitions BranchFlagDefinitions) *BranchFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	persistentFlagSet := command.PersistentFlags()
	if definitions.Trigger.Enabled && len(definitions.Trigger.Name) > 0 {
		persistentFlagSet.StringVar(&values.Trigger, definitions.Trigger.Name, defaults.Trigger, definitions.Trigger.Usage)
	}
	if definitions.Main.Enabled && len(definitions.Main.Name) > 0 {
		persistentFlagSet.StringVar(&values.Main, definitions.Main.Name, defaults.Main, definitions.Main.Usage)
	}

	return &values
}
