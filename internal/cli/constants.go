package cli

// Default values for CLI flags and configurations.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// RegistryFile is the registry file name inside each data directory.
	RegistryFile = "registry.yaml"
	// OutputJSON selects JSON output.
	OutputJSON = "json"
)

// Updater strategies selectable with --strategy.
const (
	StrategyDescriptor = "descriptor"
	StrategyToolbox    = "toolbox"
	StrategyDummy      = "dummy"
)
