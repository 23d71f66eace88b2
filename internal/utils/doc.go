// Package utils exposes reusable helpers consumed by the CLI.
//
// It houses the ConfigurationLoader that layers embedded defaults, config
// files and INPUT_ environment variables through Viper, the LoggerFactory
// that builds zap loggers, and accessors for values carried on the command
// context.
package utils
