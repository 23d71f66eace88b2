package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/cascade/internal/cascade"
	"github.com/temirov/cascade/internal/execshell"
	"github.com/temirov/cascade/internal/githubauth"
	"github.com/temirov/cascade/internal/githubcli"
	"github.com/temirov/cascade/internal/ui"
	"github.com/temirov/cascade/internal/utils"
	"github.com/temirov/cascade/internal/utils/flags"
)

const (
	applicationNameConstant                 = "release-cascade"
	applicationShortDescriptionConstant     = "Merge a release branch forward through every newer release and the main branch"
	applicationLongDescriptionConstant      = "release-cascade merges the triggering release/X.Y.Z branch into every release branch with a higher version, in ascending order, and finally into the main branch. A conflicting merge opens a pull request for that branch pair and fails the run."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	releasePrefixFlagNameConstant           = "release-prefix"
	releasePrefixFlagUsageConstant          = "Reference prefix listed for candidate release branches."
	pageSizeFlagNameConstant                = "page-size"
	pageSizeFlagUsageConstant               = "Number of references requested per page."
	timeoutFlagNameConstant                 = "timeout"
	timeoutFlagUsageConstant                = "Abort the run after this duration; zero disables the limit."
	tokenFlagNameConstant                   = "token"
	tokenFlagUsageConstant                  = "GitHub token; defaults to GH_TOKEN, GITHUB_TOKEN or GITHUB_API_TOKEN."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	branchConfigKeyConstant                 = "branch"
	repositoryConfigKeyConstant             = "repo"
	ownerConfigKeyConstant                  = "owner"
	tokenConfigKeyConstant                  = "token"
	mainBranchConfigKeyConstant             = "main_branch"
	releasePrefixConfigKeyConstant          = "release_prefix"
	pageSizeConfigKeyConstant               = "page_size"
	paginateConfigKeyConstant               = "paginate"
	dryRunConfigKeyConstant                 = "dry_run"
	tolerateMergeErrorsConfigKeyConstant    = "tolerate_merge_errors"
	timeoutConfigKeyConstant                = "timeout"
	githubReferenceEnvironmentConstant      = "GITHUB_REF"
	githubRepositoryEnvironmentConstant     = "GITHUB_REPOSITORY"
	githubOwnerEnvironmentConstant          = "GITHUB_REPOSITORY_OWNER"
	environmentPrefixConstant               = "INPUT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	repositoryErrorTemplateConstant         = "unable to determine repository: %w"
	executorCreationErrorTemplateConstant   = "unable to create command executor: %w"
	clientCreationErrorTemplateConstant     = "unable to create GitHub client: %w"
	serviceCreationErrorTemplateConstant    = "unable to create cascade service: %w"
	summaryRenderErrorTemplateConstant      = "unable to render summary: %w"
	tokenMissingMessageConstant             = "no GitHub token configured; relying on gh authentication"
	tokenResolvedMessageConstant            = "GitHub token resolved"
	tokenSourceFieldConstant                = "token_source"
	runIdentifierFieldConstant              = "run_id"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	workflowErrorCommandTemplateConstant    = "::error::%s\n"
	workflowConflictCommandTemplateConstant = "::error title=Merge conflict::%s\n"
)

var workflowCommandEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common              ApplicationCommonConfiguration `mapstructure:"common"`
	Branch              string                         `mapstructure:"branch"`
	Repository          string                         `mapstructure:"repo"`
	Owner               string                         `mapstructure:"owner"`
	Token               string                         `mapstructure:"token"`
	MainBranch          string                         `mapstructure:"main_branch"`
	ReleasePrefix       string                         `mapstructure:"release_prefix"`
	PageSize            int                            `mapstructure:"page_size"`
	Paginate            bool                           `mapstructure:"paginate"`
	DryRun              bool                           `mapstructure:"dry_run"`
	TolerateMergeErrors bool                           `mapstructure:"tolerate_merge_errors"`
	Timeout             time.Duration                  `mapstructure:"timeout"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationOption customizes an Application.
type ApplicationOption func(*Application)

// WithCommandRunner replaces the os/exec runner used to invoke gh.
func WithCommandRunner(commandRunner execshell.CommandRunner) ApplicationOption {
	return func(application *Application) {
		if commandRunner != nil {
			application.commandRunner = commandRunner
		}
	}
}

// WithOutput redirects the summary and workflow annotations.
func WithOutput(standardOutput io.Writer) ApplicationOption {
	return func(application *Application) {
		if standardOutput != nil {
			application.standardOutput = standardOutput
		}
	}
}

// WithContext sets the parent context of the run. A run identifier already attached through
// utils.CommandContextAccessor is kept; otherwise a new one is generated.
func WithContext(parentContext context.Context) ApplicationOption {
	return func(application *Application) {
		if parentContext != nil {
			application.parentContext = parentContext
		}
	}
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	releasePrefixFlagValue string
	pageSizeFlagValue      int
	timeoutFlagValue       time.Duration
	tokenFlagValue         string
	repositoryFlagValues   *flags.RepositoryFlagValues
	branchFlagValues       *flags.BranchFlagValues
	executionFlagValues    *flags.ExecutionFlagValues
	commandRunner          execshell.CommandRunner
	standardOutput         io.Writer
	parentContext          context.Context
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication(options ...ApplicationOption) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetEnvironmentBindings(map[string][]string{
		branchConfigKeyConstant:     {configurationLoader.EnvironmentVariableName(branchConfigKeyConstant), githubReferenceEnvironmentConstant},
		repositoryConfigKeyConstant: {configurationLoader.EnvironmentVariableName(repositoryConfigKeyConstant), githubRepositoryEnvironmentConstant},
		ownerConfigKeyConstant:      {configurationLoader.EnvironmentVariableName(ownerConfigKeyConstant), githubOwnerEnvironmentConstant},
	})
	configurationLoader.AddDecodeHooks(flags.ToggleDecodeHook())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandRunner:          execshell.NewOSCommandRunner(),
		standardOutput:         os.Stdout,
		parentContext:          context.Background(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}
	for _, option := range options {
		option(application)
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runCascade(command)
		},
	}

	runContext := application.parentContext
	if _, runIdentifierAttached := application.commandContextAccessor.RunIdentifier(runContext); !runIdentifierAttached {
		runContext = application.commandContextAccessor.WithRunIdentifier(runContext, uuid.NewString())
	}
	cobraCommand.SetContext(runContext)
	persistentFlagSet := cobraCommand.PersistentFlags()
	persistentFlagSet.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlagSet.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	persistentFlagSet.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	persistentFlagSet.StringVar(&application.releasePrefixFlagValue, releasePrefixFlagNameConstant, cascade.DefaultReleaseReferencePrefix, releasePrefixFlagUsageConstant)
	persistentFlagSet.IntVar(&application.pageSizeFlagValue, pageSizeFlagNameConstant, cascade.DefaultPageSize, pageSizeFlagUsageConstant)
	persistentFlagSet.DurationVar(&application.timeoutFlagValue, timeoutFlagNameConstant, 0, timeoutFlagUsageConstant)
	persistentFlagSet.StringVar(&application.tokenFlagValue, tokenFlagNameConstant, "", tokenFlagUsageConstant)

	application.repositoryFlagValues = flags.BindRepositoryFlags(cobraCommand, flags.RepositoryFlagValues{}, flags.DefaultRepositoryFlagDefinitions())
	application.branchFlagValues = flags.BindBranchFlags(cobraCommand, flags.BranchFlagValues{Main: cascade.DefaultMainBranch}, flags.DefaultBranchFlagDefinitions())
	application.executionFlagValues = flags.BindExecutionFlags(cobraCommand, flags.ExecutionDefaults{}, flags.DefaultExecutionFlagDefinitions())

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command with the process arguments and ensures logger flushing.
func (application *Application) Execute() error {
	return application.ExecuteWithArguments(os.Args[1:])
}

// ExecuteWithArguments runs the root command with the provided arguments. A failure is also
// reported as a workflow error command on the configured output.
func (application *Application) ExecuteWithArguments(arguments []string) error {
	normalizedArguments := flags.NormalizeToggleArguments(arguments)
	if normalizedArguments == nil {
		normalizedArguments = []string{}
	}
	application.rootCommand.SetArgs(normalizedArguments)
	executionError := application.rootCommand.Execute()
	if executionError != nil {
		annotationTemplate := workflowErrorCommandTemplateConstant
		if cascade.IsMergeConflict(executionError) {
			annotationTemplate = workflowConflictCommandTemplateConstant
		}
		fmt.Fprintf(application.standardOutput, annotationTemplate, FormatWorkflowErrorMessage(executionError.Error()))
	}
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Configuration returns the configuration resolved by the last execution.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// FormatWorkflowErrorMessage escapes a message for use in a GitHub Actions workflow command.
func FormatWorkflowErrorMessage(message string) string {
	return workflowCommandEscaper.Replace(message)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:      string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:     string(utils.LogFormatStructured),
		branchConfigKeyConstant:              "",
		repositoryConfigKeyConstant:          "",
		ownerConfigKeyConstant:               "",
		tokenConfigKeyConstant:               "",
		mainBranchConfigKeyConstant:          cascade.DefaultMainBranch,
		releasePrefixConfigKeyConstant:       cascade.DefaultReleaseReferencePrefix,
		pageSizeConfigKeyConstant:            cascade.DefaultPageSize,
		paginateConfigKeyConstant:            false,
		dryRunConfigKeyConstant:              false,
		tolerateMergeErrorsConfigKeyConstant: false,
		timeoutConfigKeyConstant:             time.Duration(0),
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.applyFlagOverrides(command)

	loggerFactory := application.loggerFactory
	if runIdentifier, runIdentifierAttached := application.commandContextAccessor.RunIdentifier(command.Context()); runIdentifierAttached {
		loggerFactory = loggerFactory.WithInitialField(runIdentifierFieldConstant, runIdentifier)
	}
	logger, loggerCreationError := loggerFactory.CreateLogger(utils.LogLevel(application.configuration.Common.LogLevel), utils.LogFormat(application.configuration.Common.LogFormat))
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) applyFlagOverrides(command *cobra.Command) {
	configuration := &application.configuration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, flags.RepositoryFlagName) {
		configuration.Repository = application.repositoryFlagValues.Name
	}
	if application.persistentFlagChanged(command, flags.OwnerFlagName) {
		configuration.Owner = application.repositoryFlagValues.Owner
	}
	if application.persistentFlagChanged(command, flags.BranchFlagName) {
		configuration.Branch = application.branchFlagValues.Trigger
	}
	if application.persistentFlagChanged(command, flags.MainBranchFlagName) {
		configuration.MainBranch = application.branchFlagValues.Main
	}
	if application.persistentFlagChanged(command, releasePrefixFlagNameConstant) {
		configuration.ReleasePrefix = application.releasePrefixFlagValue
	}
	if application.persistentFlagChanged(command, pageSizeFlagNameConstant) {
		configuration.PageSize = application.pageSizeFlagValue
	}
	if application.persistentFlagChanged(command, timeoutFlagNameConstant) {
		configuration.Timeout = application.timeoutFlagValue
	}
	if application.persistentFlagChanged(command, tokenFlagNameConstant) {
		configuration.Token = application.tokenFlagValue
	}
	if application.persistentFlagChanged(command, flags.DryRunFlagName) {
		configuration.DryRun = application.executionFlagValues.DryRun
	}
	if application.persistentFlagChanged(command, flags.PaginateFlagName) {
		configuration.Paginate = application.executionFlagValues.Paginate
	}
	if application.persistentFlagChanged(command, flags.TolerateMergeErrorsFlagName) {
		configuration.TolerateMergeErrors = application.executionFlagValues.TolerateMergeErrors
	}
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runCascade(command *cobra.Command) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	configuration := application.configuration

	repository, repositoryError := cascade.ResolveRepository(configuration.Repository, configuration.Owner)
	if repositoryError != nil {
		return fmt.Errorf(repositoryErrorTemplateConstant, repositoryError)
	}

	token, tokenFound := githubauth.ResolveToken(configuration.Token, nil)
	if tokenFound {
		application.logger.Debug(tokenResolvedMessageConstant, zap.String(tokenSourceFieldConstant, token.Source))
	} else {
		application.logger.Warn(tokenMissingMessageConstant)
	}

	executorLogger := application.logger
	var observers []execshell.CommandEventObserver
	if application.humanReadableLoggingEnabled() {
		executorLogger = zap.NewNop()
		observers = append(observers, ui.NewConsoleCommandEventLogger(application.logger))
	}

	shellExecutor, executorError := execshell.NewShellExecutor(executorLogger, application.commandRunner, observers...)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	githubClient, clientError := githubcli.NewClient(shellExecutor, token.Value)
	if clientError != nil {
		return fmt.Errorf(clientCreationErrorTemplateConstant, clientError)
	}

	service, serviceError := cascade.NewService(cascade.ServiceDependencies{Logger: application.logger, GitHubClient: githubClient})
	if serviceError != nil {
		return fmt.Errorf(serviceCreationErrorTemplateConstant, serviceError)
	}

	executionContext := command.Context()
	if configuration.Timeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, configuration.Timeout)
		defer cancel()
	}

	result, runError := service.Run(executionContext, cascade.Options{
		Repository:             repository,
		TriggerReference:       configuration.Branch,
		MainBranch:             configuration.MainBranch,
		ReleaseReferencePrefix: configuration.ReleasePrefix,
		PageSize:               configuration.PageSize,
		Paginate:               configuration.Paginate,
		DryRun:                 configuration.DryRun,
		TolerateMergeErrors:    configuration.TolerateMergeErrors,
	})

	if runError == nil || len(result.Steps) > 0 {
		if renderError := ui.NewSummaryRenderer(application.standardOutput).Render(result); renderError != nil && runError == nil {
			return fmt.Errorf(summaryRenderErrorTemplateConstant, renderError)
		}
	}

	return runError
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.Flags(),
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
