package l10n

import (
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/commgraph/internal/l10n/migration"
	"github.com/temirov/commgraph/internal/l10n/recipes"
	"github.com/temirov/commgraph/internal/utils"
	pathutils "github.com/temirov/commgraph/internal/utils/path"
)

const (
	migrateCommandUseConstant              = "l10n-migrate [recipe...]"
	migrateCommandShortDescriptionConstant = "Apply Fluent migration recipes to locale checkouts"
	migrateCommandLongDescriptionConstant  = "l10n-migrate copies existing translations into new Fluent message IDs for every locale directory under the l10n root. Without recipe arguments every registered recipe runs."
	rootFlagNameConstant                   = "l10n-root"
	rootFlagUsageConstant                  = "Directory containing one subdirectory per locale"
	referenceFlagNameConstant              = "reference-dir"
	referenceFlagUsageConstant             = "en-US reference directory; messages absent there are not migrated"
	dryRunFlagNameConstant                 = "dry-run"
	dryRunFlagUsageConstant                = "Report the migration without writing files"
	rootRequiredMessageConstant            = "l10n root required; specify --l10n-root or tools.l10n.root"
	listLocalesErrorTemplate               = "unable to list locales in %s: %w"
	migrateLocaleErrorTemplate             = "unable to migrate locale %s: %w"
	writeReportErrorTemplate               = "unable to write migration report: %w"
	hiddenEntryPrefixConstant              = "."
	localeMigratedMessageConstant          = "locale migrated"
	logFieldLocaleConstant                 = "locale"
	logFieldCopiedConstant                 = "copied"
	logFieldDryRunConstant                 = "dry_run"
)

var reportHeader = []string{"locale", "target", "key", "source_key", "status"}

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// MigrateCommandBuilder assembles the l10n-migrate command.
type MigrateCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the l10n-migrate command.
func (builder *MigrateCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   migrateCommandUseConstant,
		Short: migrateCommandShortDescriptionConstant,
		Long:  migrateCommandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(rootFlagNameConstant, "", rootFlagUsageConstant)
	command.Flags().String(referenceFlagNameConstant, "", referenceFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *MigrateCommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()
	fileSystem := utils.NewCommandContextAccessor().FileSystem(command.Context())
	resolver := pathutils.NewResolver("")

	root := configuration.Root
	if command.Flags().Changed(rootFlagNameConstant) {
		root, _ = command.Flags().GetString(rootFlagNameConstant)
	}
	root = resolver.Resolve(root)
	if len(root) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return errors.New(rootRequiredMessageConstant)
	}

	referenceDirectory := configuration.ReferenceDirectory
	if command.Flags().Changed(referenceFlagNameConstant) {
		referenceDirectory, _ = command.Flags().GetString(referenceFlagNameConstant)
	}
	dryRun := configuration.DryRun
	if command.Flags().Changed(dryRunFlagNameConstant) {
		dryRun, _ = command.Flags().GetBool(dryRunFlagNameConstant)
	}

	recipeNames := arguments
	if len(recipeNames) == 0 {
		recipeNames = configuration.Recipes
	}
	selectedRecipes, selectError := recipes.Select(recipeNames)
	if selectError != nil {
		return selectError
	}
	migrationContext := migration.NewContext()
	for _, recipe := range selectedRecipes {
		if migrateError := recipe.Migrate(migrationContext); migrateError != nil {
			return migrateError
		}
	}

	locales, localesError := listLocales(fileSystem, root)
	if localesError != nil {
		return localesError
	}

	engine := &migration.Engine{
		FileSystem:         fileSystem,
		ReferenceDirectory: resolver.Resolve(referenceDirectory),
		DryRun:             dryRun,
		Logger:             logger,
	}

	reportWriter := csv.NewWriter(utils.NewFlushingWriter(command.OutOrStdout()))
	if writeError := reportWriter.Write(reportHeader); writeError != nil {
		return fmt.Errorf(writeReportErrorTemplate, writeError)
	}
	for _, locale := range locales {
		report, applyError := engine.Apply(command.Context(), migrationContext, filepath.Join(root, locale))
		if applyError != nil {
			return fmt.Errorf(migrateLocaleErrorTemplate, locale, applyError)
		}
		for _, outcome := range report.Outcomes {
			row := []string{outcome.Locale, outcome.Target, outcome.TargetKey, outcome.SourceKey, string(outcome.Status)}
			if writeError := reportWriter.Write(row); writeError != nil {
				return fmt.Errorf(writeReportErrorTemplate, writeError)
			}
		}
		logger.Info(localeMigratedMessageConstant,
			zap.String(logFieldLocaleConstant, locale),
			zap.Int(logFieldCopiedConstant, report.Count(migration.StatusCopied)),
			zap.Bool(logFieldDryRunConstant, dryRun),
		)
	}
	reportWriter.Flush()
	if flushError := reportWriter.Error(); flushError != nil {
		return fmt.Errorf(writeReportErrorTemplate, flushError)
	}
	return nil
}

func (builder *MigrateCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *MigrateCommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

// listLocales returns the sorted, non-hidden subdirectories of root.
func listLocales(fileSystem afero.Fs, root string) ([]string, error) {
	entries, readError := afero.ReadDir(fileSystem, root)
	if readError != nil {
		return nil, fmt.Errorf(listLocalesErrorTemplate, root, readError)
	}
	locales := []string{}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), hiddenEntryPrefixConstant) {
			continue
		}
		locales = append(locales, entry.Name())
	}
	sort.Strings(locales)
	return locales, nil
}
