// =============================================================================
// INVOIC EDIFACT Generator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It checks the configuration and
// the reference tables without touching the invoice store.
//
// COMMAND USAGE:
//   invoic validate [--config config.yaml]
//
// CHECKS:
//   1. The configuration loads (party section, company names, sender override)
//   2. The output and archive directories exist (created when missing)
//   3. The query file parses
//   4. Both mapping tables load and parse; their entry counts are reported,
//      and with --verbose every mapping is listed
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/ginjaninja78/invoic-edifact/internal/reference"
	"github.com/ginjaninja78/invoic-edifact/internal/store"
	"github.com/ginjaninja78/invoic-edifact/pkg/utils"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and mapping tables without generating",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, out io.Writer) error {
	mainConfig, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(mainConfig)
	if err != nil {
		return err
	}
	defer logger.Close()

	party := mainConfig.Party()
	fmt.Fprintln(out, "Configuration OK")
	fmt.Fprintf(out, "  Sender:    %s (%s)\n", party.SenderIdentification, party.SenderCompanyName)
	fmt.Fprintf(out, "  Receiver:  %s (%s)\n", party.ReceiverIdentification, party.ReceiverCompanyName)

	files := utils.NewFileManager(mainConfig.OutputDir, mainConfig.OutputArchiveDir, mainConfig.FilePrefix)
	if err := files.EnsureDirectories(); err != nil {
		return err
	}
	fmt.Fprintf(out, "  Output:    %s\n", mainConfig.OutputDir)

	if utils.FileExists(mainConfig.Database.QueryFile) {
		if _, err := store.LoadQuery(mainConfig.Database.QueryFile); err != nil {
			return err
		}
		fmt.Fprintf(out, "  Query:     %s\n", mainConfig.Database.QueryFile)
	} else {
		fmt.Fprintf(out, "  Query:     %s (missing, only --csv runs will work)\n", mainConfig.Database.QueryFile)
	}

	// generation tolerates broken mapping files, validation does not
	refs := reference.NewProvider(mainConfig.Reference.ChargeCodeFile, mainConfig.Reference.ContainerSizeFile, logger).Strict()
	snapshot, err := refs.Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Charge codes:    %d mapping(s)\n", snapshot.Charges.Len())
	if verbose {
		for _, m := range snapshot.Charges.Entries() {
			fmt.Fprintf(out, "    %-8s ALC %s  category %-4s EDIFACT %s\n", m.ChargeCode, m.ChargeType, m.ServiceCategoryCode, m.EdifactCode)
		}
	}

	fmt.Fprintf(out, "  Container sizes: %d mapping(s)\n", snapshot.Sizes.Len())
	if verbose {
		for _, m := range snapshot.Sizes.Entries() {
			fmt.Fprintf(out, "    %-8s LIN %-6s EQD %s:%s\n", m.SourceSize, m.EdifactCode, m.Size, m.EquipmentSizeTypeCode)
		}
	}

	return nil
}
