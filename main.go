// =============================================================================
// INVOIC EDIFACT Generator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the INVOIC EDIFACT Generator CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   invoic generate <invoice-number>...  - Generate INVOIC files
//   invoic validate                      - Validate configuration and mapping tables
//   invoic version                       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Message builder, invoice store, reference tables, orchestration
//   - pkg/           : Shared file utilities
//   - data/          : Mapping tables
//   - queries/       : Invoice query
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/invoic-edifact/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
