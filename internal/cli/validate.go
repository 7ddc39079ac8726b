package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazardwatch/internal/export"
)

var errValidationFailed = errors.New("validation failed")

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check the integrity of an exported CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return runValidate(cmd.OutOrStdout(), f)
		},
	}
}

func runValidate(w io.Writer, r io.Reader) error {
	report, err := export.Validate(r)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "=== Export Integrity Validation ===")
	fmt.Fprintln(w)
	for _, p := range report.Phases {
		status := "\033[32mPASS\033[0m"
		if !p.Passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.Errors))
		}
		fmt.Fprintf(w, "  %-24s %s\n", p.Name, status)
	}
	fmt.Fprintf(w, "\nRows: %d\n", report.Rows)

	// Print detailed errors.
	for _, p := range report.Phases {
		if p.Passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.Name)
		for i, e := range p.Errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if report.Passed() {
		fmt.Fprintln(w, "\nAll validations passed.")
		return nil
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return errValidationFailed
}
