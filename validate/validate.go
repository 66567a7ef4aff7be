// Command validate provides a small CLI that validates search profile JSON
// files in the ../configs directory. It checks:
//   - JSON structure, with unknown fields rejected
//   - The profile name matches the file name
//   - Attempts, max_rolls, players and coverage_threshold are within range
//   - The rule set is known
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/slpu/game/config"
	"github.com/wricardo/mcp-training/slpu/game/search"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateProfile loads and validates a single search profile file
func validateProfile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var raw search.Options
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	id := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if raw.Name == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "Name is empty")
	} else if raw.Name != id {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Name %q does not match file name %q", raw.Name, id))
	}
	if raw.Description == "" {
		result.Errors = append(result.Errors, "✓ Description: none (optional)")
	}

	opts, err := config.Parse(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid profile: %v", err))
		return result
	}

	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ Rules: %s", opts.Rules),
		fmt.Sprintf("✓ Budget: %d attempts of up to %d rolls", opts.Attempts, opts.MaxRolls),
	)
	if opts.CoverageThreshold == 0 {
		result.Errors = append(result.Errors, "✓ Coverage threshold: none (full budget)")
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Coverage threshold: %.0f%%", opts.CoverageThreshold*100))
	}
	if opts.Seed != 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Seed: %d (reproducible)", opts.Seed))
	}

	return result
}

// validateDir validates every *.json file in dir, printing a concise report.
// It returns false if any file is invalid.
func validateDir(w io.Writer, dir string) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("error finding profile files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no profile files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateProfile(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All profiles are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some profiles have errors")
	}
	return allValid, nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate search profile JSON files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "../configs",
				Usage:   "Directory containing profile JSON files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ok, err := validateDir(os.Stdout, cmd.String("dir"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// main validates the profiles directory and exits with non-zero status if
// any profile is invalid.
func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
