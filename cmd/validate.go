// =============================================================================
// csvline - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which loads the main configuration
// and every format profile and reports problems without converting anything.
//
// CHECKS:
//   - The main configuration parses and passes validation
//   - Every profile parses and its CSV settings resolve to a usable format
//   - Profile codes are unique
//   - Every profile has at least one valid file matching pattern
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csvline/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration files without converting",
	Long:  `Loads the main configuration and all format profiles and reports any problem found.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	mainConfig, err := loadMainConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Main configuration OK (output_format: %s)\n", mainConfig.OutputFormat)

	profiles, err := config.LoadProfiles(mainConfig.ConfigsDir)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	problems := validateProfiles(profiles)

	keys := make([]string, 0, len(profiles))
	for key := range profiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(out, "  profile %s (%s): %d pattern(s)\n", key, profiles[key].Name, len(profiles[key].FileMatchingPatterns))
	}

	if len(problems) > 0 {
		for _, problem := range problems {
			fmt.Fprintf(out, "  ✗ %s\n", problem)
		}
		return fmt.Errorf("configuration has %d problem(s)", len(problems))
	}

	fmt.Fprintf(out, "Configuration is valid! %d profile(s) loaded ✅\n", len(profiles))
	return nil
}

// validateProfiles returns the problems LoadProfiles does not reject itself.
func validateProfiles(profiles map[string]*config.Profile) []string {
	var problems []string
	for key, profile := range profiles {
		if len(profile.FileMatchingPatterns) == 0 {
			problems = append(problems, fmt.Sprintf("profile %s has no file_matching_patterns", key))
		}
		for _, pattern := range profile.FileMatchingPatterns {
			if _, err := filepath.Match(pattern, ""); err != nil {
				problems = append(problems, fmt.Sprintf("profile %s: invalid pattern %q", key, pattern))
			}
		}
	}
	sort.Strings(problems)
	return problems
}
