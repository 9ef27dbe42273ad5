package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/security"
)

var (
	checkRulesFile  string
	checkNoBuiltins bool
	checkFormat     string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkRulesFile, "rules", "", "Additional rules YAML file")
	checkCmd.Flags().BoolVar(&checkNoBuiltins, "no-builtins", false, "Disable the builtin rule catalog")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Scan text for injection signatures",
	Long: "Reads text from a file (or stdin when no file is given) and runs it\n" +
		"through the pattern scanner.\n\n" +
		"Exit code 0 when clean, 1 when any signature matches.\n" +
		"Use in CI to gate rule catalog changes.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	var (
		text []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		text, err = os.ReadFile(args[0])
	} else {
		text, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var rules []security.Rule
	if !checkNoBuiltins {
		rules = security.BuiltinRules()
	}
	if checkRulesFile != "" {
		extra, err := security.LoadRules(checkRulesFile)
		if err != nil {
			return err
		}
		rules = append(rules, extra...)
	}

	scanner := security.NewScanner(rules, 0, 0)
	flags := scanner.Scan(string(text))

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(flags, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		if len(flags) == 0 {
			fmt.Println("clean: no suspicious patterns")
		} else {
			fmt.Printf("%d suspicious pattern(s) detected\n", len(flags))
			for _, f := range flags {
				fmt.Printf("  - %s (%s): %q\n", f.Category, f.Label, f.Matched)
			}
		}
	}

	if len(flags) > 0 {
		// Exit 1 so CI fails on flagged fixtures.
		os.Exit(1)
	}
	return nil
}
