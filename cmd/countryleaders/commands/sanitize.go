package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/countryleaders/pkg/cleaner"
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [text...]",
	Short: "Clean biography text",
	Long: `Apply the biography sanitizer to text given as arguments, or to each
line of stdin when no arguments are given.

Examples:
  countryleaders sanitize "Jacques Chirac [ʒak ʃiʁak][1] est un homme d'État"
  cat paragraphs.txt | countryleaders sanitize --preset extended`,
	RunE: runSanitize,
}

func init() {
	rootCmd.AddCommand(sanitizeCmd)

	// Not bound to viper: scrape owns the preset key.
	sanitizeCmd.Flags().String("preset", "", "sanitizer preset: "+strings.Join(cleaner.Presets(), ", ")+" (default: configured preset)")
	sanitizeCmd.Flags().Bool("rules", false, "print the rules of the preset and exit")
}

func runSanitize(cmd *cobra.Command, args []string) error {
	preset, _ := cmd.Flags().GetString("preset")
	if preset == "" {
		preset = viper.GetString("preset")
	}

	rule, err := cleaner.Preset(preset)
	if err != nil {
		logError("%v", err)
		return err
	}

	out := cmd.OutOrStdout()
	if showRules, _ := cmd.Flags().GetBool("rules"); showRules {
		if chain, ok := rule.(*cleaner.Chain); ok {
			for _, name := range chain.Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		}
		fmt.Fprintln(out, rule.Name())
		return nil
	}

	s := cleaner.NewSanitizer(rule)
	if len(args) > 0 {
		fmt.Fprintln(out, s.Clean(strings.Join(args, " ")))
		return nil
	}
	return sanitizeLines(cmd.InOrStdin(), out, s)
}

// sanitizeLines cleans r line by line into w.
func sanitizeLines(r io.Reader, w io.Writer, s *cleaner.Sanitizer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(w, s.Clean(scanner.Text())); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
