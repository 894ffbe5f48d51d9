package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnodes/internal/selector"
	"github.com/spf13/cobra"
)

type selectResult struct {
	Indexes  string   `json:"indexes" yaml:"indexes"`
	Selected []string `json:"selected" yaml:"selected"`
}

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select INDEXES [item...]",
		Short: "Pick items by comma-separated zero-based indexes",
		Long: `Select items by index, e.g. "2,0" picks the third then the first item.
Items come from the arguments, or one per line from stdin when none are given.
Any out-of-range index fails the whole selection.

Arguments starting with "-" are taken as indexes or items, so "select -1 a b"
reports index -1 as out of range. Only --format/-f and --help/-h are flags.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, rawArgs []string) error {
			args, format, help, err := splitSelectArgs(rawArgs)
			if err != nil {
				return err
			}
			if help {
				return cmd.Help()
			}
			if len(args) == 0 {
				return errors.New("select needs INDEXES")
			}

			items := args[1:]
			if len(items) == 0 {
				text, err := readAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				items = lines(text)
			}
			selected, err := selector.SelectString(items, args[0])
			if err != nil {
				return err
			}
			res := selectResult{Indexes: args[0], Selected: selected}
			return emitAs(cmd, format, res, func(w io.Writer) {
				for _, s := range selected {
					fmt.Fprintln(w, s)
				}
			})
		},
	}
}

// splitSelectArgs pulls the output format and help flags out of args.
// Everything after "--" is positional.
func splitSelectArgs(raw []string) (args []string, format outputFormat, help bool, err error) {
	format = formatText
	for i := 0; i < len(raw); i++ {
		a := raw[i]
		switch {
		case a == "--":
			return append(args, raw[i+1:]...), format, help, nil
		case a == "-h" || a == "--help":
			help = true
		case a == "-f" || a == "--format":
			if i+1 >= len(raw) {
				return nil, "", false, fmt.Errorf("flag needs an argument: %s", a)
			}
			i++
			if format, err = parseFormat(raw[i]); err != nil {
				return nil, "", false, err
			}
		case strings.HasPrefix(a, "--format="):
			if format, err = parseFormat(strings.TrimPrefix(a, "--format=")); err != nil {
				return nil, "", false, err
			}
		default:
			args = append(args, a)
		}
	}
	return args, format, help, nil
}

// lines splits text on newlines, dropping a trailing empty line.
func lines(text string) []string {
	text = strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
