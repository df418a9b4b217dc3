package command

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bcdh/teicompleter/internal/suggestion"
	"github.com/bcdh/teicompleter/internal/transform"
)

// Output formats.
const (
	outputJSON = "json"
	outputXML  = "xml"
)

type ioFlags struct {
	contentType string
	output      string
}

func (f *ioFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.contentType, "content-type", "t", "",
		"media type of the input; inferred from the file extension when empty")
	cmd.Flags().StringVarP(&f.output, "output", "o", outputJSON,
		"output format, one of json or xml")
}

func (f *ioFlags) validate() error {
	if f.output != outputJSON && f.output != outputXML {
		return fmt.Errorf("unknown output format %q", f.output)
	}
	return nil
}

func transformCommand() *cobra.Command {
	var flags ioFlags
	cmd := &cobra.Command{
		Use:   "transform NAME [FILE]",
		Short: "Apply a configured transformation to a response",
		Long: "Reads a lexicon response from FILE, or stdin when omitted, applies the named\n" +
			"transformation and writes the resulting suggestions to stdout.",
		Args: cobra.RangeArgs(1, 2), //nolint:mnd // name and optional file
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			cfg, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			t, ok := cfg.Transformation(args[0])
			if !ok {
				return fmt.Errorf("unknown transformation %q", args[0])
			}
			engine, _, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}
			return runTransformation(cmd, engine, t, inputArg(args, 1), flags)
		},
	}
	flags.bind(cmd)
	return cmd
}

func runCommand() *cobra.Command {
	var (
		flags   ioFlags
		mapping string
	)
	cmd := &cobra.Command{
		Use:   "run [SCRIPT] [FILE]",
		Short: "Apply a script or mapping that is not in the configuration",
		Long: "Compiles the CEL (.cel) or Go (.go) SCRIPT and applies it to the response in\n" +
			"FILE, or stdin when omitted. With --mapping, SCRIPT is omitted and the mapping\n" +
			"is applied instead. Useful while developing a new transformation.",
		Args: cobra.MaximumNArgs(2), //nolint:mnd // script and optional file
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			cfg, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			t, input, err := adHocTransformation(args, mapping)
			if err != nil {
				return err
			}
			engine, _, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}
			return runTransformation(cmd, engine, t, input, flags)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&mapping, "mapping", "m", "",
		"apply a mapping given as LIST,VALUE[,DESCRIPTION] instead of a script")
	return cmd
}

// adHocTransformation builds a transformation from run arguments, returning it
// with the input path.
func adHocTransformation(args []string, mapping string) (transform.Transformation, string, error) {
	if mapping != "" {
		if len(args) > 1 {
			return transform.Transformation{}, "", errors.New("a script cannot be combined with --mapping")
		}
		parsed, err := parseMapping(mapping)
		if err != nil {
			return transform.Transformation{}, "", err
		}
		return transform.Transformation{Name: "mapping", Mapping: &parsed}, inputArg(args, 0), nil
	}
	if len(args) == 0 {
		return transform.Transformation{}, "", errors.New("a script or --mapping is required")
	}
	script, err := filepath.Abs(args[0])
	if err != nil {
		return transform.Transformation{}, "", fmt.Errorf("failed to resolve script path: %w", err)
	}
	return transform.Transformation{Name: filepath.Base(script), Script: script}, inputArg(args, 1), nil
}

func parseMapping(raw string) (transform.Mapping, error) {
	fields := strings.Split(raw, ",")
	if len(fields) < 2 || len(fields) > 3 || fields[0] == "" || fields[1] == "" { //nolint:mnd // list, value, description
		return transform.Mapping{}, fmt.Errorf("mapping must be LIST,VALUE[,DESCRIPTION], got %q", raw)
	}
	mapping := transform.Mapping{
		List:        fields[0],
		Value:       fields[1],
		Description: transform.DefaultMapping.Description,
	}
	if len(fields) == 3 && fields[2] != "" { //nolint:mnd // description given
		mapping.Description = fields[2]
	}
	return mapping, nil
}

func inputArg(args []string, idx int) string {
	if len(args) > idx {
		return args[idx]
	}
	return ""
}

func runTransformation(
	cmd *cobra.Command,
	engine *transform.Engine,
	t transform.Transformation,
	input string,
	flags ioFlags,
) error {
	body, contentType, err := readInput(cmd.InOrStdin(), input, flags.contentType)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	result, err := engine.Apply(cmd.Context(), contentType, body, t)
	if err != nil {
		return err
	}
	slog.DebugContext(cmd.Context(), "transformation applied",
		slog.String("transformation", t.Name),
		slog.Int("suggestions", result.Len()),
	)
	return writeOutput(cmd.OutOrStdout(), result, flags.output)
}

func writeOutput(w io.Writer, result *suggestion.Suggestions, output string) error {
	if output == outputXML {
		if err := suggestion.EncodeXML(w, result); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}
	return suggestion.EncodeJSON(w, result)
}
