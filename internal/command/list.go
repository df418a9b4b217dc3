package command

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bcdh/teicompleter/internal/transform"
)

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured transformations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // column padding
			_, _ = fmt.Fprintln(out, "NAME\tKIND\tSOURCE")
			for _, t := range cfg.TransformationList() {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", t.Name, t.Kind(), describeSource(t))
			}
			return out.Flush()
		},
	}
}

func describeSource(t transform.Transformation) string {
	switch t.Kind() {
	case transform.KindScript:
		return t.Script
	case transform.KindMapping:
		return fmt.Sprintf("list=%s value=%s description=%s",
			t.Mapping.List, t.Mapping.Value, t.Mapping.Description)
	default:
		return "-"
	}
}

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compile every configured script",
		Long: "Compiles the script of every configured transformation and reports those that\n" +
			"fail, without applying them to any response.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			_, loader, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}
			var errs []error
			for _, t := range cfg.TransformationList() {
				if t.Kind() != transform.KindScript {
					continue
				}
				if _, err = loader.Load(t.Script); err != nil {
					errs = append(errs, &transform.TransformationError{Transformation: t.Name, Err: err})
					continue
				}
				logger.InfoContext(cmd.Context(), "script compiled",
					slog.String("transformation", t.Name),
					slog.String("script", t.Script),
				)
			}
			return errors.Join(errs...)
		},
	}
}
