package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"dataprobe/adapters/charting"
	"dataprobe/adapters/llm"
	"dataprobe/adapters/tabular"
	"dataprobe/ai"
	"dataprobe/app"
	"dataprobe/domain/dataset"
	"dataprobe/internal/config"
	"dataprobe/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cliOptions struct {
	asJSON bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	rootCmd := &cobra.Command{
		Use:           "dataprobe-cli",
		Short:         "Explore a CSV or XLSX file from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newServeCmd(),
		newInfoCmd(opts),
		newSummaryCmd(opts),
		newDescribeCmd(opts),
		newHistogramCmd(opts),
		newQueryCmd(opts),
		newAskCmd(opts),
	)
	return rootCmd
}

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI (and the ops server when enabled)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			c, err := container.New(cfg, "cli")
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return c.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "UI port (overrides PORT)")
	return cmd
}

// loadSession reads path into a fresh session controller
func loadSession(ctx context.Context, path string, questions *app.QuestionService) (*app.SessionController, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	controller := app.NewSessionController(tabular.NewDataReader(nil), nil, questions, app.ControllerConfig{})
	if _, err := controller.Load(ctx, filepath.Base(path), data); err != nil {
		return nil, err
	}
	return controller, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func newInfoCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info [file]",
		Short: "Show shape, column types and the first rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			controller, err := loadSession(ctx, args[0], nil)
			if err != nil {
				return err
			}
			info, err := controller.Info(ctx)
			if err != nil {
				return err
			}
			dtypes, err := controller.DTypes(ctx)
			if err != nil {
				return err
			}
			head, err := controller.Preview(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return printJSON(out, map[string]interface{}{"info": info, "dtypes": dtypes, "preview": head.Records()})
			}
			fmt.Fprintf(out, "%s: %d rows, %d columns\n\n", info.Name, info.Rows, info.Columns)
			rows := make([][]string, len(dtypes))
			for i, d := range dtypes {
				rows[i] = []string{d.Name, string(d.Type), fmt.Sprint(d.NonMissing)}
			}
			if err := printTable(out, []string{"COLUMN", "TYPE", "NON-MISSING"}, rows); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return printDataset(out, head)
		},
	}
}

func printDataset(w io.Writer, ds *dataset.Dataset) error {
	return printTable(w, ds.ColumnNames(), ds.DisplayRows())
}

func newSummaryCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [file]",
		Short: "Print summary statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			controller, err := loadSession(ctx, args[0], nil)
			if err != nil {
				return err
			}
			table, err := controller.Summary(ctx)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), table)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ai.SummaryText(table))
			return err
		},
	}
}

func newDescribeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [file] [column]",
		Short: "Mean and median of a numeric column, or the most common value of a text one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			controller, err := loadSession(ctx, args[0], nil)
			if err != nil {
				return err
			}
			summary, err := controller.Describe(ctx, args[1])
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), summary.Text)
			return err
		},
	}
}

func newHistogramCmd(opts *cliOptions) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "histogram [file] [column]",
		Short: "Draw a text histogram of a numeric column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			controller, err := loadSession(ctx, args[0], nil)
			if err != nil {
				return err
			}
			spec, err := controller.Visualize(ctx, args[1])
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), spec)
			}
			return printHistogram(cmd.OutOrStdout(), spec, width)
		},
	}
	cmd.Flags().IntVar(&width, "width", 40, "Width of the longest bar")
	return cmd
}

func printHistogram(w io.Writer, spec *charting.HistogramSpec, width int) error {
	fmt.Fprintf(w, "%s (%d values)\n", spec.Title, spec.Total)
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	for i, bin := range spec.Bins {
		bar := strings.Repeat("#", int(spec.Height(i)*float64(width)+0.5))
		fmt.Fprintf(tw, "%.4g\t- %.4g\t %d\t %s\n", bin.Lower, bin.Upper, bin.Count, bar)
	}
	return tw.Flush()
}

func newQueryCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query [file] [expression]",
		Short: "Print the rows matching a filter expression",
		Long: `Print the rows matching a filter expression.

Example: dataprobe-cli query sales.csv "price > 100 and region == 'north'"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			controller, err := loadSession(ctx, args[0], nil)
			if err != nil {
				return err
			}
			view, err := controller.Filter(ctx, args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return printJSON(out, map[string]interface{}{"row_indices": view.RowIndices, "rows": view.Rows.Records()})
			}
			fmt.Fprintf(out, "%d matching rows\n", view.Len())
			return printDataset(out, view.Rows)
		},
	}
}

func newAskCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [file] [question]",
		Short: "Ask the configured language model a question about the file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client := llm.NewClient(llm.Config{
				APIKey:        cfg.AI.APIKey,
				BaseURL:       cfg.AI.BaseURL,
				SystemContext: cfg.AI.SystemContext,
				Temperature:   cfg.AI.Temperature,
			})
			questions := app.NewQuestionService(client, ai.NewPromptManager(cfg.AI.PromptsDir), app.QuestionConfig{
				Model:     cfg.AI.Model,
				MaxTokens: cfg.AI.MaxTokens,
				Timeout:   cfg.AI.Timeout,
			})

			ctx := cmd.Context()
			controller, err := loadSession(ctx, args[0], questions)
			if err != nil {
				return err
			}
			answer, err := controller.Ask(ctx, args[1])
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), answer)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
			return err
		},
	}
}
