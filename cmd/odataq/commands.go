package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/paveg/odataq"

	"github.com/paveg/odataq/internal/semantic"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/version"
	"github.com/spf13/cobra"
)

func newFilterCommand(opts *options) *cobra.Command {
	var (
		file    string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "filter [EXPRESSION]",
		Short: "Parse and bind a $filter expression",
		Long:  "Parse and bind a $filter expression, or with --file every non-empty line of a file.",
		Args: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			qp, err := opts.queryParser(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = printMetrics(cmd) }()

			if file != "" {
				return runFilterBatch(cmd, opts, qp, file, workers)
			}
			if opts.syntaxOnly {
				tree, err := qp.SyntaxFilter(args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, syntaxView{Tree: tree.String()})
			}
			clause, err := qp.ParseFilter(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, filterView(clause))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read one filter expression per line")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel workers for --file (default: number of CPUs)")
	return cmd
}

func runFilterBatch(cmd *cobra.Command, opts *options, qp *odataq.QueryParser, file string, workers int) error {
	texts, err := readLines(file)
	if err != nil {
		return err
	}
	results, err := qp.ParseFilters(cmd.Context(), texts, workers)
	if err != nil {
		return err
	}

	view := batchView{}
	for _, r := range results {
		item := batchItem{Input: r.Text}
		if r.Err != nil {
			item.Error = r.Err.Error()
			view.Failed++
		} else {
			out := filterView(r.Clause)
			item.Result = &out
		}
		view.Items = append(view.Items, item)
	}
	if err := render(cmd.OutOrStdout(), opts.output, view); err != nil {
		return err
	}
	if view.Failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", view.Failed, len(results))
	}
	return nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func newOrderByCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "orderby EXPRESSION",
		Aliases: []string{"order-by"},
		Short:   "Parse and bind an $orderby list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qp, err := opts.queryParser(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = printMetrics(cmd) }()

			if opts.syntaxOnly {
				tokens, err := qp.SyntaxOrderBy(args[0])
				if err != nil {
					return err
				}
				view := syntaxView{}
				for _, tok := range tokens {
					view.Items = append(view.Items, tok.String())
				}
				return render(cmd.OutOrStdout(), opts.output, view)
			}
			clause, err := qp.ParseOrderBy(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, orderByView(clause))
		},
	}
}

// levels needs no schema, so it talks to the parser directly.
func newLevelsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "levels VALUE",
		Short: "Parse a $levels value (max or a non-negative integer)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			token, err := syntax.NewParser(syntax.OptionsFromConfig(cfg)).ParseLevels(args[0])
			if err != nil {
				return err
			}
			clause, err := semantic.NewLevelsClause(token.IsMax, token.Level)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, levelsView{Max: clause.IsMaxLevel(), Level: clause.Level(), Text: clause.String()})
		},
	}
}

func newVersionCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Info()
			if !asJSON {
				_, err := fmt.Fprint(cmd.OutOrStdout(), info.String())
				return err
			}
			data, err := info.JSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build information as JSON")
	return cmd
}
