package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nainya/nsilibridge/pkg/bqs"
	"github.com/nainya/nsilibridge/pkg/dag"
	"github.com/nainya/nsilibridge/pkg/filter"
	"github.com/nainya/nsilibridge/pkg/nsili"
)

var bqsView string

var bqsCmd = &cobra.Command{
	Use:   "bqs",
	Short: "Translate and check Boolean Syntax Queries",
}

var bqsTranslateCmd = &cobra.Command{
	Use:   "translate [file]",
	Short: "Translate a JSON filter tree to BQS",
	Long: `Reads a JSON filter tree from file, or stdin when no file is given,
and prints the BQS sent to an NSILI server for the selected view.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		var f filter.Filter
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parse filter: %w", err)
		}
		tr, err := translator(bqsView)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tr.Translate(f))
		return nil
	},
}

var bqsParseCmd = &cobra.Command{
	Use:   "parse <query>",
	Short: "Parse BQS into a JSON filter tree",
	Long: `Validates a BQS query and prints its filter tree as JSON,
followed by the query as the bridge would send it back out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := bqs.Parse(strings.Join(args, " "))
		if err != nil {
			return err
		}
		tr, err := translator(bqsView)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		fmt.Fprintln(cmd.OutOrStdout(), tr.Translate(f))
		return nil
	},
}

var dagCmd = &cobra.Command{
	Use:   "dag",
	Short: "Inspect product DAGs",
}

var dagPrintCmd = &cobra.Command{
	Use:   "print [file]",
	Short: "Print a JSON product DAG as an indented tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		var d dag.DAG
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("parse dag: %w", err)
		}
		if _, err := dag.Build(d); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), dag.Print(d))
		return nil
	},
}

func init() {
	bqsCmd.PersistentFlags().StringVar(&bqsView, "view", nsili.AllView, "view whose queryable attributes are used")
	bqsCmd.AddCommand(bqsTranslateCmd, bqsParseCmd)
	dagCmd.AddCommand(dagPrintCmd)
}

func translator(view string) (*bqs.Translator, error) {
	schema := nsili.DefaultSchema()
	if !schema.HasView(view) {
		return nil, fmt.Errorf("unknown view %q, known views: %s", view, strings.Join(schema.Views(), ", "))
	}
	return bqs.NewTranslator(schema, view), nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}
