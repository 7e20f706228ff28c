package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rosscartlidge/tableflow/pkg/table"
)

// previewRows is how many result rows each experiment prints
const previewRows = 5

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var experiment string

	cmd := &cobra.Command{
		Use:           "tableflow",
		Short:         "run the built-in dataflow example pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runExperiment(logger, experiment)
		},
	}
	cmd.Flags().StringVar(&experiment, "experiment", "", "experiment to run: count, idf, pmi or maps")
	cmd.MarkFlagRequired("experiment")
	return cmd
}

// dataDir resolves the resource directory holding the example inputs.
// A .env file (or the environment) may override it via TABLEFLOW_DATA.
func dataDir() string {
	godotenv.Load()
	if dir := os.Getenv("TABLEFLOW_DATA"); dir != "" {
		return dir
	}
	return "resource"
}

func runExperiment(logger *zap.Logger, experiment string) error {
	dir := dataDir()
	var graph *table.Graph
	var sources table.Sources

	switch experiment {
	case "count":
		graph = wordCountGraph("docs", "text", "count")
		sources = table.Sources{
			"docs": table.FileSource(filepath.Join(dir, "text_corpus.txt"), table.ParseJSONRow),
		}
	case "idf":
		graph = invertedIndexGraph("texts", "doc_id", "text", "tf_idf")
		sources = table.Sources{
			"texts": table.FileSource(filepath.Join(dir, "text_corpus.txt"), table.ParseJSONRow),
		}
	case "pmi":
		graph = pmiGraph("texts", "doc_id", "text", "pmi")
		sources = table.Sources{
			"texts": table.FileSource(filepath.Join(dir, "text_corpus.txt"), table.ParseJSONRow),
		}
	case "maps":
		graph = routeSpeedGraph("travel_time", "edge_length")
		sources = table.Sources{
			"travel_time": table.FileSource(filepath.Join(dir, "travel_times.txt"), table.ParseJSONRow),
			"edge_length": table.FileSource(filepath.Join(dir, "road_graph_data.txt"), table.ParseJSONRow),
		}
	default:
		return fmt.Errorf("unknown experiment %q (want count, idf, pmi or maps)", experiment)
	}

	logger.Info("running experiment", zap.String("experiment", experiment), zap.String("data", dir))

	result := graph.RunIter(sources)
	printed := 0
	total := 0
	err := table.ForEach(result, func(row table.Row) error {
		total++
		if printed >= previewRows {
			return nil
		}
		line, err := json.Marshal(row)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
		printed++
		return nil
	})
	if err != nil {
		logger.Error("experiment failed", zap.String("experiment", experiment), zap.Error(err))
		return err
	}

	logger.Info("experiment finished", zap.String("experiment", experiment), zap.Int("rows", total))
	return nil
}
