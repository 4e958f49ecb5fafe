package main

import (
	"encoding/json"
	"fmt"
	gio "io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"textclass/pkg"
	"textclass/pkg/model"

	"github.com/spf13/cobra"
)

func CreateCommand() *cobra.Command {

	var outputFile string
	var modelType string
	var createParameters pkg.CreateParameters
	var modelParameters model.Config

	var cmd = &cobra.Command{
		Use:   "create -o outputFile (-e embeddingsFile | -v vocabularyFile) -c classes",
		Short: "Creates a new untrained document classifier and saves it",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modelParameters.Type = model.ModelType(modelType)
			return pkg.Create(outputFile, modelParameters, createParameters)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "name of the file to save model to.")
	cmd.Flags().StringVarP(&createParameters.EmbeddingsFile, "embeddings", "e", "", "pretrained word vectors in GloVe text format")
	cmd.Flags().StringVarP(&createParameters.VocabularyFile, "vocabulary", "v", "", "vocabulary file, one word per line (used without --embeddings)")
	cmd.Flags().StringSliceVarP(&createParameters.Classes, "classes", "c", nil, "list of class names")
	cmd.Flags().StringVarP(&createParameters.TextColumn, "text-column", "t", "text", "data column holding the document text")
	cmd.Flags().StringVarP(&createParameters.LabelColumn, "label-column", "l", "label", "data column holding the document classes")
	cmd.Flags().IntVarP(&createParameters.MaxSentences, "max-sentences", "", 0, "sentences kept per document, 0 for no limit")
	cmd.Flags().IntVarP(&createParameters.MaxWords, "max-words", "", 0, "words kept per sentence, 0 for no limit")
	cmd.Flags().Uint64VarP(&createParameters.RndSeed, "random-seed", "x", 42, "random seed")

	cmd.Flags().StringVarP(&modelType, "model-type", "m", string(model.HANType), "model type: han or logreg")
	cmd.Flags().IntVarP(&modelParameters.CellSize, "cell-size", "s", 50, "recurrent cell and attention size")
	cmd.Flags().IntVarP(&modelParameters.EmbeddingDim, "embedding-dim", "d", 100, "word embedding size (ignored with --embeddings)")
	cmd.Flags().Float64VarP(&modelParameters.KeepProb, "keep-prob", "k", 0.5, "dropout keep probability")
	cmd.Flags().BoolVarP(&modelParameters.Multilabel, "multilabel", "", false, "score every class independently")
	cmd.Flags().BoolVarP(&modelParameters.TrainableEmbeddings, "trainable-embeddings", "", false, "let pretrained embeddings be fine-tuned")

	_ = cmd.MarkFlagRequired("output-file")
	_ = cmd.MarkFlagRequired("classes")

	return cmd
}

func PredictCommand() *cobra.Command {
	var modelFile string
	var inputFile string
	var outputFile string
	var parameters pkg.InferenceParameters

	var cmd = &cobra.Command{
		Use:   "predict -m modelFile -i inputFile [-o outputFile]",
		Short: "Runs the provided model on the documents of the input file and optionally writes the predictions",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return pkg.Predict(modelFile, inputFile, outputFile, parameters)
		},
	}

	cmd.Flags().StringVarP(&modelFile, "model", "m", "", "name of model to run")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "name of data input file")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "name of output file (optional)")
	cmd.Flags().IntVarP(&parameters.BatchSize, "batch-size", "b", 16, "batch size")
	cmd.Flags().Uint64VarP(&parameters.RndSeed, "random-seed", "x", 42, "random seed")

	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func EvaluateCommand() *cobra.Command {
	var modelFile string
	var inputFile string
	var outputFile string
	var parameters pkg.InferenceParameters

	var cmd = &cobra.Command{
		Use:   "evaluate -m modelFile -i inputFile [-o outputFile]",
		Short: "Scores the provided model against the labelled documents of the input file",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return pkg.Evaluate(modelFile, inputFile, outputFile, cmd.OutOrStdout(), parameters)
		},
	}

	cmd.Flags().StringVarP(&modelFile, "model", "m", "", "name of model to evaluate")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "name of labelled data input file")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "name of output file (optional)")
	cmd.Flags().IntVarP(&parameters.BatchSize, "batch-size", "b", 16, "batch size")
	cmd.Flags().Uint64VarP(&parameters.RndSeed, "random-seed", "x", 42, "random seed")

	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

var logLevel string
var logFormat string

func RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "textclass",
		Short:             "Hierarchical attention and bag-of-embeddings document classifiers",
		PersistentPreRunE: setupLogging,
		SilenceUsage:      true,
	}

	root.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "Logging level: any zerolog level, e.g. debug, info or error")
	root.PersistentFlags().StringVarP(&logFormat, "log-format", "", "pretty", "Logging format: pretty or json")

	root.AddCommand(CreateCommand(), PredictCommand(), EvaluateCommand())
	return root
}

func main() {
	if err := RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the --log-level and --log-format flags to the global logger.
func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || logLevel == "" {
		return fmt.Errorf("invalid log level %q", logLevel)
	}
	zerolog.SetGlobalLevel(level)

	switch logFormat {
	case "pretty":
		log.Logger = log.Output(prettyWriter(cmd.ErrOrStderr()))
	case "json":
		log.Logger = zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
	default:
		return fmt.Errorf("invalid log format %q, expected pretty or json", logFormat)
	}
	return nil
}

// prettyWriter prints numeric fields with three decimals.
func prettyWriter(out gio.Writer) zerolog.ConsoleWriter {
	writer := zerolog.ConsoleWriter{Out: out}
	writer.FormatFieldValue = func(i interface{}) string {
		if v, ok := i.(json.Number); ok {
			val, _ := v.Float64()
			return fmt.Sprintf("%.3f", val)
		}
		return fmt.Sprintf("%s", i)
	}
	return writer
}
