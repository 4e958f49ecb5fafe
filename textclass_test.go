package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestReviews(t *testing.T) {
	for _, modelType := range []string{"han", "logreg"} {
		t.Run(modelType, func(t *testing.T) {
			dir := t.TempDir()
			modelFile := filepath.Join(dir, "reviews.model")

			createCmd := CreateCommand()
			createCmd.SetArgs(strings.Split("-o "+modelFile+" -v datasets/reviews/vocab.txt -c film,book "+
				"-t review -l topic -m "+modelType+" -s 8 -d 10 --max-sentences 4 --max-words 12", " "))
			require.NoError(t, createCmd.Execute())

			evaluateCmd := EvaluateCommand()
			evaluationFile := filepath.Join(dir, "evaluation.csv")
			evaluateCmd.SetArgs(strings.Split("-m "+modelFile+" -i datasets/reviews/reviews.csv -o "+evaluationFile+" -b 3", " "))
			report := bytes.NewBufferString("")
			evaluateCmd.SetOut(report)
			require.NoError(t, evaluateCmd.Execute())
			out := report.String()
			require.True(t, strings.Contains(out, "MACRO AVG") || strings.Contains(out, "macro avg"), out)
			require.True(t, strings.Contains(out, "film"))
			require.True(t, strings.Contains(out, "loss"))

			predictCmd := PredictCommand()
			predictionFile := filepath.Join(dir, "predictions.csv")
			predictCmd.SetArgs(strings.Split("-m "+modelFile+" -i datasets/reviews/reviews.csv -o "+predictionFile, " "))
			require.NoError(t, predictCmd.Execute())
			predictions, err := ioutil.ReadFile(predictionFile)
			require.NoError(t, err)
			require.Equal(t, 7, len(strings.Split(strings.TrimSpace(string(predictions)), "\n")))
		})
	}
}

func TestCreate_MissingVocabulary(t *testing.T) {
	createCmd := CreateCommand()
	createCmd.SetArgs(strings.Split("-o "+filepath.Join(t.TempDir(), "m.model")+" -c film,book", " "))
	createCmd.SilenceUsage = true
	createCmd.SilenceErrors = true
	require.Error(t, createCmd.Execute())
}

func TestRootCommand_InvalidLogging(t *testing.T) {
	for _, flags := range [][]string{
		{"--log-level", "loud"},
		{"--log-format", "xml"},
	} {
		root := RootCommand()
		root.SetErr(ioutil.Discard)
		root.SetArgs(append(flags, "predict", "-m", "missing.model", "-i", "missing.csv"))
		err := root.Execute()
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid log")
	}
}

func TestSetupLogging_JSON(t *testing.T) {
	previous := log.Logger
	defer func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()
	logLevel, logFormat = "error", "json"
	out := bytes.NewBufferString("")
	cmd := &cobra.Command{}
	cmd.SetErr(out)
	require.NoError(t, setupLogging(cmd, nil))

	log.Info().Msg("hidden")
	log.Error().Msg("shown")
	require.False(t, strings.Contains(out.String(), "hidden"))
	require.True(t, strings.Contains(out.String(), `"message":"shown"`))
}
