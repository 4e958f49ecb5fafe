package pkg

import (
	"fmt"
	gio "io"
	"os"

	"github.com/rs/zerolog/log"

	"textclass/pkg/io"
	"textclass/pkg/model"
)

type NoopWriter struct{}

func (x NoopWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func printDataErrors(errors []io.DataError) {
	for _, err := range errors {
		log.Error().Msgf("Error parsing data at line %d: %s", err.Line, err.Error)
	}
}

func loadModel(modelFileName string) (*model.Model, error) {
	modelFile, err := os.Open(modelFileName)
	if err != nil {
		return nil, fmt.Errorf("error opening model file %s: %w", modelFileName, err)
	}
	defer modelFile.Close()

	m, err := io.LoadModel(modelFile)
	if err != nil {
		return nil, fmt.Errorf("error loading model from file %s: %w", modelFileName, err)
	}
	return m, nil
}

// createOutput returns a writer for outputFileName, discarding everything when
// the name is empty. The returned close function is never nil.
func createOutput(outputFileName string) (gio.Writer, func() error, error) {
	if outputFileName == "" {
		return NoopWriter{}, func() error { return nil }, nil
	}
	outputFile, err := os.Create(outputFileName)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening output file %s: %w", outputFileName, err)
	}
	return outputFile, outputFile.Close, nil
}
