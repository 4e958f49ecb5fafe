package io

import (
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"strings"

	"textclass/pkg/model"
)

// LabelSeparator splits the classes of a multi-label document.
const LabelSeparator = "|"

// DataRecord is one document of a data file.
type DataRecord struct {
	// Line is the data line the document was read from, the header excluded
	Line int

	// Sentences holds the vocabulary index of every word, sentence by sentence
	Sentences [][]int

	// Targets holds the class indexes of the document, empty when the file has no label column
	Targets []int
}

type DataParameters struct {
	DataFile    string
	TextColumn  string
	LabelColumn string
}

type DataError struct {
	Line  int
	Error string
}

// LoadData reads a CSV data file with a header line, turning the text column
// into word indexes and the optional label column into class indexes.
func LoadData(p DataParameters, metaData *model.Metadata) ([]*DataRecord, []DataError, error) {
	inputFile, err := os.Open(p.DataFile)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file: %w", err)
	}
	defer inputFile.Close()
	return ReadData(inputFile, p, metaData)
}

// ReadData is LoadData over an already opened reader.
func ReadData(input io.Reader, p DataParameters, metaData *model.Metadata) ([]*DataRecord, []DataError, error) {
	var errors []DataError

	reader := csv.NewReader(input)
	reader.Comma = ','

	//First line is expected to be a header
	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading data header: %w", err)
	}

	textColumn, err := findColumn(header, p.TextColumn)
	if err != nil {
		return nil, nil, err
	}
	labelColumn := -1
	if p.LabelColumn != "" {
		if labelColumn, err = findColumn(header, p.LabelColumn); err != nil {
			return nil, nil, err
		}
	}

	var result []*DataRecord
	currentLine := 0
	for record, err := reader.Read(); err != io.EOF; record, err = reader.Read() {
		currentLine++
		if err != nil {
			errors = append(errors, DataError{Line: currentLine, Error: err.Error()})
			continue
		}

		dataRecord := &DataRecord{
			Line:      currentLine,
			Sentences: Encode(Tokenize(record[textColumn]), metaData),
		}
		if labelColumn >= 0 {
			targets, err := parseTargets(metaData, record[labelColumn])
			if err != nil {
				errors = append(errors, DataError{Line: currentLine, Error: err.Error()})
				continue
			}
			dataRecord.Targets = targets
		}
		result = append(result, dataRecord)
	}

	return result, errors, nil
}

func parseTargets(metaData *model.Metadata, value string) ([]int, error) {
	var targets []int
	for _, label := range strings.Split(value, LabelSeparator) {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		target, ok := metaData.ParseLabel(label)
		if !ok {
			return nil, fmt.Errorf("unknown label %s", label)
		}
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("missing label")
	}
	return targets, nil
}

func findColumn(header []string, name string) (int, error) {
	for i, col := range header {
		if col == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %s not found in data header", name)
}

func SaveModel(model *model.Model, writer io.Writer) error {
	encoder := gob.NewEncoder(writer)
	err := encoder.Encode(model)
	if err != nil {
		return fmt.Errorf("error encoding model: %w", err)
	}
	return nil
}

func LoadModel(input io.Reader) (*model.Model, error) {
	decoder := gob.NewDecoder(input)
	model := model.Model{}
	err := decoder.Decode(&model)
	if err != nil {
		return nil, fmt.Errorf("error decoding model: %w", err)
	}
	return &model, nil

}
