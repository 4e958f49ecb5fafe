package io

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	mat "github.com/nlpodyssey/spago/pkg/mat32"

	"textclass/pkg/model"
)

// LoadEmbeddings reads word vectors in the GloVe text format, one
// "word v1 v2 ... vn" line per word. The returned vocabulary keeps the
// reserved padding and unknown rows first, both initialized to zero; a file
// entry for either reserved token overwrites its row.
func LoadEmbeddings(input io.Reader) (model.NameMap, *mat.Dense, error) {
	vocabulary := model.NewVocabulary()
	vectors := [][]mat.Float{nil, nil}
	dimension := 0

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if dimension == 0 {
			dimension = len(fields) - 1
		}
		if len(fields)-1 != dimension || dimension == 0 {
			return model.NameMap{}, nil, fmt.Errorf("line %d: expected %d values, got %d", line, dimension, len(fields)-1)
		}
		vector := make([]mat.Float, dimension)
		for i, field := range fields[1:] {
			value, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return model.NameMap{}, nil, fmt.Errorf("line %d: error parsing value %d: %w", line, i, err)
			}
			vector[i] = mat.Float(value)
		}
		index := vocabulary.ValueFor(normalize(fields[0]))
		if index < len(vectors) {
			vectors[index] = vector
		} else {
			vectors = append(vectors, vector)
		}
	}
	if err := scanner.Err(); err != nil {
		return model.NameMap{}, nil, fmt.Errorf("error reading embeddings: %w", err)
	}
	if dimension == 0 {
		return model.NameMap{}, nil, fmt.Errorf("no embeddings found")
	}

	data := make([]mat.Float, 0, len(vectors)*dimension)
	for _, vector := range vectors {
		if vector == nil {
			vector = make([]mat.Float, dimension)
		}
		data = append(data, vector...)
	}
	return vocabulary, mat.NewDense(len(vectors), dimension, data), nil
}

// LoadVocabulary reads one word per line after the reserved tokens. Blank
// lines and repeated words are skipped.
func LoadVocabulary(input io.Reader) (model.NameMap, error) {
	vocabulary := model.NewVocabulary()
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			vocabulary.ValueFor(normalize(word))
		}
	}
	if err := scanner.Err(); err != nil {
		return model.NameMap{}, fmt.Errorf("error reading vocabulary: %w", err)
	}
	return vocabulary, nil
}
