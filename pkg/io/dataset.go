package io

import "textclass/pkg/tensor"

// DataBatch is a group of documents run through the classifier together
type DataBatch []*DataRecord

// Pack lays the batch out as a padded [documents, sentences, words] index tensor.
func (b DataBatch) Pack(maxSentences, maxWords int) *tensor.Indices {
	docs := make([][][]int, len(b))
	for i, record := range b {
		docs[i] = record.Sentences
	}
	return tensor.Pack(docs, maxSentences, maxWords)
}

// Targets returns the class indexes of every document of the batch.
func (b DataBatch) Targets() [][]int {
	targets := make([][]int, len(b))
	for i, record := range b {
		targets[i] = record.Targets
	}
	return targets
}

// DataSet hands out documents in file order, BatchSize at a time.
type DataSet struct {
	Data         []*DataRecord
	BatchSize    int
	currentIndex int
}

func NewDataSet(data []*DataRecord, batchSize int) *DataSet {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &DataSet{Data: data, BatchSize: batchSize}
}

// Next returns the following batch, empty once every document was returned.
func (d *DataSet) Next() DataBatch {
	batch := make(DataBatch, 0, d.BatchSize)
	for ; d.currentIndex < len(d.Data) && len(batch) < d.BatchSize; d.currentIndex++ {
		batch = append(batch, d.Data[d.currentIndex])
	}
	return batch
}

func (d *DataSet) Reset() {
	d.currentIndex = 0
}

func (d *DataSet) Size() int {
	return len(d.Data)
}
