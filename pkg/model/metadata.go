package model

const (
	// PaddingIndex marks an absent word. A sentence made only of padding is an absent sentence.
	PaddingIndex = 0
	// UnknownIndex is assigned to words missing from the vocabulary.
	UnknownIndex = 1

	PaddingToken = "<pad>"
	UnknownToken = "<unk>"
)

// NameMap implements a bidirectional mapping between a name and an index
type NameMap struct {
	NameToIndex map[string]int
	IndexToName map[int]string
}

func (f NameMap) Set(name string, index int) {
	f.NameToIndex[name] = index
	f.IndexToName[index] = name
}

func (f NameMap) Size() int {
	return len(f.IndexToName)
}

func (f NameMap) ContainsName(name string) (int, bool) {
	index, ok := f.NameToIndex[name]
	return index, ok
}

// ValueFor returns the index of name, adding it when missing.
func (f NameMap) ValueFor(name string) int {
	index, ok := f.NameToIndex[name]
	if !ok {
		index = f.Size()
		f.Set(name, index)
	}
	return index
}

func NewNameMap() NameMap {
	return NameMap{
		NameToIndex: map[string]int{},
		IndexToName: map[int]string{},
	}
}

// NewVocabulary returns a word map holding only the reserved padding and unknown tokens.
func NewVocabulary() NameMap {
	vocabulary := NewNameMap()
	vocabulary.Set(PaddingToken, PaddingIndex)
	vocabulary.Set(UnknownToken, UnknownIndex)
	return vocabulary
}

type Metadata struct {
	// Vocabulary maps words to embedding rows
	Vocabulary NameMap

	// Labels maps class names to class indexes
	Labels NameMap

	// TextColumn names the data column holding the document text
	TextColumn string

	// LabelColumn names the data column holding the document classes
	LabelColumn string

	// MaxSentences and MaxWords fix the padded grid documents are packed into.
	// Zero means the largest size found in each batch.
	MaxSentences int
	MaxWords     int
}

func NewMetadata() *Metadata {
	return &Metadata{
		Vocabulary: NewVocabulary(),
		Labels:     NewNameMap(),
	}
}

// WordIndex returns the embedding row for word, falling back to UnknownIndex.
func (d *Metadata) WordIndex(word string) int {
	if index, ok := d.Vocabulary.ContainsName(word); ok {
		return index
	}
	return UnknownIndex
}

func (d *Metadata) ParseLabel(value string) (int, bool) {
	return d.Labels.ContainsName(value)
}
