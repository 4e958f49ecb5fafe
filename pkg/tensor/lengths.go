package tensor

import "fmt"

// SentenceLengths counts the nonzero word indices of every sentence of a
// [batch, sentences, words] tensor. The result is flattened to
// [batch*sentences], matching the batch the sentence encoder runs over.
func SentenceLengths(x *Indices) (*Indices, error) {
	if x.Rank() != 3 {
		return nil, fmt.Errorf("%w: sentence lengths need rank 3, got %v", ErrShape, x.Shape)
	}
	return x.CountNonZero().Reshape(x.Dim(0) * x.Dim(1))
}

// DocumentLengths counts, for every document of a [batch, sentences, words]
// tensor, the sentences holding at least one nonzero word index.
func DocumentLengths(x *Indices) (*Indices, error) {
	if x.Rank() != 3 {
		return nil, fmt.Errorf("%w: document lengths need rank 3, got %v", ErrShape, x.Shape)
	}
	return x.SumLastAxis().CountNonZero(), nil
}

// Pack lays ragged documents out as a zero-padded [len(docs), sentences, words]
// tensor. Sentences and words beyond the grid are dropped. A non-positive
// sentences or words takes the largest size found in docs.
func Pack(docs [][][]int, sentences, words int) *Indices {
	if sentences <= 0 || words <= 0 {
		maxSentences, maxWords := 0, 0
		for _, doc := range docs {
			if len(doc) > maxSentences {
				maxSentences = len(doc)
			}
			for _, sentence := range doc {
				if len(sentence) > maxWords {
					maxWords = len(sentence)
				}
			}
		}
		if sentences <= 0 {
			sentences = maxSentences
		}
		if words <= 0 {
			words = maxWords
		}
	}

	out := Zeros(len(docs), sentences, words)
	for b, doc := range docs {
		for s, sentence := range doc {
			if s == sentences {
				break
			}
			for w, index := range sentence {
				if w == words {
					break
				}
				out.Set(index, b, s, w)
			}
		}
	}
	return out
}
