package io

import (
	"strings"
	"unicode"

	"github.com/nlpodyssey/spago/pkg/nlp/tokenizers"
	"github.com/nlpodyssey/spago/pkg/nlp/tokenizers/basetokenizer"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"textclass/pkg/model"
)

// Tokenize splits text into sentences on '.', '!' and '?', and sentences into
// words on whitespace and punctuation. Punctuation is dropped. Words are
// NFKC-normalized and case-folded.
func Tokenize(text string) [][]string {
	text = normalize(text)
	tokenizer := basetokenizer.New()
	var sentences [][]string
	for _, sentence := range strings.FieldsFunc(text, isSentenceEnd) {
		var words []string
		for _, token := range tokenizers.GetStrings(tokenizer.Tokenize(sentence)) {
			if !isPunctuation(token) {
				words = append(words, token)
			}
		}
		if len(words) > 0 {
			sentences = append(sentences, words)
		}
	}
	return sentences
}

func normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isPunctuation(token string) bool {
	for _, r := range token {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// Encode maps every word to its vocabulary index. Unknown words get model.UnknownIndex.
func Encode(sentences [][]string, metaData *model.Metadata) [][]int {
	out := make([][]int, len(sentences))
	for i, sentence := range sentences {
		out[i] = make([]int, len(sentence))
		for j, word := range sentence {
			out[i][j] = metaData.WordIndex(word)
		}
	}
	return out
}
