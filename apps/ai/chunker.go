package ai

import (
	"strings"
)

// DefaultChunkWords is the maximum word count per transcript chunk
const DefaultChunkWords = 80000

// Chunk is one transcript slice produced by Split
type Chunk struct {
	Content string
	Words   int
	Index   int
}

// CountWords counts whitespace-separated words
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Split packs a transcript into chunks of at most maxWords words each,
// greedily and in order, so joining the chunks with a space yields the
// original word sequence. An empty transcript yields no chunks.
func Split(transcript string, maxWords int) []Chunk {
	if maxWords <= 0 {
		maxWords = DefaultChunkWords
	}

	words := strings.Fields(transcript)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		part := words[start:end]
		chunks = append(chunks, Chunk{
			Content: strings.Join(part, " "),
			Words:   len(part),
			Index:   len(chunks),
		})
	}

	return chunks
}
