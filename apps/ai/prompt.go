package ai

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/CloudyKit/jet/v6"
)

// Options is the flat per-request customization set, translated into
// system instruction text prepended to every LLM call
type Options struct {
	Length           string `json:"length"`             // short, medium, long
	Tone             string `json:"tone"`               // see ToneDescriptions
	IncludeKeyPoints bool   `json:"include_key_points"`
	KeyPointPosition string `json:"key_point_position"` // start, end
	KeyPointFormat   string `json:"key_point_format"`   // bullets, numbered
	KeyPointDepth    string `json:"key_point_depth"`    // brief, detailed
	KeyPointTheme    string `json:"key_point_theme"`    // optional topical filter
	KeyPointPrefix   string `json:"key_point_prefix"`   // optional marker string
	Language         string `json:"language"`           // ISO 639-1, empty = auto
}

// ToneDescriptions maps tone identifiers to instruction text
var ToneDescriptions = map[string]string{
	"formal":         "formal and precise, avoiding colloquialisms",
	"casual":         "relaxed and conversational, like chatting with a friend",
	"professional":   "polished and businesslike",
	"friendly":       "warm, approachable and encouraging",
	"neutral":        "plain and matter-of-fact, without emotional coloring",
	"academic":       "scholarly, citing concepts precisely and qualifying claims",
	"humorous":       "lighthearted with occasional wit, never at the cost of accuracy",
	"enthusiastic":   "energetic and upbeat about the material",
	"skeptical":      "questioning, pointing out weak arguments and unsupported claims",
	"empathetic":     "considerate of the emotional weight of the material",
	"technical":      "precise with terminology, assuming a knowledgeable reader",
	"simple":         "plain words and short sentences, understandable by anyone",
	"storytelling":   "narrative, presenting the material as an unfolding story",
	"journalistic":   "objective and fact-first, like a news report",
	"motivational":   "inspiring, emphasizing takeaways the reader can act on",
	"analytical":     "structured and logical, weighing evidence step by step",
	"poetic":         "evocative and figurative while staying faithful to the content",
	"sarcastic":      "dry and ironic, while keeping every fact straight",
	"authoritative":  "confident and definitive, as a subject-matter expert",
	"conversational": "natural spoken rhythm, as if explaining out loud",
}

var lengthInstructions = map[string]string{
	"short":  "Keep the answer brief: a few sentences, at most one short paragraph.",
	"medium": "Aim for a medium-length answer of two to four paragraphs.",
	"long":   "Provide a thorough, detailed answer; cover every significant point.",
}

// chunkPromptTemplate frames a single transcript slice. The closing
// instruction only appears on the final chunk so intermediate calls stay
// extractive.
const chunkPromptTemplate = `You are given part {{Index}} of {{Total}} of a video transcript. Your task is to extract the information from this part that is relevant to the question below. Do not answer the question yet; produce a dense, self-contained extract of the relevant content.

Question: {{Question}}
{{if Instructions != ""}}
{{Instructions}}
{{end}}

Transcript part {{Index}} of {{Total}}:
{{Content}}
{{if IsLast}}

This is the final part of the transcript.
{{end}}`

// reducePromptTemplate synthesizes the chunk extracts into the answer
const reducePromptTemplate = `The following are extracts from consecutive parts of a video transcript, in order. Combine them into a single coherent answer to the question. Do not mention that the transcript was split into parts.

Question: {{Question}}
{{if Instructions != ""}}
{{Instructions}}
{{end}}

Extracts:
{{Extracts}}`

const titlePrompt = "Generate a title of three to five words for a conversation about the following content. Reply with the title only, no quotes or punctuation around it."

var (
	promptSet     *jet.Set
	promptSetOnce sync.Once
)

func templates() *jet.Set {
	promptSetOnce.Do(func() {
		loader := jet.NewInMemLoader()
		loader.Set("chunk", chunkPromptTemplate)
		loader.Set("reduce", reducePromptTemplate)
		promptSet = jet.NewSet(loader)
	})
	return promptSet
}

func render(name string, vars jet.VarMap) (string, error) {
	tmpl, err := templates().GetTemplate(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars, nil); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// BuildInstructions converts options into instruction text. Unknown values
// fall back to sensible defaults instead of failing the request.
func BuildInstructions(opts Options) string {
	var parts []string

	if instruction, ok := lengthInstructions[opts.Length]; ok {
		parts = append(parts, instruction)
	}

	if tone, ok := ToneDescriptions[opts.Tone]; ok {
		parts = append(parts, fmt.Sprintf("Write in a tone that is %s.", tone))
	}

	if opts.IncludeKeyPoints {
		format := "bullet points"
		if opts.KeyPointFormat == "numbered" {
			format = "a numbered list"
		}
		position := "at the end of"
		if opts.KeyPointPosition == "start" {
			position = "at the start of"
		}
		depth := "concise"
		if opts.KeyPointDepth == "detailed" {
			depth = "detailed"
		}
		keyPoints := fmt.Sprintf("Include a %s key point summary as %s %s the answer.", depth, format, position)
		if opts.KeyPointTheme != "" {
			keyPoints += fmt.Sprintf(" Focus the key points on: %s.", opts.KeyPointTheme)
		}
		if opts.KeyPointPrefix != "" {
			keyPoints += fmt.Sprintf(" Prefix each key point with %q.", opts.KeyPointPrefix)
		}
		parts = append(parts, keyPoints)
	}

	if opts.Language != "" {
		parts = append(parts, fmt.Sprintf("Answer in the language with ISO 639-1 code %q.", opts.Language))
	}

	return strings.Join(parts, " ")
}

// BuildChunkPrompt renders the scaffold for one chunk. Index is 1-based in
// the rendered text.
func BuildChunkPrompt(chunk Chunk, total int, question, instructions string) (string, error) {
	vars := make(jet.VarMap)
	vars.Set("Index", chunk.Index+1)
	vars.Set("Total", total)
	vars.Set("Question", question)
	vars.Set("Instructions", instructions)
	vars.Set("Content", chunk.Content)
	vars.Set("IsLast", chunk.Index == total-1)
	return render("chunk", vars)
}

// BuildReducePrompt renders the final synthesis prompt from the surviving
// chunk extracts joined in index order
func BuildReducePrompt(extracts []string, question, instructions string) (string, error) {
	vars := make(jet.VarMap)
	vars.Set("Question", question)
	vars.Set("Instructions", instructions)
	vars.Set("Extracts", strings.Join(extracts, "\n\n"))
	return render("reduce", vars)
}

// BuildSinglePassPrompt frames the whole transcript with the question for
// the small-transcript path
func BuildSinglePassPrompt(transcript, question, instructions string) string {
	var b strings.Builder
	b.WriteString("Answer the question below using the video transcript that follows.")
	if instructions != "" {
		b.WriteString(" ")
		b.WriteString(instructions)
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nTranscript:\n")
	b.WriteString(transcript)
	return b.String()
}
