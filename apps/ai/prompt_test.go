package ai

import (
	"strings"
	"testing"
)

func TestBuildInstructions(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		wantParts   []string
		absentParts []string
	}{
		{
			name: "empty options",
			opts: Options{},
		},
		{
			name:      "length and tone",
			opts:      Options{Length: "short", Tone: "formal"},
			wantParts: []string{"brief", "formal and precise"},
		},
		{
			name:        "unknown values fall back silently",
			opts:        Options{Length: "gigantic", Tone: "belligerent"},
			absentParts: []string{"gigantic", "belligerent"},
		},
		{
			name:      "key points with theme and prefix",
			opts:      Options{IncludeKeyPoints: true, KeyPointPosition: "start", KeyPointFormat: "numbered", KeyPointDepth: "detailed", KeyPointTheme: "pricing", KeyPointPrefix: ">>"},
			wantParts: []string{"detailed", "numbered list", "at the start of", "pricing", `">>"`},
		},
		{
			name:      "language pin",
			opts:      Options{Language: "de"},
			wantParts: []string{`"de"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildInstructions(tt.opts)
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Fatalf("instructions %q missing %q", got, part)
				}
			}
			for _, part := range tt.absentParts {
				if strings.Contains(got, part) {
					t.Fatalf("instructions %q should not contain %q", got, part)
				}
			}
		})
	}
}

func TestBuildInstructionsEmptyByDefault(t *testing.T) {
	if got := BuildInstructions(Options{}); got != "" {
		t.Fatalf("default options should produce no instructions, got %q", got)
	}
}

func TestBuildChunkPrompt(t *testing.T) {
	chunk := Chunk{Content: "chunk body here", Words: 3, Index: 0}

	prompt, err := BuildChunkPrompt(chunk, 3, "what happened?", "Keep it brief.")
	if err != nil {
		t.Fatalf("BuildChunkPrompt: %v", err)
	}

	if !strings.Contains(prompt, "part 1 of 3") {
		t.Fatalf("chunk index should render 1-based: %q", prompt)
	}
	if !strings.Contains(prompt, "chunk body here") {
		t.Fatalf("prompt is missing the chunk content")
	}
	if !strings.Contains(prompt, "what happened?") {
		t.Fatalf("prompt is missing the question")
	}
	if !strings.Contains(prompt, "Keep it brief.") {
		t.Fatalf("prompt is missing the instructions")
	}
	if strings.Contains(prompt, "final part") {
		t.Fatalf("non-final chunk should not carry the final-part marker")
	}
}

func TestBuildChunkPromptMarksLastChunk(t *testing.T) {
	chunk := Chunk{Content: "tail", Words: 1, Index: 2}

	prompt, err := BuildChunkPrompt(chunk, 3, "q", "")
	if err != nil {
		t.Fatalf("BuildChunkPrompt: %v", err)
	}

	if !strings.Contains(prompt, "part 3 of 3") {
		t.Fatalf("last chunk should render as part 3 of 3: %q", prompt)
	}
	if !strings.Contains(prompt, "This is the final part of the transcript.") {
		t.Fatalf("last chunk should carry the final-part marker")
	}
}

func TestBuildReducePromptJoinsExtractsInOrder(t *testing.T) {
	prompt, err := BuildReducePrompt([]string{"first extract", "second extract"}, "q", "")
	if err != nil {
		t.Fatalf("BuildReducePrompt: %v", err)
	}

	first := strings.Index(prompt, "first extract")
	second := strings.Index(prompt, "second extract")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("extracts out of order or missing: %q", prompt)
	}
}

func TestBuildSinglePassPrompt(t *testing.T) {
	prompt := BuildSinglePassPrompt("the transcript", "the question", "the instructions")

	for _, want := range []string{"the transcript", "the question", "the instructions"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("single-pass prompt missing %q", want)
		}
	}
}

func TestToneDescriptionsCoverage(t *testing.T) {
	if len(ToneDescriptions) != 20 {
		t.Fatalf("expected 20 supported tones, got %d", len(ToneDescriptions))
	}
	for tone, description := range ToneDescriptions {
		if description == "" {
			t.Fatalf("tone %q has an empty description", tone)
		}
	}
}
