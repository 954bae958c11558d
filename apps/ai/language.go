package ai

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

var (
	detector     lingua.LanguageDetector
	detectorOnce sync.Once
)

// getDetector returns a singleton language detector instance
func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		// Restricted language set keeps model loading fast
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English,
				lingua.Spanish,
				lingua.French,
				lingua.German,
				lingua.Portuguese,
				lingua.Italian,
				lingua.Dutch,
				lingua.Russian,
				lingua.Ukrainian,
				lingua.Polish,
				lingua.Turkish,
				lingua.Arabic,
				lingua.Persian,
				lingua.Hindi,
				lingua.Chinese,
				lingua.Japanese,
				lingua.Korean,
				lingua.Vietnamese,
				lingua.Indonesian,
				lingua.Thai,
			).
			WithMinimumRelativeDistance(0.25).
			Build()
	})
	return detector
}

// languageCodeMap maps lingua languages to ISO 639-1 codes
var languageCodeMap = map[lingua.Language]string{
	lingua.English:    "en",
	lingua.Spanish:    "es",
	lingua.French:     "fr",
	lingua.German:     "de",
	lingua.Portuguese: "pt",
	lingua.Italian:    "it",
	lingua.Dutch:      "nl",
	lingua.Russian:    "ru",
	lingua.Ukrainian:  "uk",
	lingua.Polish:     "pl",
	lingua.Turkish:    "tr",
	lingua.Arabic:     "ar",
	lingua.Persian:    "fa",
	lingua.Hindi:      "hi",
	lingua.Chinese:    "zh",
	lingua.Japanese:   "ja",
	lingua.Korean:     "ko",
	lingua.Vietnamese: "vi",
	lingua.Indonesian: "id",
	lingua.Thai:       "th",
}

// DetectLanguage detects the language of the given text and returns its
// ISO 639-1 code, or empty string when detection fails. Only a sample of
// the text is examined, transcripts can be very long.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < 3 {
		return ""
	}
	if len(text) > 2000 {
		cut := text[:2000]
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		text = cut
	}

	language, exists := getDetector().DetectLanguageOf(text)
	if !exists {
		return ""
	}

	if code, ok := languageCodeMap[language]; ok {
		return code
	}
	return ""
}
