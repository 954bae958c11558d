package ai

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "The quick brown fox jumps over the lazy dog and keeps on running through the field.", "en"},
		{"spanish", "El rápido zorro marrón salta sobre el perro perezoso y sigue corriendo por el campo.", "es"},
		{"german", "Der schnelle braune Fuchs springt über den faulen Hund und läuft weiter über das Feld.", "de"},
		{"empty", "", ""},
		{"whitespace", "   \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.text); got != tt.want {
				t.Fatalf("DetectLanguage = %q, want %q", got, tt.want)
			}
		})
	}
}
