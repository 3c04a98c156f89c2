package util

import "testing"

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain alias",
			input: "TP53",
			want:  "TP53",
		},
		{
			name:  "contains null byte",
			input: "MD\x00M2",
			want:  "MDM2",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'p', '5', 0xff, '3'}),
			want:  "p53",
		},
		{
			name:  "keeps greek letters",
			input: "TNF-α",
			want:  "TNF-α",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}
