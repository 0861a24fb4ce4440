package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "basic trim",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "multiple spaces",
			input: "hello    world",
			want:  "hello world",
		},
		{
			name:  "tabs and newlines",
			input: "hello\t\nworld",
			want:  "hello world",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café & Spa™ ",
			want:  "Café & Spa™",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeNotes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Bring the projector", want: "Bring the projector"},
		{name: "control characters", input: "room\x00 key\x07 at desk", want: "room key at desk"},
		{name: "multiline", input: "line one\r\n\r\nline two", want: "line one line two"},
		{name: "unicode kept", input: "  מקרן  בבקשה ", want: "מקרן בבקשה"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeNotes(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeNotes(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := SanitizeNotes(got); again != got {
				t.Errorf("SanitizeNotes not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "room-101", want: "room-101"},
		{input: "  room-101 ", want: "room-101"},
		{input: "room 101", want: "room_101"},
		{input: "../etc/passwd", want: ".._etc_passwd"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeID(tt.input); got != tt.want {
				t.Errorf("SanitizeID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
