package validate

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestString_LengthAndEmptiness(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		constraints StringConstraints
		wantErr     error
		want        string
	}{
		{"within bounds", "Velvet Room", StringConstraints{MinLength: 3, MaxLength: 20}, nil, "Velvet Room"},
		{"below minimum", "ab", StringConstraints{MinLength: 3}, ErrStringTooShort, ""},
		{"above maximum", strings.Repeat("x", 101), StringConstraints{MaxLength: 100}, ErrStringTooLong, ""},
		{"empty rejected", "", StringConstraints{}, ErrEmpty, ""},
		{"empty allowed", "", StringConstraints{AllowEmpty: true}, nil, ""},
		{"trimmed before checks", "  Velvet Room  ", StringConstraints{MaxLength: 11, TrimSpace: true}, nil, "Velvet Room"},
		// Length limits count runes, not bytes.
		{"multibyte counted as runes", "Café Aubergé", StringConstraints{MaxLength: 12}, nil, "Café Aubergé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String(tt.input, tt.constraints)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("String() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("String() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestString_PatternAndWords(t *testing.T) {
	slug := regexp.MustCompile(`^[a-z0-9\-]+$`)

	if _, err := String("late-night-eats", StringConstraints{AllowedPattern: slug}); err != nil {
		t.Errorf("slug input rejected: %v", err)
	}
	if _, err := String("Late Night!", StringConstraints{AllowedPattern: slug}); !errors.Is(err, ErrInvalidCharacters) {
		t.Errorf("pattern miss error = %v, want ErrInvalidCharacters", err)
	}

	blocked := StringConstraints{DisallowedWords: []string{"spam", "scam"}}
	if _, err := String("great SCAM deal", blocked); err == nil {
		t.Error("disallowed word should be rejected regardless of case")
	}
	if _, err := String("great bar", blocked); err != nil {
		t.Errorf("clean input rejected: %v", err)
	}
}

func TestString_SQLKeywordDetection(t *testing.T) {
	constraints := StringConstraints{MaxLength: 100, CheckSQLKeywords: true, TrimSpace: true}

	tests := []struct {
		input   string
		wantErr bool
	}{
		{"a normal sentence", false},
		{"SELECT something", true},
		{"select * from venues", true},
		{"DROP it", true},
		{"note -- trailing comment", true},
		{"xp_cmdshell test", true},
		// Keywords match on word boundaries only.
		{"The Executive", false},
		{"Select Sounds Collective", true},
	}

	for _, tt := range tests {
		_, err := String(tt.input, constraints)
		if gotErr := err != nil; gotErr != tt.wantErr {
			t.Errorf("String(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrSQLKeyword) {
			t.Errorf("String(%q) error = %v, want ErrSQLKeyword", tt.input, err)
		}
	}
}

func TestSanitizeHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Velvet Room", "Velvet Room"},
		{"<script>alert('xss')</script>", "&lt;script&gt;alert(&#39;xss&#39;)&lt;/script&gt;"},
		{`<img onerror="evil()">`, "&lt;img onerror=&#34;evil()&#34;&gt;"},
		{"Gin & Tonic", "Gin &amp; Tonic"},
	}

	for _, tt := range tests {
		if got := SanitizeHTML(tt.input); got != tt.want {
			t.Errorf("SanitizeHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestVenueName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain name", "The Velvet Room", false},
		{"punctuation in allowlist", "Mick's Tap & Grill", false},
		{"versioned name", "Bar-None_v2.0", false},
		{"single character", "X", false},
		{"empty", "", true},
		{"over max length", strings.Repeat("a", 101), true},
		{"characters outside allowlist", "Venue@Name#123", true},
		// Real venues use SQL keywords as words; the allowlist already
		// blocks metacharacters, so the keyword check stays off here.
		{"keyword as name", "DROP ZONE", false},
		{"keyword substring", "The Executive Lounge", false},
		{"keyword mid-sentence", "Select Sounds Collective", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VenueName(tt.input)
			if gotErr := err != nil; gotErr != tt.wantErr {
				t.Fatalf("VenueName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got == "" {
				t.Error("VenueName() returned empty string for valid input")
			}
		})
	}
}

func TestNeighborhood(t *testing.T) {
	if got, err := Neighborhood("Lower East Side"); err != nil || got != "Lower East Side" {
		t.Errorf("Neighborhood() = %q, %v", got, err)
	}
	if _, err := Neighborhood(strings.Repeat("a", 100)); err != nil {
		t.Errorf("max-length neighborhood rejected: %v", err)
	}
	if _, err := Neighborhood(strings.Repeat("a", 101)); err == nil {
		t.Error("over-length neighborhood accepted")
	}
	if _, err := Neighborhood(""); err == nil {
		t.Error("empty neighborhood accepted")
	}
}

func TestReviewNote(t *testing.T) {
	if _, err := ReviewNote(""); err != nil {
		t.Errorf("empty note rejected: %v", err)
	}
	if _, err := ReviewNote(strings.Repeat("a", 1000)); err != nil {
		t.Errorf("max-length note rejected: %v", err)
	}
	if _, err := ReviewNote(strings.Repeat("a", 1001)); err == nil {
		t.Error("over-length note accepted")
	}

	got, err := ReviewNote("Check <b>hours</b> before approving")
	if err != nil {
		t.Fatalf("ReviewNote() error = %v", err)
	}
	if !strings.Contains(got, "&lt;b&gt;") {
		t.Errorf("ReviewNote() did not escape HTML: %q", got)
	}
}

func TestDescription(t *testing.T) {
	if _, err := Description(""); err != nil {
		t.Errorf("empty description rejected: %v", err)
	}
	if _, err := Description("Dim basement bar with live jazz on weekdays."); err != nil {
		t.Errorf("plain description rejected: %v", err)
	}
	if _, err := Description(strings.Repeat("a", 5001)); err == nil {
		t.Error("over-length description accepted")
	}
}
