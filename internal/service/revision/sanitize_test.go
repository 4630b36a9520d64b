package revision

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "<p>hi</p>", "<p>hi</p>"},
		{"whitespace", "\n  <p>hi</p>\n\n", "<p>hi</p>"},
		{"html fence", "```html\n<p>hi</p>\n```", "<p>hi</p>"},
		{"bare fence", "```\n<p>hi</p>\n```", "<p>hi</p>"},
		{"tsx fence", "```tsx\nconst A = () => <b/>\n```\n", "const A = () => <b/>"},
		{"glued fences", "```html<p>hi</p>```", "<p>hi</p>"},
		{"prose around fence", "Here you go:\n```html\n<p>hi</p>\n```", "Here you go:\n<p>hi</p>"},
		{"only fences", "```html\n```", ""},
		{"empty", "   ", ""},
		{"inner backticks kept", "<code>`x`</code>", "<code>`x`</code>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.raw); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
