package generate

import "testing"

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantTitle string
		wantBody  string
	}{
		{"plain", "A Title\nBody text.", "A Title", "Body text."},
		{"markdown heading", "## The Moon\n\nBody.", "The Moon", "Body."},
		{"label", "Title: Mars Returns\nBody.", "Mars Returns", "Body."},
		{"quoted bold", "**\"Quoted\"**\nBody.", "Quoted", "Body."},
		{"crlf", "Heading\r\nLine one.\r\nLine two.", "Heading", "Line one.\nLine two."},
		{"leading blank lines", "\n\n  Heading  \nBody.", "Heading", "Body."},
		{"title only", "Just a title", "Just a title", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := splitTitle(tt.in)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}
