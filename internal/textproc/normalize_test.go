package textproc

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "a  b\t\tc", "a b c"},
		{"newlines and tabs", "line one\nline two\tend", "line one line two end"},
		{"control characters", "a\x00b\x1fc", "abc"},
		{"leading and trailing", "  padded  ", "padded"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitSentences(t *testing.T) {
	text := "Coffee is popular. Studies disagree! Is it healthy? Nobody knows"
	sentences := SplitSentences(text)

	want := []string{"Coffee is popular.", "Studies disagree!", "Is it healthy?", "Nobody knows"}
	if len(sentences) != len(want) {
		t.Fatalf("expected %d sentences, got %d: %v", len(want), len(sentences), sentences)
	}
	for i, s := range sentences {
		if s.Text != want[i] {
			t.Errorf("sentence %d: got %q, want %q", i, s.Text, want[i])
		}
		if text[s.Start:s.End] != s.Text {
			t.Errorf("sentence %d offsets [%d:%d] do not recover text", i, s.Start, s.End)
		}
	}
}

func TestSplitSentences_KeepsDecimals(t *testing.T) {
	sentences := SplitSentences("The effect size was 1.5 across trials. Replication failed.")
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(sentences), sentences)
	}
}

func TestStripHTML(t *testing.T) {
	page := `<html><head><script>var x = 1;</script><style>p{}</style></head>
<body><h1>Title</h1><p>Body text here.</p></body></html>`

	got, err := StripHTML(page)
	if err != nil {
		t.Fatalf("StripHTML failed: %v", err)
	}
	if got != "Title Body text here." {
		t.Errorf("unexpected text: %q", got)
	}
}
