package tokenizer

import (
	"testing"
)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := New("")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return tok
}

func TestNew_DefaultEncoding(t *testing.T) {
	tok := newTestTokenizer(t)
	if tok.Encoding() != DefaultEncoding {
		t.Errorf("Encoding() = %q, want %q", tok.Encoding(), DefaultEncoding)
	}
}

func TestNew_UnknownEncoding(t *testing.T) {
	if _, err := New("bogus_base"); err == nil {
		t.Error("New() should fail for unknown encoding")
	}
}

func TestNew_AllEncodings(t *testing.T) {
	for _, name := range Encodings() {
		t.Run(name, func(t *testing.T) {
			tok, err := New(name)
			if err != nil {
				t.Fatalf("New(%q) failed: %v", name, err)
			}
			n, err := tok.Count("hello")
			if err != nil {
				t.Fatalf("Count() failed: %v", err)
			}
			if n <= 0 {
				t.Errorf("Count(hello) = %d, want > 0", n)
			}
		})
	}
}

func TestCount_Blank(t *testing.T) {
	tok := newTestTokenizer(t)

	tests := []string{"", " ", "\n\t  \n"}
	for _, text := range tests {
		n, err := tok.Count(text)
		if err != nil {
			t.Fatalf("Count(%q) failed: %v", text, err)
		}
		if n != 0 {
			t.Errorf("Count(%q) = %d, want 0", text, n)
		}
	}
}

func TestCount_Deterministic(t *testing.T) {
	tok := newTestTokenizer(t)

	texts := []string{
		"Hello world",
		"The quick brown fox jumps over the lazy dog.",
		"func main() { fmt.Println(\"hi\") }",
		"こんにちは世界",
	}

	for _, text := range texts {
		first, err := tok.Count(text)
		if err != nil {
			t.Fatalf("Count() failed: %v", err)
		}
		second, err := tok.Count(text)
		if err != nil {
			t.Fatalf("Count() failed: %v", err)
		}
		if first != second {
			t.Errorf("Count(%q) not deterministic: %d != %d", text, first, second)
		}
		if first <= 0 {
			t.Errorf("Count(%q) = %d, want > 0", text, first)
		}
	}
}

func TestCount_LongerTextHasMoreTokens(t *testing.T) {
	tok := newTestTokenizer(t)

	short, _ := tok.Count("Hello world")
	long, _ := tok.Count("Hello world, this sentence is clearly longer than the first one.")
	if long <= short {
		t.Errorf("long count %d should exceed short count %d", long, short)
	}
}
