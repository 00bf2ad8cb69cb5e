package exporter

import (
	"errors"
	"testing"

	"github.com/envlock/envlock/internal/document"
	apperrors "github.com/envlock/envlock/internal/errors"
)

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"raw", "json", "docker"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", name, err)
		}
	}

	if _, err := ParseFormat("yaml"); !errors.Is(err, apperrors.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got: %v", err)
	}
}

func TestRender_RawSimple(t *testing.T) {
	doc := document.New()
	doc.Set("A", "1")
	doc.Set("B", "2")

	out, err := Render(doc, Raw)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if string(out) != "A=1\nB=2\n" {
		t.Errorf("Unexpected raw output: %q", out)
	}
}

func TestRender_RawEscaping(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"spaces", "two words", "KEY='two words'\n"},
		{"double quotes", `say "hi"`, "KEY='say \"hi\"'\n"},
		{"single quote", "it's", `KEY='it'\''s'` + "\n"},
		{"dollar", "$HOME", "KEY='$HOME'\n"},
		{"empty", "", "KEY=''\n"},
		{"safe punctuation", "a-b_c.d/e:f@g", "KEY=a-b_c.d/e:f@g\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := document.New()
			doc.Set("KEY", tc.value)
			out, err := Render(doc, Raw)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if string(out) != tc.want {
				t.Errorf("Expected %q, got: %q", tc.want, out)
			}
		})
	}
}

func TestRender_JSON(t *testing.T) {
	doc := document.New()
	doc.Set("B", "2")
	doc.Set("A", "1")

	out, err := Render(doc, JSON)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// encoding/json sorts object keys.
	if string(out) != `{"A":"1","B":"2"}`+"\n" {
		t.Errorf("Unexpected json output: %q", out)
	}
}

func TestRender_Docker(t *testing.T) {
	doc := document.New()
	doc.Set("A", "plain")
	doc.Set("B", "line one\nline two")
	doc.Set("C", `no "quoting" at all`)

	out, err := Render(doc, Docker)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "A=plain\nB=line one line two\nC=no \"quoting\" at all\n"
	if string(out) != want {
		t.Errorf("Expected %q, got: %q", want, out)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if _, err := Render(document.New(), Format("xml")); !errors.Is(err, apperrors.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got: %v", err)
	}
}
