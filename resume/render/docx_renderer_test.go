package render

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resume-tailor/resume/model"
)

func TestRenderDocxMinimalPackage(t *testing.T) {
	buf := model.NewBuffer([]string{"Jane Doe", "EXPERIENCE", "Built <fast> APIs & tools", ""})

	out, err := RenderDocx(nil, buf)
	if err != nil {
		t.Fatalf("render docx: %v", err)
	}

	names, documentXML := readDocx(t, out)
	for _, want := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		if !names[want] {
			t.Fatalf("expected part %s in package", want)
		}
	}
	assertContains(t, documentXML, "Built &lt;fast&gt; APIs &amp; tools")
	assertContains(t, documentXML, `<w:sz w:val="32"/>`)
	assertContains(t, documentXML, `<w:color w:val="1F2937"/>`)
	if got := strings.Count(documentXML, "<w:p>"); got != 4 {
		t.Fatalf("expected 4 paragraphs, got %d", got)
	}
}

func TestRenderDocxKeepsTemplateParts(t *testing.T) {
	var tpl bytes.Buffer
	zw := zip.NewWriter(&tpl)
	for name, content := range map[string]string{
		"word/document.xml": "<old/>",
		"word/styles.xml":   "<styles/>",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, err := RenderDocx(tpl.Bytes(), model.NewBuffer([]string{"Jane"}))
	if err != nil {
		t.Fatalf("render docx: %v", err)
	}
	names, documentXML := readDocx(t, out)
	if !names["word/styles.xml"] {
		t.Fatal("expected template styles to be kept")
	}
	if strings.Contains(documentXML, "<old/>") {
		t.Fatal("expected document.xml to be replaced")
	}
}

func TestWriteFileText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tailored.md")
	if err := WriteFile(path, model.NewBuffer([]string{"A", "B"}), ""); err != nil {
		t.Fatalf("write file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "A\nB\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestIsHeading(t *testing.T) {
	cases := map[string]bool{
		"EXPERIENCE":      true,
		"SKILLS & TOOLS":  true,
		"Experience":      false,
		"2019 - 2023":     false,
		"":                false,
		"- Built systems": false,
	}
	for line, want := range cases {
		if got := isHeading(line); got != want {
			t.Fatalf("isHeading(%q) = %v, want %v", line, got, want)
		}
	}
}

func readDocx(t *testing.T, data []byte) (map[string]bool, string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	names := make(map[string]bool)
	var documentXML string
	for _, f := range zr.File {
		names[f.Name] = true
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read document.xml: %v", err)
		}
		documentXML = string(raw)
	}
	return names, documentXML
}

func assertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}
