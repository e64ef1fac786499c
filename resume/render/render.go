package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resume-tailor/resume/model"
)

// Render produces the output bytes for buf in the format implied by the output file name.
// template is only consulted for DOCX output and may be nil.
func Render(fileName string, buf model.Buffer, template []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return RenderDocx(template, buf)
	default:
		return RenderText(buf), nil
	}
}

// RenderText joins the buffer with newlines and terminates the final line.
func RenderText(buf model.Buffer) []byte {
	if buf.Len() == 0 {
		return nil
	}
	return []byte(buf.Text() + "\n")
}

// WriteFile renders buf to path, creating parent directories. For DOCX output the source resume at
// templatePath (if it is a DOCX) is used as the package template.
func WriteFile(path string, buf model.Buffer, templatePath string) error {
	var template []byte
	if strings.EqualFold(filepath.Ext(templatePath), ".docx") {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return fmt.Errorf("read docx template: %w", err)
		}
		template = data
	}

	out, err := Render(path, buf, template)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
