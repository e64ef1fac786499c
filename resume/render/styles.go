package render

import (
	"fmt"
	"strings"
)

// RunStyle captures the inline run formatting applied to rendered paragraphs.
type RunStyle struct {
	Bold   bool
	Italic bool
	Size   int
	Color  string
}

const (
	HeadingColor = "1F2937"
	NameColor    = "111111"
	HeadingSize  = 24
	NameSize     = 32
)

// StyleMap centralizes the formatting for key resume elements.
var StyleMap = map[string]RunStyle{
	"name": {
		Bold:  true,
		Size:  NameSize,
		Color: NameColor,
	},
	"sectionHeading": {
		Bold:  true,
		Size:  HeadingSize,
		Color: HeadingColor,
	},
}

func (s RunStyle) runProperties() string {
	if s == (RunStyle{}) {
		return ""
	}
	var b strings.Builder
	b.WriteString("<w:rPr>")
	if s.Bold {
		b.WriteString("<w:b/>")
	}
	if s.Italic {
		b.WriteString("<w:i/>")
	}
	if s.Color != "" {
		fmt.Fprintf(&b, `<w:color w:val="%s"/>`, s.Color)
	}
	if s.Size > 0 {
		fmt.Fprintf(&b, `<w:sz w:val="%d"/>`, s.Size)
	}
	b.WriteString("</w:rPr>")
	return b.String()
}
