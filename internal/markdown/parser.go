package markdown

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

// Parser renders user-authored markdown. Raw HTML in the source is dropped.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
		),
	)

	return &Parser{
		md: md,
	}
}

// Render converts markdown to HTML.
func (p *Parser) Render(source string) (template.HTML, error) {
	if source == "" {
		return "", nil
	}

	var buf bytes.Buffer
	err := p.md.Convert([]byte(source), &buf)
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Document decodes the YAML frontmatter of source into meta and returns the
// markdown body that follows it.
func (p *Parser) Document(source []byte, meta any) ([]byte, error) {
	context := parser.NewContext()
	p.md.Parser().Parse(text.NewReader(source), parser.WithContext(context))

	data := frontmatter.Get(context)
	if data == nil {
		return nil, fmt.Errorf("document has no frontmatter")
	}
	if err := data.Decode(meta); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	return body(source), nil
}

// body returns what follows the closing frontmatter delimiter.
func body(source []byte) []byte {
	lines := bytes.SplitAfter(source, []byte("\n"))
	if len(lines) == 0 {
		return nil
	}

	delim := bytes.TrimSpace(lines[0])
	offset := len(lines[0])
	for _, line := range lines[1:] {
		offset += len(line)
		if bytes.Equal(bytes.TrimSpace(line), delim) {
			return bytes.TrimSpace(source[offset:])
		}
	}
	return nil
}
