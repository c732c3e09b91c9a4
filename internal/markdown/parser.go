package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
	"gopkg.in/yaml.v3"
)

var ErrEmptyDocument = errors.New("markdown document has no content")

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
			goldmarkhtml.WithXHTML(), // EPUB sections must be XHTML
		),
	)

	return &Parser{
		md: md,
	}
}

// Render converts story markdown to HTML. Raw HTML in the source is escaped.
func (p *Parser) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := p.md.Convert(source, &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Metadata is the YAML frontmatter of an imported or exported story.
type Metadata struct {
	Title  string   `yaml:"title"`
	Author string   `yaml:"author,omitempty"`
	Region string   `yaml:"region"`
	Theme  string   `yaml:"theme,omitempty"`
	Tags   TagList  `yaml:"tags,omitempty"`
	Date   string   `yaml:"date,omitempty"`
	Media  []string `yaml:"media,omitempty"`
}

// TagList accepts either a YAML sequence or a comma-separated string.
type TagList []string

func (t *TagList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var tags []string
		for tag := range strings.SplitSeq(node.Value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		*t = tags
		return nil
	case yaml.SequenceNode:
		var tags []string
		err := node.Decode(&tags)
		if err != nil {
			return err
		}
		*t = tags
		return nil
	default:
		return fmt.Errorf("tags must be a list or a comma-separated string")
	}
}

// Document is a markdown story split into frontmatter and body.
type Document struct {
	Metadata
	Body string
}

// ParseDocument reads frontmatter and body. A missing title falls back to the first level-one heading,
// which is then removed from the body.
func (p *Parser) ParseDocument(source []byte) (*Document, error) {
	source = bytes.TrimPrefix(source, []byte("\uFEFF"))

	ctx := parser.NewContext()
	var discard bytes.Buffer
	err := p.md.Convert(source, &discard, parser.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}

	doc := &Document{}
	if data := frontmatter.Get(ctx); data != nil {
		err = data.Decode(&doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}

	body := strings.TrimSpace(stripFrontmatter(string(source)))
	if doc.Title == "" {
		doc.Title, body = takeHeading(body)
	}
	doc.Body = strings.TrimSpace(body)

	if doc.Body == "" {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// Compose writes meta as YAML frontmatter followed by body.
func Compose(meta Metadata, body string) ([]byte, error) {
	header, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimSpace(body))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func stripFrontmatter(source string) string {
	source = strings.TrimPrefix(source, "\uFEFF")
	if !strings.HasPrefix(source, "---\n") && !strings.HasPrefix(source, "---\r\n") {
		return source
	}
	rest := source[strings.Index(source, "\n")+1:]
	for offset := 0; offset < len(rest); {
		end := strings.Index(rest[offset:], "\n")
		line := rest[offset:]
		if end >= 0 {
			line = rest[offset : offset+end]
		}
		if strings.TrimRight(line, "\r") == "---" {
			if end < 0 {
				return ""
			}
			return rest[offset+end+1:]
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return source
}

func takeHeading(body string) (string, string) {
	first, rest, _ := strings.Cut(body, "\n")
	if title, ok := strings.CutPrefix(strings.TrimSpace(first), "# "); ok {
		return strings.TrimSpace(title), rest
	}
	return "", body
}
