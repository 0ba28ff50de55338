package store

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/blimu-dev/apidocs/pkg/content"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.gotmpl
var templatesFS embed.FS

const pageTemplateName = "page.mdx.gotmpl"

var (
	pageTemplate = template.Must(template.New(pageTemplateName).
			Funcs(pageFuncs()).
			ParseFS(templatesFS, "templates/"+pageTemplateName))

	markdown = goldmark.New()

	// <apiReference schemaFile="pets.json|GET:/pets" />
	jsxElementPattern = regexp.MustCompile(`^<([A-Za-z][\w.]*)((?:\s+[\w-]+="[^"]*")*)\s*/>$`)
	jsxAttrPattern    = regexp.MustCompile(`([\w-]+)="([^"]*)"`)

	// plain text must not open raw HTML or swallow entities on decode
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `\`, "&#92;")

	// heading, quote, list item, thematic break, fence or ordered list item
	blockMarkerPattern = regexp.MustCompile("^(#{1,6}(\\s|$)|>|[-+*](\\s|$)|[-*_](\\s*[-*_]){2,}\\s*$|```|~~~|\\d{1,9}[.)](\\s|$))")
)

// frontMatter is the YAML header of a stored page
type frontMatter struct {
	Title         string      `yaml:"title"`
	SEO           content.SEO `yaml:"seo"`
	AutoGenerated bool        `yaml:"auto_generated"`
	LastEdited    string      `yaml:"last_edited,omitempty"`
}

func pageFuncs() template.FuncMap {
	funcs := template.FuncMap{
		"inline":      renderInline,
		"rawText":     renderRawText,
		"blockSafe":   escapeBlockStart,
		"frontMatter": renderFrontMatter,
	}
	// Merge sprig functions
	for k, v := range sprig.TxtFuncMap() {
		if _, taken := funcs[k]; !taken {
			funcs[k] = v
		}
	}
	return funcs
}

// EncodePage renders a document as YAML front matter followed by an MDX body.
func EncodePage(doc content.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", pageTemplateName, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// DecodePage parses a stored page. Files without front matter decode to a
// document with an empty title and auto_generated unset.
func DecodePage(data []byte) (content.Document, error) {
	var doc content.Document
	header, body, ok := splitFrontMatter(data)
	if ok {
		var meta frontMatter
		if err := yaml.Unmarshal(header, &meta); err != nil {
			return doc, fmt.Errorf("decode front matter: %w", err)
		}
		doc.Title = meta.Title
		doc.SEO = meta.SEO
		doc.AutoGenerated = meta.AutoGenerated
		if meta.LastEdited != "" {
			ts, err := time.Parse(time.RFC3339Nano, meta.LastEdited)
			if err != nil {
				return doc, fmt.Errorf("decode last_edited: %w", err)
			}
			doc.LastEdited = ts
		}
	}
	doc.Body = parseBody(body)
	return doc, nil
}

func renderFrontMatter(doc content.Document) (string, error) {
	meta := frontMatter{
		Title:         doc.Title,
		SEO:           doc.SEO,
		AutoGenerated: doc.AutoGenerated,
	}
	if !doc.LastEdited.IsZero() {
		meta.LastEdited = doc.LastEdited.UTC().Format(time.RFC3339Nano)
	}
	out, err := yaml.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func renderInline(nodes []content.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		s := n.Text
		switch {
		case n.Type == "a":
			s = "[" + renderInline(n.Children) + "](" + n.Props["href"] + ")"
		case n.HasChildren():
			s = renderInline(n.Children)
		case n.Code:
			s = "`" + s + "`"
		default:
			s = textEscaper.Replace(s)
		}
		if n.Italic && s != "" {
			s = "_" + s + "_"
		}
		if n.Bold && s != "" {
			s = "**" + s + "**"
		}
		b.WriteString(s)
	}
	return b.String()
}

// renderRawText joins text without markdown escaping, for code blocks.
func renderRawText(nodes []content.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		if n.HasChildren() {
			b.WriteString(renderRawText(n.Children))
			continue
		}
		b.WriteString(n.Text)
	}
	return b.String()
}

// escapeBlockStart rewrites the first character of a block as an entity when
// it would otherwise start a heading, list, quote, fence, break or code block.
func escapeBlockStart(s string) string {
	indent := len(s) - len(strings.TrimLeft(s, " \t"))
	if indent >= 4 || strings.HasPrefix(s, "\t") {
		return fmt.Sprintf("&#%d;", s[0]) + s[1:]
	}
	rest := s[indent:]
	if rest == "" {
		return s
	}
	if blockMarkerPattern.MatchString(rest) {
		return s[:indent] + fmt.Sprintf("&#%d;", rest[0]) + rest[1:]
	}
	return s
}

func splitFrontMatter(data []byte) (header, body []byte, ok bool) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return nil, data, false
	}
	rest := data[len("---\n"):]
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return nil, rest[len("---\n"):], true
	}
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			return rest[:len(rest)-len("\n---")], nil, true
		}
		return nil, data, false
	}
	return rest[:end], rest[end+len("\n---\n"):], true
}

func parseBody(src []byte) content.Node {
	root := content.Root()
	doc := markdown.Parser().Parse(text.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		root.Children = append(root.Children, convertBlock(n, src))
	}
	return root
}

func convertBlock(n ast.Node, src []byte) content.Node {
	switch b := n.(type) {
	case *ast.Paragraph:
		return content.Element(content.TypeParagraph, convertInline(b, src, content.Node{})...)
	case *ast.TextBlock:
		return content.Element(content.TypeParagraph, convertInline(b, src, content.Node{})...)
	case *ast.Heading:
		return content.Element("h"+strconv.Itoa(b.Level), convertInline(b, src, content.Node{})...)
	case *ast.HTMLBlock:
		raw := strings.TrimSpace(string(blockLines(b, src)))
		if m := jsxElementPattern.FindStringSubmatch(raw); m != nil {
			props := map[string]string{}
			for _, attr := range jsxAttrPattern.FindAllStringSubmatch(m[2], -1) {
				props[attr[1]] = html.UnescapeString(attr[2])
			}
			return content.Embed(m[1], props)
		}
		return content.Element("html", content.Text(raw))
	case *ast.ThematicBreak:
		return content.Node{Type: "hr"}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return content.Element("code_block", content.Text(strings.TrimSuffix(string(blockLines(b, src)), "\n")))
	case *ast.List:
		typ := "ul"
		if b.IsOrdered() {
			typ = "ol"
		}
		list := content.Node{Type: typ}
		for item := b.FirstChild(); item != nil; item = item.NextSibling() {
			var inline []content.Node
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				inline = append(inline, convertInline(c, src, content.Node{})...)
			}
			list.Children = append(list.Children, content.Element("li", inline...))
		}
		return list
	default:
		return content.Element(strings.ToLower(n.Kind().String()), convertInline(n, src, content.Node{})...)
	}
}

// convertInline flattens inline children into text nodes; marks carries the
// Bold/Italic state of enclosing emphasis.
func convertInline(parent ast.Node, src []byte, marks content.Node) []content.Node {
	var out []content.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Text:
			out = append(out, withMarks(content.Text(decodeText(n.Segment.Value(src))), marks))
		case *ast.String:
			out = append(out, withMarks(content.Text(decodeText(n.Value)), marks))
		case *ast.Emphasis:
			inner := marks
			if n.Level >= 2 {
				inner.Bold = true
			} else {
				inner.Italic = true
			}
			out = append(out, convertInline(n, src, inner)...)
		case *ast.CodeSpan:
			var code strings.Builder
			for t := n.FirstChild(); t != nil; t = t.NextSibling() {
				if seg, ok := t.(*ast.Text); ok {
					code.Write(seg.Segment.Value(src))
				}
			}
			out = append(out, withMarks(content.Code(code.String()), marks))
		case *ast.Link:
			link := content.Element("a", convertInline(n, src, marks)...)
			link.Props = map[string]string{"href": string(n.Destination)}
			out = append(out, link)
		case *ast.AutoLink:
			url := string(n.URL(src))
			link := content.Element("a", withMarks(content.Text(url), marks))
			link.Props = map[string]string{"href": url}
			out = append(out, link)
		case *ast.RawHTML:
			var raw strings.Builder
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				raw.Write(seg.Value(src))
			}
			out = append(out, withMarks(content.Text(raw.String()), marks))
		default:
			out = append(out, convertInline(c, src, marks)...)
		}
	}
	return out
}

func withMarks(n content.Node, marks content.Node) content.Node {
	n.Bold = n.Bold || marks.Bold
	n.Italic = n.Italic || marks.Italic
	return n
}

// decodeText resolves entities; a non-breaking space is how the page
// template keeps whitespace-only paragraphs.
func decodeText(raw []byte) string {
	return strings.ReplaceAll(html.UnescapeString(string(raw)), "\u00a0", " ")
}

func blockLines(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.Bytes()
}
