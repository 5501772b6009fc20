package parsing

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/agrospai/fastrag/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"
)

var (
	spaceRun    = regexp.MustCompile(`[ \t\r\n\f]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	innerBlanks = regexp.MustCompile(`\n{2,}`)
)

// HTMLToMarkdown converts an HTML page to Markdown. Page metadata from <head>
// (title, language, canonical link and named meta tags) is written as YAML
// front matter so later stages can recover it.
func HTMLToMarkdown(doc []byte) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrParseFailed.Error())
	}

	var c converter
	body := c.render(root)

	var out bytes.Buffer
	if meta := headMetadata(root); len(meta) > 0 {
		front, err := yaml.Marshal(meta)
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrParseFailed.Error())
		}
		out.WriteString("---\n")
		out.Write(front)
		out.WriteString("---\n\n")
	}
	out.WriteString(tidy(body))
	out.WriteString("\n")
	return out.Bytes(), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func headMetadata(root *html.Node) map[string]string {
	meta := map[string]string{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Html:
				if lang := attr(n, "lang"); lang != "" {
					meta["lang"] = lang
				}
			case atom.Title:
				if n.FirstChild != nil {
					if t := strings.TrimSpace(spaceRun.ReplaceAllString(n.FirstChild.Data, " ")); t != "" {
						meta["title"] = t
					}
				}
			case atom.Link:
				if strings.EqualFold(attr(n, "rel"), "canonical") && attr(n, "href") != "" {
					meta["canonical"] = attr(n, "href")
				}
			case atom.Meta:
				name := attr(n, "name")
				if name == "" {
					name = attr(n, "property")
				}
				if content := attr(n, "content"); name != "" && content != "" {
					meta["meta-"+strings.ToLower(name)] = content
				}
			case atom.Body:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return meta
}

type converter struct {
	pre int
}

func (c *converter) children(n *html.Node) string {
	var sb strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		sb.WriteString(c.render(ch))
	}
	return sb.String()
}

func block(s string) string {
	return "\n\n" + s + "\n\n"
}

//nolint:cyclop // one case per element kind
func (c *converter) render(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		if c.pre > 0 {
			return n.Data
		}
		return spaceRun.ReplaceAllString(n.Data, " ")
	case html.ElementNode:
	case html.DocumentNode:
		return c.children(n)
	default:
		return ""
	}

	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Iframe, atom.Svg, atom.Button, atom.Form:
		return ""
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		text := strings.TrimSpace(c.children(n))
		if text == "" {
			return ""
		}
		level := int(n.Data[1] - '0')
		return block(strings.Repeat("#", level) + " " + text)
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main, atom.Header, atom.Footer, atom.Nav, atom.Aside,
		atom.Figure, atom.Figcaption, atom.Dl, atom.Dt, atom.Dd:
		return block(c.children(n))
	case atom.Br:
		return "\n"
	case atom.Hr:
		return block("* * *")
	case atom.Strong, atom.B:
		return wrap(c.children(n), "**")
	case atom.Em, atom.I:
		return wrap(c.children(n), "*")
	case atom.Code:
		if c.pre > 0 {
			return c.children(n)
		}
		return wrap(c.children(n), "`")
	case atom.Pre:
		return c.preformatted(n)
	case atom.A:
		text := strings.TrimSpace(c.children(n))
		href := attr(n, "href")
		if text == "" {
			return ""
		}
		if href == "" || strings.HasPrefix(href, "javascript:") {
			return text
		}
		return "[" + text + "](" + href + ")"
	case atom.Img:
		src := attr(n, "src")
		if src == "" {
			return ""
		}
		return "![" + attr(n, "alt") + "](" + src + ")"
	case atom.Ul:
		return c.list(n, false)
	case atom.Ol:
		return c.list(n, true)
	case atom.Blockquote:
		inner := tidy(c.children(n))
		lines := strings.Split(inner, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight("> "+l, " ")
		}
		return block(strings.Join(lines, "\n"))
	case atom.Table:
		return c.table(n)
	default:
		return c.children(n)
	}
}

func wrap(text, mark string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}
	return mark + trimmed + mark
}

func (c *converter) preformatted(n *html.Node) string {
	lang := ""
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && ch.DataAtom == atom.Code {
			for _, class := range strings.Fields(attr(ch, "class")) {
				if after, ok := strings.CutPrefix(class, "language-"); ok {
					lang = after
				}
			}
		}
	}
	c.pre++
	text := c.children(n)
	c.pre--
	return block("```" + lang + "\n" + strings.Trim(text, "\n") + "\n```")
}

func (c *converter) list(n *html.Node, ordered bool) string {
	var items []string
	idx := 1
	if start, err := strconv.Atoi(attr(n, "start")); err == nil && ordered {
		idx = start
	}
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		marker := "- "
		if ordered {
			marker = strconv.Itoa(idx) + ". "
			idx++
		}
		content := innerBlanks.ReplaceAllString(tidy(c.children(li)), "\n")
		lines := strings.Split(content, "\n")
		for i := 1; i < len(lines); i++ {
			lines[i] = strings.Repeat(" ", len(marker)) + lines[i]
		}
		items = append(items, marker+strings.Join(lines, "\n"))
	}
	if len(items) == 0 {
		return ""
	}
	return block(strings.Join(items, "\n"))
}

func (c *converter) table(n *html.Node) string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for ch := node.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type != html.ElementNode {
				continue
			}
			if ch.DataAtom == atom.Tr {
				var cells []string
				for cell := ch.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						text := strings.TrimSpace(spaceRun.ReplaceAllString(c.children(cell), " "))
						cells = append(cells, strings.ReplaceAll(text, "|", `\|`))
					}
				}
				rows = append(rows, cells)
				continue
			}
			walk(ch)
		}
	}
	walk(n)
	if len(rows) == 0 {
		return ""
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	lines := make([]string, 0, len(rows)+1)
	for i, r := range rows {
		for len(r) < width {
			r = append(r, "")
		}
		lines = append(lines, "| "+strings.Join(r, " | ")+" |")
		if i == 0 {
			sep := make([]string, width)
			for j := range sep {
				sep[j] = "---"
			}
			lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	return block(strings.Join(lines, "\n"))
}

// tidy trims line edges outside code fences and collapses blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	fenced := false
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			fenced = !fenced
			lines[i] = strings.TrimSpace(l)
			continue
		}
		if fenced {
			lines[i] = strings.TrimRight(l, " \t")
			continue
		}
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
