package parsing

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/agrospai/fastrag/internal/core/domain"
	"go.trai.ch/zerr"
)

const docxBody = "word/document.xml"

// DocxToMarkdown extracts the paragraphs of a Word document. Heading and title
// styles become Markdown headings and numbered paragraphs become list items.
func DocxToMarkdown(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrParseFailed.Error())
	}

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == docxBody {
			body, err = f.Open()
			if err != nil {
				return nil, zerr.Wrap(err, domain.ErrParseFailed.Error())
			}
			break
		}
	}
	if body == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrParseFailed, "docx without body"), "part", docxBody)
	}
	defer func() { _ = body.Close() }()

	paragraphs, err := docxParagraphs(xml.NewDecoder(body))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrParseFailed.Error())
	}
	return []byte(strings.Join(paragraphs, "\n\n") + "\n"), nil
}

type docxParagraph struct {
	text    strings.Builder
	heading int
	listed  bool
}

func (p *docxParagraph) markdown() string {
	text := strings.TrimSpace(p.text.String())
	switch {
	case text == "":
		return ""
	case p.heading > 0:
		return strings.Repeat("#", p.heading) + " " + text
	case p.listed:
		return "- " + text
	default:
		return text
	}
}

func headingLevel(style string) int {
	s := strings.ToLower(style)
	if s == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(s, "heading"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && n >= 1 && n <= 6 {
			return n
		}
	}
	return 0
}

func docxParagraphs(dec *xml.Decoder) ([]string, error) {
	var (
		out    []string
		para   *docxParagraph
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para = &docxParagraph{}
			case "pStyle":
				if para != nil {
					for _, a := range t.Attr {
						if a.Name.Local == "val" {
							para.heading = headingLevel(a.Value)
						}
					}
				}
			case "numPr":
				if para != nil {
					para.listed = true
				}
			case "t":
				inText = true
			case "tab":
				if para != nil {
					para.text.WriteString("\t")
				}
			case "br", "cr":
				if para != nil {
					para.text.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if para != nil {
					if md := para.markdown(); md != "" {
						out = append(out, md)
					}
					para = nil
				}
			}
		case xml.CharData:
			if inText && para != nil {
				para.text.Write(t)
			}
		}
	}
}
