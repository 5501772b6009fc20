package chunking

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	firstTitle     = regexp.MustCompile(`(?m)(^#\s.*)|(^.*?\n={3,}$)`)
	base64Image    = regexp.MustCompile(`!\[.*?\]\(data:image/.*?\)`)
	bulletLink     = regexp.MustCompile(`(?m)^\s*[*+-]\s+\[.*?\]\(.*?\)\s*$`)
	standaloneLink = regexp.MustCompile(`(?m)^\s*\[.*?\]\(.*?\)\s*$`)
	linkCluster    = regexp.MustCompile(`(?:\[.*?\]\(.*?\)\s*){3,}`)
	horizontalNav  = regexp.MustCompile(`(?:\[.*?\]\(.*?\)\s*[*\-]?\s*){3,}`)
	copyright      = regexp.MustCompile(`(?im)^.*?Copyright ©.*$`)
	emptyAnchor    = regexp.MustCompile(`\[[\s\x{200B}]*\]\(.*?\)`)
	setextH1       = regexp.MustCompile(`(?m)^(.+?)\n={3,}[ \t]*$`)
	setextH2       = regexp.MustCompile(`(?m)^(.+?)\n-{3,}[ \t]*$`)
	extraNewlines  = regexp.MustCompile(`\n{3,}`)
)

// splitFrontMatter separates a leading YAML front matter block from the body.
// Malformed front matter leaves the document untouched.
func splitFrontMatter(content string) (string, map[string]any, bool) {
	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		return content, map[string]any{}, true
	}
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return content, map[string]any{}, true
	}
	body := rest[end+len("\n---"):]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return content, nil, false
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return strings.TrimSpace(body), meta, true
}

// CleanMarkdown strips navigation noise, base64 images and footers from a
// converted page, starting it at its first title. It returns the cleaned text
// and the page's front matter.
func CleanMarkdown(content string) (string, map[string]any) {
	text, meta, ok := splitFrontMatter(content)
	if !ok {
		return content, map[string]any{}
	}

	if loc := firstTitle.FindStringIndex(text); loc != nil {
		text = text[loc[0]:]
	}

	text = base64Image.ReplaceAllString(text, "")
	text = bulletLink.ReplaceAllString(text, "")
	text = standaloneLink.ReplaceAllString(text, "")
	text = linkCluster.ReplaceAllString(text, "")
	text = horizontalNav.ReplaceAllString(text, "")
	text = copyright.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, `\-`, "-")
	text = emptyAnchor.ReplaceAllString(text, "")
	text = setextH1.ReplaceAllString(text, "# $1")
	text = setextH2.ReplaceAllString(text, "## $1")
	text = extraNewlines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), meta
}

func metaString(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NormalizeMetadata keeps the front matter fields chunks carry. The language
// falls back through the docsearch and docusaurus tags to "en".
func NormalizeMetadata(raw map[string]any, source string) map[string]any {
	return map[string]any{
		"source": firstNonEmpty(metaString(raw, "canonical"), source),
		"title":  metaString(raw, "title"),
		"lang": firstNonEmpty(
			metaString(raw, "meta-docsearch-language"),
			metaString(raw, "meta-docusaurus_locale"),
			metaString(raw, "lang"),
			"en",
		),
		"keywords":    metaString(raw, "meta-keywords"),
		"description": metaString(raw, "meta-description"),
	}
}
