package config

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// envRef matches ${NAME} and ${NAME:-default}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// parseDotenv reads KEY=VALUE lines. Blank lines, comments and an optional
// export prefix are accepted; matching surrounding quotes are removed.
func parseDotenv(data []byte) map[string]string {
	vars := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		if key != "" {
			vars[key] = value
		}
	}
	return vars
}

// expand substitutes environment references in raw. The process environment
// wins over dotenv; unresolved references without a default become empty and
// are reported through missing.
func expand(raw []byte, lookup func(string) (string, bool), dotenv map[string]string, missing func(string)) []byte {
	return envRef.ReplaceAllFunc(raw, func(m []byte) []byte {
		sub := envRef.FindSubmatch(m)
		name := string(sub[1])
		if v, ok := lookup(name); ok {
			return []byte(v)
		}
		if v, ok := dotenv[name]; ok {
			return []byte(v)
		}
		if sub[2] != nil {
			return sub[2]
		}
		missing(name)
		return nil
	})
}
