package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	commentMarker = "//"
	sectionMarker = "##"
	aurPrefix     = "aur:"
)

const headerHint = "expected: ## * or ## @<hostname>"

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (Document, error) {
	text, err := ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Parse(text)
}

// ReadFile returns the raw manifest text, mapping missing and unreadable
// files onto ErrNotFound and ErrPermissionDenied.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("%w: path=%s (create the file or pass --config)", ErrNotFound, path)
		case errors.Is(err, fs.ErrPermission):
			return "", fmt.Errorf("%w: cannot read %s", ErrPermissionDenied, path)
		default:
			return "", fmt.Errorf("manifest read failed (%s): %w", path, err)
		}
	}
	return string(data), nil
}

// Parse converts manifest text into a Document. It stops at the first
// malformed line and never returns a partial document.
func Parse(text string) (Document, error) {
	doc := Document{Sections: []Section{}}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, sectionMarker) {
			scope, err := parseHeader(lineNum, line)
			if err != nil {
				return Document{}, err
			}
			doc.Sections = append(doc.Sections, Section{Scope: scope, Entries: []Entry{}})
			continue
		}

		if len(doc.Sections) == 0 {
			return Document{}, parseErrorf(lineNum, "package found before any section header")
		}
		entry, err := parseEntry(lineNum, line)
		if err != nil {
			return Document{}, err
		}
		last := &doc.Sections[len(doc.Sections)-1]
		last.Entries = append(last.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return Document{}, parseErrorf(lineNum+1, "read failed: %v", err)
	}
	return doc, nil
}

func stripComment(raw string) string {
	if idx := strings.Index(raw, commentMarker); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}

func parseHeader(lineNum int, line string) (Scope, error) {
	rest := line[len(sectionMarker):]
	if !strings.HasPrefix(rest, " ") {
		return Scope{}, parseErrorf(lineNum,
			"invalid section header: `%s`\n  %s\n  hint: section headers must have a space after ##", line, headerHint)
	}

	value := strings.TrimSpace(rest[1:])
	if value == "*" {
		return Universal(), nil
	}
	host, ok := strings.CutPrefix(value, "@")
	if !ok {
		return Scope{}, parseErrorf(lineNum, "invalid section header: `%s`\n  %s", line, headerHint)
	}

	host = strings.TrimSpace(host)
	if host == "" {
		return Scope{}, parseErrorf(lineNum, "empty hostname in section header")
	}
	if !isValidHostname(host) {
		return Scope{}, parseErrorf(lineNum,
			"invalid hostname `%s`: only alphanumeric characters and hyphens are allowed", host)
	}
	return HostScope(host), nil
}

func parseEntry(lineNum int, line string) (Entry, error) {
	name, ok := strings.CutPrefix(line, aurPrefix)
	if !ok {
		return Entry{Name: line, Source: SourceRepository}, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, parseErrorf(lineNum, "empty AUR package name after `%s` prefix", aurPrefix)
	}
	return Entry{Name: name, Source: SourceAUR}, nil
}

func isValidHostname(host string) bool {
	if host == "" {
		return false
	}
	for i := 0; i < len(host); i++ {
		c := host[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !(isAlpha || isDigit || c == '-') {
			return false
		}
	}
	return true
}
