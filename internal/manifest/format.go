package manifest

import "strings"

// Format renders doc as manifest text. Sections are separated by a blank
// line and AUR entries carry the aur: prefix, so Parse(Format(doc)) yields
// the same scopes and entries.
func Format(doc Document) string {
	var b strings.Builder
	for i, section := range doc.Sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(section.Scope.String())
		b.WriteByte('\n')
		for _, entry := range section.Entries {
			if entry.Source == SourceAUR {
				b.WriteString(aurPrefix)
			}
			b.WriteString(entry.Name)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Normalize rewrites manifest text line by line into canonical form while
// keeping comments and single blank lines. The text must parse; the first
// parse error is returned unchanged.
func Normalize(text string) (string, error) {
	if _, err := Parse(text); err != nil {
		return "", err
	}

	var b strings.Builder
	blank := false
	for i, raw := range strings.Split(text, "\n") {
		code, comment := raw, ""
		if idx := strings.Index(raw, commentMarker); idx >= 0 {
			code, comment = raw[:idx], strings.TrimSpace(raw[idx:])
		}
		code = strings.TrimSpace(code)
		if code == "" && comment == "" {
			blank = b.Len() > 0
			continue
		}

		if code != "" {
			canonical, err := normalizeCode(i+1, code)
			if err != nil {
				return "", err
			}
			code = canonical
		}
		if blank {
			b.WriteByte('\n')
			blank = false
		}
		switch {
		case code == "":
			b.WriteString(comment)
		case comment == "":
			b.WriteString(code)
		default:
			b.WriteString(code + " " + comment)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func normalizeCode(lineNum int, code string) (string, error) {
	if strings.HasPrefix(code, sectionMarker) {
		scope, err := parseHeader(lineNum, code)
		if err != nil {
			return "", err
		}
		return scope.String(), nil
	}
	entry, err := parseEntry(lineNum, code)
	if err != nil {
		return "", err
	}
	if entry.Source == SourceAUR {
		return aurPrefix + entry.Name, nil
	}
	return entry.Name, nil
}
