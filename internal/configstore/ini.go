package configstore

import "strings"

// parseINI implements spec §3/§4.5's INI model: lines are trimmed to
// classify as comment/header/blank; "#" and ";" introduce comments;
// "[section]" headers switch the current section; everything before the
// first header belongs to the implicit "default" section; a key=value line
// splits at the first "=" with the value kept verbatim (no quote
// stripping, no further trimming of the value).
func parseINI(content string) map[string]map[string]string {
	sections := map[string]map[string]string{}
	current := "default"
	sections[current] = map[string]string{}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "#"), strings.HasPrefix(trimmed, ";"):
			continue
		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			current = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			if _, ok := sections[current]; !ok {
				sections[current] = map[string]string{}
			}
		default:
			idx := strings.IndexByte(line, '=')
			if idx < 0 {
				continue
			}
			key := strings.TrimSpace(line[:idx])
			value := line[idx+1:]
			sections[current][key] = value
		}
	}
	return sections
}

// rewriteINILines implements the byte-preserving update strategy from spec
// §4.5/§9: every line is emitted unchanged except a key=value line whose
// key (by exact match, any section) appears in patch, whose value is
// replaced while the original key text and "=" are kept verbatim. Keys
// named in patch but absent from the file are never appended — spec §9's
// Open Question 1 is decided in favor of the documented (not "fixed")
// behavior.
func rewriteINILines(content string, patch map[string]string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		newValue, ok := patch[key]
		if !ok {
			continue
		}
		lines[i] = line[:idx+1] + newValue
	}
	return strings.Join(lines, "\n")
}
