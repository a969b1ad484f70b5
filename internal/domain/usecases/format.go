package usecases

import "strings"

// bullet is the marker prepended to each formatted answer line.
const bullet = "• "

// BulletLines formats a raw answer into short bulleted lines: split on
// period boundaries and literal newlines, trim each unit, re-append a
// missing period, drop empty units, one bullet per line. Input with no
// extractable units comes back trimmed and unchanged.
func BulletLines(raw string) string {
	units := splitUnits(raw)
	if len(units) == 0 {
		return strings.TrimSpace(raw)
	}

	lines := make([]string, len(units))
	for i, u := range units {
		if !strings.HasSuffix(u, ".") {
			u += "."
		}
		lines[i] = bullet + u
	}
	return strings.Join(lines, "\n")
}

// splitUnits breaks text into trimmed sentence-like units on "." and "\n".
func splitUnits(raw string) []string {
	var units []string
	for _, line := range strings.Split(raw, "\n") {
		for _, part := range strings.Split(line, ".") {
			part = strings.TrimSpace(part)
			if part != "" {
				units = append(units, part)
			}
		}
	}
	return units
}
