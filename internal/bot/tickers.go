package bot

import "strings"

// normalizeTickers splits tokens on commas, trims and uppercases.
// "sofi,hood" and "SOFI HOOD" both come out as ["SOFI", "HOOD"].
func normalizeTickers(tokens []string) []string {
	var out []string
	for _, token := range tokens {
		for _, part := range strings.Split(token, ",") {
			if cleaned := strings.ToUpper(strings.TrimSpace(part)); cleaned != "" {
				out = append(out, cleaned)
			}
		}
	}
	return out
}

// isTickerLike reports whether a token looks like a symbol rather than a
// sector phrase: short, alphanumeric, already uppercase.
func isTickerLike(token string) bool {
	token = strings.TrimSuffix(strings.TrimSpace(token), ",")
	if token == "" {
		return false
	}
	cleaned := strings.NewReplacer(".", "", "-", "").Replace(token)
	if len(cleaned) > 6 {
		return false
	}
	for _, r := range cleaned {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return token == strings.ToUpper(token)
}

func allTickerLike(tokens []string) bool {
	for _, t := range tokens {
		if !isTickerLike(t) {
			return false
		}
	}
	return len(tokens) > 0
}
