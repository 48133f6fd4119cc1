package llm

import (
	"regexp"
	"strings"
)

// StripCodeFence removes a leading/trailing markdown code-fence line, the
// same transform as ai_service.py/posture_service.py's _strip_code_fence.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var (
	dashBulletPattern    = regexp.MustCompile(`^[-*]\s+`)
	numericBulletPattern = regexp.MustCompile(`^\d+[.)\:]\s+`)
)

// FallbackSummary is the text shape recovered by the header-delimited
// parser when the summary LLM does not return valid JSON.
type FallbackSummary struct {
	Summary         string
	TopRisks        []string
	Recommendations []string
}

// ParseHeaderDelimited recognizes the EXECUTIVE_SUMMARY:/TOP_RISKS:/
// RECOMMENDATIONS: header format as a fallback when JSON parsing of the
// summary LLM's output fails.
func ParseHeaderDelimited(text string) FallbackSummary {
	var out FallbackSummary
	var section string

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "EXECUTIVE_SUMMARY:"):
			section = "summary"
			rest := strings.TrimSpace(line[len("EXECUTIVE_SUMMARY:"):])
			if rest != "" {
				out.Summary = rest
			}
			continue
		case strings.HasPrefix(upper, "TOP_RISKS:"):
			section = "risks"
			continue
		case strings.HasPrefix(upper, "RECOMMENDATIONS:"):
			section = "recommendations"
			continue
		}

		switch section {
		case "summary":
			if out.Summary == "" {
				out.Summary = line
			} else {
				out.Summary += " " + line
			}
		case "risks":
			if item := dashBulletPattern.ReplaceAllString(line, ""); item != line {
				out.TopRisks = append(out.TopRisks, strings.TrimSpace(item))
			} else {
				out.TopRisks = append(out.TopRisks, line)
			}
		case "recommendations":
			if item := numericBulletPattern.ReplaceAllString(line, ""); item != line {
				out.Recommendations = append(out.Recommendations, strings.TrimSpace(item))
			} else {
				out.Recommendations = append(out.Recommendations, line)
			}
		}
	}

	if out.Summary == "" {
		out.Summary = strings.TrimSpace(text)
	}
	return out
}
