package knowledge

import (
	"regexp"
)

// Rule rewrites sensitive wording into wellness-safe phrasing. Rules run at
// ingestion, so sanitized text is what gets embedded and what grounds every
// generated reply.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Sanitizer applies an ordered rule list to chunk content.
type Sanitizer struct {
	rules []Rule
}

// NewSanitizer builds a sanitizer from explicit rules. Use DefaultRules for
// the stock medical-claim rewrites.
func NewSanitizer(rules []Rule) *Sanitizer {
	return &Sanitizer{rules: rules}
}

// Apply rewrites content through every rule in order.
func (s *Sanitizer) Apply(content string) string {
	for _, rule := range s.rules {
		content = rule.Pattern.ReplaceAllString(content, rule.Replacement)
	}
	return content
}

// DefaultRules rewrite medical-sounding claims into wellness-safe language.
// Product copy must never promise to cure or treat a condition.
func DefaultRules() []Rule {
	return []Rule{
		{regexp.MustCompile(`(?i)cura(?:r)?\s+el\s+insomnio`), "favorece un descanso reparador"},
		{regexp.MustCompile(`(?i)cura(?:r)?\s+la\s+ansiedad`), "acompaña momentos de calma"},
		{regexp.MustCompile(`(?i)elimina\s+el\s+estr[ée]s`), "ayuda a relajarte"},
		{regexp.MustCompile(`(?i)trata\s+la\s+depresi[óo]n`), "aporta una sensación de bienestar"},
		{regexp.MustCompile(`(?i)alivia\s+el\s+dolor`), "brinda una sensación reconfortante"},
		{regexp.MustCompile(`(?i)propiedades\s+medicinales`), "propiedades aromáticas"},
		{regexp.MustCompile(`(?i)cures?\s+insomnia`), "supports restful sleep"},
	}
}
