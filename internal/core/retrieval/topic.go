package retrieval

import (
	"strings"

	"github.com/essenzadelsur/support-agent-be/internal/core/session"
)

// Spanish stopwords seen in customer messages. Kept small on purpose: the
// goal is counting content words, not full NLP.
var stopwords = map[string]struct{}{
	"a": {}, "al": {}, "algo": {}, "como": {}, "con": {}, "cual": {},
	"de": {}, "del": {}, "el": {}, "ella": {}, "en": {}, "es": {},
	"ese": {}, "esa": {}, "eso": {}, "esta": {}, "este": {}, "esto": {},
	"hay": {}, "hola": {}, "la": {}, "las": {}, "lo": {}, "los": {},
	"me": {}, "mi": {}, "no": {}, "o": {}, "para": {}, "pero": {},
	"por": {}, "que": {}, "se": {}, "si": {}, "sobre": {}, "su": {},
	"tal": {}, "te": {}, "tiene": {}, "tienen": {}, "tienes": {},
	"tu": {}, "un": {}, "una": {}, "uno": {}, "vez": {}, "y": {}, "ya": {},
	"quiero": {}, "quisiera": {}, "gracias": {}, "favor": {},
}

// followUpHints are words that almost always ask about the product already
// under discussion rather than naming a new one ("fotos?", "precio?").
var followUpHints = map[string]struct{}{
	"foto": {}, "fotos": {}, "imagen": {}, "imagenes": {}, "imágenes": {},
	"precio": {}, "precios": {}, "cuesta": {}, "vale": {},
	"disponibilidad": {}, "disponible": {}, "stock": {},
	"variante": {}, "variantes": {}, "presentacion": {}, "presentación": {},
	"tamaño": {}, "tamaños": {}, "ml": {},
}

func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '?', '¿', '!', '¡', '.', ',', ';', ':', '"', '\'':
			return ' '
		}
		return r
	}, strings.ToLower(text))
	return strings.Fields(cleaned)
}

// isFollowUp reports whether a message is too under-specified to stand on its
// own: it either leans on the follow-up lexicon ("fotos?", "que precio
// tiene?") or carries at most one content word after stopword removal
// ("y el de 30ml?").
func isFollowUp(text string) bool {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return true
	}

	content := 0
	for _, tok := range tokens {
		if _, hint := followUpHints[tok]; hint {
			return true
		}
		if _, stop := stopwords[tok]; !stop {
			content++
		}
	}
	return content <= 1
}

// topicFromHistory extracts the text anchoring the current topic: the last
// assistant turn (it names the product being discussed), or failing that the
// last substantive user turn. Returns "" when the history carries no topic.
func topicFromHistory(history []session.Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		if turn.Role == session.RoleAssistant && strings.TrimSpace(turn.Content) != "" {
			return clipTopic(turn.Content)
		}
	}
	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		if turn.Role == session.RoleUser && !isFollowUp(turn.Content) {
			return clipTopic(turn.Content)
		}
	}
	return ""
}

// clipTopic bounds the anchor text so a long assistant reply does not drown
// out the current question in the combined embedding.
func clipTopic(text string) string {
	const maxTopicRunes = 240
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > maxTopicRunes {
		runes = runes[:maxTopicRunes]
	}
	return string(runes)
}
