package templates

import (
	"regexp"
	"strings"
)

const (
	PlaceholderPrenom = "{prenom}"
	PlaceholderNom    = "{nom}"

	// DefaultGreeting is used when a template resolves to nothing sendable.
	DefaultGreeting = "Bonjour, votre opticien vous informe."

	// OptOutNotice must appear in every marketing message.
	OptOutNotice = "STOP au 36111"

	signatureSeparator = "—"
)

var whitespaceRegexp = regexp.MustCompile(`\s+`)

// Render fills the {prenom} and {nom} placeholders of a template with the
// client's fields. Only the first occurrence of each placeholder is
// substituted; leftover occurrences are stripped so literal braces never
// reach a recipient. Whitespace runs are collapsed and the result trimmed.
func Render(templateDef string, prenom string, nom string) string {
	if strings.TrimSpace(templateDef) == "" {
		return DefaultGreeting
	}

	content := strings.Replace(templateDef, PlaceholderPrenom, prenom, 1)
	content = strings.Replace(content, PlaceholderNom, nom, 1)
	content = strings.ReplaceAll(content, PlaceholderPrenom, "")
	content = strings.ReplaceAll(content, PlaceholderNom, "")

	content = whitespaceRegexp.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// AppendSignature appends the shop signature to a message. It is idempotent:
// a message that already carries the signature is returned unchanged. The
// signature follows sentence-ending punctuation with a plain space, otherwise
// it is joined with an em-dash separator.
func AppendSignature(message string, signature string) string {
	msg := strings.TrimSpace(message)
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return msg
	}
	if msg == "" {
		return sig
	}
	if containsSignature(msg, sig) {
		return msg
	}
	if endsWithSentencePunctuation(msg) {
		return msg + " " + sig
	}
	return msg + " " + signatureSeparator + " " + sig
}

// EnsureOptOutNotice appends the legal opt-out notice when the message does
// not already carry it (case-insensitive match).
func EnsureOptOutNotice(message string) string {
	if strings.Contains(strings.ToLower(message), strings.ToLower(OptOutNotice)) {
		return message
	}
	return strings.TrimSpace(message) + " " + OptOutNotice
}

func containsSignature(message string, signature string) bool {
	normMsg := normalizeForComparison(message)
	normSig := normalizeForComparison(signature)
	if strings.HasSuffix(normMsg, normSig) {
		return true
	}
	return strings.Contains(normMsg, signatureSeparator+" "+normSig)
}

func normalizeForComparison(s string) string {
	return strings.ToLower(strings.TrimSpace(whitespaceRegexp.ReplaceAllString(s, " ")))
}

func endsWithSentencePunctuation(message string) bool {
	runes := []rune(message)
	if len(runes) == 0 {
		return false
	}
	return strings.ContainsRune(".!?…", runes[len(runes)-1])
}
