package templates

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		prenom   string
		nom      string
		expected string
	}{
		{"both placeholders", "Bonjour {prenom} {nom} !", "Marie", "Durand", "Bonjour Marie Durand !"},
		{"missing prenom", "Bonjour {prenom}, ça va ?", "", "", "Bonjour , ça va ?"},
		{"repeated placeholder stripped", "{prenom} et {prenom} et {prenom}", "Marie", "", "Marie et et"},
		{"no placeholders", "Vos lunettes sont prêtes.", "Marie", "Durand", "Vos lunettes sont prêtes."},
		{"whitespace collapsed", "Bonjour   {prenom}\n\nvos lunettes  sont prêtes", "Marie", "", "Bonjour Marie vos lunettes sont prêtes"},
		{"empty template falls back", "", "Marie", "Durand", DefaultGreeting},
		{"blank template falls back", "   \n ", "Marie", "Durand", DefaultGreeting},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Render(test.template, test.prenom, test.nom)
			if result != test.expected {
				t.Errorf("expected %q, got %q", test.expected, result)
			}
		})
	}
}

func TestRenderNeverLeaksPlaceholders(t *testing.T) {
	templateDefs := []string{
		"{prenom}{nom}",
		"{prenom} {prenom} {prenom}",
		"fin {nom} {nom}",
		"Bonjour {prenom}, commande pour {nom} ({nom})",
	}
	for _, templateDef := range templateDefs {
		result := Render(templateDef, "", "")
		if strings.Contains(result, PlaceholderPrenom) || strings.Contains(result, PlaceholderNom) {
			t.Errorf("placeholder leaked for template %q: %q", templateDef, result)
		}
	}
}

func TestAppendSignature(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		signature string
		expected  string
	}{
		{"blank signature trims only", "  Bonjour !  ", "", "Bonjour !"},
		{"after punctuation", "Vos lunettes sont prêtes.", "Vision Plus", "Vos lunettes sont prêtes. Vision Plus"},
		{"with separator", "A bientôt en magasin", "Vision Plus", "A bientôt en magasin — Vision Plus"},
		{"already at end", "A bientôt — Vision Plus", "Vision Plus", "A bientôt — Vision Plus"},
		{"already at end case-insensitive", "A bientôt — VISION PLUS", "vision plus", "A bientôt — VISION PLUS"},
		{"signature carries its own dash", "Bonjour , ça va ?", "— Vision Plus", "Bonjour , ça va ? — Vision Plus"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := AppendSignature(test.message, test.signature)
			if result != test.expected {
				t.Errorf("expected %q, got %q", test.expected, result)
			}
		})
	}
}

func TestAppendSignatureIdempotence(t *testing.T) {
	messages := []string{
		"Bonjour , ça va ?",
		"Vos lunettes sont prêtes.",
		"A bientôt en magasin",
		"",
	}
	signatures := []string{
		"Vision Plus",
		"— Vision Plus",
		"Optique   du Centre",
	}
	for _, msg := range messages {
		for _, sig := range signatures {
			once := AppendSignature(msg, sig)
			twice := AppendSignature(once, sig)
			if once != twice {
				t.Errorf("not idempotent for message %q signature %q: %q != %q", msg, sig, once, twice)
			}
		}
	}
}

func TestEnsureOptOutNotice(t *testing.T) {
	t.Run("appended when missing", func(t *testing.T) {
		result := EnsureOptOutNotice("Promo sur les solaires !")
		if result != "Promo sur les solaires ! STOP au 36111" {
			t.Errorf("unexpected result: %q", result)
		}
	})

	t.Run("not duplicated", func(t *testing.T) {
		msg := "Promo ! STOP au 36111"
		if result := EnsureOptOutNotice(msg); result != msg {
			t.Errorf("unexpected result: %q", result)
		}
	})

	t.Run("case-insensitive match", func(t *testing.T) {
		msg := "Promo ! stop au 36111"
		if result := EnsureOptOutNotice(msg); result != msg {
			t.Errorf("unexpected result: %q", result)
		}
	})
}

func TestRenderedMessageWithSignature(t *testing.T) {
	rendered := Render("Bonjour {prenom}, ça va ?", "", "")
	withSignature := AppendSignature(rendered, "— Vision Plus")
	if withSignature != "Bonjour , ça va ? — Vision Plus" {
		t.Errorf("unexpected message: %q", withSignature)
	}
}
