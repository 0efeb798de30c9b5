package types

import "go.mongodb.org/mongo-driver/bson/primitive"

// Built-in template categories. Campaign templates use their campaign id as
// category.
const (
	TEMPLATE_CATEGORY_LUNETTES  = "Lunettes"
	TEMPLATE_CATEGORY_SAV       = "SAV"
	TEMPLATE_CATEGORY_LENTILLES = "Lentilles"
	TEMPLATE_CATEGORY_COMMANDE  = "Commande"
)

// MessageTemplate is a message skeleton with {prenom} and {nom} placeholders,
// filled per recipient at dispatch time.
type MessageTemplate struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Category string             `bson:"category" json:"category"`
	Title    string             `bson:"title" json:"title"`
	Content  string             `bson:"content" json:"content"`
}

// DefaultMessageTemplates returns the templates seeded on first run. The user
// can edit them afterwards; the server copy is the system of record.
func DefaultMessageTemplates() []MessageTemplate {
	return []MessageTemplate{
		{
			Category: TEMPLATE_CATEGORY_LUNETTES,
			Title:    "Lunettes prêtes",
			Content:  "Bonjour {prenom}, vos lunettes sont prêtes. Vous pouvez passer les récupérer en magasin.",
		},
		{
			Category: TEMPLATE_CATEGORY_SAV,
			Title:    "Retour SAV",
			Content:  "Bonjour {prenom}, votre équipement est de retour du SAV. Nous vous attendons en magasin.",
		},
		{
			Category: TEMPLATE_CATEGORY_LENTILLES,
			Title:    "Renouvellement lentilles",
			Content:  "Bonjour {prenom}, il est temps de renouveler vos lentilles. Pensez à passer en magasin.",
		},
		{
			Category: TEMPLATE_CATEGORY_COMMANDE,
			Title:    "Commande arrivée",
			Content:  "Bonjour {prenom}, votre commande est arrivée. Elle vous attend en magasin.",
		},
	}
}
