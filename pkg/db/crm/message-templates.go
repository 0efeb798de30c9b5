package crm

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

// GetMessageTemplates returns all templates of an instance, keyed by
// category. Defaults are seeded on first access so a fresh instance always
// has the built-in categories.
func (dbService *CRMDBService) GetMessageTemplates(instanceID string) (map[string]types.MessageTemplate, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	cursor, err := dbService.collectionMessageTemplates(instanceID).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	var templateList []types.MessageTemplate
	if err = cursor.All(ctx, &templateList); err != nil {
		return nil, err
	}

	if len(templateList) == 0 {
		templateList, err = dbService.seedDefaultTemplates(instanceID)
		if err != nil {
			return nil, err
		}
	}

	templateMap := make(map[string]types.MessageTemplate, len(templateList))
	for _, templateDef := range templateList {
		templateMap[templateDef.Category] = templateDef
	}
	return templateMap, nil
}

func (dbService *CRMDBService) GetMessageTemplateByCategory(instanceID string, category string) (types.MessageTemplate, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var templateDef types.MessageTemplate
	err := dbService.collectionMessageTemplates(instanceID).FindOne(ctx, bson.M{"category": category}).Decode(&templateDef)
	return templateDef, err
}

// SaveMessageTemplate upserts a template by category and returns the stored
// copy read back from the collection: the server copy is the system of
// record, so callers always continue with what the server holds.
func (dbService *CRMDBService) SaveMessageTemplate(instanceID string, templateDef types.MessageTemplate) (types.MessageTemplate, error) {
	if templateDef.Category == "" {
		return templateDef, errors.New("template category required")
	}

	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"category": templateDef.Category}
	update := bson.M{"$set": bson.M{
		"title":   templateDef.Title,
		"content": templateDef.Content,
	}}

	opts := options.Update().SetUpsert(true)
	if _, err := dbService.collectionMessageTemplates(instanceID).UpdateOne(ctx, filter, update, opts); err != nil {
		return templateDef, err
	}

	return dbService.GetMessageTemplateByCategory(instanceID, templateDef.Category)
}

func (dbService *CRMDBService) DeleteMessageTemplate(instanceID string, category string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionMessageTemplates(instanceID).DeleteOne(ctx, bson.M{"category": category})
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (dbService *CRMDBService) seedDefaultTemplates(instanceID string) ([]types.MessageTemplate, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	defaults := types.DefaultMessageTemplates()
	docs := make([]interface{}, len(defaults))
	for i, templateDef := range defaults {
		docs[i] = templateDef
	}

	if _, err := dbService.collectionMessageTemplates(instanceID).InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return defaults, nil
}
