package repository

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rpgbase-go/domain/trigger"
)

// triggerDocument is the MongoDB document structure for triggers.
type triggerDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Name        string              `bson:"name"`
	Description string              `bson:"description,omitempty"`
	On          string              `bson:"on"`
	Once        bool                `bson:"once"`
	Stop        bool                `bson:"stop"`
	Conditions  []conditionDocument `bson:"conditions,omitempty"`
	Actions     []actionDocument    `bson:"actions"`
}

// conditionDocument is the MongoDB document structure for conditions.
type conditionDocument struct {
	Op    string `bson:"op"`
	Key   string `bson:"key"`
	Value int    `bson:"value"`
}

// actionDocument is the MongoDB document structure for actions.
type actionDocument struct {
	Type    string         `bson:"type"`
	Event   string         `bson:"event,omitempty"`
	Data    map[string]any `bson:"data,omitempty"`
	Script  string         `bson:"script,omitempty"`
	Message string         `bson:"message,omitempty"`
}

// MongoTriggerRepository implements trigger.Repository using MongoDB.
type MongoTriggerRepository struct {
	db         *MongoDB
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoTriggerRepository creates a new MongoDB-based trigger repository.
func NewMongoTriggerRepository(db *MongoDB, logger *slog.Logger) *MongoTriggerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoTriggerRepository{
		db:         db,
		collection: db.Triggers(),
		logger:     logger,
	}
}

// EnsureIndexes creates the unique index on trigger names.
func (r *MongoTriggerRepository) EnsureIndexes(ctx context.Context) error {
	return r.db.EnsureUniqueIndex(ctx, r.collection, "name")
}

// FindAll retrieves all triggers.
func (r *MongoTriggerRepository) FindAll(ctx context.Context) ([]*trigger.Trigger, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find triggers: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []triggerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode triggers: %w", err)
	}

	triggers := make([]*trigger.Trigger, len(docs))
	for i := range docs {
		triggers[i] = documentToTrigger(&docs[i])
	}

	return triggers, nil
}

// FindByName retrieves a trigger by its unique name.
func (r *MongoTriggerRepository) FindByName(ctx context.Context, name string) (*trigger.Trigger, error) {
	var doc triggerDocument
	if err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find trigger: %w", err)
	}

	return documentToTrigger(&doc), nil
}

// Save inserts the trigger or replaces the one with the same name.
func (r *MongoTriggerRepository) Save(ctx context.Context, t *trigger.Trigger) error {
	if err := t.Validate(); err != nil {
		return err
	}

	doc := triggerToDocument(t)
	filter := bson.M{"name": t.Name}
	result, err := r.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save trigger: %w", err)
	}

	// Update the trigger ID with the generated ObjectID
	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		t.ID = oid.Hex()
	}

	r.logger.Info("Trigger saved", "id", t.ID, "name", t.Name, "on", t.On)
	return nil
}

// Delete removes a trigger by name.
func (r *MongoTriggerRepository) Delete(ctx context.Context, name string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return fmt.Errorf("failed to delete trigger: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", trigger.ErrTriggerNotFound, name)
	}

	r.logger.Info("Trigger deleted", "name", name)
	return nil
}

// documentToTrigger converts a MongoDB document to a domain Trigger.
func documentToTrigger(doc *triggerDocument) *trigger.Trigger {
	t := &trigger.Trigger{
		Name:        doc.Name,
		Description: doc.Description,
		On:          doc.On,
		Once:        doc.Once,
		Stop:        doc.Stop,
		Conditions:  make([]trigger.Condition, len(doc.Conditions)),
		Actions:     make([]trigger.Action, len(doc.Actions)),
	}
	if !doc.ID.IsZero() {
		t.ID = doc.ID.Hex()
	}

	for i, c := range doc.Conditions {
		t.Conditions[i] = trigger.Condition{Op: trigger.Op(c.Op), Key: c.Key, Value: c.Value}
	}
	for i, a := range doc.Actions {
		t.Actions[i] = trigger.Action{
			Type:    trigger.ActionType(a.Type),
			Event:   a.Event,
			Data:    a.Data,
			Script:  a.Script,
			Message: a.Message,
		}
	}

	return t
}

// triggerToDocument converts a domain Trigger to a MongoDB document.
func triggerToDocument(t *trigger.Trigger) *triggerDocument {
	doc := &triggerDocument{
		Name:        t.Name,
		Description: t.Description,
		On:          t.On,
		Once:        t.Once,
		Stop:        t.Stop,
		Conditions:  make([]conditionDocument, len(t.Conditions)),
		Actions:     make([]actionDocument, len(t.Actions)),
	}

	if t.ID != "" {
		if oid, err := primitive.ObjectIDFromHex(t.ID); err == nil {
			doc.ID = oid
		}
	}

	for i, c := range t.Conditions {
		doc.Conditions[i] = conditionDocument{Op: string(c.Op), Key: c.Key, Value: c.Value}
	}
	for i, a := range t.Actions {
		doc.Actions[i] = actionDocument{
			Type:    string(a.Type),
			Event:   a.Event,
			Data:    a.Data,
			Script:  a.Script,
			Message: a.Message,
		}
	}

	return doc
}

// Ensure MongoTriggerRepository implements trigger.Repository
var _ trigger.Repository = (*MongoTriggerRepository)(nil)
