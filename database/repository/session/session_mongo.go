package sessionRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aroti/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sessionDocument carries slotKey only while the session is active; the partial unique
// index on it is the double-booking guard.
type sessionDocument struct {
	models.Session `bson:",inline"`
	SlotKey        string `bson:"slotKey,omitempty"`
}

// MongoSessionRepo implements SessionRepository using MongoDB.
type MongoSessionRepo struct {
	coll *mongo.Collection
}

func NewMongoSessionRepo(db *mongo.Database) *MongoSessionRepo {
	return &MongoSessionRepo{coll: db.Collection("sessions")}
}

// EnsureIndexes creates the id, slot and listing indexes.
func (r *MongoSessionRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "slotKey", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"slotKey": bson.M{"$exists": true}}).
				SetName("ux_sessions_active_slot"),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) Upsert(ctx context.Context, s *models.Session) (*models.Session, error) {
	doc := sessionDocument{Session: *s}
	if s.Status.Active() {
		doc.SlotKey = s.SlotKey()
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": s.ID}, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to upsert session %s: %w", s.ID, err)
		}
		// Either a concurrent upsert of the same id won, or the slot is held.
		existing, getErr := r.GetByID(ctx, s.ID)
		if getErr == nil {
			return existing, nil
		}
		return nil, ErrSlotTaken
	}
	return r.GetByID(ctx, s.ID)
}

func (r *MongoSessionRepo) FindBySlot(ctx context.Context, specialistID, date, clock string, statuses ...models.SessionStatus) (*models.Session, error) {
	filter := bson.M{"specialistId": specialistID, "date": date, "time": clock}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	var doc sessionDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by slot: %w", err)
	}
	return &doc.Session, nil
}

func (r *MongoSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var doc sessionDocument
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}
	return &doc.Session, nil
}

func (r *MongoSessionRepo) ListByUser(ctx context.Context, userID string, status models.SessionStatus) ([]models.Session, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoSessionRepo) Reschedule(ctx context.Context, id, date, clock string) (*models.Session, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.Active() {
		return nil, ErrNotActive
	}
	update := bson.M{"$set": bson.M{
		"date":      date,
		"time":      clock,
		"slotKey":   models.SlotKey(current.SpecialistID, date, clock),
		"updatedAt": time.Now().UTC(),
	}}
	filter := bson.M{"id": id, "status": bson.M{"$in": models.ActiveSessionStatuses}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoSessionRepo) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) (*models.Session, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"status": status, "updatedAt": time.Now().UTC()}
	update := bson.M{"$set": set}
	if status.Active() {
		set["slotKey"] = current.SlotKey()
	} else {
		update["$unset"] = bson.M{"slotKey": ""}
	}
	return r.findOneAndUpdate(ctx, bson.M{"id": id}, update)
}

func (r *MongoSessionRepo) AttachMeetingLink(ctx context.Context, id, link string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"meetingLink": link, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to attach meeting link to %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoSessionRepo) ListPendingWithoutLink(ctx context.Context, createdBefore time.Time, limit int) ([]models.Session, error) {
	filter := bson.M{
		"status":      models.SessionPending,
		"createdAt":   bson.M{"$lt": createdBefore},
		"meetingLink": bson.M{"$in": bson.A{nil, ""}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *MongoSessionRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Session, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []sessionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	out := make([]models.Session, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Session)
	}
	return out, nil
}

func (r *MongoSessionRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Session, error) {
	var doc sessionDocument
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		switch {
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrSlotTaken
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrNotActive
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return &doc.Session, nil
}
