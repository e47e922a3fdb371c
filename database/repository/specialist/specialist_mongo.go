package specialistRepo

import (
	"context"
	"errors"
	"fmt"

	"aroti/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSpecialistRepo implements SpecialistRepository using MongoDB.
type MongoSpecialistRepo struct {
	specialists *mongo.Collection
	reviews     *mongo.Collection
}

// NewMongoSpecialistRepo binds the repository to the specialists and reviews collections of db.
func NewMongoSpecialistRepo(db *mongo.Database) *MongoSpecialistRepo {
	return &MongoSpecialistRepo{
		specialists: db.Collection("specialists"),
		reviews:     db.Collection("reviews"),
	}
}

// EnsureIndexes creates the lookup indexes.
func (r *MongoSpecialistRepo) EnsureIndexes(ctx context.Context) error {
	if _, err := r.specialists.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "available", Value: 1}, {Key: "price", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create specialist indexes: %w", err)
	}
	if _, err := r.reviews.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "specialistId", Value: 1}, {Key: "date", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}
	return nil
}

// Seed inserts the given catalog, leaving existing documents untouched.
func (r *MongoSpecialistRepo) Seed(ctx context.Context, specialists []models.Specialist, reviews []models.Review) error {
	upsert := options.Update().SetUpsert(true)
	for _, s := range specialists {
		if _, err := r.specialists.UpdateOne(ctx, bson.M{"id": s.ID}, bson.M{"$setOnInsert": s}, upsert); err != nil {
			return fmt.Errorf("failed to seed specialist %s: %w", s.ID, err)
		}
	}
	for _, rv := range reviews {
		if _, err := r.reviews.UpdateOne(ctx, bson.M{"id": rv.ID}, bson.M{"$setOnInsert": rv}, upsert); err != nil {
			return fmt.Errorf("failed to seed review %s: %w", rv.ID, err)
		}
	}
	return nil
}

func (r *MongoSpecialistRepo) GetByID(ctx context.Context, id string) (*models.Specialist, error) {
	var s models.Specialist
	if err := r.specialists.FindOne(ctx, bson.M{"id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch specialist %s: %w", id, err)
	}
	return &s, nil
}

func (r *MongoSpecialistRepo) List(ctx context.Context, filter models.SpecialistFilter) ([]models.Specialist, error) {
	cursor, err := r.specialists.Find(ctx, specialistQuery(filter), options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list specialists: %w", err)
	}
	defer cursor.Close(ctx)

	specialists := []models.Specialist{}
	if err := cursor.All(ctx, &specialists); err != nil {
		return nil, fmt.Errorf("failed to decode specialists: %w", err)
	}
	return specialists, nil
}

func (r *MongoSpecialistRepo) ListReviews(ctx context.Context, specialistID string) ([]models.Review, error) {
	cursor, err := r.reviews.Find(ctx, bson.M{"specialistId": specialistID}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

func specialistQuery(f models.SpecialistFilter) bson.M {
	q := bson.M{}
	switch f.Availability {
	case models.AvailabilityAvailable:
		q["available"] = true
	case models.AvailabilityUnavailable:
		q["available"] = false
	}
	price := bson.M{}
	if f.PriceMin != nil {
		price["$gte"] = *f.PriceMin
	}
	if f.PriceMax != nil {
		price["$lte"] = *f.PriceMax
	}
	if len(price) > 0 {
		q["price"] = price
	}
	if f.MinRating != nil {
		q["rating"] = bson.M{"$gte": *f.MinRating}
	}
	if len(f.Languages) > 0 {
		q["languages"] = bson.M{"$in": f.Languages}
	}
	if f.Category != "" {
		q["categories"] = f.Category
	}
	return q
}
