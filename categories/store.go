package categories

import (
	"context"

	"agromart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the category collection seam. The mongo implementation below
// is the only one outside tests.
type Store interface {
	Find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Category, error)
	FindOne(ctx context.Context, filter bson.M) (*models.Category, error)
	InsertOne(ctx context.Context, c *models.Category) (primitive.ObjectID, error)
	// UpdateOne applies update and returns the post-update document, or
	// nil when nothing matched.
	UpdateOne(ctx context.Context, filter, update bson.M) (*models.Category, error)
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
}

type mongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) Store {
	return &mongoStore{coll: coll}
}

func (s *mongoStore) Find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Category, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var cats []models.Category
	if err := cursor.All(ctx, &cats); err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		cats = []models.Category{}
	}
	return cats, nil
}

func (s *mongoStore) FindOne(ctx context.Context, filter bson.M) (*models.Category, error) {
	var cat models.Category
	err := s.coll.FindOne(ctx, filter).Decode(&cat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *mongoStore) InsertOne(ctx context.Context, c *models.Category) (primitive.ObjectID, error) {
	res, err := s.coll.InsertOne(ctx, c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (s *mongoStore) UpdateOne(ctx context.Context, filter, update bson.M) (*models.Category, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var cat models.Category
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *mongoStore) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
