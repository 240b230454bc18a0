package orders

import (
	"context"

	"agromart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the order collection seam, including the aggregations the
// stats endpoint needs.
type Store interface {
	Find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Order, error)
	FindOne(ctx context.Context, filter bson.M) (*models.Order, error)
	InsertOne(ctx context.Context, o *models.Order) (primitive.ObjectID, error)
	UpdateOne(ctx context.Context, filter, update bson.M) (*models.Order, error)
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
	Count(ctx context.Context) (int64, error)
	SumTotalAmount(ctx context.Context) (float64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// UserIndex resolves order owners for populated responses.
type UserIndex interface {
	FindBrief(ctx context.Context, id primitive.ObjectID) (*UserBrief, error)
}

// UserBrief is the populated shape of Order.User.
type UserBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type mongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) Store {
	return &mongoStore{coll: coll}
}

func (s *mongoStore) Find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Order, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *mongoStore) FindOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var o models.Order
	err := s.coll.FindOne(ctx, filter).Decode(&o)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *mongoStore) InsertOne(ctx context.Context, o *models.Order) (primitive.ObjectID, error) {
	res, err := s.coll.InsertOne(ctx, o)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (s *mongoStore) UpdateOne(ctx context.Context, filter, update bson.M) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o models.Order
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&o)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *mongoStore) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *mongoStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

func (s *mongoStore) SumTotalAmount(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalAmount"}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (s *mongoStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

type mongoUserIndex struct {
	coll *mongo.Collection
}

func NewUserIndex(coll *mongo.Collection) UserIndex {
	return &mongoUserIndex{coll: coll}
}

func (s *mongoUserIndex) FindBrief(ctx context.Context, id primitive.ObjectID) (*UserBrief, error) {
	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"name": 1, "email": 1})).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &UserBrief{ID: u.ID.Hex(), Name: u.Name, Email: u.Email}, nil
}
