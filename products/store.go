package products

import (
	"context"

	"agromart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the product collection seam.
type Store interface {
	Find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Product, error)
	FindOne(ctx context.Context, filter bson.M) (*models.Product, error)
	InsertOne(ctx context.Context, p *models.Product) (primitive.ObjectID, error)
	// UpdateOne applies update and returns the post-update document, or
	// nil when nothing matched.
	UpdateOne(ctx context.Context, filter, update bson.M) (*models.Product, error)
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
}

// SubCategoryIndex queries the category collection on behalf of the
// product service: the category-to-products fan-out needs sub-category
// ids (ids-only projection) and names for populated responses.
type SubCategoryIndex interface {
	FindIDs(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error)
	FindInfo(ctx context.Context, id primitive.ObjectID) (*models.SubCategoryInfo, error)
}

type mongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) Store {
	return &mongoStore{coll: coll}
}

func (s *mongoStore) Find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Product, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prods []models.Product
	if err := cursor.All(ctx, &prods); err != nil {
		return nil, err
	}
	if len(prods) == 0 {
		prods = []models.Product{}
	}
	return prods, nil
}

func (s *mongoStore) FindOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	var p models.Product
	err := s.coll.FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *mongoStore) InsertOne(ctx context.Context, p *models.Product) (primitive.ObjectID, error) {
	res, err := s.coll.InsertOne(ctx, p)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (s *mongoStore) UpdateOne(ctx context.Context, filter, update bson.M) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *mongoStore) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

type mongoSubCategoryIndex struct {
	coll *mongo.Collection
}

func NewSubCategoryIndex(coll *mongo.Collection) SubCategoryIndex {
	return &mongoSubCategoryIndex{coll: coll}
}

func (s *mongoSubCategoryIndex) FindIDs(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (s *mongoSubCategoryIndex) FindInfo(ctx context.Context, id primitive.ObjectID) (*models.SubCategoryInfo, error) {
	var cat models.Category
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&cat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	info := &models.SubCategoryInfo{
		ID:             cat.ID.Hex(),
		Name:           cat.Name,
		ParentCategory: cat.ParentCategory,
	}

	// Pull in the parent name for the nested populate.
	if hex, ok := refHex(cat.ParentCategory); ok {
		if poid, err := primitive.ObjectIDFromHex(hex); err == nil {
			var parent models.Category
			if err := s.coll.FindOne(ctx, bson.M{"_id": poid}).Decode(&parent); err == nil {
				info.ParentCategory = models.ParentInfo{ID: parent.ID.Hex(), Name: parent.Name}
			}
		}
	}
	return info, nil
}

func refHex(ref any) (string, bool) {
	switch v := ref.(type) {
	case string:
		return v, v != ""
	case primitive.ObjectID:
		return v.Hex(), true
	default:
		return "", false
	}
}
