package categories

import (
	"context"
	"time"

	"agromart/apperr"
	"agromart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listSort orders every category listing: sortOrder ascending, then name.
var listSort = bson.D{{Key: "sortOrder", Value: 1}, {Key: "name", Value: 1}}

// Service resolves the two-level category hierarchy. The hierarchy is
// exactly one deep: a category with a parent never appears as a parent
// in any query path.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListTopLevel returns categories without a parent.
func (s *Service) ListTopLevel(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	filter := bson.M{"parentCategory": nil}
	if activeOnly {
		filter["isActive"] = true
	}
	return s.store.Find(ctx, filter, listSort)
}

// ListAllAdmin returns every category, both levels, including inactive.
func (s *Service) ListAllAdmin(ctx context.Context) ([]models.Category, error) {
	cats, err := s.store.Find(ctx, bson.M{}, listSort)
	if err != nil {
		return nil, err
	}
	s.populateParents(ctx, cats)
	return cats, nil
}

// ListSubCategories matches categories whose parentCategory equals
// parentID. Historical writes stored the parent reference either as a
// raw hex string or as an ObjectId, so the match runs as a string first
// and, only on zero results, retries with the coerced ObjectId. Keep
// that order: reversing it could change which rows win when both forms
// exist. A malformed id is "no sub-categories", never an error.
func (s *Service) ListSubCategories(ctx context.Context, parentID string, activeOnly bool) ([]models.Category, error) {
	filter := bson.M{"parentCategory": parentID}
	if activeOnly {
		filter["isActive"] = true
	}
	results, err := s.store.Find(ctx, filter, listSort)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		oid, err := primitive.ObjectIDFromHex(parentID)
		if err != nil {
			return []models.Category{}, nil
		}
		filter["parentCategory"] = oid
		results, err = s.store.Find(ctx, filter, listSort)
		if err != nil {
			return nil, err
		}
	}

	s.populateParents(ctx, results)
	return results, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("Category")
	}
	cat, err := s.store.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperr.NotFound("Category")
	}
	out := []models.Category{*cat}
	s.populateParents(ctx, out)
	return &out[0], nil
}

// CategoryInput carries create/update fields; nil pointers mean "leave
// unchanged" on update and "default" on create.
type CategoryInput struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	Image          *string `json:"image,omitempty"`
	ParentCategory *string `json:"parentCategory,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
	SortOrder      *int    `json:"sortOrder,omitempty"`
}

func (s *Service) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	now := time.Now()
	cat := models.Category{
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Name != nil {
		cat.Name = *in.Name
	}
	if in.Description != nil {
		cat.Description = *in.Description
	}
	if in.Image != nil {
		cat.Image = *in.Image
	}
	if in.ParentCategory != nil && *in.ParentCategory != "" {
		cat.ParentCategory = normalizeRef(*in.ParentCategory)
	}
	if in.IsActive != nil {
		cat.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		cat.SortOrder = *in.SortOrder
	}

	id, err := s.store.InsertOne(ctx, &cat)
	if err != nil {
		return nil, err
	}
	cat.ID = id
	out := []models.Category{cat}
	s.populateParents(ctx, out)
	return &out[0], nil
}

func (s *Service) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("Category")
	}

	set := bson.M{"updatedAt": time.Now()}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Image != nil {
		set["image"] = *in.Image
	}
	if in.ParentCategory != nil {
		if *in.ParentCategory == "" {
			set["parentCategory"] = nil
		} else {
			set["parentCategory"] = normalizeRef(*in.ParentCategory)
		}
	}
	if in.IsActive != nil {
		set["isActive"] = *in.IsActive
	}
	if in.SortOrder != nil {
		set["sortOrder"] = *in.SortOrder
	}

	cat, err := s.store.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperr.NotFound("Category")
	}
	out := []models.Category{*cat}
	s.populateParents(ctx, out)
	return &out[0], nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFound("Category")
	}
	n, err := s.store.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Category")
	}
	return nil
}

// normalizeRef coerces new writes to ObjectId when the value is valid
// hex; the dual-lookup read path keeps covering legacy string rows.
func normalizeRef(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// refHex extracts the hex id from either stored representation.
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

// populateParents swaps raw parent references for {id, name} documents.
// Lookup failures leave the raw reference in place.
func (s *Service) populateParents(ctx context.Context, cats []models.Category) {
	for i := range cats {
		hex, ok := refHex(cats[i].ParentCategory)
		if !ok {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			continue
		}
		parent, err := s.store.FindOne(ctx, bson.M{"_id": oid})
		if err != nil || parent == nil {
			continue
		}
		cats[i].ParentCategory = models.ParentInfo{ID: parent.ID.Hex(), Name: parent.Name}
	}
}
