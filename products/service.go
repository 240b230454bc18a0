package products

import (
	"context"
	"time"

	"agromart/apperr"
	"agromart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listSort orders every product listing: sortOrder ascending, then
// name. Search results use it too; there is no relevance ranking.
var listSort = bson.D{{Key: "sortOrder", Value: 1}, {Key: "name", Value: 1}}

type Service struct {
	store Store
	cats  SubCategoryIndex
}

func NewService(store Store, cats SubCategoryIndex) *Service {
	return &Service{store: store, cats: cats}
}

func (s *Service) ListAll(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	prods, err := s.store.Find(ctx, filter, listSort)
	if err != nil {
		return nil, err
	}
	s.populateSubCategories(ctx, prods)
	return prods, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("Product")
	}
	p, err := s.store.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("Product")
	}
	out := []models.Product{*p}
	s.populateSubCategories(ctx, out)
	return &out[0], nil
}

func (s *Service) ListBySubCategory(ctx context.Context, subCategoryID string, activeOnly bool) ([]models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(subCategoryID)
	if err != nil {
		return []models.Product{}, nil
	}
	filter := bson.M{"subCategory": oid}
	if activeOnly {
		filter["isActive"] = true
	}
	prods, err := s.store.Find(ctx, filter, listSort)
	if err != nil {
		return nil, err
	}
	s.populateSubCategories(ctx, prods)
	return prods, nil
}

// ListByCategory fans a top-level category out to its sub-categories,
// then lists active products under those. The sub-category resolution
// repeats the dual string/ObjectId parent match (ids-only projection)
// rather than delegating, mirroring how the category service reads the
// ambiguous parentCategory field. A category with no sub-categories
// yields an empty list; the id is never tried as a subCategory directly,
// because products only ever reference leaf categories.
func (s *Service) ListByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	subIDs, err := s.cats.FindIDs(ctx, bson.M{"parentCategory": categoryID})
	if err != nil {
		return nil, err
	}
	if len(subIDs) == 0 {
		oid, err := primitive.ObjectIDFromHex(categoryID)
		if err != nil {
			return []models.Product{}, nil
		}
		subIDs, err = s.cats.FindIDs(ctx, bson.M{"parentCategory": oid})
		if err != nil {
			return nil, err
		}
	}
	if len(subIDs) == 0 {
		return []models.Product{}, nil
	}

	filter := bson.M{"subCategory": bson.M{"$in": subIDs}, "isActive": true}
	prods, err := s.store.Find(ctx, filter, listSort)
	if err != nil {
		return nil, err
	}
	s.populateSubCategories(ctx, prods)
	return prods, nil
}

// Search matches the query case-insensitively against name, description
// or any tag, restricted to active products.
func (s *Service) Search(ctx context.Context, query string) ([]models.Product, error) {
	rx := primitive.Regex{Pattern: query, Options: "i"}
	filter := bson.M{
		"isActive": true,
		"$or": []bson.M{
			{"name": bson.M{"$regex": rx}},
			{"description": bson.M{"$regex": rx}},
			{"tags": bson.M{"$regex": rx}},
		},
	}
	prods, err := s.store.Find(ctx, filter, listSort)
	if err != nil {
		return nil, err
	}
	s.populateSubCategories(ctx, prods)
	return prods, nil
}

// UpdateStock decrements stock by qty. The decrement is a single
// conditional findOneAndUpdate guarded by stock >= qty, so concurrent
// decrements can never drive stock negative; a shortfall leaves the
// document untouched and reports InsufficientStock with the product
// name. Only order intake may call this.
func (s *Service) UpdateStock(ctx context.Context, productID string, qty int) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, apperr.NotFound("Product")
	}

	updated, err := s.store.UpdateOne(ctx,
		bson.M{"_id": oid, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, err
	}
	if updated != nil {
		return updated, nil
	}

	// Distinguish a missing product from a stock shortfall.
	p, err := s.store.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("Product")
	}
	return nil, apperr.InsufficientStock(p.Name)
}

// ProductInput carries create/update fields; nil means "leave
// unchanged" on update and "default" on create.
type ProductInput struct {
	Name            *string   `json:"name,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Images          *[]string `json:"images,omitempty"`
	Price           *float64  `json:"price,omitempty"`
	OriginalPrice   *float64  `json:"originalPrice,omitempty"`
	SubCategory     *string   `json:"subCategory,omitempty"`
	IsActive        *bool     `json:"isActive,omitempty"`
	Stock           *int      `json:"stock,omitempty"`
	Unit            *string   `json:"unit,omitempty"`
	SortOrder       *int      `json:"sortOrder,omitempty"`
	WhatsappMessage *string   `json:"whatsappMessage,omitempty"`
	PhoneNumber     *string   `json:"phoneNumber,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	now := time.Now()
	p := models.Product{
		Images:    []string{},
		Tags:      []string{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Images != nil {
		p.Images = *in.Images
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.SubCategory != nil {
		if oid, err := primitive.ObjectIDFromHex(*in.SubCategory); err == nil {
			p.SubCategory = oid
		} else {
			p.SubCategory = *in.SubCategory
		}
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.SortOrder != nil {
		p.SortOrder = *in.SortOrder
	}
	if in.WhatsappMessage != nil {
		p.WhatsappMessage = *in.WhatsappMessage
	}
	if in.PhoneNumber != nil {
		p.PhoneNumber = *in.PhoneNumber
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}

	id, err := s.store.InsertOne(ctx, &p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	out := []models.Product{p}
	s.populateSubCategories(ctx, out)
	return &out[0], nil
}

func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("Product")
	}

	set := bson.M{"updatedAt": time.Now()}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Images != nil {
		set["images"] = *in.Images
	}
	if in.Price != nil {
		set["price"] = *in.Price
	}
	if in.OriginalPrice != nil {
		set["originalPrice"] = *in.OriginalPrice
	}
	if in.SubCategory != nil {
		if scOID, err := primitive.ObjectIDFromHex(*in.SubCategory); err == nil {
			set["subCategory"] = scOID
		} else {
			set["subCategory"] = *in.SubCategory
		}
	}
	if in.IsActive != nil {
		set["isActive"] = *in.IsActive
	}
	if in.Stock != nil {
		set["stock"] = *in.Stock
	}
	if in.Unit != nil {
		set["unit"] = *in.Unit
	}
	if in.SortOrder != nil {
		set["sortOrder"] = *in.SortOrder
	}
	if in.WhatsappMessage != nil {
		set["whatsappMessage"] = *in.WhatsappMessage
	}
	if in.PhoneNumber != nil {
		set["phoneNumber"] = *in.PhoneNumber
	}
	if in.Tags != nil {
		set["tags"] = *in.Tags
	}

	p, err := s.store.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("Product")
	}
	out := []models.Product{*p}
	s.populateSubCategories(ctx, out)
	return &out[0], nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFound("Product")
	}
	n, err := s.store.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Product")
	}
	return nil
}

// populateSubCategories swaps raw subCategory references for
// {id, name, parentCategory} documents. Lookup failures leave the raw
// reference in place.
func (s *Service) populateSubCategories(ctx context.Context, prods []models.Product) {
	for i := range prods {
		hex, ok := refHex(prods[i].SubCategory)
		if !ok {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			continue
		}
		info, err := s.cats.FindInfo(ctx, oid)
		if err != nil || info == nil {
			continue
		}
		prods[i].SubCategory = *info
	}
}
