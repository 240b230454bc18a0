package products

import (
	"context"
	"sort"
	"strings"
	"testing"

	"agromart/apperr"
	"agromart/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore holds products in memory and evaluates the handful of filter
// shapes the service builds, with the same typed equality the database
// applies.
type fakeStore struct {
	prods []models.Product
}

func regexMatch(value string, cond any) bool {
	m, ok := cond.(bson.M)
	if !ok {
		return false
	}
	rx, ok := m["$regex"].(primitive.Regex)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(rx.Pattern))
}

func (f *fakeStore) matches(p models.Product, filter bson.M) bool {
	for key, want := range filter {
		switch key {
		case "_id":
			if p.ID != want.(primitive.ObjectID) {
				return false
			}
		case "isActive":
			if p.IsActive != want.(bool) {
				return false
			}
		case "stock":
			cond := want.(bson.M)
			if floor, ok := cond["$gte"].(int); ok && p.Stock < floor {
				return false
			}
		case "subCategory":
			if cond, ok := want.(bson.M); ok {
				ids := cond["$in"].([]primitive.ObjectID)
				found := false
				for _, id := range ids {
					if p.SubCategory == id {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			} else if p.SubCategory != want {
				return false
			}
		case "$or":
			hit := false
			for _, branch := range want.([]bson.M) {
				if cond, ok := branch["name"]; ok && regexMatch(p.Name, cond) {
					hit = true
				}
				if cond, ok := branch["description"]; ok && regexMatch(p.Description, cond) {
					hit = true
				}
				if cond, ok := branch["tags"]; ok {
					for _, tag := range p.Tags {
						if regexMatch(tag, cond) {
							hit = true
						}
					}
				}
			}
			if !hit {
				return false
			}
		}
	}
	return true
}

func (f *fakeStore) Find(_ context.Context, filter bson.M, _ bson.D) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range f.prods {
		if f.matches(p, filter) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *fakeStore) FindOne(_ context.Context, filter bson.M) (*models.Product, error) {
	for _, p := range f.prods {
		if f.matches(p, filter) {
			pp := p
			return &pp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertOne(_ context.Context, p *models.Product) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	p.ID = id
	f.prods = append(f.prods, *p)
	return id, nil
}

func (f *fakeStore) UpdateOne(_ context.Context, filter, update bson.M) (*models.Product, error) {
	for i, p := range f.prods {
		if !f.matches(p, filter) {
			continue
		}
		if inc, ok := update["$inc"].(bson.M); ok {
			if d, ok := inc["stock"].(int); ok {
				f.prods[i].Stock += d
			}
		}
		if set, ok := update["$set"].(bson.M); ok {
			if v, ok := set["name"]; ok {
				f.prods[i].Name = v.(string)
			}
			if v, ok := set["isActive"]; ok {
				f.prods[i].IsActive = v.(bool)
			}
			if v, ok := set["stock"]; ok {
				f.prods[i].Stock = v.(int)
			}
		}
		pp := f.prods[i]
		return &pp, nil
	}
	return nil, nil
}

func (f *fakeStore) DeleteOne(_ context.Context, filter bson.M) (int64, error) {
	for i, p := range f.prods {
		if f.matches(p, filter) {
			f.prods = append(f.prods[:i], f.prods[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// stockOf reads a product's current stock straight from the fake store.
func (f *fakeStore) stockOf(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	for _, p := range f.prods {
		if p.ID == id {
			return p.Stock
		}
	}
	t.Fatalf("product %s not in store", id.Hex())
	return 0
}

// fakeCatIndex mirrors the sub-category lookup: it matches the
// parentCategory filter value with typed equality, exactly like rows
// whose references are stored as strings or ObjectIds.
type fakeCatIndex struct {
	cats []models.Category
}

func (f *fakeCatIndex) FindIDs(_ context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	want := filter["parentCategory"]
	var ids []primitive.ObjectID
	for _, c := range f.cats {
		if c.ParentCategory == want {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (f *fakeCatIndex) FindInfo(_ context.Context, id primitive.ObjectID) (*models.SubCategoryInfo, error) {
	for _, c := range f.cats {
		if c.ID == id {
			return &models.SubCategoryInfo{ID: c.ID.Hex(), Name: c.Name}, nil
		}
	}
	return nil, nil
}

func newProduct(name string, sub any, stock int, active bool) models.Product {
	return models.Product{
		ID:          primitive.NewObjectID(),
		Name:        name,
		SubCategory: sub,
		Stock:       stock,
		Price:       10,
		IsActive:    active,
	}
}

func TestListByCategoryFanOut(t *testing.T) {
	parent := primitive.NewObjectID()
	subA := models.Category{ID: primitive.NewObjectID(), Name: "Sub A", ParentCategory: parent}
	subB := models.Category{ID: primitive.NewObjectID(), Name: "Sub B", ParentCategory: parent}
	other := models.Category{ID: primitive.NewObjectID(), Name: "Other", ParentCategory: primitive.NewObjectID()}

	store := &fakeStore{prods: []models.Product{
		newProduct("From A", subA.ID, 5, true),
		newProduct("From B", subB.ID, 5, true),
		newProduct("Elsewhere", other.ID, 5, true),
		newProduct("Hidden", subA.ID, 5, false),
	}}
	svc := NewService(store, &fakeCatIndex{cats: []models.Category{subA, subB, other}})

	prods, err := svc.ListByCategory(context.Background(), parent.Hex())
	require.NoError(t, err)
	require.Len(t, prods, 2)
	assert.Equal(t, "From A", prods[0].Name)
	assert.Equal(t, "From B", prods[1].Name)
}

func TestListByCategoryStringParentRefs(t *testing.T) {
	parent := primitive.NewObjectID()
	sub := models.Category{ID: primitive.NewObjectID(), Name: "Sub", ParentCategory: parent.Hex()}
	store := &fakeStore{prods: []models.Product{newProduct("P", sub.ID, 1, true)}}
	svc := NewService(store, &fakeCatIndex{cats: []models.Category{sub}})

	prods, err := svc.ListByCategory(context.Background(), parent.Hex())
	require.NoError(t, err)
	assert.Len(t, prods, 1)
}

func TestListByCategoryNoSubCategories(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeCatIndex{})

	prods, err := svc.ListByCategory(context.Background(), primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Empty(t, prods)

	prods, err = svc.ListByCategory(context.Background(), "not-an-id")
	require.NoError(t, err)
	assert.Empty(t, prods)
}

func TestSearchCaseInsensitive(t *testing.T) {
	sub := primitive.NewObjectID()
	tomato := newProduct("Tomato Seeds", sub, 5, true)
	fert := newProduct("Fertilizer", sub, 5, true)
	fert.Description = "great for TOMATO beds"
	tagged := newProduct("Mystery Box", sub, 5, true)
	tagged.Tags = []string{"tomato", "gift"}
	inactive := newProduct("Tomato Cage", sub, 5, false)

	store := &fakeStore{prods: []models.Product{tomato, fert, tagged, inactive}}
	svc := NewService(store, &fakeCatIndex{})

	prods, err := svc.Search(context.Background(), "toMAto")
	require.NoError(t, err)
	require.Len(t, prods, 3)
	names := []string{prods[0].Name, prods[1].Name, prods[2].Name}
	assert.Contains(t, names, "Tomato Seeds")
	assert.Contains(t, names, "Fertilizer")
	assert.Contains(t, names, "Mystery Box")
}

func TestListAllOrdering(t *testing.T) {
	sub := primitive.NewObjectID()
	b := newProduct("Beans", sub, 1, true)
	a := newProduct("Apples", sub, 1, true)
	first := newProduct("Zeta Promo", sub, 1, true)
	first.SortOrder = -5

	store := &fakeStore{prods: []models.Product{b, a, first}}
	svc := NewService(store, &fakeCatIndex{})

	prods, err := svc.ListAll(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, prods, 3)
	assert.Equal(t, "Zeta Promo", prods[0].Name)
	assert.Equal(t, "Apples", prods[1].Name)
	assert.Equal(t, "Beans", prods[2].Name)
}

func TestUpdateStockDecrements(t *testing.T) {
	p := newProduct("Compost", primitive.NewObjectID(), 10, true)
	store := &fakeStore{prods: []models.Product{p}}
	svc := NewService(store, &fakeCatIndex{})

	updated, err := svc.UpdateStock(context.Background(), p.ID.Hex(), 4)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Stock)
	assert.Equal(t, 6, store.stockOf(t, p.ID))
}

func TestUpdateStockInsufficientLeavesStockUnchanged(t *testing.T) {
	p := newProduct("Compost", primitive.NewObjectID(), 3, true)
	store := &fakeStore{prods: []models.Product{p}}
	svc := NewService(store, &fakeCatIndex{})

	_, err := svc.UpdateStock(context.Background(), p.ID.Hex(), 4)
	var ins *apperr.InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, "Compost", ins.Product)
	assert.Equal(t, 3, store.stockOf(t, p.ID))
}

func TestUpdateStockExactRemainderIsZero(t *testing.T) {
	p := newProduct("Compost", primitive.NewObjectID(), 4, true)
	store := &fakeStore{prods: []models.Product{p}}
	svc := NewService(store, &fakeCatIndex{})

	updated, err := svc.UpdateStock(context.Background(), p.ID.Hex(), 4)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
}

func TestUpdateStockMissingProduct(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeCatIndex{})

	_, err := svc.UpdateStock(context.Background(), primitive.NewObjectID().Hex(), 1)
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Product", nf.Entity)
}

func TestGetByIDMalformed(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeCatIndex{})
	_, err := svc.GetByID(context.Background(), "nope")
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
