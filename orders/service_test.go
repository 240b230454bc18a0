package orders

import (
	"context"
	"testing"

	"agromart/apperr"
	"agromart/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeCatalog backs order intake with an in-memory product table. Its
// UpdateStock applies the same conditional-decrement contract as
// products.Service: stock below qty mutates nothing.
type fakeCatalog struct {
	prods map[string]*models.Product
}

func newFakeCatalog(prods ...*models.Product) *fakeCatalog {
	m := make(map[string]*models.Product, len(prods))
	for _, p := range prods {
		m[p.ID.Hex()] = p
	}
	return &fakeCatalog{prods: m}
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.prods[id]
	if !ok {
		return nil, apperr.NotFound("Product")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) UpdateStock(_ context.Context, id string, qty int) (*models.Product, error) {
	p, ok := f.prods[id]
	if !ok {
		return nil, apperr.NotFound("Product")
	}
	if p.Stock < qty {
		return nil, apperr.InsufficientStock(p.Name)
	}
	p.Stock -= qty
	cp := *p
	return &cp, nil
}

// fakeOrderStore keeps orders in a slice and computes the stats
// aggregations directly.
type fakeOrderStore struct {
	orders []models.Order
}

func (f *fakeOrderStore) matches(o models.Order, filter bson.M) bool {
	for key, want := range filter {
		switch key {
		case "_id":
			if o.ID != want.(primitive.ObjectID) {
				return false
			}
		case "user":
			if o.User != want {
				return false
			}
		}
	}
	return true
}

func (f *fakeOrderStore) Find(_ context.Context, filter bson.M, _ bson.D) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range f.orders {
		if f.matches(o, filter) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) FindOne(_ context.Context, filter bson.M) (*models.Order, error) {
	for _, o := range f.orders {
		if f.matches(o, filter) {
			oo := o
			return &oo, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderStore) InsertOne(_ context.Context, o *models.Order) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	o.ID = id
	f.orders = append(f.orders, *o)
	return id, nil
}

func (f *fakeOrderStore) UpdateOne(_ context.Context, filter, update bson.M) (*models.Order, error) {
	for i, o := range f.orders {
		if !f.matches(o, filter) {
			continue
		}
		if set, ok := update["$set"].(bson.M); ok {
			if v, ok := set["status"].(string); ok {
				f.orders[i].Status = v
			}
		}
		oo := f.orders[i]
		return &oo, nil
	}
	return nil, nil
}

func (f *fakeOrderStore) DeleteOne(_ context.Context, filter bson.M) (int64, error) {
	for i, o := range f.orders {
		if f.matches(o, filter) {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeOrderStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.orders)), nil
}

func (f *fakeOrderStore) SumTotalAmount(_ context.Context) (float64, error) {
	var sum float64
	for _, o := range f.orders {
		sum += o.TotalAmount
	}
	return sum, nil
}

func (f *fakeOrderStore) CountByStatus(_ context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, o := range f.orders {
		out[o.Status]++
	}
	return out, nil
}

type fakeUserIndex struct{}

func (fakeUserIndex) FindBrief(_ context.Context, _ primitive.ObjectID) (*UserBrief, error) {
	return nil, nil
}

func catalogProduct(name string, stock int, price float64) *models.Product {
	return &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Stock:    stock,
		Price:    price,
		IsActive: true,
	}
}

func shipTo() models.ShippingAddress {
	return models.ShippingAddress{
		Street:  "1 Farm Rd",
		City:    "Pune",
		State:   "MH",
		ZipCode: "411001",
		Country: "IN",
	}
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	seeds := catalogProduct("Seeds", 10, 50)
	catalog := newFakeCatalog(seeds)
	store := &fakeOrderStore{}
	svc := NewService(store, catalog, fakeUserIndex{})
	userID := primitive.NewObjectID().Hex()

	in := CreateOrderInput{
		Items:           []OrderItemInput{{Product: seeds.ID.Hex(), Quantity: 3, Price: 50}},
		TotalAmount:     150,
		ShippingAddress: shipTo(),
	}
	order, err := svc.Create(context.Background(), in, userID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 150.0, order.TotalAmount)
	assert.Equal(t, 150.0, order.ComputedTotal)
	assert.Equal(t, 7, catalog.prods[seeds.ID.Hex()].Stock)
	assert.Len(t, store.orders, 1)
}

func TestCreateOrderValidationPassWritesNothing(t *testing.T) {
	seeds := catalogProduct("Seeds", 10, 50)
	compost := catalogProduct("Compost", 2, 20)
	catalog := newFakeCatalog(seeds, compost)
	store := &fakeOrderStore{}
	svc := NewService(store, catalog, fakeUserIndex{})

	// The second line item is short: the read pass must reject before
	// any decrement, so the first item's stock stays at 10.
	in := CreateOrderInput{
		Items: []OrderItemInput{
			{Product: seeds.ID.Hex(), Quantity: 5, Price: 50},
			{Product: compost.ID.Hex(), Quantity: 5, Price: 20},
		},
		TotalAmount:     350,
		ShippingAddress: shipTo(),
	}
	_, err := svc.Create(context.Background(), in, primitive.NewObjectID().Hex())

	var ins *apperr.InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, "Compost", ins.Product)
	assert.Equal(t, 10, catalog.prods[seeds.ID.Hex()].Stock)
	assert.Equal(t, 2, catalog.prods[compost.ID.Hex()].Stock)
	assert.Empty(t, store.orders)
}

func TestCreateOrderTotalAmountPassThrough(t *testing.T) {
	seeds := catalogProduct("Seeds", 10, 50)
	catalog := newFakeCatalog(seeds)
	svc := NewService(&fakeOrderStore{}, catalog, fakeUserIndex{})

	// Client-sent total disagrees with the items; both are reported.
	in := CreateOrderInput{
		Items:           []OrderItemInput{{Product: seeds.ID.Hex(), Quantity: 2, Price: 50}},
		TotalAmount:     999,
		ShippingAddress: shipTo(),
	}
	order, err := svc.Create(context.Background(), in, primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Equal(t, 999.0, order.TotalAmount)
	assert.Equal(t, 100.0, order.ComputedTotal)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	seeds := catalogProduct("Seeds", 10, 50)
	catalog := newFakeCatalog(seeds)
	svc := NewService(&fakeOrderStore{}, catalog, fakeUserIndex{})
	userID := primitive.NewObjectID().Hex()

	// Each rejection is a BadRequest, so handlers answer 400, not 500.
	var br *apperr.BadRequestError

	_, err := svc.Create(context.Background(), CreateOrderInput{ShippingAddress: shipTo()}, userID)
	assert.ErrorAs(t, err, &br)

	in := CreateOrderInput{
		Items:           []OrderItemInput{{Product: seeds.ID.Hex(), Quantity: 0, Price: 50}},
		ShippingAddress: shipTo(),
	}
	_, err = svc.Create(context.Background(), in, userID)
	assert.ErrorAs(t, err, &br)

	in = CreateOrderInput{
		Items: []OrderItemInput{{Product: seeds.ID.Hex(), Quantity: 1, Price: 50}},
	}
	_, err = svc.Create(context.Background(), in, userID)
	assert.ErrorAs(t, err, &br)

	in = CreateOrderInput{
		Items:           []OrderItemInput{{Product: seeds.ID.Hex(), Quantity: 1, Price: 50}},
		ShippingAddress: shipTo(),
	}
	_, err = svc.Create(context.Background(), in, "not-a-user-id")
	assert.ErrorAs(t, err, &br)

	// None of the rejected orders touched stock.
	assert.Equal(t, 10, catalog.prods[seeds.ID.Hex()].Stock)
}

func TestListScopedToOwner(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	store := &fakeOrderStore{orders: []models.Order{
		{ID: primitive.NewObjectID(), User: alice, Status: models.OrderPending},
		{ID: primitive.NewObjectID(), User: bob, Status: models.OrderPending},
	}}
	svc := NewService(store, nil, nil)

	mine, err := svc.List(context.Background(), alice.Hex())
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := svc.List(context.Background(), "malformed-owner")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetByIDScopeDeniesOtherUsers(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	order := models.Order{ID: primitive.NewObjectID(), User: alice, Status: models.OrderPending}
	store := &fakeOrderStore{orders: []models.Order{order}}
	svc := NewService(store, nil, nil)

	got, err := svc.GetByID(context.Background(), order.ID.Hex(), alice.Hex())
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetByID(context.Background(), order.ID.Hex(), bob.Hex())
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateStatus(t *testing.T) {
	order := models.Order{ID: primitive.NewObjectID(), User: primitive.NewObjectID(), Status: models.OrderDelivered}
	store := &fakeOrderStore{orders: []models.Order{order}}
	svc := NewService(store, nil, nil)

	// Any enum value may replace any other, including moving backwards.
	status := models.OrderPending
	got, err := svc.Update(context.Background(), order.ID.Hex(), UpdateOrderInput{Status: &status}, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)

	bad := "teleported"
	_, err = svc.Update(context.Background(), order.ID.Hex(), UpdateOrderInput{Status: &bad}, "")
	var br *apperr.BadRequestError
	assert.ErrorAs(t, err, &br)
}

func TestDeleteMissingOrder(t *testing.T) {
	svc := NewService(&fakeOrderStore{}, nil, nil)
	err := svc.Delete(context.Background(), primitive.NewObjectID().Hex(), "")
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestStats(t *testing.T) {
	user := primitive.NewObjectID()
	store := &fakeOrderStore{orders: []models.Order{
		{ID: primitive.NewObjectID(), User: user, Status: models.OrderPending, TotalAmount: 100},
		{ID: primitive.NewObjectID(), User: user, Status: models.OrderPending, TotalAmount: 200},
		{ID: primitive.NewObjectID(), User: user, Status: models.OrderShipped, TotalAmount: 300},
	}}
	svc := NewService(store, nil, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, 600.0, stats.TotalRevenue)
	assert.Equal(t, int64(2), stats.OrdersByStatus[models.OrderPending])
	assert.Equal(t, int64(1), stats.OrdersByStatus[models.OrderShipped])
}
