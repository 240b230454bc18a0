package orders

import (
	"context"
	"time"

	"agromart/apperr"
	"agromart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductCatalog is what order intake needs from the product side:
// reads for the validation pass, conditional decrements for the
// mutation pass. Implemented by products.Service.
type ProductCatalog interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	UpdateStock(ctx context.Context, id string, qty int) (*models.Product, error)
}

var listSort = bson.D{{Key: "createdAt", Value: -1}}

type Service struct {
	store   Store
	catalog ProductCatalog
	users   UserIndex
}

func NewService(store Store, catalog ProductCatalog, users UserIndex) *Service {
	return &Service{store: store, catalog: catalog, users: users}
}

type OrderItemInput struct {
	Product  string  `json:"product"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type CreateOrderInput struct {
	Items           []OrderItemInput       `json:"items"`
	TotalAmount     float64                `json:"totalAmount"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
}

func (in *CreateOrderInput) validate() error {
	if len(in.Items) == 0 {
		return apperr.BadRequest("order has no items")
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return apperr.BadRequest("quantity must be at least 1")
		}
	}
	a := in.ShippingAddress
	if a.Street == "" || a.City == "" || a.State == "" || a.ZipCode == "" || a.Country == "" {
		return apperr.BadRequest("shipping address is incomplete")
	}
	return nil
}

// Create turns a cart into a persisted order. Two passes over the
// items, in this order: (1) a pure read pass comparing every requested
// quantity against current stock, aborting on the first shortfall with
// nothing written; (2) a decrement pass calling the catalog's
// conditional UpdateStock per item. A race between the passes can still
// fail a later decrement after earlier ones succeeded, leaving no order
// written but earlier stock reduced. That cross-item gap is inherited
// from the original design and left as-is; only the per-item decrement
// was hardened (see products.Service.UpdateStock).
func (s *Service) Create(ctx context.Context, in CreateOrderInput, userID string) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.BadRequest("invalid user id")
	}

	// Pass 1: validate stock for every line item before touching anything.
	for _, item := range in.Items {
		product, err := s.catalog.GetByID(ctx, item.Product)
		if err != nil {
			return nil, err
		}
		if product.Stock < item.Quantity {
			return nil, apperr.InsufficientStock(product.Name)
		}
	}

	// Pass 2: decrement stock per line item.
	for _, item := range in.Items {
		if _, err := s.catalog.UpdateStock(ctx, item.Product, item.Quantity); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	order := models.Order{
		User:            userOID,
		Items:           make([]models.OrderItem, 0, len(in.Items)),
		TotalAmount:     in.TotalAmount,
		Status:          models.OrderPending,
		ShippingAddress: in.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, item := range in.Items {
		ref := any(item.Product)
		if oid, err := primitive.ObjectIDFromHex(item.Product); err == nil {
			ref = oid
		}
		order.Items = append(order.Items, models.OrderItem{
			Product:  ref,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	id, err := s.store.InsertOne(ctx, &order)
	if err != nil {
		return nil, err
	}
	order.ID = id
	s.decorateOne(ctx, &order)
	return &order, nil
}

// List returns orders, optionally scoped to an owner. The handler
// passes the caller's id unless the caller is an admin; the service
// itself never checks roles.
func (s *Service) List(ctx context.Context, ownerID string) ([]models.Order, error) {
	filter := bson.M{}
	if ownerID != "" {
		oid, err := primitive.ObjectIDFromHex(ownerID)
		if err != nil {
			return []models.Order{}, nil
		}
		filter["user"] = oid
	}
	orders, err := s.store.Find(ctx, filter, listSort)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, orders)
	return orders, nil
}

func (s *Service) GetByID(ctx context.Context, id, ownerID string) (*models.Order, error) {
	filter, err := s.scopedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	o, err := s.store.FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("Order")
	}
	s.decorateOne(ctx, o)
	return o, nil
}

type UpdateOrderInput struct {
	Status *string `json:"status,omitempty"`
}

// Update is the status patch. Transitions are deliberately
// unconstrained: any status in the enum may replace any other.
func (s *Service) Update(ctx context.Context, id string, in UpdateOrderInput, ownerID string) (*models.Order, error) {
	set := bson.M{"updatedAt": time.Now()}
	if in.Status != nil {
		if !validStatus(*in.Status) {
			return nil, apperr.BadRequest("invalid status: %s", *in.Status)
		}
		set["status"] = *in.Status
	}

	filter, err := s.scopedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	o, err := s.store.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("Order")
	}
	s.decorateOne(ctx, o)
	return o, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	filter, err := s.scopedFilter(id, ownerID)
	if err != nil {
		return err
	}
	n, err := s.store.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Order")
	}
	return nil
}

// Stats aggregates the admin dashboard numbers.
func (s *Service) Stats(ctx context.Context) (*models.OrderStats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.store.SumTotalAmount(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &models.OrderStats{
		TotalOrders:    total,
		TotalRevenue:   revenue,
		OrdersByStatus: byStatus,
	}, nil
}

func (s *Service) scopedFilter(id, ownerID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("Order")
	}
	filter := bson.M{"_id": oid}
	if ownerID != "" {
		userOID, err := primitive.ObjectIDFromHex(ownerID)
		if err != nil {
			return nil, apperr.NotFound("Order")
		}
		filter["user"] = userOID
	}
	return filter, nil
}

func validStatus(status string) bool {
	for _, s := range models.OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ProductBrief is the populated shape of an order item's product.
type ProductBrief struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Price  float64  `json:"price"`
	Images []string `json:"images"`
}

// decorateOne fills ComputedTotal and populates user and item product
// references on the way out. Population is best-effort; TotalAmount
// stays the client-sent value.
func (s *Service) decorateOne(ctx context.Context, o *models.Order) {
	var sum float64
	for _, item := range o.Items {
		sum += float64(item.Quantity) * item.Price
	}
	o.ComputedTotal = sum

	if s.catalog != nil {
		for i := range o.Items {
			hex, ok := itemRefHex(o.Items[i].Product)
			if !ok {
				continue
			}
			p, err := s.catalog.GetByID(ctx, hex)
			if err != nil || p == nil {
				continue
			}
			o.Items[i].Product = ProductBrief{
				ID:     p.ID.Hex(),
				Name:   p.Name,
				Price:  p.Price,
				Images: p.Images,
			}
		}
	}

	if s.users == nil {
		return
	}
	if oid, ok := o.User.(primitive.ObjectID); ok {
		if brief, err := s.users.FindBrief(ctx, oid); err == nil && brief != nil {
			o.User = *brief
		}
	}
}

func itemRefHex(ref any) (string, bool) {
	switch v := ref.(type) {
	case string:
		return v, v != ""
	case primitive.ObjectID:
		return v.Hex(), true
	default:
		return "", false
	}
}

func (s *Service) decorate(ctx context.Context, orders []models.Order) {
	for i := range orders {
		s.decorateOne(ctx, &orders[i])
	}
}
