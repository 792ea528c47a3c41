// Package mongo 提供订单仓储的 MongoDB 实现
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/musicstore/internal/order/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName 订单集合
const CollectionName = "orders"

// orderDocument 订单文档，_id 即订单 ID
type orderDocument struct {
	ID              string                 `bson:"_id"`
	UserID          string                 `bson:"userId"`
	LineItems       []domain.LineItem      `bson:"lineItems"`
	TotalAmount     int64                  `bson:"totalAmount"`
	ShippingAddress domain.ShippingAddress `bson:"shippingAddress"`
	Status          string                 `bson:"status"`
	PaymentIntentID string                 `bson:"paymentIntentId"`
	CreatedAt       time.Time              `bson:"createdAt"`
	UpdatedAt       time.Time              `bson:"updatedAt"`
}

type orderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *mongo.Database) domain.OrderRepository {
	return &orderRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes 创建查询所需索引
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	return err
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.coll.InsertOne(ctx, fromDomain(order))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var doc orderDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: orderID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
}

func (r *orderRepository) ListAll(ctx context.Context, offset, limit int) ([]*domain.Order, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetSkip(int64(offset)).SetLimit(int64(limit))
	}
	orders, err := r.find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: orderID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(status)},
			{Key: "updatedAt", Value: time.Now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*domain.Order, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cur.Close(ctx)

	var docs []orderDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func fromDomain(o *domain.Order) *orderDocument {
	return &orderDocument{
		ID:              o.ID,
		UserID:          o.UserID,
		LineItems:       o.LineItems,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		PaymentIntentID: o.PaymentIntentID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (d *orderDocument) toDomain() *domain.Order {
	return &domain.Order{
		ID:              d.ID,
		UserID:          d.UserID,
		LineItems:       d.LineItems,
		TotalAmount:     d.TotalAmount,
		ShippingAddress: d.ShippingAddress,
		Status:          domain.Status(d.Status),
		PaymentIntentID: d.PaymentIntentID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
