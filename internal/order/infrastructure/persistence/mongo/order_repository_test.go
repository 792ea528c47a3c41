package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/musicstore/internal/order/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func orderDoc(id, userID string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "userId", Value: userID},
		{Key: "lineItems", Value: bson.A{
			bson.D{{Key: "id", Value: "p1"}, {Key: "name", Value: "Guitar"}, {Key: "price", Value: int64(1000)}, {Key: "quantity", Value: 2}},
		}},
		{Key: "totalAmount", Value: int64(2000)},
		{Key: "status", Value: ""},
		{Key: "createdAt", Value: created},
	}
}

func TestOrderRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "musicstore." + CollectionName

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		o, err := domain.NewOrder("o1", "u1", []domain.LineItem{{ProductID: "p1", Price: 1000, Quantity: 2}},
			domain.ShippingAddress{}, "pi_1", time.Now())
		require.NoError(mt, err)
		assert.NoError(mt, NewOrderRepository(mt.DB).Create(context.Background(), o))
	})

	mt.Run("create duplicate id is success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		o := &domain.Order{ID: "o1", UserID: "u1"}
		assert.NoError(mt, NewOrderRepository(mt.DB).Create(context.Background(), o))
	})

	mt.Run("get", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, orderDoc("o1", "u1", time.Now())))
		o, err := NewOrderRepository(mt.DB).Get(context.Background(), "o1")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", o.UserID)
		assert.EqualValues(mt, 2000, o.TotalAmount)
		require.Len(mt, o.LineItems, 1)
		assert.Equal(mt, 2, o.LineItems[0].Quantity)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err := NewOrderRepository(mt.DB).Get(context.Background(), "nope")
		assert.ErrorIs(mt, err, domain.ErrOrderNotFound)
	})

	mt.Run("list by user", func(mt *mtest.T) {
		now := time.Now()
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, orderDoc("o2", "u1", now))
		next := mtest.CreateCursorResponse(1, ns, mtest.NextBatch, orderDoc("o1", "u1", now.Add(-time.Hour)))
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, next, end)

		orders, err := NewOrderRepository(mt.DB).ListByUser(context.Background(), "u1")
		require.NoError(mt, err)
		require.Len(mt, orders, 2)
		assert.Equal(mt, "o2", orders[0].ID)
	})

	mt.Run("update status", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		assert.NoError(mt, NewOrderRepository(mt.DB).UpdateStatus(context.Background(), "o1", domain.StatusShipped))
	})

	mt.Run("update status missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := NewOrderRepository(mt.DB).UpdateStatus(context.Background(), "nope", domain.StatusShipped)
		assert.ErrorIs(mt, err, domain.ErrOrderNotFound)
	})
}
