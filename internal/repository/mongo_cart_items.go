package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cartItemRecord is the stored shape. Price is kept as a decimal string.
type cartItemRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Owner     string             `bson:"owner"`
	ProductID int64              `bson:"product_id"`
	Name      string             `bson:"name"`
	Price     string             `bson:"price"`
	Quantity  int                `bson:"quantity"`
	Image     string             `bson:"image"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (r cartItemRecord) toDomain() (domain.RemoteCartItem, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.RemoteCartItem{}, fmt.Errorf("invalid price %q on cart item %s: %w", r.Price, r.ID.Hex(), err)
	}
	return domain.RemoteCartItem{
		ID:        r.ID.Hex(),
		Owner:     r.Owner,
		ProductID: r.ProductID,
		Name:      r.Name,
		Price:     price,
		Quantity:  r.Quantity,
		Image:     r.Image,
	}, nil
}

type MongoCartItemStore struct {
	collection *mongo.Collection
}

func NewMongoCartItemStore(db *mongo.Database) *MongoCartItemStore {
	return &MongoCartItemStore{
		collection: db.Collection("cart_items"),
	}
}

func (m *MongoCartItemStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (m *MongoCartItemStore) List(ctx context.Context, owner string) ([]domain.RemoteCartItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.collection.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer cursor.Close(ctx)

	var records []cartItemRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode cart items: %w", err)
	}

	items := make([]domain.RemoteCartItem, 0, len(records))
	for _, rec := range records {
		item, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (m *MongoCartItemStore) Create(ctx context.Context, owner string, item domain.CartItem) (domain.RemoteCartItem, error) {
	rec := cartItemRecord{
		ID:        primitive.NewObjectID(),
		Owner:     owner,
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.UnitPrice.String(),
		Quantity:  item.Quantity,
		Image:     item.Image,
		UpdatedAt: time.Now(),
	}

	if _, err := m.collection.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.RemoteCartItem{}, domain.ErrDuplicateCartItem
		}
		return domain.RemoteCartItem{}, fmt.Errorf("failed to create cart item: %w", err)
	}
	return rec.toDomain()
}

func (m *MongoCartItemStore) Update(ctx context.Context, owner, remoteID string, quantity int) (domain.RemoteCartItem, error) {
	oid, err := primitive.ObjectIDFromHex(remoteID)
	if err != nil {
		return domain.RemoteCartItem{}, domain.ErrCartItemNotFound
	}

	filter := bson.M{"_id": oid, "owner": owner}
	update := bson.M{
		"$set": bson.M{
			"quantity":   quantity,
			"updated_at": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec cartItemRecord
	err = m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.RemoteCartItem{}, domain.ErrCartItemNotFound
		}
		return domain.RemoteCartItem{}, fmt.Errorf("failed to update cart item: %w", err)
	}
	return rec.toDomain()
}

// IncrementByProduct adds delta to the owner's record for item.ProductID,
// inserting it with quantity delta when missing.
func (m *MongoCartItemStore) IncrementByProduct(ctx context.Context, owner string, item domain.CartItem, delta int) (domain.RemoteCartItem, error) {
	filter := bson.M{"owner": owner, "product_id": item.ProductID}
	update := bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updated_at": time.Now()},
		"$setOnInsert": bson.M{
			"name":  item.Name,
			"price": item.UnitPrice.String(),
			"image": item.Image,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec cartItemRecord
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if mongo.IsDuplicateKeyError(err) {
		// two upserts raced on the unique index; the loser retries as an update
		err = m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	}
	if err != nil {
		return domain.RemoteCartItem{}, fmt.Errorf("failed to increment cart item: %w", err)
	}
	return rec.toDomain()
}

func (m *MongoCartItemStore) Delete(ctx context.Context, owner, remoteID string) error {
	oid, err := primitive.ObjectIDFromHex(remoteID)
	if err != nil {
		return domain.ErrCartItemNotFound
	}

	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	if result.DeletedCount == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (m *MongoCartItemStore) DeleteAll(ctx context.Context, owner string) error {
	if _, err := m.collection.DeleteMany(ctx, bson.M{"owner": owner}); err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}
	return nil
}

func (m *MongoCartItemStore) Ping(ctx context.Context) error {
	return m.collection.Database().Client().Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (m *MongoCartItemStore) Close(ctx context.Context) error {
	return m.collection.Database().Client().Disconnect(ctx)
}
