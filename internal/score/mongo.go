package score

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore хранит по документу на имя с уникальным индексом
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoStore подключается к MongoDB и создаёт индексы
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if database == "" {
		database = "mazechase"
	}
	if collection == "" {
		collection = "scores"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		now:        time.Now,
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func (m *MongoStore) ensureIndexes(ctx context.Context) error {
	nameIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("name_unique"),
	}
	scoreIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "score", Value: -1}},
		Options: options.Index().SetName("score_desc"),
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{nameIdx, scoreIdx}); err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

// Save обновляет документ, только если новый счёт больше.
// Если документа нет, вставляет его; конфликт уникального индекса означает,
// что запись уже есть и она не хуже.
func (m *MongoStore) Save(ctx context.Context, name string, score int) error {
	name = NormalizeName(name)
	if err := Validate(name, score); err != nil {
		return err
	}
	at := m.now().UTC()

	res, err := m.collection.UpdateOne(ctx,
		bson.M{"name": name, "score": bson.M{"$lt": score}},
		bson.M{"$set": bson.M{"score": score, "recorded_at": at}},
	)
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	_, err = m.collection.InsertOne(ctx, Entry{Name: name, Score: score, RecordedAt: at})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// Best возвращает лучший счёт игрока
func (m *MongoStore) Best(ctx context.Context, name string) (Entry, error) {
	var e Entry
	err := m.collection.FindOne(ctx, bson.M{"name": NormalizeName(name)}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("mongo find: %w", err)
	}
	return e, nil
}

// Top возвращает лучшие записи
func (m *MongoStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "score", Value: -1},
		{Key: "recorded_at", Value: 1},
		{Key: "name", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return out, nil
}

// Clear удаляет коллекцию
func (m *MongoStore) Clear(ctx context.Context) error {
	return m.collection.Drop(ctx)
}

// Close отключается от MongoDB
func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
