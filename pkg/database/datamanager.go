package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// ErrOffline is returned by reads that miss the cache while disconnected
var ErrOffline = errors.New("database not connected")

// DataManagerOptions contains configuration for a DataManager
type DataManagerOptions struct {
	MaxCacheSize int
}

// DefaultDataManagerOptions returns default options for DataManager
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{MaxCacheSize: 1000}
}

// DataManager provides cached access to a MongoDB collection. Writes made
// while offline are cached and queued for replay.
type DataManager[T any] struct {
	name  string
	db    *Database
	cache *lruCache[T]
}

// NewDataManager creates a DataManager for a collection
func NewDataManager[T any](collectionName string, db *Database, opts ...DataManagerOptions) *DataManager[T] {
	dmOptions := DefaultDataManagerOptions()
	if len(opts) > 0 {
		dmOptions = opts[0]
	}
	return &DataManager[T]{
		name:  collectionName,
		db:    db,
		cache: newLRUCache[T](dmOptions.MaxCacheSize),
	}
}

// cacheKey builds a deterministic key from a query
func (dm *DataManager[T]) cacheKey(query bson.M) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, query[k]))
	}
	return fmt.Sprintf("%s:{%s}", dm.name, strings.Join(parts, ","))
}

func (dm *DataManager[T]) collection() *mongo.Collection {
	if dm.db == nil || !dm.db.Connected() {
		return nil
	}
	return dm.db.Collection(dm.name)
}

// Get retrieves a document from cache or database. A missing document is (nil, nil).
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	key := dm.cacheKey(query)
	if v, ok := dm.cache.get(key); ok {
		return v, nil
	}

	col := dm.collection()
	if col == nil {
		return nil, ErrOffline
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result T
	if err := col.FindOne(ctx, query).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Warn(fmt.Sprintf("Fallo al leer de la DB (%s): %v", dm.name, err), "DataManager")
		return nil, err
	}

	dm.cache.put(key, &result)
	return &result, nil
}

// Find retrieves the documents matching query, sorted and limited when asked
func (dm *DataManager[T]) Find(ctx context.Context, query bson.M, sortBy bson.D, limit int64) ([]*T, error) {
	col := dm.collection()
	if col == nil {
		return nil, ErrOffline
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	findOpts := options.Find()
	if len(sortBy) > 0 {
		findOpts.SetSort(sortBy)
	}
	if limit > 0 {
		findOpts.SetLimit(limit)
	}

	cursor, err := col.Find(ctx, query, findOpts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		results = append(results, &doc)
	}
	return results, cursor.Err()
}

// Set upserts doc under query and refreshes the cache
func (dm *DataManager[T]) Set(ctx context.Context, query bson.M, doc *T) (*T, error) {
	key := dm.cacheKey(query)

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando escritura para '%s'", dm.name), "DataManager")
		dm.queue(query, opSet, doc)
		dm.cache.put(key, doc)
		return doc, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	if err := col.FindOneAndUpdate(ctx, query, bson.M{"$set": doc}, opts).Decode(&result); err != nil {
		logger.Error(fmt.Sprintf("Error en 'set' sobre '%s'. Encolando por seguridad.", dm.name), "DataManager")
		dm.queue(query, opSet, doc)
		dm.cache.put(key, doc)
		return doc, err
	}

	dm.cache.put(key, &result)
	return &result, nil
}

// Delete removes a document from the database and cache
func (dm *DataManager[T]) Delete(ctx context.Context, query bson.M) error {
	dm.cache.remove(dm.cacheKey(query))

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando eliminación para '%s'", dm.name), "DataManager")
		dm.queue(query, opDelete, nil)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := col.DeleteOne(ctx, query); err != nil {
		dm.queue(query, opDelete, nil)
		return err
	}
	return nil
}

func (dm *DataManager[T]) queue(query bson.M, op string, data interface{}) {
	if dm.db == nil {
		return
	}
	dm.db.enqueue(QueuedOperation{
		CollectionName: dm.name,
		Query:          query,
		Operation:      op,
		Data:           data,
	})
}

// ClearCache empties the cache
func (dm *DataManager[T]) ClearCache() {
	dm.cache.clear()
}

// CacheSize returns the current cache size
func (dm *DataManager[T]) CacheSize() int {
	return dm.cache.len()
}
