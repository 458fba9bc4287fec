// Package database provides the MongoDB persistence collaborator of the bot.
// It includes a DataManager with an LRU cache, an offline write queue that
// is replayed on reconnect, and the leveling service built on top of both.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

const (
	opSet    = "set"
	opDelete = "delete"

	reconnectInterval = 15 * time.Second
)

// QueuedOperation represents a write made while the database was offline
type QueuedOperation struct {
	CollectionName string
	Query          bson.M
	Operation      string
	Data           interface{}
}

// Database manages the MongoDB connection. It implements discord.Store.
type Database struct {
	url  string
	name string

	client      *mongo.Client
	db          *mongo.Database
	connected   bool
	collections map[string]*mongo.Collection
	reconnect   chan struct{}
	mu          sync.RWMutex

	writeQueue []QueuedOperation
	queueMu    sync.Mutex

	maxTries uint
	newBack  func() backoff.BackOff
}

var (
	database *Database
	dbMu     sync.Mutex
)

// Init creates the process-wide database handle without connecting it
func Init(url, name string) *Database {
	dbMu.Lock()
	defer dbMu.Unlock()
	if database == nil {
		database = NewDatabase(url, name)
	}
	return database
}

// Get returns the process-wide database handle
func Get() *Database {
	dbMu.Lock()
	defer dbMu.Unlock()
	return database
}

// NewDatabase creates a disconnected Database
func NewDatabase(url, name string) *Database {
	return &Database{
		url:         url,
		name:        name,
		collections: make(map[string]*mongo.Collection),
		maxTries:    3,
		newBack: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			return b
		},
	}
}

// Connect dials MongoDB, retrying a few times before falling back to
// offline mode with a background reconnect loop.
func (d *Database) Connect(ctx context.Context) error {
	if d.Connected() {
		return nil
	}
	if d.url == "" {
		return fmt.Errorf("mongodb url is not configured")
	}

	logger.System("Intentando conectar a la base de datos...", "DB")

	client, err := backoff.Retry(ctx, func() (*mongo.Client, error) {
		return d.dial(ctx)
	},
		backoff.WithBackOff(d.newBack()),
		backoff.WithMaxTries(d.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn(fmt.Sprintf("Fallo al conectar (%v), reintentando en %s", err, next), "DB")
		}),
	)
	if err != nil {
		logger.Critical("Fallo al conectar con la base de datos. Activando modo offline.", "DB")
		d.startReconnect()
		return err
	}

	d.attach(client)
	return nil
}

func (d *Database) dial(ctx context.Context) (*mongo.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(d.url).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(dialCtx, clientOpts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func (d *Database) attach(client *mongo.Client) {
	d.mu.Lock()
	d.client = client
	d.db = client.Database(d.name)
	d.collections = make(map[string]*mongo.Collection)
	d.connected = true
	if d.reconnect != nil {
		close(d.reconnect)
		d.reconnect = nil
	}
	d.mu.Unlock()

	logger.Success("Conectado exitosamente a la base de datos.", "DB")
	go d.syncOfflineWrites()
}

// startReconnect polls the server until it answers or Disconnect is called
func (d *Database) startReconnect() {
	d.mu.Lock()
	if d.reconnect != nil {
		d.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	d.reconnect = stop
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(reconnectInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logger.Info("Intentando reconectar a la base de datos...", "DB")
				client, err := d.dial(context.Background())
				if err != nil {
					continue
				}
				select {
				case <-stop:
					_ = client.Disconnect(context.Background())
				default:
					d.attach(client)
				}
				return
			case <-stop:
				return
			}
		}
	}()
}

// Disconnect stops reconnect attempts and closes the client
func (d *Database) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reconnect != nil {
		close(d.reconnect)
		d.reconnect = nil
	}
	if d.client == nil {
		return nil
	}

	err := d.client.Disconnect(ctx)
	d.client = nil
	d.db = nil
	d.connected = false
	if err != nil {
		return err
	}
	logger.Warn("La base de datos ha sido desconectada", "DB")
	return nil
}

// Connected reports whether the last connect succeeded
func (d *Database) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Ping measures the database response time
func (d *Database) Ping(ctx context.Context) (time.Duration, error) {
	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()

	if client == nil {
		return 0, fmt.Errorf("not connected to database")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := client.Ping(ctx, readpref.Primary())
	return time.Since(start), err
}

// Status returns a display string for the connection state
func (d *Database) Status(ctx context.Context) (string, bool) {
	if _, err := d.Ping(ctx); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | En linea", true
}

// Collection returns a MongoDB collection, nil while offline
func (d *Database) Collection(name string) *mongo.Collection {
	d.mu.RLock()
	if col, ok := d.collections[name]; ok {
		d.mu.RUnlock()
		return col
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	col := d.db.Collection(name)
	d.collections[name] = col
	return col
}

// enqueue stores an operation for replay after reconnecting
func (d *Database) enqueue(op QueuedOperation) {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	d.writeQueue = append(d.writeQueue, op)
}

// Pending returns the number of queued offline writes
func (d *Database) Pending() int {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	return len(d.writeQueue)
}

// syncOfflineWrites replays queued operations, re-queueing the failures
func (d *Database) syncOfflineWrites() {
	d.queueMu.Lock()
	if len(d.writeQueue) == 0 {
		d.queueMu.Unlock()
		return
	}
	operations := d.writeQueue
	d.writeQueue = nil
	d.queueMu.Unlock()

	logger.System(fmt.Sprintf("Sincronizando %d operaciones pendientes con la DB...", len(operations)), "DB-Sync")

	var failed []QueuedOperation
	for _, op := range operations {
		col := d.Collection(op.CollectionName)
		if col == nil {
			failed = append(failed, op)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var err error
		switch op.Operation {
		case opSet:
			_, err = col.UpdateOne(ctx, op.Query, bson.M{"$set": op.Data}, options.Update().SetUpsert(true))
		case opDelete:
			_, err = col.DeleteOne(ctx, op.Query)
		}
		cancel()

		if err != nil {
			logger.Error(fmt.Sprintf("Error al sincronizar operación para '%s'. Se volverá a encolar.", op.CollectionName), "DB-Sync")
			failed = append(failed, op)
		}
	}

	if len(failed) > 0 {
		d.queueMu.Lock()
		d.writeQueue = append(d.writeQueue, failed...)
		d.queueMu.Unlock()
		logger.Warn(fmt.Sprintf("%d operaciones no pudieron sincronizarse y se reintentarán.", len(failed)), "DB-Sync")
		return
	}
	logger.Success("Sincronización completada exitosamente.", "DB-Sync")
}
