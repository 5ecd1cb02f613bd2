package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
)

// DefaultDatabase is used when neither MONGODB_DB nor the URI path names a database.
const DefaultDatabase = "test"

// ConnectOptions defines how the gateway reaches MongoDB.
type ConnectOptions struct {
	URI                    string        // mongodb:// or mongodb+srv:// connection string (required)
	Database               string        // optional, overrides the URI path
	ConnectTimeout         time.Duration // dial + first ping budget (ex: 10s)
	ServerSelectionTimeout time.Duration // optional driver server selection timeout
	MaxPoolSize            uint64        // optional, 0 = driver default
}

// Gateway owns the single MongoDB client of the process.
//
// The client is dialed lazily on the first Connect and reused afterwards.
// A failed dial leaves the gateway unconnected so the next call dials again.
type Gateway struct {
	opts ConnectOptions
	log  logger.Logger

	mu     sync.Mutex
	client *mongo.Client
	dbName string
	dials  int
}

// NewGateway builds an unconnected gateway.
func NewGateway(opts ConnectOptions, log logger.Logger) *Gateway {
	return &Gateway{opts: opts, log: log}
}

// Connect returns the shared client, dialing it on first use.
func (g *Gateway) Connect(ctx context.Context) (*mongo.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	if strings.TrimSpace(g.opts.URI) == "" {
		return nil, fmt.Errorf("%w: missing connection string", domain.ErrConnection)
	}

	cs, err := connstring.ParseAndValidate(g.opts.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid connection string: %v", domain.ErrConnection, err)
	}

	g.dials++
	hosts := strings.Join(cs.Hosts, ",")
	g.log.Info("connecting to mongodb",
		logger.String("hosts", hosts),
		logger.Duration("timeout", g.opts.ConnectTimeout))

	clientOptions := options.Client().ApplyURI(g.opts.URI)
	if g.opts.ConnectTimeout > 0 {
		clientOptions.SetConnectTimeout(g.opts.ConnectTimeout)
	}
	if g.opts.ServerSelectionTimeout > 0 {
		clientOptions.SetServerSelectionTimeout(g.opts.ServerSelectionTimeout)
	}
	if g.opts.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(g.opts.MaxPoolSize)
	}

	dialCtx := ctx
	if g.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, g.opts.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(dialCtx, clientOptions)
	if err != nil {
		g.log.Error("mongodb connect failed", logger.String("hosts", hosts), logger.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}

	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		g.log.Error("mongodb unreachable", logger.String("hosts", hosts), logger.Error(err))
		return nil, fmt.Errorf("%w: ping: %v", domain.ErrConnection, err)
	}

	g.client = client
	g.dbName = resolveDatabase(g.opts.Database, cs.Database)
	g.log.Info("connected to mongodb",
		logger.String("hosts", hosts),
		logger.String("database", g.dbName))

	return client, nil
}

// Collection returns a handle scoped to one named collection of the configured database.
func (g *Gateway) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	client, err := g.Connect(ctx)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	db := g.dbName
	g.mu.Unlock()
	return client.Database(db).Collection(name), nil
}

// Ping checks the server is reachable through the shared client.
func (g *Gateway) Ping(ctx context.Context) error {
	client, err := g.Connect(ctx)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrStore, err)
	}
	return nil
}

// Database returns the resolved database name ("" before the first successful Connect).
func (g *Gateway) Database() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dbName
}

// Dials returns how many times the gateway attempted to open a client.
func (g *Gateway) Dials() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dials
}

// Close disconnects the client if one was opened. Safe to call more than once.
func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		return nil
	}
	err := g.client.Disconnect(ctx)
	g.client = nil
	if err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("failed to disconnect mongodb: %w", err)
	}
	return nil
}

func resolveDatabase(explicit, fromURI string) string {
	if explicit != "" {
		return explicit
	}
	if fromURI != "" {
		return fromURI
	}
	return DefaultDatabase
}
