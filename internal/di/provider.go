package di

import (
	"context"
	"fmt"
	"time"

	"github.com/basinledger/settled/internal/config"
	"github.com/basinledger/settled/internal/host"
	"github.com/basinledger/settled/internal/rpc"
	"github.com/basinledger/settled/internal/storage/database"
	"github.com/basinledger/settled/internal/storage/database/leveldb"
	"github.com/basinledger/settled/internal/storage/database/pebble"
)

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
}

// NewProvider creates a new service provider.
func NewProvider(container *Container, cfg *config.Config) *Provider {
	return &Provider{
		container: container,
		config:    cfg,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)

	p.registerStorageBuilders()
	p.registerEngineBuilders()
	p.registerRPCBuilders()

	return nil
}

// storageManager is satisfied by both the pebble and leveldb managers.
type storageManager interface {
	OpenDB(name string) (database.DB, error)
}

// registerStorageBuilders registers the durable account book, backed by
// whichever key-value engine storage.backend names.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceDatabase, func(c *Container) (interface{}, error) {
		var manager storageManager
		switch p.config.Storage.Backend {
		case "leveldb":
			manager = leveldb.NewManager(p.config.Storage.Path)
		case "", "pebble":
			manager = pebble.NewManager(p.config.Storage.Path)
		default:
			return nil, fmt.Errorf("unknown storage.backend %q", p.config.Storage.Backend)
		}
		db, err := manager.OpenDB("settled")
		if err != nil {
			return nil, err
		}
		return db, nil
	})
}

// registerEngineBuilders registers the settlement host over the account book.
func (p *Provider) registerEngineBuilders() {
	p.container.RegisterBuilder(ServiceHost, func(c *Container) (interface{}, error) {
		dbIface, err := c.Get(ServiceDatabase)
		if err != nil {
			return nil, err
		}
		db := dbIface.(database.DB)

		params, err := p.config.EngineParams()
		if err != nil {
			return nil, err
		}

		h, err := host.Load(context.Background(), db, params)
		if err != nil {
			return nil, err
		}
		return h, nil
	})
}

// registerRPCBuilders registers the JSON-RPC server wired to the host.
func (p *Provider) registerRPCBuilders() {
	p.container.RegisterBuilder(ServiceRPCServer, func(c *Container) (interface{}, error) {
		hostIface, err := c.Get(ServiceHost)
		if err != nil {
			return nil, err
		}
		h := hostIface.(*host.Host)

		return rpc.NewServer(h, 30*time.Second), nil
	})
}

// GetHost returns the settlement host from the container.
func (p *Provider) GetHost() (*host.Host, error) {
	h, err := p.container.Get(ServiceHost)
	if err != nil {
		return nil, err
	}
	return h.(*host.Host), nil
}

// GetConfig returns the configuration from the container.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}
