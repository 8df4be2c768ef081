package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/ggoodman/mcp-methods-go/broker"
	"github.com/ggoodman/mcp-methods-go/broker/memory"
	redisbroker "github.com/ggoodman/mcp-methods-go/broker/redis"
	"github.com/ggoodman/mcp-methods-go/mcpservice"
	"github.com/ggoodman/mcp-methods-go/toolchanged"
)

// Config holds the settings for Assemble. Defaults are provided via struct
// tags and can be loaded from the environment with LoadConfig.
type Config struct {
	// Mode selects the callback flavour. ENV: MCP_METHODS_MODE
	// (sync, async, stateless-sync, stateless-async)
	Mode Mode `env:"MCP_METHODS_MODE,default=sync"`
	// PageSize bounds list results. ENV: MCP_METHODS_PAGE_SIZE
	PageSize int `env:"MCP_METHODS_PAGE_SIZE,default=50"`
	// RedisAddr enables the Redis broker for tool list relays when set.
	// ENV: MCP_METHODS_REDIS_ADDR
	RedisAddr string `env:"MCP_METHODS_REDIS_ADDR"`
	// KeyPrefix for Redis keys. ENV: MCP_METHODS_REDIS_KEY_PREFIX
	KeyPrefix string `env:"MCP_METHODS_REDIS_KEY_PREFIX,default=mcp:methods:"`
	// BlockTimeout bounds blocking Redis reads. ENV: MCP_METHODS_REDIS_BLOCK_TIMEOUT
	BlockTimeout time.Duration `env:"MCP_METHODS_REDIS_BLOCK_TIMEOUT,default=1s"`
	// RelayNamespace is the broker namespace for tool list snapshots.
	// ENV: MCP_METHODS_RELAY_NAMESPACE
	RelayNamespace string `env:"MCP_METHODS_RELAY_NAMESPACE,default=tools-list-changed"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading provider config: %w", err)
	}
	return cfg, nil
}

// NewBroker returns the broker described by cfg: Redis when RedisAddr is set
// and in-memory otherwise. The Redis connection is verified with a ping.
func (cfg Config) NewBroker(ctx context.Context) (broker.Broker, error) {
	if cfg.RedisAddr == "" {
		return memory.New(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return redisbroker.New(redisbroker.Config{
		Client:       client,
		KeyPrefix:    cfg.KeyPrefix,
		BlockTimeout: cfg.BlockTimeout,
	}), nil
}

// Assembly is the bound form of a set of beans.
type Assembly struct {
	Tools       *mcpservice.ToolsContainer
	Resources   *mcpservice.ResourcesContainer
	Completions *mcpservice.CompletionsContainer
	// Dispatcher is nil in stateless modes.
	Dispatcher *toolchanged.Dispatcher
}

// Assemble runs every provider over beans using cfg.
func Assemble(cfg Config, beans []any, opts ...Option) (*Assembly, error) {
	page := mcpservice.WithPageSize(cfg.PageSize)
	tools, err := NewToolProvider(cfg.Mode, beans, opts...).Container(page)
	if err != nil {
		return nil, err
	}
	resources, err := NewResourceProvider(cfg.Mode, beans, opts...).Container(page)
	if err != nil {
		return nil, err
	}
	completions, err := NewCompleteProvider(cfg.Mode, beans, opts...).Container()
	if err != nil {
		return nil, err
	}
	a := &Assembly{Tools: tools, Resources: resources, Completions: completions}
	if !cfg.Mode.stateless() {
		if a.Dispatcher, err = NewToolListChangedProvider(cfg.Mode, beans, opts...).Dispatcher(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Server exposes the assembly as server capabilities.
func (a *Assembly) Server(opts ...mcpservice.ServerOption) mcpservice.ServerCapabilities {
	opts = append([]mcpservice.ServerOption{
		mcpservice.WithToolsCapability(a.Tools),
		mcpservice.WithResourcesCapability(a.Resources),
		mcpservice.WithCompletionsCapability(a.Completions),
	}, opts...)
	return mcpservice.NewServer(opts...)
}

// Relay returns a relay that feeds the assembly's dispatcher through b.
// A nil b dispatches in process.
func (a *Assembly) Relay(cfg Config, b broker.Broker) (*toolchanged.Relay, error) {
	if a.Dispatcher == nil {
		return nil, fmt.Errorf("tool list changed listeners are not available in %s mode", cfg.Mode)
	}
	if b == nil {
		return toolchanged.NewRelay(a.Dispatcher), nil
	}
	return toolchanged.NewRelay(a.Dispatcher, toolchanged.WithBroker(b, cfg.RelayNamespace)), nil
}
