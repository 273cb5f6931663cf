package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

// DefaultConnectTimeout is the maximum time to wait for initial connection.
const DefaultConnectTimeout = 5 * time.Second

// Config holds the configuration for creating a Valkey client.
type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// Client wraps the valkey-go client with application-specific key prefixing
// and locking. Create via NewClient and pass as a dependency.
type Client struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewClient creates a new Valkey client instance. The caller is responsible
// for calling Close() when done.
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey (timeout: %v): %w", timeout, err)
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Client{
		inner:     inner,
		keyPrefix: prefix,
	}, nil
}

// Close closes the Valkey connection.
func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key constructs a prefixed key from the given parts.
func (c *Client) Key(parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(c.keyPrefix, ":")
	}
	key := c.keyPrefix
	for i, p := range parts {
		key += p
		if i < len(parts)-1 {
			key += ":"
		}
	}
	return key
}

// AcquireLock takes a best-effort distributed lock via SET NX EX. It returns
// true when this process won the lock for the given expiration.
func (c *Client) AcquireLock(key string, expiration time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fullKey := c.Key(key)
	res := c.inner.Do(ctx, c.inner.B().Set().Key(fullKey).Value("1").Nx().Ex(expiration).Build())
	if err := res.Error(); err != nil {
		// NIL means the key already exists: someone else holds the lock.
		// Any other error also counts as not acquired.
		return false
	}
	return true
}

// Ping tests the connection to Valkey.
func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// IsNil checks if an error returned by the client represents a Valkey NIL response.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
