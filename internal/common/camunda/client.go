// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"biashara-bot/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

type Client struct {
	client         zbc.Client
	requestTimeout time.Duration
}

// NewClient connects to the gateway and checks the topology once.
func NewClient(ctx context.Context, cfg config.CamundaConfig) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, requestTimeout: requestTimeout(cfg)}
	if err := c.Ping(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, err)
	}
	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Ping asks the gateway for its topology.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func requestTimeout(cfg config.CamundaConfig) time.Duration {
	if cfg.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(cfg.RequestTimeout) * time.Millisecond
}
