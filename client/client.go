package client

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sisu-network/lib/log"

	"github.com/onramp-network/relayer/types"
)

const (
	RetryTime = 10 * time.Second
)

var (
	ErrMonitorNotConnected = errors.New("monitor service is not connected")
)

// Client posts the relay's operational events to the monitoring service.
type Client interface {
	TryDial()
	GetVersion() (string, error)
	PostTrackUpdate(update *types.TrackUpdate) error
	PostRelayerBalance(balance *types.RelayerBalance) error
}

type DefaultClient struct {
	client    *rpc.Client
	url       string
	connected bool
}

func NewClient(url string) Client {
	return &DefaultClient{
		url: url,
	}
}

// TryDial blocks until the monitoring service answers. The relay runs fine
// while this retries; events emitted meanwhile are only logged locally.
func (c *DefaultClient) TryDial() {
	log.Info("Trying to dial monitor service")

	for {
		log.Info("Dialing...", c.url)
		var err error
		c.client, err = rpc.DialContext(context.Background(), c.url)
		if err != nil {
			log.Error("Cannot connect to monitor service, err = ", err)
			time.Sleep(RetryTime)
			continue
		}

		_, err = c.GetVersion()
		if err != nil {
			log.Error("Cannot get monitor version, err = ", err)
			time.Sleep(RetryTime)
			continue
		}

		c.connected = true
		break
	}

	log.Info("Monitor service is connected")
}

func (c *DefaultClient) GetVersion() (string, error) {
	if c.client == nil {
		return "", ErrMonitorNotConnected
	}

	var version string
	err := c.client.CallContext(context.Background(), &version, "monitor_version")

	return version, err
}

func (c *DefaultClient) PostTrackUpdate(update *types.TrackUpdate) error {
	if !c.connected {
		return ErrMonitorNotConnected
	}

	var result string
	err := c.client.CallContext(context.Background(), &result, "monitor_postTrackUpdate", update)
	if err != nil {
		log.Error("Cannot post track update, tx hash = ", update.Hash, ", err = ", err)
		return err
	}

	return nil
}

func (c *DefaultClient) PostRelayerBalance(balance *types.RelayerBalance) error {
	if !c.connected {
		return ErrMonitorNotConnected
	}

	var result string
	err := c.client.CallContext(context.Background(), &result, "monitor_postRelayerBalance", balance)
	if err != nil {
		log.Error("Cannot post relayer balance, err = ", err)
		return err
	}

	return nil
}
