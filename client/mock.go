package client

import "github.com/onramp-network/relayer/types"

type MockClient struct {
	TryDialFunc            func()
	GetVersionFunc         func() (string, error)
	PostTrackUpdateFunc    func(update *types.TrackUpdate) error
	PostRelayerBalanceFunc func(balance *types.RelayerBalance) error
}

func (c *MockClient) TryDial() {
	if c.TryDialFunc != nil {
		c.TryDialFunc()
	}
}

func (c *MockClient) GetVersion() (string, error) {
	if c.GetVersionFunc != nil {
		return c.GetVersionFunc()
	}

	return "", nil
}

func (c *MockClient) PostTrackUpdate(update *types.TrackUpdate) error {
	if c.PostTrackUpdateFunc != nil {
		return c.PostTrackUpdateFunc(update)
	}

	return nil
}

func (c *MockClient) PostRelayerBalance(balance *types.RelayerBalance) error {
	if c.PostRelayerBalanceFunc != nil {
		return c.PostRelayerBalanceFunc(balance)
	}

	return nil
}
