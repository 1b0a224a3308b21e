package main

import (
	"os"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/joho/godotenv"
	"github.com/sisu-network/lib/log"

	"github.com/onramp-network/relayer/client"
	"github.com/onramp-network/relayer/config"
	"github.com/onramp-network/relayer/core"
	"github.com/onramp-network/relayer/relay"
	"github.com/onramp-network/relayer/server"
)

func initialize() (config.Relayer, *core.Processor) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("No .env file found, relying on the environment")
	}

	cfgPath := os.Getenv("RELAYER_CONFIG")
	if cfgPath == "" {
		cfgPath = "./relayer.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	ethClient, err := relay.Dial(cfg.Chain.RpcUrl)
	if err != nil {
		panic(err)
	}

	poolClient := relay.NewTxPoolClient(cfg.Chain.RpcUrl)

	var monitor client.Client
	if cfg.MonitorUrl != "" {
		monitor = client.NewClient(cfg.MonitorUrl)
	}

	processor, err := core.NewProcessor(cfg, ethClient, poolClient, monitor)
	if err != nil {
		panic(err)
	}

	return cfg, processor
}

func main() {
	cfg, processor := initialize()
	processor.Start()

	handler := rpc.NewServer()
	err := handler.RegisterName("relay", server.NewApi(processor))
	if err != nil {
		panic(err)
	}

	s := server.NewServer(handler, cfg.ServerPort)
	s.Run()
}
