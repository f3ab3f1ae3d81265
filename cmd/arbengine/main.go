package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/7suyash7/arbengine/chainclient"
	"github.com/7suyash7/arbengine/configs"
	"github.com/7suyash7/arbengine/engine"
	"github.com/7suyash7/arbengine/internal/db"
	"github.com/7suyash7/arbengine/internal/registry"
	"github.com/7suyash7/arbengine/pool"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
)

const chainName = "ethereum"

func main() {
	configPath := os.Getenv("ARBENGINE_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yml"
	}

	conf, err := configs.LoadConfig(configPath)
	if err != nil {
		panic(err)
	}

	rawClient, err := ethclient.Dial(conf.RPC)
	if err != nil {
		panic(err)
	}

	poolRegistry, err := registry.NewMySQLRegistry(conf.RegistryDSN)
	if err != nil {
		panic(err)
	}

	blockStore, err := db.NewMySQLLastBlockStore(conf.RegistryDSN)
	if err != nil {
		panic(err)
	}

	chain := chainclient.NewEthClient(rawClient, abisForRegistry(poolRegistry))

	lower, upper := conf.ToOptimizerBounds()
	lowerU256, overflow := uint256.FromBig(lower)
	if overflow {
		panic("lower optimizer bound overflows uint256")
	}
	upperU256, overflow := uint256.FromBig(upper)
	if overflow {
		panic("upper optimizer bound overflows uint256")
	}

	e := engine.New(chain, poolRegistry, conf.ToAnchorToken(), conf.MaxHops, lowerU256, upperU256)
	e.MinNetProfit = conf.ToMinNetProfit()
	if conf.Optimizer.SlippageBps != 0 {
		e.SlippageBps = conf.Optimizer.SlippageBps
	}

	interval := time.Duration(conf.TickInterval) * time.Second
	if interval <= 0 {
		interval = 12 * time.Second
	}

	reportChan := make(chan string)
	go runTickLoop(context.Background(), e, chain, blockStore, interval, reportChan)

	for report := range reportChan {
		fmt.Println(report)
	}
}

// runTickLoop calls Engine.Tick once per interval, resuming from the last
// recorded block and persisting progress after every successful tick —
// mirroring the teacher's own "long-running strategy reports over a
// channel" wiring in cmd/main.go.
func runTickLoop(ctx context.Context, e *engine.Engine, chain chainclient.ChainClient, blockStore db.LastBlockStore, interval time.Duration, reportChan chan<- string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		head, err := chain.GetBlockNumber(ctx)
		if err != nil {
			reportChan <- fmt.Sprintf("tick: failed to fetch head block: %v", err)
			continue
		}

		last, err := blockStore.Get(chainName)
		if err != nil {
			reportChan <- fmt.Sprintf("tick: failed to read last seen block: %v", err)
			continue
		}
		if last != 0 && head <= last {
			continue
		}

		solutions, err := e.Tick(ctx, big.NewInt(int64(head)))
		if err != nil {
			reportChan <- fmt.Sprintf("tick %d: %v", head, err)
			continue
		}

		for _, sol := range solutions {
			reportChan <- fmt.Sprintf("tick %d: cycle %v net_profit=%s wei", head, sol.Path.Pools, sol.NetProfit.String())
		}

		if err := blockStore.Set(chainName, head); err != nil {
			reportChan <- fmt.Sprintf("tick %d: failed to persist last seen block: %v", head, err)
		}
	}
}

// abisForRegistry builds the per-contract ABI map EthClient needs from
// every pool currently registered, dispatching the ABI fragment by family
// (and, for Balancer, by each pool's discovered Vault address) instead of
// reading an ABI file per contract from disk.
func abisForRegistry(poolRegistry *registry.MySQLRegistry) map[common.Address]abi.ABI {
	abis := make(map[common.Address]abi.ABI)
	for _, p := range poolRegistry.All() {
		switch pp := p.(type) {
		case *pool.V2Pool:
			abis[pp.Addr] = chainclient.V2PairABI
		case *pool.V3Pool:
			abis[pp.Addr] = chainclient.V3PoolABI
		case *pool.CurvePool:
			abis[pp.Addr] = chainclient.CurvePoolABI
		case *pool.BalancerPool:
			abis[pp.Addr] = chainclient.BalancerWeightedPoolABI
			abis[pp.VaultAddress()] = chainclient.BalancerVaultABI
		}
	}
	return abis
}
