// This file is the main entry point for the region-control-plane store
// process. It rehydrates the Region Meta Store and Command Log from disk,
// brings up the engine and vector-index adapters, starts one executor per
// alive region, replays any in-flight commands, and waits for a shutdown
// signal.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lni/dragonboat/v3"
	"github.com/lni/dragonboat/v3/config"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zhangjie0303/zj-dingo-store/internal/control"
	"github.com/zhangjie0303/zj-dingo-store/internal/engine"
	"github.com/zhangjie0303/zj-dingo-store/internal/metrics"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
	"github.com/zhangjie0303/zj-dingo-store/internal/task"
	"github.com/zhangjie0303/zj-dingo-store/internal/vectorindex"
	"github.com/zhangjie0303/zj-dingo-store/shared/runtimeutil"
)

// Start rehydrates A and B from disk, brings up the engine adapter for the
// requested variant, and runs the Region Controller's restart sequence:
// executors for every alive region, then Recover for commands left at
// status=NONE. No command is accepted before this sequence completes.
func Start(storeID uint64, dataDir string, raftAddr string, variant engine.Variant) (*control.Controller, func(), error) {
	regionDir := filepath.Join(dataDir, "region-meta")
	cmdDir := filepath.Join(dataDir, "command-log")
	vecDir := filepath.Join(dataDir, "vector-index-snapshots")

	regions, err := region.OpenPebbleStore(regionDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open region meta store: %w", err)
	}
	commands, err := regioncmd.OpenPebbleLog(cmdDir)
	if err != nil {
		regions.Close()
		return nil, nil, fmt.Errorf("open command log: %w", err)
	}

	var eng engine.Adapter
	var nh *dragonboat.NodeHost
	switch variant {
	case engine.VariantRaftStore:
		var raftEngine *engine.RaftEngine
		raftEngine, nh, err = newRaftEngine(storeID, dataDir, raftAddr)
		if err != nil {
			commands.Close()
			regions.Close()
			return nil, nil, fmt.Errorf("start raft engine: %w", err)
		}
		eng = raftEngine
	default:
		eng = engine.NewMemEngine(storeID)
	}

	snap, err := vectorindex.NewFileSnapshotManager(vecDir)
	if err != nil {
		commands.Close()
		regions.Close()
		return nil, nil, fmt.Errorf("open vector-index snapshot dir: %w", err)
	}
	vecAdapter := vectorindex.NewHNSWAdapter(vectorindex.DefaultHNSWTuning(), snap)

	metricsRegistry := metrics.NewRegistry(prometheus.DefaultRegisterer)

	env := &task.Env{
		StoreID:     storeID,
		Regions:     regions,
		Commands:    commands,
		Engine:      eng,
		VectorIndex: vecAdapter,
		Metrics:     metricsRegistry,
	}
	ctrl := control.New(env, control.NoopCoordinator{})

	if err := ctrl.Init(); err != nil {
		commands.Close()
		regions.Close()
		return nil, nil, fmt.Errorf("controller init: %w", err)
	}
	if err := ctrl.Recover(); err != nil {
		commands.Close()
		regions.Close()
		return nil, nil, fmt.Errorf("controller recover: %w", err)
	}

	cleanup := func() {
		ctrl.StopAll()
		if nh != nil {
			nh.Stop()
		}
		commands.Close()
		regions.Close()
	}
	return ctrl, cleanup, nil
}

func newRaftEngine(storeID uint64, dataDir string, raftAddr string) (*engine.RaftEngine, *dragonboat.NodeHost, error) {
	nhDataDir := filepath.Join(dataDir, fmt.Sprintf("node-%d", storeID))
	if err := os.MkdirAll(nhDataDir, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create nodehost data dir: %w", err)
	}

	raftEngine := engine.NewRaftEngine(nil, storeID)
	nhc := config.NodeHostConfig{
		DeploymentID:      1,
		NodeHostDir:       nhDataDir,
		RaftAddress:       raftAddr,
		ListenAddress:     raftAddr,
		RTTMillisecond:    200,
		RaftEventListener: engine.NewDragonboatEventListener(raftEngine.ListenerFor),
	}
	nh, err := dragonboat.NewNodeHost(nhc)
	if err != nil {
		return nil, nil, fmt.Errorf("create nodehost: %w", err)
	}
	raftEngine.BindNodeHost(nh)
	return raftEngine, nh, nil
}

func main() {
	runtimeutil.LoadServiceEnv("store")
	runtimeutil.ConfigureGOMAXPROCS("store")

	defaults := runtimeutil.DefaultStoreBootstrap(1, "./store-data", "localhost:9191", "ENG_MEMORY")
	var (
		storeID  = flag.Uint64("store-id", defaults.StoreID, "Store ID (must be > 0)")
		dataDir  = flag.String("data-dir", defaults.DataDir, "Parent directory for all store data")
		raftAddr = flag.String("raft-addr", defaults.RaftAddr, "Raft communication address (ENG_RAFT_STORE only)")
		engVar   = flag.String("engine", defaults.Engine, "Engine variant: ENG_MEMORY or ENG_RAFT_STORE")
	)
	flag.Parse()

	if *storeID == 0 {
		log.Fatalf("store-id must be > 0")
	}

	variant := engine.VariantMemory
	if *engVar == "ENG_RAFT_STORE" {
		variant = engine.VariantRaftStore
	}

	ctrl, cleanup, err := Start(*storeID, *dataDir, *raftAddr, variant)
	if err != nil {
		log.Fatalf("failed to start store: %v", err)
	}
	_ = ctrl

	log.Println("Store started. Waiting for signals.")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down store.")
	cleanup()
}
