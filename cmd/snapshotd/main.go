package main

import "fmt"
import "net"
import "os"
import "strings"
import "time"

import "github.com/spf13/cobra"
import "github.com/spf13/viper"

import "github.com/raftkit/snapshot/pkg/connpool"
import "github.com/raftkit/snapshot/pkg/db"
import "github.com/raftkit/snapshot/pkg/logger"
import "github.com/raftkit/snapshot/pkg/raftlog"
import "github.com/raftkit/snapshot/pkg/replication"
import "github.com/raftkit/snapshot/pkg/state"
import "github.com/raftkit/snapshot/pkg/store"
import "github.com/raftkit/snapshot/pkg/transport"


//=========================================== Snapshotd Entrypoint


const NAME = "Main"

var Log = clog.NewCustomLog(NAME)

func main() {
	rootCmd := newRootCommand()

	if execErr := rootCmd.Execute(); execErr != nil {
		Log.Error("snapshotd exited with error:", execErr.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "snapshotd",
		Short: "Raft snapshot replication and installation daemon",
		RunE: run,
	}

	cmd.Flags().String("partition", "1", "partition identifier this daemon serves")
	cmd.Flags().String("data-dir", "./data", "root directory for the committed snapshot store and runtime database")
	cmd.Flags().String("bind", ":7070", "address the chunk transport gRPC server listens on")
	cmd.Flags().String("port", ":7070", "port used when dialing peers through the connection pool")
	cmd.Flags().StringSlice("peers", nil, "comma-separated list of peer hosts to replicate chunks to")
	cmd.Flags().String("config", "", "optional path to a config file (yaml, json, toml) overriding the flags above")

	viper.BindPFlags(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if configPath := viper.GetString("config"); configPath != "" {
		viper.SetConfigFile(configPath)

		if readErr := viper.ReadInConfig(); readErr != nil {
			return fmt.Errorf("failed to read config file %s: %w", configPath, readErr)
		}
	}

	partition := viper.GetString("partition")
	dataDir := viper.GetString("data-dir")
	bindAddr := viper.GetString("bind")
	dialPort := viper.GetString("port")
	peers := viper.GetStringSlice("peers")

	Log.Info("starting snapshotd for partition", partition, "data dir", dataDir)

	snapshotStore, storeErr := store.NewStore(dataDir)
	if storeErr != nil { return fmt.Errorf("failed to open snapshot store: %w", storeErr) }

	runtimeDir := strings.TrimSuffix(dataDir, "/") + "/runtime"

	entryLog, logErr := raftlog.NewLog(dataDir + "/raftlog.db")
	if logErr != nil { return fmt.Errorf("failed to open raft log: %w", logErr) }
	defer entryLog.Close()

	stateController := state.NewController(
		partition,
		runtimeDir,
		db.NewBoltFactory(),
		snapshotStore,
		entryLog,
		raftlog.DefaultExporterPositionSupplier,
	)

	if recoverErr := stateController.Recover(); recoverErr != nil {
		return fmt.Errorf("failed to recover state: %w", recoverErr)
	}
	defer stateController.Close()

	pool := connpool.NewConnectionPool(connpool.ConnectionPoolOpts{ MaxConn: 10 })
	chunkTransport := transport.NewGRPCReplication(peers, dialPort, pool)

	listener, listenErr := net.Listen("tcp", bindAddr)
	if listenErr != nil { return fmt.Errorf("failed to bind chunk transport listener: %w", listenErr) }

	chunkTransport.Serve(listener)

	replicationController := replication.NewController(partition, snapshotStore, chunkTransport)

	go refreshDiskStatsPeriodically(replicationController, dataDir)

	Log.Info("snapshotd ready, serving partition", partition, "on", bindAddr)

	select {}
}

const diskStatsRefreshInterval = 30 * time.Second

/*
	refreshDiskStatsPeriodically samples disk usage for the snapshot store's root on a timer,
	since it changes slowly relative to chunk traffic and has no business being recomputed on
	every install
*/

func refreshDiskStatsPeriodically(replicationController *replication.Controller, storeRoot string) {
	ticker := time.NewTicker(diskStatsRefreshInterval)
	defer ticker.Stop()

	for range ticker.C {
		if refreshErr := replicationController.RefreshDiskStats(storeRoot); refreshErr != nil {
			Log.Warn("failed to refresh disk stats for", storeRoot, ":", refreshErr.Error())
		}
	}
}
