package cli

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/basinledger/settled/internal/config"
	"github.com/basinledger/settled/internal/di"
	"github.com/basinledger/settled/internal/rpc"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the settlement engine server",
	Long: `Start the settled server, which exposes a JSON-RPC 2.0 endpoint
for submitting and simulating signed intent batches and for querying
account balances and keys.

This is the default command when no subcommand is specified.`,
	Run: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.Run = runServer
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := loadedConfig
	if cfg == nil {
		var err error
		cfg, err = config.LoadDefaultConfig()
		if err != nil {
			log.Fatal("failed to load config: ", err)
		}
	}

	if !quiet {
		fmt.Println("Starting settled - intent settlement engine")
		fmt.Println("============================================")
	}

	container := di.New()
	provider := di.NewProvider(container, cfg)
	if err := provider.RegisterAll(); err != nil {
		log.Fatal("failed to register services: ", err)
	}

	h, err := provider.GetHost()
	if err != nil {
		log.Fatal("failed to initialize host: ", err)
	}

	if !quiet {
		state := h.State()
		fmt.Printf("Storage:            %s\n", cfg.Storage.Path)
		fmt.Printf("Verifying contract: %s\n", state.VerifyingContract())
		fmt.Printf("Fee collector:      %s\n", state.FeeCollector())
		fmt.Println()
	}

	httpServer := rpc.NewServer(h, 30*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/", httpServer)
	mux.Handle("/rpc", httpServer)
	mux.Handle("/ws", httpServer.Feed())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"settled"}`))
	})

	port := cfg.Server.Port
	ip := cfg.Server.IP
	listenAddr := fmt.Sprintf("%s:%d", ip, port)

	if !quiet {
		fmt.Println("Server Configuration:")
		fmt.Printf("  - JSON-RPC:     http://%s/\n", listenAddr)
		fmt.Printf("  - JSON-RPC:     http://%s/rpc\n", listenAddr)
		fmt.Printf("  - WebSocket:    ws://%s/ws\n", listenAddr)
		fmt.Printf("  - Health Check: http://%s/health\n", listenAddr)
		fmt.Println()
		fmt.Printf("Starting server on %s...\n", listenAddr)
	}

	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		log.Fatal("server failed to start: ", err)
	}
}
