package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/config"
	"github.com/basinledger/settled/internal/di"
	"github.com/basinledger/settled/internal/engine"
	"github.com/basinledger/settled/internal/host"
	"github.com/basinledger/settled/internal/matcher"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

// batchFile is the on-disk shape submit/simulate read: the same
// now+envelopes pair the submit/simulate RPC methods accept as params.
type batchFile struct {
	Now       uint64                `json:"now"`
	Envelopes []engine.WireEnvelope `json:"envelopes"`
}

func loadBatchFile(path string) (uint64, []*engine.Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("reading batch file: %w", err)
	}
	var bf batchFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return 0, nil, fmt.Errorf("parsing batch file: %w", err)
	}
	now := bf.Now
	if now == 0 {
		now = uint64(time.Now().Unix())
	}
	envs := make([]*engine.Envelope, 0, len(bf.Envelopes))
	for _, we := range bf.Envelopes {
		env, err := we.Decode()
		if err != nil {
			return 0, nil, fmt.Errorf("decoding envelope: %w", err)
		}
		envs = append(envs, env)
	}
	return now, envs, nil
}

func buildHostFromConfig() *host.Host {
	cfg := loadedConfig
	if cfg == nil {
		var err error
		cfg, err = config.LoadDefaultConfig()
		if err != nil {
			log.Fatal("failed to load config: ", err)
		}
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
	return h
}

func printTransfers(t *matcher.Transfers) {
	type leg struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Token  string `json:"token"`
		Amount string `json:"amount"`
	}
	var legs []leg
	if t != nil {
		t.Range(func(sender, receiver account.PrincipalID, tok tokens.TokenId, amount numeric.Amount) {
			legs = append(legs, leg{From: string(sender), To: string(receiver), Token: tok.String(), Amount: amount.String()})
		})
	}
	out, err := json.MarshalIndent(map[string]interface{}{"transfers": legs}, "", "  ")
	if err != nil {
		log.Fatal("failed to encode result: ", err)
	}
	fmt.Println(string(out))
}

var submitCmd = &cobra.Command{
	Use:   "submit <batch.json>",
	Short: "Submit a signed intent batch against the durable account book",
	Long: `Submit decodes the envelopes in batch.json, executes them against
the configured storage backend's committed state, and commits the
result on success. Failure leaves the account book untouched.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		now, envs, err := loadBatchFile(args[0])
		if err != nil {
			log.Fatal(err)
		}
		h := buildHostFromConfig()
		transfers, err := h.Submit(cmd.Context(), now, envs, nil)
		if err != nil {
			log.Fatal("submit rejected: ", err)
		}
		printTransfers(transfers)
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <batch.json>",
	Short: "Preview a signed intent batch without committing it",
	Long: `Simulate runs batch.json through the engine exactly as submit
does, but never commits the overlay back to the account book or
persists anything - the account book is left exactly as it was.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		now, envs, err := loadBatchFile(args[0])
		if err != nil {
			log.Fatal(err)
		}
		h := buildHostFromConfig()
		transfers, err := h.Simulate(now, envs, nil)
		if err != nil {
			log.Fatal("simulate rejected: ", err)
		}
		printTransfers(transfers)
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(simulateCmd)
}
