package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/basinledger/settled/internal/account"
	intcrypto "github.com/basinledger/settled/internal/crypto"
)

var keygenCurve string

// keygenCmd generates a new account keypair offline, for onboarding a
// signer before it has submitted any envelope.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new account keypair",
	Long: `Generate a random Ed25519 or Secp256k1 keypair and print the
implicit principal id it derives, the public key in the form envelopes
and account_info expect, and the private key seed/scalar hex - handle
the private key like a password, it is never stored.`,
	Run: runKeygen,
}

func init() {
	keygenCmd.Flags().StringVar(&keygenCurve, "curve", "ed25519", "key curve: ed25519 or secp256k1")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) {
	var keyType intcrypto.KeyType
	switch keygenCurve {
	case "ed25519":
		keyType = intcrypto.KeyTypeEd25519
	case "secp256k1":
		keyType = intcrypto.KeyTypeSecp256k1
	default:
		log.Fatalf("unsupported --curve %q, want ed25519 or secp256k1", keygenCurve)
	}

	pubBytes, privBytes, err := intcrypto.RandomKeyPair(keyType)
	if err != nil {
		log.Fatal("failed to generate key: ", err)
	}
	defer intcrypto.SecureErase(privBytes)

	privHex := fmt.Sprintf("%x", privBytes)

	var pub account.PublicKey
	switch keyType {
	case intcrypto.KeyTypeEd25519:
		pub, err = account.NewEd25519PublicKey(pubBytes)
	case intcrypto.KeyTypeSecp256k1:
		pub, err = account.NewSecp256k1PublicKey(pubBytes)
	}
	if err != nil {
		log.Fatal("failed to derive public key: ", err)
	}

	fmt.Printf("curve:       %s\n", keyType)
	fmt.Printf("principal:   %s\n", pub.ImplicitPrincipalID())
	fmt.Printf("public_key:  %s\n", pub.String())
	fmt.Printf("private_key: %s\n", privHex)
}
