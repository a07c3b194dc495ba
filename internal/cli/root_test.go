package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubcommandsAreRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	for _, want := range []string{"server", "version", "keygen", "submit", "simulate"} {
		assert.True(t, names[want], "expected %q to be registered under root", want)
	}
}

func TestKeygenCurveFlagDefaultsToEd25519(t *testing.T) {
	flag := keygenCmd.Flags().Lookup("curve")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "ed25519", flag.DefValue)
	}
}
