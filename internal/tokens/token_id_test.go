package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIdStringRoundTrip(t *testing.T) {
	cases := []TokenId{
		SingleFungible("usdc.contract"),
		NonFungibleItem("cards.contract", "item-7"),
		MultiToken("game.contract", "sword-3"),
	}
	for _, tk := range cases {
		parsed, err := ParseTokenId(tk.String())
		require.NoError(t, err)
		assert.Equal(t, tk, parsed)
	}
}

func TestParseTokenIdRejectsUnknownKind(t *testing.T) {
	_, err := ParseTokenId("weird:contract")
	assert.ErrorIs(t, err, ErrUnknownTokenKind)
}

func TestParseTokenIdRejectsMalformed(t *testing.T) {
	cases := []string{"", "ft", "ft:", "nft:contract", "mt:contract:"}
	for _, s := range cases {
		_, err := ParseTokenId(s)
		assert.ErrorIs(t, err, ErrMalformedTokenId, "input %q", s)
	}
}

func TestIsNonFungible(t *testing.T) {
	assert.True(t, NonFungibleItem("c", "1").IsNonFungible())
	assert.False(t, SingleFungible("c").IsNonFungible())
	assert.False(t, MultiToken("c", "1").IsNonFungible())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "ft", KindSingleFungible.String())
	assert.Equal(t, "nft", KindNonFungibleItem.String())
	assert.Equal(t, "mt", KindMultiToken.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestTokenIdComparable(t *testing.T) {
	a := SingleFungible("usdc")
	b := SingleFungible("usdc")
	c := SingleFungible("usdt")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	set := map[TokenId]bool{a: true}
	assert.True(t, set[b])
	assert.False(t, set[c])
}
