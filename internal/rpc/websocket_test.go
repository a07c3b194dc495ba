package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferFeedPublishDeliversToSubscribers(t *testing.T) {
	f := NewTransferFeed()
	wc := &wsConn{id: "test-1", send: make(chan []byte, 4), done: make(chan struct{})}
	f.subscribe(wc)

	leg := transferLeg{From: "alice", To: "bob", Token: "ft:usdc", Amount: "100"}
	f.Publish([]transferLeg{leg})

	select {
	case data := <-wc.send:
		var evt transferEvent
		require.NoError(t, json.Unmarshal(data, &evt))
		assert.Equal(t, "transfer", evt.Type)
		assert.Equal(t, leg, evt.Leg)
	default:
		t.Fatal("expected a published event on the send channel")
	}
}

func TestTransferFeedPublishEmptyLegsIsNoop(t *testing.T) {
	f := NewTransferFeed()
	wc := &wsConn{id: "test-1", send: make(chan []byte, 4), done: make(chan struct{})}
	f.subscribe(wc)

	f.Publish(nil)

	select {
	case <-wc.send:
		t.Fatal("expected no event for an empty batch")
	default:
	}
}

func TestTransferFeedUnsubscribeStopsDelivery(t *testing.T) {
	f := NewTransferFeed()
	wc := &wsConn{id: "test-1", send: make(chan []byte, 4), done: make(chan struct{})}
	f.subscribe(wc)
	f.unsubscribe(wc)

	f.Publish([]transferLeg{{From: "alice", To: "bob", Token: "ft:usdc", Amount: "1"}})

	select {
	case <-wc.send:
		t.Fatal("expected no event after unsubscribe")
	default:
	}

	select {
	case <-wc.done:
	default:
		t.Fatal("expected done channel closed after unsubscribe")
	}
}

func TestLegsOfExtractsResultSlice(t *testing.T) {
	legs := []transferLeg{{From: "alice", To: "bob", Token: "ft:usdc", Amount: "5"}}
	result := map[string]interface{}{"transfers": legs}
	assert.Equal(t, legs, legsOf(result))
}

func TestLegsOfMissingKey(t *testing.T) {
	assert.Nil(t, legsOf(map[string]interface{}{}))
}
