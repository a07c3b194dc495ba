package rpc

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// transferEvent is published on the "transfers" stream once a batch
// finalizes, one per settled leg.
type transferEvent struct {
	Type string      `json:"type"`
	Leg  transferLeg `json:"transfer"`
}

// TransferFeed fans out finalized transfer legs to subscribed WebSocket
// connections. Submit calls Publish once a batch commits; Simulate never
// does, since nothing finalizes.
type TransferFeed struct {
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[string]*wsConn
}

// NewTransferFeed constructs an empty feed with no subscribers.
func NewTransferFeed() *TransferFeed {
	return &TransferFeed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[string]*wsConn),
	}
}

type wsConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// ServeHTTP upgrades the request to a WebSocket and starts streaming
// finalized transfers to it once the client sends a subscribe command.
func (f *TransferFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("rpc: websocket upgrade failed: %v", err)
		return
	}

	wc := &wsConn{
		id:   fmt.Sprintf("ws-%d", len(f.subs)+1),
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}

	go f.writeLoop(wc)
	f.readLoop(wc)
}

func (f *TransferFeed) readLoop(wc *wsConn) {
	defer f.unsubscribe(wc)
	wc.conn.SetReadLimit(64 * 1024)
	for {
		_, message, err := wc.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd struct {
			Command string   `json:"command"`
			Streams []string `json:"streams"`
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}
		switch cmd.Command {
		case "subscribe":
			for _, s := range cmd.Streams {
				if s == "transfers" {
					f.subscribe(wc)
				}
			}
		case "unsubscribe":
			f.unsubscribe(wc)
		}
	}
}

func (f *TransferFeed) writeLoop(wc *wsConn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer wc.conn.Close()

	for {
		select {
		case <-wc.done:
			return
		case msg, ok := <-wc.send:
			if !ok {
				return
			}
			wc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wc.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			wc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *TransferFeed) subscribe(wc *wsConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[wc.id] = wc
}

func (f *TransferFeed) unsubscribe(wc *wsConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[wc.id]; !ok {
		return
	}
	delete(f.subs, wc.id)
	close(wc.done)
}

// Publish broadcasts every leg of a finalized batch to subscribers.
func (f *TransferFeed) Publish(legs []transferLeg) {
	if len(legs) == 0 {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, leg := range legs {
		data, err := json.Marshal(transferEvent{Type: "transfer", Leg: leg})
		if err != nil {
			log.Printf("rpc: failed to marshal transfer event: %v", err)
			return
		}
		for _, wc := range f.subs {
			select {
			case wc.send <- data:
			default:
				log.Printf("rpc: websocket connection %s send buffer full, dropping", wc.id)
			}
		}
	}
}

// legsOf extracts the wire legs already computed for a JSON-RPC response,
// so the feed and the RPC result stay in lockstep for the same batch.
func legsOf(result map[string]interface{}) []transferLeg {
	raw, ok := result["transfers"].([]transferLeg)
	if !ok {
		return nil
	}
	return raw
}
