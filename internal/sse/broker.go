// Package sse implements a Server-Sent Events broker that announces archive
// changes to connected clients.
//
// Every event carries a sequence id. The broker keeps the most recent events
// so a client reconnecting with Last-Event-ID receives what it missed.
package sse

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Event types.
const (
	EventArchiveImported = "archive.imported"
	EventArchiveUpdated  = "archive.updated"
	EventArchiveRemoved  = "archive.removed"
	EventCatalogChanged  = "catalog.changed"
)

const (
	historySize       = 128
	clientBuffer      = 64
	keepaliveInterval = 25 * time.Second
)

// archiveEvents maps catalog watcher kinds to event types.
var archiveEvents = map[string]string{
	"created": EventArchiveImported,
	"updated": EventArchiveUpdated,
	"deleted": EventArchiveRemoved,
}

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ArchiveChange is the payload of the archive.* events.
type ArchiveChange struct {
	Path string `json:"path"`
	At   int64  `json:"at"`
}

type message struct {
	id  uint64
	raw []byte
}

type subscription struct {
	ch     chan []byte
	lastID uint64
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set, the history ring and the catalog
// throttle timestamp. Public methods talk to it through channels.
type Broker struct {
	catalogMin time.Duration
	keepalive  time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. catalogThrottle is the minimum interval
// between two catalog.changed events.
func NewBroker(catalogThrottle time.Duration) *Broker {
	if catalogThrottle <= 0 {
		catalogThrottle = 2 * time.Second
	}

	b := &Broker{
		catalogMin:    catalogThrottle,
		keepalive:     keepaliveInterval,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func encode(id uint64, event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(payload)+len(event.Type)+32)
	buf = append(buf, "id: "...)
	buf = strconv.AppendUint(buf, id, 10)
	buf = append(buf, "\nevent: "...)
	buf = append(buf, event.Type...)
	buf = append(buf, "\ndata: "...)
	buf = append(buf, payload...)
	buf = append(buf, "\n\n"...)
	return buf, nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]message, 0, historySize)
	var seq uint64
	var lastCatalog time.Time

	broadcast := func(event Event) {
		raw, err := encode(seq+1, event)
		if err != nil {
			return
		}
		seq++
		if len(history) == historySize {
			history = append(history[:0], history[1:]...)
		}
		history = append(history, message{id: seq, raw: raw})

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; it can catch up with Last-Event-ID.
			}
		}
	}

	publish := func(event Event) {
		broadcast(event)
		if _, ok := event.Data.(ArchiveChange); !ok {
			return
		}
		now := time.Now()
		if now.Sub(lastCatalog) >= b.catalogMin {
			lastCatalog = now
			broadcast(Event{Type: EventCatalogChanged, Data: map[string]string{}})
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			// Events queued before the subscription are ordered before it.
			for pending := true; pending; {
				select {
				case event := <-b.publishCh:
					publish(event)
				default:
					pending = false
				}
			}
			clients[sub.ch] = struct{}{}
			if sub.lastID == 0 {
				continue
			}
			for _, m := range history {
				if m.id <= sub.lastID {
					continue
				}
				select {
				case sub.ch <- m.raw:
				default:
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			publish(event)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeFrom(0)
}

// SubscribeFrom adds a new client and replays the retained events with an id
// greater than lastID. Zero replays nothing.
func (b *Broker) SubscribeFrom(lastID uint64) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, lastID: lastID}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishArchiveEvent publishes an archive change followed by a throttled
// catalog.changed event. kind is a catalog watcher kind: "created",
// "updated" or "deleted"; other kinds are ignored. Its signature matches
// catalog.EventCallback.
func (b *Broker) PublishArchiveEvent(kind, path string) {
	typ, ok := archiveEvents[kind]
	if !ok {
		return
	}
	b.Publish(Event{Type: typ, Data: ArchiveChange{Path: path, At: time.Now().Unix()}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.SubscribeFrom(lastID)
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepalive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
