package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/share-vault/api/middleware"
	"github.com/openalpha/share-vault/api/types"
	"github.com/openalpha/share-vault/metrics"
	managertypes "github.com/openalpha/share-vault/x/manager/types"
	pausertypes "github.com/openalpha/share-vault/x/pauser/types"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

// Channels clients can subscribe to
const (
	ChannelLedger      = "ledger"
	ChannelDeposits    = "deposits"
	ChannelWithdrawals = "withdrawals"
	ChannelRate        = "rate"
	ChannelPauser      = "pauser"
	ChannelFaucet      = "faucet"

	// UserChannelPrefix scopes events to one address, e.g. "user:cosmos1..."
	UserChannelPrefix = "user:"
)

var publicChannels = map[string]bool{
	ChannelLedger:      true,
	ChannelDeposits:    true,
	ChannelWithdrawals: true,
	ChannelRate:        true,
	ChannelPauser:      true,
	ChannelFaucet:      true,
}

// addressKeys are the event attributes routed to per-user channels
var addressKeys = []string{
	managertypes.AttributeKeyStaker,
	managertypes.AttributeKeyRecipient,
	strategytypes.AttributeKeyBeneficiary,
	"address",
}

var _ types.EventPublisher = (*Hub)(nil)

// Hub maintains the set of active clients and fans ledger events out to them
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest
	done        chan struct{}

	mu sync.RWMutex

	config  *HubConfig
	logger  log.Logger
	metrics *metrics.Collector
}

// HubConfig contains hub configuration
type HubConfig struct {
	MaxSubscriptions int
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		MaxSubscriptions: 20,
		MessageRateLimit: 50,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
}

// NewHub creates a new Hub
func NewHub(config *HubConfig, logger log.Logger) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		done:        make(chan struct{}),
		config:      config,
		logger:      logger.With("module", "api/websocket"),
		metrics:     metrics.GetCollector(),
	}
}

// Run processes registrations and subscriptions until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.metrics.RecordWSConnection(1)
	h.logger.Debug("client connected", "client", client.id, "ip", client.ip)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for channel, clients := range h.channels {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	client.close()
	h.metrics.RecordWSConnection(-1)
	h.logger.Debug("client disconnected", "client", client.id)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
		h.metrics.RecordWSConnection(-1)
	}
	h.clients = make(map[*Client]bool)
	h.channels = make(map[string]map[*Client]bool)
}

func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[req.Client]; !ok {
		return
	}
	if _, ok := h.channels[req.Channel]; !ok {
		h.channels[req.Channel] = make(map[*Client]bool)
	}
	h.channels[req.Channel][req.Client] = true

	req.Client.Send(encode(&WSMessage{Type: "subscribed", Channel: req.Channel}))
}

func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.channels[req.Channel]; ok {
		delete(clients, req.Client)
		if len(clients) == 0 {
			delete(h.channels, req.Channel)
		}
	}
	if _, ok := h.clients[req.Client]; ok {
		req.Client.Send(encode(&WSMessage{Type: "unsubscribed", Channel: req.Channel}))
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.channels[channel]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to encode message", "channel", channel, "error", err)
		return
	}
	for client := range clients {
		client.Send(data)
	}
	h.metrics.RecordWSMessage(channelLabel(channel))
}

// PublishLedgerEvents routes committed ledger events to their channels
func (h *Hub) PublishLedgerEvents(events []types.LedgerEvent) {
	for i := range events {
		ev := &events[i]
		for _, channel := range ChannelsFor(ev) {
			h.BroadcastToChannel(channel, &WSMessage{
				Type:    ev.Type,
				Channel: channel,
				Data:    ev,
			})
		}
	}
}

// ChannelsFor returns every channel an event is delivered on
func ChannelsFor(ev *types.LedgerEvent) []string {
	channels := []string{ChannelLedger}

	switch ev.Type {
	case strategytypes.EventTypeDeposit, managertypes.EventTypeDepositIntoStrategy:
		channels = append(channels, ChannelDeposits)
	case strategytypes.EventTypeWithdraw, managertypes.EventTypeWithdrawFromStrategy:
		channels = append(channels, ChannelWithdrawals)
	case strategytypes.EventTypeExchangeRate:
		channels = append(channels, ChannelRate)
	case pausertypes.EventTypePaused, pausertypes.EventTypeUnpaused:
		channels = append(channels, ChannelPauser)
	case "sandbox_faucet":
		channels = append(channels, ChannelFaucet)
	}

	seen := make(map[string]bool)
	for _, key := range addressKeys {
		addr, ok := ev.Attributes[key]
		if !ok || addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		channels = append(channels, UserChannelPrefix+addr)
	}
	return channels
}

// channelLabel keeps per-user channels out of metric label cardinality
func channelLabel(channel string) string {
	if strings.HasPrefix(channel, UserChannelPrefix) {
		return "user"
	}
	return channel
}

// CanSubscribe reports whether channel is a known channel
func CanSubscribe(channel string) bool {
	if publicChannels[channel] {
		return true
	}
	return strings.HasPrefix(channel, UserChannelPrefix) && len(channel) > len(UserChannelPrefix)
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func encode(msg *WSMessage) []byte {
	data, _ := json.Marshal(msg)
	return data
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h, conn, uuid.NewString(), middleware.ClientIP(r))
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
