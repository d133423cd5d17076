package ws

import (
	"sync"

	"freshmart-backend/internal/domain"
	"freshmart-backend/pkg/logger"

	json "github.com/goccy/go-json"
)

// Event is a message pushed to connected admin dashboards.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const EventOrderStatusChanged = "order.status_changed"

// Hub fans order events out to every connected admin dashboard. There is a
// single room; admin access is checked at upgrade time.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run is the hub's main loop. Call it as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop the connection.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every connected dashboard.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		logger.Get().Warn().Str("type", event.Type).Msg("Websocket broadcast buffer full, dropping event")
	}
}

type orderStatusPayload struct {
	OrderID        string `json:"orderId"`
	OrderNumber    string `json:"orderNumber"`
	PreviousStatus string `json:"previousStatus"`
	Status         string `json:"status"`
	PaymentMethod  string `json:"paymentMethod"`
}

// OrderStatusChanged pushes a status transition to the dashboards. It
// satisfies the order usecase's event sink.
func (h *Hub) OrderStatusChanged(order *domain.Order, previous string) {
	payload, err := json.Marshal(orderStatusPayload{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: previous,
		Status:         order.Status,
		PaymentMethod:  order.PaymentMethod,
	})
	if err != nil {
		return
	}
	h.Broadcast(Event{Type: EventOrderStatusChanged, Payload: payload})
}
