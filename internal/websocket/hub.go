package websocket

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub 管理所有任务事件订阅连接
// 生命周期事件通过 Broadcast 推送给全部在线订阅者,
// 或通过 BroadcastToUser 只推送给任务负责人的连接
type Hub struct {
	// 已注册的订阅者
	clients map[*Client]bool

	// 广播事件到所有订阅者
	Broadcast chan []byte

	// 注册新订阅者
	Register chan *Client

	// 注销订阅者
	Unregister chan *Client

	// 互斥锁,保护 clients map
	mu sync.Mutex

	logger *logrus.Logger
}

// NewHub 创建新的 Hub
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.deliver(message) {
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToUser 向特定用户的在线连接推送事件
func (h *Hub) BroadcastToUser(userID string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.userID == userID {
			if !client.deliver(message) {
				h.drop(client)
			}
		}
	}
}

// drop 注销订阅者,调用方必须持有锁
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// GetClientCount 获取在线订阅者数量
func (h *Hub) GetClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}
