package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBroadcastToUser_TargetsOwnerOnly 测试事件只投递给负责人的连接
func TestBroadcastToUser_TargetsOwnerOnly(t *testing.T) {
	hub := NewHub(nil)
	owner := newClient("c-1", "user-1", hub, nil)
	other := newClient("c-2", "user-2", hub, nil)
	hub.clients[owner] = true
	hub.clients[other] = true

	hub.BroadcastToUser("user-1", []byte(`{"type":"task.created"}`))

	require.Len(t, owner.send, 1)
	assert.Equal(t, `{"type":"task.created"}`, string(<-owner.send))
	assert.Empty(t, other.send)
}

// TestBroadcastToUser_DropsStalledSubscriber 测试缓冲写满的订阅者被注销
func TestBroadcastToUser_DropsStalledSubscriber(t *testing.T) {
	hub := NewHub(nil)
	stalled := newClient("c-1", "user-1", hub, nil)
	stalled.send = make(chan []byte) // 无人消费的无缓冲通道
	hub.clients[stalled] = true

	hub.BroadcastToUser("user-1", []byte("event"))

	assert.Equal(t, 0, hub.GetClientCount())
	// send 通道已被关闭
	_, open := <-stalled.send
	assert.False(t, open)
}

// TestDrop_Idempotent 测试重复注销不报错
func TestDrop_Idempotent(t *testing.T) {
	hub := NewHub(nil)
	client := newClient("c-1", "user-1", hub, nil)
	hub.clients[client] = true

	hub.mu.Lock()
	hub.drop(client)
	hub.drop(client)
	hub.mu.Unlock()

	assert.Equal(t, 0, hub.GetClientCount())
}
