package ws

import (
	"sync"
)

// Table 维护连接 ID 到活跃客户端的映射，实现协调器的 Transport 接口。
// 投递是尽力而为：发送缓冲已满的慢客户端会被直接摘除。
type Table struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewTable() *Table {
	return &Table{clients: make(map[string]*Client)}
}

func (t *Table) Add(c *Client) {
	t.mu.Lock()
	t.clients[c.id] = c
	t.mu.Unlock()
}

func (t *Table) Remove(connID string) {
	t.mu.Lock()
	c, ok := t.clients[connID]
	if ok {
		delete(t.clients, connID)
	}
	t.mu.Unlock()
	if ok {
		c.closeSend()
	}
}

// Close 关闭连接的底层链路。摘除后写泵会发送关闭帧并断开 TCP，
// 读泵随之退出并触发断开回调。
func (t *Table) Close(connID string) {
	t.Remove(connID)
}

// Size 返回当前活跃客户端数。
func (t *Table) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}

// Unicast 投递给单个连接，目标不在线时静默丢弃。
func (t *Table) Unicast(connID string, data []byte) {
	t.mu.RLock()
	c := t.clients[connID]
	t.mu.RUnlock()
	if c == nil {
		return
	}
	t.deliver(c, data)
}

// Broadcast 无条件投递给集合内的每个连接。
func (t *Table) Broadcast(connIDs []string, data []byte) {
	t.fanOut(connIDs, "", data)
}

// BroadcastExcept 投递给集合内除 exceptID 以外的每个连接。
func (t *Table) BroadcastExcept(connIDs []string, exceptID string, data []byte) {
	t.fanOut(connIDs, exceptID, data)
}

func (t *Table) fanOut(connIDs []string, exceptID string, data []byte) {
	t.mu.RLock()
	targets := make([]*Client, 0, len(connIDs))
	for _, id := range connIDs {
		if id == exceptID {
			continue
		}
		if c, ok := t.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	t.mu.RUnlock()
	for _, c := range targets {
		t.deliver(c, data)
	}
}

// deliver 非阻塞投递，缓冲打满说明客户端已经跟不上，摘除之。
func (t *Table) deliver(c *Client, data []byte) {
	if c.trySend(data) {
		return
	}
	t.Remove(c.id)
}
