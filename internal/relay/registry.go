package relay

import (
	"sync"
	"time"
)

// Connection 是一条活跃传输链路在注册表中的快照。
// RoomCode 在创建后不会变化，换房间必须重新 join 一条新连接。
type Connection struct {
	ID          string
	UserID      string
	RoomCode    string
	DisplayName string
	JoinedAt    time.Time
}

// JoinResult 描述一次 join 的结果，Displaced 表示挤掉了同一用户的旧连接。
type JoinResult struct {
	Displaced bool
	Evicted   *Connection
}

// Registry 是"谁在连、以谁的身份、在哪个房间"的唯一事实来源。
// 三个索引（连接表、房间成员集、用户索引）由同一把锁保护，
// 任何变更操作对外都是不可分割的。
type Registry struct {
	mu    sync.Mutex
	conns map[string]*Connection
	rooms map[string]map[string]struct{}
	users map[string]string

	now func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
		rooms: make(map[string]map[string]struct{}),
		users: make(map[string]string),
		now:   time.Now,
	}
}

// Join 以"新连接获胜"策略注册一条连接：同一 userId 的旧连接
// 会在同一临界区内被完整驱逐，任何时刻一个用户至多一条活跃连接。
func (r *Registry) Join(connID, userID, roomCode, displayName string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 同一条链路重复 join 时先销毁旧 Connection，保证房间码不可变的约束。
	if _, ok := r.conns[connID]; ok {
		r.removeLocked(connID)
	}

	var result JoinResult
	if oldID, ok := r.users[userID]; ok && oldID != connID {
		result.Displaced = true
		result.Evicted = r.removeLocked(oldID)
	}

	conn := &Connection{
		ID:          connID,
		UserID:      userID,
		RoomCode:    roomCode,
		DisplayName: displayName,
		JoinedAt:    r.now(),
	}
	r.conns[connID] = conn

	members, ok := r.rooms[roomCode]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomCode] = members
	}
	members[connID] = struct{}{}
	r.users[userID] = connID
	return result
}

// Leave 把连接从三个索引中原子移除并返回其快照；
// 连接不存在时返回 nil，可安全重复调用。
func (r *Registry) Leave(connID string) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(connID)
}

// removeLocked 在持锁状态下移除连接，房间清空即删除。
func (r *Registry) removeLocked(connID string) *Connection {
	conn, ok := r.conns[connID]
	if !ok {
		return nil
	}
	delete(r.conns, connID)
	if members, ok := r.rooms[conn.RoomCode]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, conn.RoomCode)
		}
	}
	// 用户索引只有仍指向本连接时才清除，避免误删新连接的映射。
	if r.users[conn.UserID] == connID {
		delete(r.users, conn.UserID)
	}
	snapshot := *conn
	return &snapshot
}

// Get 返回连接快照，不存在时返回 nil。
func (r *Registry) Get(connID string) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[connID]
	if !ok {
		return nil
	}
	snapshot := *conn
	return &snapshot
}

// MembersOf 返回房间成员连接 ID 的独立快照，供广播扇出使用。
func (r *Registry) MembersOf(roomCode string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.rooms[roomCode]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// IsMember 是房间级操作转发前的授权检查。
func (r *Registry) IsMember(connID, roomCode string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomCode]
	if !ok {
		return false
	}
	_, ok = members[connID]
	return ok
}

// ActiveConn 返回用户当前的活跃连接 ID。
func (r *Registry) ActiveConn(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.users[userID]
	return id, ok
}

// Occupancy 返回房间当前在线人数，供 REST 接口复用。
func (r *Registry) Occupancy(roomCode string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomCode])
}

// Snapshot 返回全部连接的快照，供清扫器遍历。
func (r *Registry) Snapshot() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, *conn)
	}
	return out
}
