package relay

import (
	"encoding/json"
	"sync"

	"musicquiz/internal/event"

	"github.com/rs/zerolog/log"
)

// identity 是传输层认证后绑定到连接的会话身份。
type identity struct {
	userID      string
	displayName string
}

// Coordinator 是每条入站事件的唯一入口，按
// 净化 → 限速 → 注册表/授权 → 广播 的流水线处理，
// 任一环节失败都只回发错误给来源连接且不产生任何状态变更。
type Coordinator struct {
	reg *Registry
	lim *Limiter
	bc  *Broadcaster
	tr  Transport

	mu     sync.Mutex
	idents map[string]identity
}

// NewCoordinator 构造协调器及其独占的注册表和限速器。
// rules 为 nil 时使用默认限速。
func NewCoordinator(tr Transport, rules map[event.Kind]Rule) *Coordinator {
	reg := NewRegistry()
	return &Coordinator{
		reg:    reg,
		lim:    NewLimiter(rules),
		bc:     NewBroadcaster(reg, tr),
		tr:     tr,
		idents: make(map[string]identity),
	}
}

// Bind 把会话 token 解析出的身份绑定到连接。此后该连接的 join
// 只能使用绑定的 userId，payload 里的身份字段不再被信任。
func (c *Coordinator) Bind(connID, userID, displayName string) {
	c.mu.Lock()
	c.idents[connID] = identity{userID: userID, displayName: displayName}
	c.mu.Unlock()
}

func (c *Coordinator) boundIdentity(connID string) (identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.idents[connID]
	return id, ok
}

// Registry 暴露只读视角的注册表，供 REST 层查询在线人数。
func (c *Coordinator) Registry() *Registry { return c.reg }

// HandleMessage 处理一条来自指定连接的原始消息。
func (c *Coordinator) HandleMessage(connID string, raw []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.Type == "" {
		c.bc.SendError(connID, validationError(&event.Failure{Code: event.CodeMissingField, Field: "type"}))
		return
	}
	kind, ok := event.ParseKind(head.Type)
	if !ok {
		c.bc.SendError(connID, validationError(&event.Failure{Code: event.CodeInvalidFormat, Field: "type"}))
		return
	}
	ev, failure := event.Sanitize(kind, raw)
	if failure != nil {
		c.bc.SendError(connID, validationError(failure))
		return
	}
	if !c.lim.Allow(connID, kind) {
		c.bc.SendError(connID, rateLimitError(kind))
		return
	}

	switch e := ev.(type) {
	case *event.Join:
		c.handleJoin(connID, e)
	case *event.Leave:
		c.handleLeave(connID, e)
	default:
		sender := c.reg.Get(connID)
		if sender == nil {
			c.bc.SendError(connID, notRegisteredError())
			return
		}
		if relErr := c.bc.Relay(*sender, ev); relErr != nil {
			c.bc.SendError(connID, relErr)
		}
	}
}

func (c *Coordinator) handleJoin(connID string, e *event.Join) {
	if ident, ok := c.boundIdentity(connID); ok && ident.userID != e.UserID {
		c.bc.SendError(connID, identityError())
		log.Warn().
			Str("conn_id", connID).
			Str("session_user", ident.userID).
			Str("claimed_user", e.UserID).
			Msg("join rejected: userId does not match session")
		return
	}
	result := c.reg.Join(connID, e.UserID, e.RoomCode, e.DisplayName)
	if result.Evicted != nil {
		c.lim.Clear(result.Evicted.ID)
		c.bc.NotifyDisplaced(*result.Evicted)
		c.tr.Close(result.Evicted.ID)
		log.Info().
			Str("user_id", e.UserID).
			Str("old_conn", result.Evicted.ID).
			Str("new_conn", connID).
			Msg("connection displaced by reconnect")
	}
	conn := c.reg.Get(connID)
	if conn == nil {
		return
	}
	c.bc.NotifyJoined(*conn, result.Displaced)
	log.Info().
		Str("conn_id", connID).
		Str("user_id", e.UserID).
		Str("room", e.RoomCode).
		Bool("reconnect", result.Displaced).
		Msg("player joined room")
}

func (c *Coordinator) handleLeave(connID string, e *event.Leave) {
	conn := c.reg.Get(connID)
	if conn == nil {
		// leave 对未注册连接是幂等空操作。
		return
	}
	if conn.RoomCode != e.RoomCode {
		c.bc.SendError(connID, authorizationError(e.RoomCode))
		return
	}
	c.evict(connID, "leave")
}

// OnDisconnect 是传输层在链路断开时调用的清理钩子，
// 身份绑定与链路同生命周期，此处一并解除。
func (c *Coordinator) OnDisconnect(connID string) {
	c.mu.Lock()
	delete(c.idents, connID)
	c.mu.Unlock()
	c.evict(connID, "disconnect")
}

// evict 走统一的移除路径：注册表、限速器状态一并清理，
// 并向房间其余成员发出同一种离开通知。对已不存在的连接安全。
func (c *Coordinator) evict(connID, reason string) bool {
	conn := c.reg.Leave(connID)
	c.lim.Clear(connID)
	if conn == nil {
		return false
	}
	c.bc.NotifyLeft(*conn)
	log.Info().
		Str("conn_id", connID).
		Str("user_id", conn.UserID).
		Str("room", conn.RoomCode).
		Str("reason", reason).
		Msg("player left room")
	return true
}
