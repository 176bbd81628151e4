package relay

import (
	"encoding/json"
	"time"

	"musicquiz/internal/event"
	"musicquiz/internal/metrics"
)

// Envelope 是广播给房间成员的标准出站消息。
// 只暴露发送者的用户身份，连接 ID 属于内部实现细节。
type Envelope struct {
	Type       string      `json:"type"`
	Action     string      `json:"action,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	FromUserID string      `json:"from_user_id,omitempty"`
	FromName   string      `json:"from_name,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

type deliveryPolicy int

const (
	// deliverOthers 只发给房间内的其他成员。
	deliverOthers deliveryPolicy = iota
	// deliverAll 发给包括发送者在内的全部成员，让动作发起者
	// 也观察到同一份确认。
	deliverAll
	// deliverSplit 其他成员收到脱敏通知，发送者单独收到回执。
	deliverSplit
)

// policies 把可转发的事件类型映射到投递策略。join/leave 的通知
// 由协调器在注册表变更后走 NotifyJoined/NotifyLeft，不经过这张表。
var policies = map[event.Kind]deliveryPolicy{
	event.KindUpdateStatus: deliverAll,
	event.KindGameAction:   deliverAll,
	event.KindRevealVotes:  deliverAll,
	event.KindSubmitVote:   deliverSplit,
}

// Broadcaster 把已净化、已授权的事件转成出站消息发给正确的接收者。
type Broadcaster struct {
	reg *Registry
	tr  Transport
	now func() time.Time
}

func NewBroadcaster(reg *Registry, tr Transport) *Broadcaster {
	return &Broadcaster{reg: reg, tr: tr, now: time.Now}
}

// Relay 转发一条房间级事件。前置条件：发送者必须是目标房间成员，
// 否则返回授权错误且什么都不会被转发。
func (b *Broadcaster) Relay(sender Connection, ev event.Event) *Error {
	roomCode := ev.Room()
	if !b.reg.IsMember(sender.ID, roomCode) {
		return authorizationError(roomCode)
	}
	policy, ok := policies[ev.Kind()]
	if !ok {
		panic("relay: no delivery policy for event kind " + string(ev.Kind()))
	}
	members := b.reg.MembersOf(roomCode)

	switch policy {
	case deliverAll:
		b.send(members, "", b.relayEnvelope(sender, ev))
	case deliverOthers:
		b.send(members, sender.ID, b.relayEnvelope(sender, ev))
	case deliverSplit:
		// 揭晓前不向其他玩家泄露票面内容，只通告投票事实。
		vote := ev.(*event.SubmitVote).Vote
		notice := b.envelope("vote-received", "", map[string]interface{}{
			"round_id":  vote.RoundID,
			"timestamp": vote.Timestamp,
		}, sender)
		b.send(members, sender.ID, notice)
		b.unicast(sender.ID, b.envelope("vote-accepted", "", vote, sender))
	}
	metrics.EventsRelayed.WithLabelValues(string(ev.Kind())).Inc()
	return nil
}

func (b *Broadcaster) relayEnvelope(sender Connection, ev event.Event) Envelope {
	switch e := ev.(type) {
	case *event.UpdateStatus:
		return b.envelope(string(event.KindUpdateStatus), "", e.Patch, sender)
	case *event.GameAction:
		return b.envelope(string(event.KindGameAction), e.Action, json.RawMessage(e.Payload), sender)
	case *event.RevealVotes:
		return b.envelope(string(event.KindRevealVotes), "", json.RawMessage(e.Results), sender)
	}
	panic("relay: no envelope for event kind " + string(ev.Kind()))
}

// NotifyJoined 在注册表变更成功后通知房间其他成员有玩家加入；
// displaced 为真时通告的是重连而非新加入。
func (b *Broadcaster) NotifyJoined(conn Connection, displaced bool) {
	typ := "player-joined"
	if displaced {
		typ = "player-reconnected"
	}
	env := b.envelope(typ, "", map[string]interface{}{"room_code": conn.RoomCode}, conn)
	b.send(b.reg.MembersOf(conn.RoomCode), conn.ID, env)
	metrics.EventsRelayed.WithLabelValues(string(event.KindJoin)).Inc()
}

// NotifyLeft 通知房间其余成员有玩家离开。显式 leave、传输断开
// 和清扫驱逐共用同一种通知。
func (b *Broadcaster) NotifyLeft(conn Connection) {
	env := b.envelope("player-left", "", map[string]interface{}{"room_code": conn.RoomCode}, conn)
	b.send(b.reg.MembersOf(conn.RoomCode), conn.ID, env)
	metrics.EventsRelayed.WithLabelValues(string(event.KindLeave)).Inc()
}

// NotifyDisplaced 给被新连接挤掉的旧连接发一条终结通知。
func (b *Broadcaster) NotifyDisplaced(conn Connection) {
	env := Envelope{
		Type:      "displaced",
		Payload:   map[string]interface{}{"room_code": conn.RoomCode},
		Timestamp: b.now(),
	}
	b.unicast(conn.ID, env)
}

// SendError 把结构化错误只回发给事件来源连接。
func (b *Broadcaster) SendError(connID string, relErr *Error) {
	env := Envelope{
		Type:      "error",
		Payload:   relErr,
		Timestamp: b.now(),
	}
	b.unicast(connID, env)
	metrics.EventsRejected.WithLabelValues(string(relErr.Code)).Inc()
}

func (b *Broadcaster) envelope(typ, action string, payload interface{}, sender Connection) Envelope {
	return Envelope{
		Type:       typ,
		Action:     action,
		Payload:    payload,
		FromUserID: sender.UserID,
		FromName:   sender.DisplayName,
		Timestamp:  b.now(),
	}
}

func (b *Broadcaster) send(members []string, exceptID string, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if exceptID == "" {
		b.tr.Broadcast(members, data)
		return
	}
	b.tr.BroadcastExcept(members, exceptID, data)
}

func (b *Broadcaster) unicast(connID string, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	b.tr.Unicast(connID, data)
}
