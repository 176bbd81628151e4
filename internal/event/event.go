package event

import "encoding/json"

// Kind 标识客户端事件类型，构成封闭集合。
type Kind string

const (
	KindJoin         Kind = "join"
	KindLeave        Kind = "leave"
	KindUpdateStatus Kind = "update-status"
	KindGameAction   Kind = "game-action"
	KindSubmitVote   Kind = "submit-vote"
	KindRevealVotes  Kind = "reveal-votes"
)

// ParseKind 把线上的 type 字符串映射为已知事件类型。
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindJoin, KindLeave, KindUpdateStatus, KindGameAction, KindSubmitVote, KindRevealVotes:
		return Kind(s), true
	}
	return "", false
}

// Event 是净化后的强类型事件，下游组件不再接触原始 JSON。
type Event interface {
	Kind() Kind
	Room() string
}

// Join 请求把当前连接加入指定房间。
type Join struct {
	RoomCode    string
	UserID      string
	DisplayName string
}

func (e *Join) Kind() Kind   { return KindJoin }
func (e *Join) Room() string { return e.RoomCode }

// Leave 请求把当前连接移出其房间。
type Leave struct {
	RoomCode string
}

func (e *Leave) Kind() Kind   { return KindLeave }
func (e *Leave) Room() string { return e.RoomCode }

// StatusPatch 是玩家状态的增量更新。
type StatusPatch struct {
	Status     string `json:"status,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
}

// UpdateStatus 广播玩家状态变化。
type UpdateStatus struct {
	RoomCode string
	Patch    StatusPatch
}

func (e *UpdateStatus) Kind() Kind   { return KindUpdateStatus }
func (e *UpdateStatus) Room() string { return e.RoomCode }

// GameAction 是影响游戏进程的动作，payload 原样转发、不再解析。
type GameAction struct {
	RoomCode string
	Action   string
	Payload  json.RawMessage
}

func (e *GameAction) Kind() Kind   { return KindGameAction }
func (e *GameAction) Room() string { return e.RoomCode }

// Vote 是一次猜歌投票。
type Vote struct {
	RoundID   string `json:"round_id"`
	Timestamp int64  `json:"timestamp"`
	Choice    string `json:"choice,omitempty"`
}

// SubmitVote 提交投票，揭晓前其他玩家只能看到投票事实。
type SubmitVote struct {
	RoomCode string
	Vote     Vote
}

func (e *SubmitVote) Kind() Kind   { return KindSubmitVote }
func (e *SubmitVote) Room() string { return e.RoomCode }

// RevealVotes 公布本轮投票结果，results 原样转发。
type RevealVotes struct {
	RoomCode string
	Results  json.RawMessage
}

func (e *RevealVotes) Kind() Kind   { return KindRevealVotes }
func (e *RevealVotes) Room() string { return e.RoomCode }
