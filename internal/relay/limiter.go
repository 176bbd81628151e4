package relay

import (
	"sync"
	"time"

	"musicquiz/internal/event"
)

// Rule 定义某类事件的固定窗口限速：每 Window 最多 Limit 次。
type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRules 返回各事件类型的默认限速，投票和状态更新收得更紧。
func DefaultRules() map[event.Kind]Rule {
	return map[event.Kind]Rule{
		event.KindJoin:         {Limit: 5, Window: 10 * time.Second},
		event.KindLeave:        {Limit: 5, Window: 10 * time.Second},
		event.KindUpdateStatus: {Limit: 10, Window: 5 * time.Second},
		event.KindGameAction:   {Limit: 20, Window: 5 * time.Second},
		event.KindSubmitVote:   {Limit: 5, Window: 5 * time.Second},
		event.KindRevealVotes:  {Limit: 3, Window: 5 * time.Second},
	}
}

type window struct {
	count int
	start time.Time
}

// Limiter 按连接、按事件类型做固定窗口计数限速。
// 只是尽力而为的防护，状态不持久化。
type Limiter struct {
	mu    sync.Mutex
	rules map[event.Kind]Rule
	wins  map[string]map[event.Kind]*window
	now   func() time.Time
}

func NewLimiter(rules map[event.Kind]Rule) *Limiter {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Limiter{
		rules: rules,
		wins:  make(map[string]map[event.Kind]*window),
		now:   time.Now,
	}
}

// Allow 判定该连接的此类事件是否放行。窗口过期时计数重置；
// 窗口内达到上限后直接拒绝，不再改动任何状态。
func (l *Limiter) Allow(connID string, kind event.Kind) bool {
	rule, ok := l.rules[kind]
	if !ok || rule.Limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kinds, ok := l.wins[connID]
	if !ok {
		kinds = make(map[event.Kind]*window)
		l.wins[connID] = kinds
	}
	now := l.now()
	w, ok := kinds[kind]
	if !ok || now.Sub(w.start) >= rule.Window {
		kinds[kind] = &window{count: 1, start: now}
		return true
	}
	if w.count >= rule.Limit {
		return false
	}
	w.count++
	return true
}

// Clear 移除连接的全部窗口状态，连接销毁时必须调用一次以免泄漏。
func (l *Limiter) Clear(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.wins, connID)
}
