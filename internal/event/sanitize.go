package event

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	roomCodeLen    = 6
	maxUserIDLen   = 64
	maxNameLen     = 32
	maxDeviceLen   = 64
	maxRoundIDLen  = 64
	maxChoiceLen   = 128
	maxOpaqueBytes = 4096
)

var gameActions = map[string]struct{}{
	"start":      {},
	"pause":      {},
	"resume":     {},
	"skip":       {},
	"next-round": {},
	"end":        {},
}

var playerStatuses = map[string]struct{}{
	"waiting":   {},
	"preparing": {},
	"ready":     {},
	"playing":   {},
	"finished":  {},
}

// Sanitize 把原始 JSON 消息净化为强类型事件，失败时返回原因码。
// 纯函数，不触碰任何共享状态；未知 Kind 属于编程错误，直接 panic。
func Sanitize(kind Kind, raw []byte) (Event, *Failure) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, badType("payload")
	}
	switch kind {
	case KindJoin:
		return sanitizeJoin(m)
	case KindLeave:
		return sanitizeLeave(m)
	case KindUpdateStatus:
		return sanitizeUpdateStatus(m)
	case KindGameAction:
		return sanitizeGameAction(m)
	case KindSubmitVote:
		return sanitizeSubmitVote(m)
	case KindRevealVotes:
		return sanitizeRevealVotes(m)
	}
	panic("event: unknown kind " + string(kind))
}

func sanitizeJoin(m map[string]json.RawMessage) (Event, *Failure) {
	code, f := roomCode(m)
	if f != nil {
		return nil, f
	}
	userID, f := ident(m, "userId", maxUserIDLen)
	if f != nil {
		return nil, f
	}
	name, f := freeText(m, "displayName", maxNameLen, true)
	if f != nil {
		return nil, f
	}
	return &Join{RoomCode: code, UserID: userID, DisplayName: name}, nil
}

func sanitizeLeave(m map[string]json.RawMessage) (Event, *Failure) {
	code, f := roomCode(m)
	if f != nil {
		return nil, f
	}
	return &Leave{RoomCode: code}, nil
}

func sanitizeUpdateStatus(m map[string]json.RawMessage) (Event, *Failure) {
	code, f := roomCode(m)
	if f != nil {
		return nil, f
	}
	patchRaw, ok := m["statusPatch"]
	if !ok {
		return nil, missing("statusPatch")
	}
	var pm map[string]json.RawMessage
	if err := json.Unmarshal(patchRaw, &pm); err != nil {
		return nil, badType("statusPatch")
	}
	var patch StatusPatch
	if _, ok := pm["status"]; ok {
		status, f := stringField(pm, "status")
		if f != nil {
			return nil, f
		}
		if _, valid := playerStatuses[status]; !valid {
			return nil, badFormat("statusPatch.status")
		}
		patch.Status = status
	}
	if _, ok := pm["deviceName"]; ok {
		device, f := freeText(pm, "deviceName", maxDeviceLen, false)
		if f != nil {
			return nil, f
		}
		patch.DeviceName = device
	}
	if patch.Status == "" && patch.DeviceName == "" {
		return nil, missing("statusPatch.status")
	}
	return &UpdateStatus{RoomCode: code, Patch: patch}, nil
}

func sanitizeGameAction(m map[string]json.RawMessage) (Event, *Failure) {
	code, f := roomCode(m)
	if f != nil {
		return nil, f
	}
	action, f := stringField(m, "action")
	if f != nil {
		return nil, f
	}
	if _, ok := gameActions[action]; !ok {
		return nil, badFormat("action")
	}
	payload, f := opaque(m, "payload", false)
	if f != nil {
		return nil, f
	}
	return &GameAction{RoomCode: code, Action: action, Payload: payload}, nil
}

func sanitizeSubmitVote(m map[string]json.RawMessage) (Event, *Failure) {
	code, f := roomCode(m)
	if f != nil {
		return nil, f
	}
	voteRaw, ok := m["vote"]
	if !ok {
		return nil, missing("vote")
	}
	var vm map[string]json.RawMessage
	if err := json.Unmarshal(voteRaw, &vm); err != nil {
		return nil, badType("vote")
	}
	roundID, f := ident(vm, "roundId", maxRoundIDLen)
	if f != nil {
		return nil, &Failure{Code: f.Code, Field: "vote." + f.Field}
	}
	tsRaw, ok := vm["timestamp"]
	if !ok {
		return nil, missing("vote.timestamp")
	}
	var ts int64
	if err := json.Unmarshal(tsRaw, &ts); err != nil {
		return nil, badType("vote.timestamp")
	}
	if ts <= 0 {
		return nil, badFormat("vote.timestamp")
	}
	vote := Vote{RoundID: roundID, Timestamp: ts}
	if _, ok := vm["choice"]; ok {
		choice, f := freeText(vm, "choice", maxChoiceLen, false)
		if f != nil {
			return nil, &Failure{Code: f.Code, Field: "vote." + f.Field}
		}
		vote.Choice = choice
	}
	return &SubmitVote{RoomCode: code, Vote: vote}, nil
}

func sanitizeRevealVotes(m map[string]json.RawMessage) (Event, *Failure) {
	code, f := roomCode(m)
	if f != nil {
		return nil, f
	}
	results, f := opaque(m, "results", true)
	if f != nil {
		return nil, f
	}
	return &RevealVotes{RoomCode: code, Results: results}, nil
}

// roomCode 校验房间码：恰好 6 位大小写不敏感的字母数字，统一转大写。
func roomCode(m map[string]json.RawMessage) (string, *Failure) {
	s, f := stringField(m, "roomCode")
	if f != nil {
		return "", f
	}
	s = strings.ToUpper(norm.NFKC.String(s))
	if len(s) != roomCodeLen {
		return "", badFormat("roomCode")
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", badFormat("roomCode")
		}
	}
	return s, nil
}

func stringField(m map[string]json.RawMessage, field string) (string, *Failure) {
	raw, ok := m[field]
	if !ok {
		return "", missing(field)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", badType(field)
	}
	return s, nil
}

// ident 校验标识符字段：仅允许 [A-Za-z0-9_-]，长度按 rune 数受限，
// 与 freeText 的截断单位保持一致。
func ident(m map[string]json.RawMessage, field string, max int) (string, *Failure) {
	s, f := stringField(m, field)
	if f != nil {
		return "", f
	}
	s = norm.NFKC.String(s)
	if s == "" {
		return "", missing(field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", tooLong(field)
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			continue
		}
		return "", badFormat(field)
	}
	return s, nil
}

// freeText 净化自由文本字段：先做 NFKC 归一化再按字符类过滤，
// 移除而非转义不允许的字符，最后按 rune 数截断。
func freeText(m map[string]json.RawMessage, field string, max int, required bool) (string, *Failure) {
	s, f := stringField(m, field)
	if f != nil {
		return "", f
	}
	s = stripUnsafe(norm.NFKC.String(s), max)
	if required && s == "" {
		return "", missing(field)
	}
	return s, nil
}

func stripUnsafe(s string, max int) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' && r != '-' && r != '_' && r != '.' && r != '\'' {
			continue
		}
		b.WriteRune(r)
		n++
		if n == max {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

// opaque 接受原样转发的 JSON 字段，只限制字节大小不检查结构。
func opaque(m map[string]json.RawMessage, field string, required bool) (json.RawMessage, *Failure) {
	raw, ok := m[field]
	if !ok {
		if required {
			return nil, missing(field)
		}
		return nil, nil
	}
	if len(raw) > maxOpaqueBytes {
		return nil, tooLong(field)
	}
	return raw, nil
}
