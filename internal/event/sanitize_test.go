package event

import (
	"strings"
	"testing"
)

func TestParseKind(t *testing.T) {
	for _, s := range []string{"join", "leave", "update-status", "game-action", "submit-vote", "reveal-votes"} {
		if _, ok := ParseKind(s); !ok {
			t.Errorf("ParseKind(%q) = false, want true", s)
		}
	}
	if _, ok := ParseKind("drop-table"); ok {
		t.Error("ParseKind should reject unknown kinds")
	}
}

func TestSanitize_Join(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCode  FailureCode
		wantField string
	}{
		{"valid", `{"type":"join","roomCode":"ab12cd","userId":"u1","displayName":"Alice"}`, "", ""},
		{"user id at limit", `{"roomCode":"ab12cd","userId":"` + strings.Repeat("a", 64) + `","displayName":"Alice"}`, "", ""},
		{"missing room code", `{"type":"join","userId":"u1","displayName":"Alice"}`, CodeMissingField, "roomCode"},
		{"room code wrong length", `{"roomCode":"AB12C","userId":"u1","displayName":"Alice"}`, CodeInvalidFormat, "roomCode"},
		{"room code bad chars", `{"roomCode":"AB12C!","userId":"u1","displayName":"Alice"}`, CodeInvalidFormat, "roomCode"},
		{"room code wrong type", `{"roomCode":123456,"userId":"u1","displayName":"Alice"}`, CodeInvalidType, "roomCode"},
		{"missing user id", `{"roomCode":"AB12CD","displayName":"Alice"}`, CodeMissingField, "userId"},
		{"user id bad chars", `{"roomCode":"AB12CD","userId":"u 1!","displayName":"Alice"}`, CodeInvalidFormat, "userId"},
		{"user id too long", `{"roomCode":"AB12CD","userId":"` + strings.Repeat("a", 65) + `","displayName":"Alice"}`, CodeTooLong, "userId"},
		// Identifier length counts runes, so a short multibyte id is a
		// charset rejection, not a length one.
		{"user id multibyte", `{"roomCode":"AB12CD","userId":"` + strings.Repeat("雪", 40) + `","displayName":"Alice"}`, CodeInvalidFormat, "userId"},
		{"missing display name", `{"roomCode":"AB12CD","userId":"u1"}`, CodeMissingField, "displayName"},
		{"display name all stripped", `{"roomCode":"AB12CD","userId":"u1","displayName":"<<<>>>"}`, CodeMissingField, "displayName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, f := Sanitize(KindJoin, []byte(tt.raw))
			if tt.wantCode == "" {
				if f != nil {
					t.Fatalf("Sanitize() failure = %v, want nil", f)
				}
				join := ev.(*Join)
				if join.RoomCode != "AB12CD" {
					t.Errorf("RoomCode = %q, want AB12CD (upper-cased)", join.RoomCode)
				}
				return
			}
			if f == nil {
				t.Fatal("Sanitize() failure = nil, want rejection")
			}
			if f.Code != tt.wantCode || f.Field != tt.wantField {
				t.Errorf("failure = %s/%s, want %s/%s", f.Code, f.Field, tt.wantCode, tt.wantField)
			}
			if ev != nil {
				t.Error("rejected event should be nil")
			}
		})
	}
}

func TestSanitize_DisplayNameStripping(t *testing.T) {
	tests := []struct {
		name string
		in   string // JSON string literal, quotes included
		want string
	}{
		{"markup removed", `"Al<script>ice"`, "Alscriptice"},
		{"control chars removed", `"Al\u0007ic\u001be"`, "Alice"},
		{"truncated to limit", `"` + strings.Repeat("a", 40) + `"`, strings.Repeat("a", 32)},
		{"unicode letters kept", `"Søren Ångström"`, "Søren Ångström"},
		{"surrounding space trimmed", `"  Alice  "`, "Alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"roomCode":"AB12CD","userId":"u1","displayName":` + tt.in + `}`
			ev, f := Sanitize(KindJoin, []byte(raw))
			if f != nil {
				t.Fatalf("Sanitize() failure = %v", f)
			}
			if got := ev.(*Join).DisplayName; got != tt.want {
				t.Errorf("DisplayName = %q, want %q", got, tt.want)
			}
		})
	}
}

// Fullwidth characters must not bypass the room code format check:
// NFKC folds them into ASCII before validation.
func TestSanitize_NormalizationNotBypassable(t *testing.T) {
	raw := `{"roomCode":"ＡＢ１２ＣＤ","userId":"u1","displayName":"Alice"}`
	ev, f := Sanitize(KindJoin, []byte(raw))
	if f != nil {
		t.Fatalf("Sanitize() failure = %v", f)
	}
	if got := ev.(*Join).RoomCode; got != "AB12CD" {
		t.Errorf("RoomCode = %q, want AB12CD", got)
	}
}

func TestSanitize_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode FailureCode
	}{
		{"valid status", `{"roomCode":"AB12CD","statusPatch":{"status":"ready"}}`, ""},
		{"valid device only", `{"roomCode":"AB12CD","statusPatch":{"deviceName":"Living Room TV"}}`, ""},
		{"missing patch", `{"roomCode":"AB12CD"}`, CodeMissingField},
		{"patch wrong type", `{"roomCode":"AB12CD","statusPatch":"ready"}`, CodeInvalidType},
		{"unknown status", `{"roomCode":"AB12CD","statusPatch":{"status":"exploded"}}`, CodeInvalidFormat},
		{"empty patch", `{"roomCode":"AB12CD","statusPatch":{}}`, CodeMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, f := Sanitize(KindUpdateStatus, []byte(tt.raw))
			if (tt.wantCode == "") != (f == nil) {
				t.Fatalf("failure = %v, wantCode %q", f, tt.wantCode)
			}
			if f != nil && f.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", f.Code, tt.wantCode)
			}
			if f == nil && ev.(*UpdateStatus).RoomCode != "AB12CD" {
				t.Error("room code not normalized")
			}
		})
	}
}

func TestSanitize_GameAction(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode FailureCode
	}{
		{"valid with payload", `{"roomCode":"AB12CD","action":"start","payload":{"round":1}}`, ""},
		{"valid without payload", `{"roomCode":"AB12CD","action":"skip"}`, ""},
		{"unknown action", `{"roomCode":"AB12CD","action":"cheat"}`, CodeInvalidFormat},
		{"action wrong type", `{"roomCode":"AB12CD","action":7}`, CodeInvalidType},
		{"missing action", `{"roomCode":"AB12CD"}`, CodeMissingField},
		{"oversized payload", `{"roomCode":"AB12CD","action":"start","payload":"` + strings.Repeat("x", 5000) + `"}`, CodeTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, f := Sanitize(KindGameAction, []byte(tt.raw))
			if (tt.wantCode == "") != (f == nil) {
				t.Fatalf("failure = %v, wantCode %q", f, tt.wantCode)
			}
			if f != nil && f.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", f.Code, tt.wantCode)
			}
		})
	}
}

func TestSanitize_SubmitVote(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCode  FailureCode
		wantField string
	}{
		{"valid", `{"roomCode":"AB12CD","vote":{"roundId":"r1","timestamp":1700000000,"choice":"Song A"}}`, "", ""},
		{"missing vote", `{"roomCode":"AB12CD"}`, CodeMissingField, "vote"},
		{"missing round id", `{"roomCode":"AB12CD","vote":{"timestamp":1700000000}}`, CodeMissingField, "vote.roundId"},
		{"missing timestamp", `{"roomCode":"AB12CD","vote":{"roundId":"r1"}}`, CodeMissingField, "vote.timestamp"},
		{"timestamp wrong type", `{"roomCode":"AB12CD","vote":{"roundId":"r1","timestamp":"now"}}`, CodeInvalidType, "vote.timestamp"},
		{"timestamp not positive", `{"roomCode":"AB12CD","vote":{"roundId":"r1","timestamp":-1}}`, CodeInvalidFormat, "vote.timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, f := Sanitize(KindSubmitVote, []byte(tt.raw))
			if tt.wantCode == "" {
				if f != nil {
					t.Fatalf("failure = %v, want nil", f)
				}
				v := ev.(*SubmitVote).Vote
				if v.RoundID != "r1" || v.Timestamp != 1700000000 || v.Choice != "Song A" {
					t.Errorf("vote = %+v", v)
				}
				return
			}
			if f == nil {
				t.Fatal("failure = nil, want rejection")
			}
			if f.Code != tt.wantCode || f.Field != tt.wantField {
				t.Errorf("failure = %s/%s, want %s/%s", f.Code, f.Field, tt.wantCode, tt.wantField)
			}
		})
	}
}

func TestSanitize_RevealVotes(t *testing.T) {
	ev, f := Sanitize(KindRevealVotes, []byte(`{"roomCode":"AB12CD","results":{"r1":{"winner":"u2"}}}`))
	if f != nil {
		t.Fatalf("failure = %v", f)
	}
	if len(ev.(*RevealVotes).Results) == 0 {
		t.Error("results should be carried through")
	}

	if _, f := Sanitize(KindRevealVotes, []byte(`{"roomCode":"AB12CD"}`)); f == nil || f.Code != CodeMissingField {
		t.Errorf("missing results: failure = %v, want missing_field", f)
	}
}

func TestSanitize_MalformedJSON(t *testing.T) {
	_, f := Sanitize(KindJoin, []byte(`{"roomCode":`))
	if f == nil || f.Code != CodeInvalidType {
		t.Errorf("failure = %v, want invalid_type", f)
	}
}

func TestSanitize_UnknownKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Sanitize should panic on an unknown kind constant")
		}
	}()
	Sanitize(Kind("bogus"), []byte(`{}`))
}
