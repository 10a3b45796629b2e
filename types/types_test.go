package types

import (
	"testing"
)

func TestSessionKey_String(t *testing.T) {
	key := SessionKey{App: "crm", UserID: "u1", SessionID: "s1"}
	if got := key.String(); got != "crm/u1/s1" {
		t.Errorf("String() = %q, want %q", got, "crm/u1/s1")
	}
}

func TestSession_SystemPrefix(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		want  int
	}{
		{"empty log", nil, 0},
		{"no system events", []Role{RoleUser, RoleModel}, 0},
		{"two system events", []Role{RoleSystem, RoleSystem, RoleUser, RoleModel}, 2},
		{"all system", []Role{RoleSystem, RoleSystem}, 2},
		{"trailing system marker excluded", []Role{RoleSystem, RoleUser, RoleSystem}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &Session{}
			for _, r := range tt.roles {
				sess.Events = append(sess.Events, NewTextEvent(r, "x"))
			}
			if got := len(sess.SystemPrefix()); got != tt.want {
				t.Errorf("len(SystemPrefix()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSession_Clone_Independence(t *testing.T) {
	sess := &Session{
		Key:   SessionKey{App: "a", UserID: "u", SessionID: "s"},
		State: map[string]any{StateTitleKey: "original"},
	}
	sess.Events = append(sess.Events, NewTextEvent(RoleUser, "hello"))

	clone := sess.Clone()
	clone.Events[0].Blocks[0].Text = "mutated"
	clone.Events = append(clone.Events, NewTextEvent(RoleModel, "reply"))
	clone.State[StateTitleKey] = "changed"

	if sess.Events[0].Blocks[0].Text != "hello" {
		t.Error("mutating clone event leaked into original")
	}
	if len(sess.Events) != 1 {
		t.Errorf("original event count = %d, want 1", len(sess.Events))
	}
	if sess.Title() != "original" {
		t.Errorf("original title = %q, want %q", sess.Title(), "original")
	}
}

func TestEvent_Clone_ToolInput(t *testing.T) {
	ev := NewEvent(RoleModel, ContentBlock{
		Type:      ContentTypeToolCall,
		ToolName:  "search",
		ToolInput: []byte(`{"q":"x"}`),
	})
	clone := ev.Clone()
	clone.Blocks[0].ToolInput[2] = 'Z'
	if string(ev.Blocks[0].ToolInput) != `{"q":"x"}` {
		t.Error("mutating cloned tool input leaked into original")
	}
}

func TestSession_Title(t *testing.T) {
	sess := &Session{}
	if sess.Title() != "" {
		t.Errorf("Title() on nil state = %q, want empty", sess.Title())
	}
	sess.State = map[string]any{StateTitleKey: "My chat"}
	if sess.Title() != "My chat" {
		t.Errorf("Title() = %q, want %q", sess.Title(), "My chat")
	}
}
