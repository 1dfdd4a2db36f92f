package beat

import (
	"encoding/json"
	"testing"
)

func TestStateString(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{Waiting, "waiting"},
		{Listening, "listening"},
		{Ready, "ready"},
		{Silent, "silent"},
		{State(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("state=%d got=%q want=%q", tc.state, got, tc.want)
		}
	}
}

func TestStateJSON(t *testing.T) {
	for _, s := range []State{Waiting, Listening, Ready, Silent} {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal %v: %v", s, err)
		}
		var back State
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if back != s {
			t.Errorf("round trip %v -> %s -> %v", s, b, back)
		}
	}
}
