package models

import "testing"

func TestConversationStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ConversationStatus
		want     bool
	}{
		{StatusBot, StatusWaitingForAgent, true},
		{StatusWaitingForAgent, StatusLiveAgent, true},
		{StatusBot, StatusLiveAgent, false},
		{StatusBot, StatusBot, false},
		{StatusWaitingForAgent, StatusBot, false},
		{StatusLiveAgent, StatusBot, false},
		{StatusLiveAgent, StatusWaitingForAgent, false},
		{StatusLiveAgent, StatusLiveAgent, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Fatalf("%s -> %s = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
