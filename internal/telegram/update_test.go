package telegram

import "testing"

func TestSenderName(t *testing.T) {
	cases := []struct {
		name string
		msg  *Message
		want string
	}{
		{"nil message", nil, ""},
		{"nil user", &Message{}, ""},
		{"first only", &Message{From: &User{FirstName: "Dana"}}, "Dana"},
		{"first and last", &Message{From: &User{FirstName: "Dana", LastName: "Levi"}}, "Dana Levi"},
		{"empty names", &Message{From: &User{}}, ""},
	}
	for _, tc := range cases {
		if got := tc.msg.SenderName(); got != tc.want {
			t.Errorf("%s: SenderName() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestStartParameter(t *testing.T) {
	private := func(text string) *Message {
		return &Message{Chat: &Chat{ID: 42, Type: "private"}, Text: text}
	}

	if p, ok := private("/start diamond_offer_9").StartParameter(); !ok || p != "diamond_offer_9" {
		t.Fatalf("got %q, %v", p, ok)
	}
	if p, ok := private("  /start  padded  ").StartParameter(); !ok || p != "padded" {
		t.Fatalf("got %q, %v", p, ok)
	}

	// Bare "/start" carries nothing to track.
	if _, ok := private("/start").StartParameter(); ok {
		t.Fatal("bare /start must not qualify")
	}
	if _, ok := private("/start   ").StartParameter(); ok {
		t.Fatal("/start with only whitespace must not qualify")
	}

	// Group chats never qualify, regardless of text.
	group := &Message{Chat: &Chat{ID: -1, Type: "supergroup"}, Text: "/start promo"}
	if _, ok := group.StartParameter(); ok {
		t.Fatal("group /start must not qualify")
	}

	var nilMsg *Message
	if _, ok := nilMsg.StartParameter(); ok {
		t.Fatal("nil message must not qualify")
	}
}
