package model

import "testing"

func TestReplyType(t *testing.T) {
	tests := map[string]string{
		MessageTypeParentToMentor: MessageTypeMentorToParent,
		MessageTypeMentorToParent: MessageTypeParentToMentor,
		"general":                 "general",
	}
	for in, want := range tests {
		if got := ReplyType(in); got != want {
			t.Errorf("ReplyType(%q) = %q, want %q", in, got, want)
		}
	}
}
