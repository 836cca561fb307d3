package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveConversationID(t *testing.T) {
	tests := []struct {
		name     string
		userA    string
		userB    string
		expected string
	}{
		{
			name:     "already sorted pair",
			userA:    "alice",
			userB:    "bob",
			expected: "alice_bob",
		},
		{
			name:     "reversed pair yields same id",
			userA:    "bob",
			userB:    "alice",
			expected: "alice_bob",
		},
		{
			name:     "numeric ids sort lexicographically",
			userA:    "user42",
			userB:    "user139",
			expected: "user139_user42",
		},
		{
			name:     "case sensitive ordering",
			userA:    "Zoe",
			userB:    "adam",
			expected: "Zoe_adam",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveConversationID(tt.userA, tt.userB))
		})
	}
}

func TestDeriveConversationIDSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"provider-7", "client-3"},
		{"aa", "ab"},
	}
	for _, pair := range pairs {
		assert.Equal(t,
			DeriveConversationID(pair[0], pair[1]),
			DeriveConversationID(pair[1], pair[0]),
			"id must not depend on argument order for %v", pair)
	}
}

func TestCanonicalPair(t *testing.T) {
	low, high := CanonicalPair("bob", "alice")
	assert.Equal(t, "alice", low)
	assert.Equal(t, "bob", high)

	low, high = CanonicalPair("alice", "bob")
	assert.Equal(t, "alice", low)
	assert.Equal(t, "bob", high)
}
