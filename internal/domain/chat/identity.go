package chat

import "strings"

// conversationIDSeparator joins the two participant ids. Account ids are
// opaque strings that do not contain underscores.
const conversationIDSeparator = "_"

// DeriveConversationID computes the deterministic id of the conversation
// between two users. The pair is sorted lexicographically before joining, so
// the result is identical for both argument orders. Callers validate that the
// two ids are non-empty and distinct.
func DeriveConversationID(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return userA + conversationIDSeparator + userB
}

// CanonicalPair returns the two participant ids in storage order (low, high).
func CanonicalPair(userA, userB string) (string, string) {
	if strings.Compare(userA, userB) > 0 {
		return userB, userA
	}
	return userA, userB
}
