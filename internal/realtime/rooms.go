package realtime

import (
	"sort"
	"strings"
)

// RoomDelimiter joins the two ids of a conversation room. Identity ids are
// UUIDs, which never contain it.
const RoomDelimiter = "_"

const personalPrefix = "user_"

// RoomID is the room shared by a and b; both sides compute it independently.
func RoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, RoomDelimiter)
}

// PersonalRoom is the channel every connection of userID joins on authentication.
func PersonalRoom(userID string) string {
	return personalPrefix + userID
}

// RoomMembers splits a conversation room id. ok is false unless room is a
// canonical pair id.
func RoomMembers(room string) (a, b string, ok bool) {
	if strings.HasPrefix(room, personalPrefix) {
		return "", "", false
	}
	parts := strings.Split(room, RoomDelimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	if RoomID(parts[0], parts[1]) != room {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// CanJoin reports whether userID is one of the two members of room.
func CanJoin(room, userID string) bool {
	a, b, ok := RoomMembers(room)
	return ok && (a == userID || b == userID)
}
