package realtime

// Transport is the connection layer the protocol runs over. Handles are
// connection ids; emits to a handle that has gone away are dropped.
type Transport interface {
	// Emit sends an event to one connection.
	Emit(handle, event string, payload interface{})
	// BroadcastToRoom sends an event to every connection joined to room.
	BroadcastToRoom(room, event string, payload interface{})
	// BroadcastExcept sends an event to every connection except handle.
	BroadcastExcept(handle, event string, payload interface{})
	// Join subscribes a connection to room.
	Join(handle, room string)
	// Leave unsubscribes a connection from room.
	Leave(handle, room string)
}
