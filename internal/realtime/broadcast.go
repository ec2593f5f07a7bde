package realtime

// Fan-out is at-most-once and best-effort: delivery happens over a snapshot
// taken at call time, a failed send tears down only the failing connection
// through the registry, and no failure aborts delivery to the remaining
// targets.

// BroadcastRoom delivers the frame to every connection currently subscribed
// to the room. Returns the number of successful sends; an empty room is not
// an error.
func (h *Hub) BroadcastRoom(chatID uint, f *Frame) int {
	return h.deliver(h.registry.SubscribersOf(chatID), "", f)
}

// NotifyUser delivers the frame to every connection of one user, subscribed
// or not. Used for lightweight out-of-band notifications.
func (h *Hub) NotifyUser(userID uint, f *Frame) int {
	return h.deliver(h.registry.ConnectionsFor(userID), "", f)
}

// BroadcastAll delivers the frame to every registered connection across all
// users, used for global events such as directory changes.
func (h *Hub) BroadcastAll(f *Frame) int {
	return h.deliver(h.registry.AllConnections(), "", f)
}

func (h *Hub) broadcastAllExcept(exceptID string, f *Frame) int {
	return h.deliver(h.registry.AllConnections(), exceptID, f)
}

func (h *Hub) deliver(targets []*Client, exceptID string, f *Frame) int {
	data := f.encode()
	sent := 0
	for _, c := range targets {
		if c.id == exceptID {
			continue
		}
		if err := c.write(data); err != nil {
			// Treat the connection as disconnected, not merely skipped.
			h.drop(c, "send failed")
			continue
		}
		sent++
	}
	if len(targets) > 0 {
		h.log.Debug("Delivered frame", "type", f.Type, "targets", len(targets), "sent", sent)
	}
	return sent
}
