// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package hostlog

import "github.com/jeranaias/wlctl/internal/identity"

// Handler receives parsed events.
type Handler interface {
	PlayerJoined(id identity.ID, name, address string)
	PlayerLeft(id identity.ID)
	ConnectionRejected(id identity.ID, name, address, reason string)
	ServerReset()
}

// Dispatch delivers ev to h.
func Dispatch(ev Event, h Handler) {
	switch ev.Kind {
	case KindJoin:
		h.PlayerJoined(ev.ID, ev.Name, ev.Address)
	case KindLeave:
		h.PlayerLeft(ev.ID)
	case KindReject:
		h.ConnectionRejected(ev.ID, ev.Name, ev.Address, ev.Reason)
	case KindReset:
		h.ServerReset()
	}
}
