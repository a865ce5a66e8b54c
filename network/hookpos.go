package network

import "github.com/sarchlab/ethersim/sim"

// Hook positions raised by ports, links and devices. The hook domain is always
// the device that owns the port; Item is the packet where one is involved.
var (
	// HookPosPortSend marks a packet leaving a port onto its link.
	HookPosPortSend = &sim.HookPos{Name: "Port Send"}

	// HookPosPortRecv marks a packet accepted by an open port.
	HookPosPortRecv = &sim.HookPos{Name: "Port Recv"}

	// HookPosPortDrop marks a packet that a port refused. Detail is a
	// PortEvent carrying the reason.
	HookPosPortDrop = &sim.HookPos{Name: "Port Drop"}

	// HookPosLinkCreate marks a new link. Item is the *Link.
	HookPosLinkCreate = &sim.HookPos{Name: "Link Create"}

	// HookPosLinkDelete marks a removed link. Item is the *Link.
	HookPosLinkDelete = &sim.HookPos{Name: "Link Delete"}

	// HookPosDeviceRecv marks the device observing a delivered packet.
	// Detail is the Delivery.
	HookPosDeviceRecv = &sim.HookPos{Name: "Device Recv"}
)

// PortEvent is the detail attached to port hooks.
type PortEvent struct {
	Port *Port
	Peer *Port
	Err  error
}
