package tracing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sarchlab/ethersim/network"
	"github.com/sarchlab/ethersim/sim"
	"github.com/sarchlab/ethersim/switching"
)

// NamedHookable is a domain that tracers can be attached to.
type NamedHookable interface {
	sim.Named
	sim.Hookable
	Hooks() []sim.Hook
}

// CollectTrace lets the tracer collect transits from a domain. A network
// domain covers every device registered in it.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf(
				"domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&traceHook{t: tracer})
}

// A traceHook converts hook invocations into transits.
type traceHook struct {
	t Tracer
}

// Func calls the tracer when the hook is triggered.
func (h *traceHook) Func(ctx sim.HookCtx) {
	tr, ok := toTransit(ctx)
	if !ok {
		return
	}

	h.t.Trace(tr)
}

func toTransit(ctx sim.HookCtx) (Transit, bool) {
	tr := Transit{Time: ctx.Now}

	if named, ok := ctx.Domain.(sim.Named); ok {
		tr.Device = named.Name()
	}

	if pkt, ok := ctx.Item.(*network.Packet); ok {
		tr.Packet = pkt
		tr.PacketID = pkt.ID()
		tr.Source = pkt.Source()
		tr.Destination = pkt.Destination()
		tr.Size = pkt.Len()
	}

	switch ctx.Pos {
	case network.HookPosPortSend:
		tr.Kind = KindSend
		fillPortEvent(&tr, ctx.Detail)
	case network.HookPosPortRecv:
		tr.Kind = KindRecv
		fillPortEvent(&tr, ctx.Detail)
	case network.HookPosPortDrop:
		tr.Kind = KindDrop
		fillPortEvent(&tr, ctx.Detail)
	case network.HookPosDeviceRecv:
		tr.Kind = KindDeliver
		d := ctx.Detail.(network.Delivery)
		tr.Port = d.Receiver.Number()
		if d.Sender != nil {
			tr.Peer = d.Sender.Name()
		}
	case switching.HookPosSwitchLearn:
		tr.Kind = KindLearn
		l := ctx.Detail.(switching.LearnDetail)
		tr.Port = l.Port
		tr.Detail = fmt.Sprintf("%s changed=%t", l.MAC, l.Changed)
	case switching.HookPosSwitchForward:
		tr.Kind = KindForward
		tr.Detail = describeDecision(ctx.Detail.(switching.Decision))
	case network.HookPosLinkCreate:
		tr.Kind = KindLinkUp
		tr.Detail = ctx.Item.(*network.Link).Name()
	case network.HookPosLinkDelete:
		tr.Kind = KindLinkDown
		tr.Detail = ctx.Item.(*network.Link).Name()
	default:
		return tr, false
	}

	return tr, true
}

func fillPortEvent(tr *Transit, detail any) {
	ev := detail.(network.PortEvent)
	tr.Port = ev.Port.Number()

	if ev.Peer != nil {
		tr.Peer = ev.Peer.Name()
	}

	if ev.Err != nil {
		tr.Detail = ev.Err.Error()
	}
}

func describeDecision(d switching.Decision) string {
	ports := make([]string, len(d.Ports))
	for i, p := range d.Ports {
		ports[i] = fmt.Sprint(p)
	}

	return d.Kind.String() + " [" + strings.Join(ports, " ") + "]"
}
