package network

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ethersim/sim"
)

var _ = Describe("ScheduledTransport", func() {
	var (
		engine   sim.Engine
		n        *Network
		recorder *deliveryRecorder
		a        *Device
		b        *Device
	)

	setup := func(e sim.Engine) {
		engine = e
		n = MakeNetworkBuilder().WithEngine(engine).Build("lab")
		recorder = &deliveryRecorder{}
		n.AcceptHook(recorder)

		a = MakeBuilder().WithNetwork(n).Build("a")
		b = MakeBuilder().WithNetwork(n).Build("b")

		_, err := n.Connect(a.GetPort(1).ID(), b.GetPort(1).ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(a.GetPort(1).Open()).To(Succeed())
		Expect(b.GetPort(1).Open()).To(Succeed())
	}

	It("should panic without an engine", func() {
		Expect(func() { NewScheduledTransport(nil) }).To(Panic())
	})

	for _, c := range []struct {
		name   string
		engine func() sim.Engine
	}{
		{"serial", func() sim.Engine { return sim.NewSerialEngine() }},
		{"parallel", func() sim.Engine { return sim.NewParallelEngine() }},
	} {
		Context("on the "+c.name+" engine", func() {
			BeforeEach(func() {
				setup(c.engine())
			})

			It("should defer delivery until the engine runs", func() {
				pkt := a.BuildPacket(b.MAC(), nil)

				Expect(a.SendPacket(pkt, 1)).To(Succeed())

				Expect(recorder.receivedBy("b")).To(BeEmpty())
				Expect(a.GetPort(1).Link().InFlight()).To(Equal(1))

				Expect(n.Run()).To(Succeed())

				Expect(recorder.receivedBy("b")).To(ConsistOf(pkt))
				Expect(a.GetPort(1).Link().InFlight()).To(Equal(0))
			})

			It("should keep the order of packets on a link", func() {
				var sent []*Packet

				for i := 0; i < 50; i++ {
					pkt := a.BuildPacket(b.MAC(), []byte{byte(i)})
					sent = append(sent, pkt)
					Expect(a.SendPacket(pkt, 1)).To(Succeed())
				}

				Expect(n.Run()).To(Succeed())

				Expect(recorder.receivedBy("b")).To(Equal(sent))
			})

			It("should drop packets in flight when the link goes away", func() {
				pkt := a.BuildPacket(b.MAC(), nil)
				Expect(a.SendPacket(pkt, 1)).To(Succeed())

				Expect(b.GetPort(1).DeleteLink()).To(Succeed())
				Expect(n.Run()).To(Succeed())

				Expect(recorder.receivedBy("b")).To(BeEmpty())
				Expect(recorder.drops).To(HaveLen(1))
				Expect(recorder.drops[0].Err).To(MatchError(ErrLinkDown))
			})
		})
	}

	It("should reject events of other types", func() {
		t := NewScheduledTransport(sim.NewSerialEngine())

		err := t.Handle(sim.NewEventBase(0, t))

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("DirectTransport", func() {
	It("should deliver before returning", func() {
		recorder := &deliveryRecorder{}
		a := MakeBuilder().Build("a")
		b := MakeBuilder().Build("b")
		b.AcceptHook(recorder)

		_, _ = a.GetPort(1).CreateLink(b.GetPort(1))
		Expect(a.GetPort(1).Open()).To(Succeed())
		Expect(b.GetPort(1).Open()).To(Succeed())

		pkt := a.BuildPacket(b.MAC(), nil)
		Expect(a.SendPacket(pkt, 1)).To(Succeed())

		Expect(recorder.receivedBy("b")).To(ConsistOf(pkt))
	})
})
