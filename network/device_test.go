package network

import (
	"bytes"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ethersim/mac"
)

var _ = Describe("Device", func() {
	var (
		recorder *deliveryRecorder
		left     *Device
		right    *Device
	)

	BeforeEach(func() {
		recorder = &deliveryRecorder{}

		left = MakeBuilder().
			WithNumPorts(2).
			WithMAC(mac.MustParse("02:00:00:00:00:01")).
			Build("left")
		right = MakeBuilder().
			WithNumPorts(2).
			WithMAC(mac.MustParse("02:00:00:00:00:02")).
			Build("right")

		left.AcceptHook(recorder)
		right.AcceptHook(recorder)
	})

	It("should number ports from 1", func() {
		Expect(left.NumPorts()).To(Equal(2))

		for i, p := range left.Ports() {
			Expect(p.Number()).To(Equal(i + 1))
			Expect(left.GetPort(i + 1)).To(BeIdenticalTo(p))
		}
	})

	It("should panic on a port out of range", func() {
		Expect(func() { left.GetPort(0) }).To(Panic())
		Expect(func() { left.GetPort(3) }).To(Panic())
	})

	It("should panic when built without ports or name", func() {
		Expect(func() { MakeBuilder().WithNumPorts(0).Build("x") }).To(Panic())
		Expect(func() { MakeBuilder().Build("") }).To(Panic())
		Expect(func() { MakeBuilder().WithBehavior(nil).Build("x") }).To(Panic())
	})

	It("should build packets from its own address", func() {
		pkt := left.BuildPacket(right.MAC(), []byte{1, 2, 3})

		Expect(pkt.Source()).To(Equal(left.MAC()))
		Expect(pkt.Destination()).To(Equal(right.MAC()))
		Expect(pkt.Payload()).To(Equal([]byte{1, 2, 3}))
		Expect(pkt.Len()).To(Equal(3))
		Expect(pkt.ID()).NotTo(BeEmpty())
	})

	It("should keep packets immutable", func() {
		data := []byte("abc")
		pkt := left.BuildPacket(right.MAC(), data)

		data[0] = 'x'
		out := pkt.Payload()
		out[1] = 'y'

		Expect(pkt.Payload()).To(Equal([]byte("abc")))
	})

	It("should give every packet a distinct id", func() {
		a := left.BuildPacket(right.MAC(), nil)
		b := left.BuildPacket(right.MAC(), nil)

		Expect(a.ID()).NotTo(Equal(b.ID()))
	})

	It("should encode packets as ethernet frames", func() {
		pkt := left.BuildPacket(right.MAC(), []byte("payload"))

		frame, err := pkt.Frame()
		Expect(err).NotTo(HaveOccurred())

		decoded := gopacket.NewPacket(frame, layers.LayerTypeEthernet,
			gopacket.Default)
		eth, ok := decoded.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
		Expect(ok).To(BeTrue())
		Expect(eth.SrcMAC).To(Equal(left.MAC().HardwareAddr()))
		Expect(eth.DstMAC).To(Equal(right.MAC().HardwareAddr()))
		Expect(eth.EthernetType).To(Equal(EtherTypeSimulated))
		Expect(frame).To(HaveLen(60))

		src, dst, payload, err := ParseFrame(frame)
		Expect(err).NotTo(HaveOccurred())
		Expect(src).To(Equal(left.MAC()))
		Expect(dst).To(Equal(right.MAC()))
		Expect(payload).To(Equal([]byte("payload")))
	})

	It("should keep payloads longer than the ethernet minimum", func() {
		data := bytes.Repeat([]byte{0xab}, 100)
		frame, err := left.BuildPacket(right.MAC(), data).Frame()
		Expect(err).NotTo(HaveOccurred())

		_, _, payload, err := ParseFrame(frame)
		Expect(err).NotTo(HaveOccurred())
		Expect(payload).To(Equal(data))
	})

	It("should keep empty payloads empty", func() {
		frame, err := left.BuildPacket(right.MAC(), nil).Frame()
		Expect(err).NotTo(HaveOccurred())

		_, _, payload, err := ParseFrame(frame)
		Expect(err).NotTo(HaveOccurred())
		Expect(payload).To(BeEmpty())
	})

	It("should reject frames of other protocols", func() {
		_, _, _, err := ParseFrame([]byte{1, 2, 3})
		Expect(err).To(HaveOccurred())
	})

	It("should send out of the chosen port only", func() {
		_, _ = left.GetPort(2).CreateLink(right.GetPort(1))
		Expect(left.GetPort(2).Open()).To(Succeed())
		Expect(right.GetPort(1).Open()).To(Succeed())

		pkt := left.BuildPacket(right.MAC(), nil)
		Expect(left.SendPacket(pkt, 2)).To(Succeed())

		Expect(recorder.receivedBy("right")).To(ConsistOf(pkt))
	})

	It("should not forward as a node", func() {
		third := MakeBuilder().Build("third")
		third.AcceptHook(recorder)

		_, _ = left.GetPort(1).CreateLink(right.GetPort(1))
		_, _ = right.GetPort(2).CreateLink(third.GetPort(1))

		for _, p := range []*Port{
			left.GetPort(1), right.GetPort(1), right.GetPort(2),
			third.GetPort(1),
		} {
			Expect(p.Open()).To(Succeed())
		}

		pkt := left.BuildPacket(third.MAC(), nil)
		Expect(left.SendPacket(pkt, 1)).To(Succeed())

		Expect(recorder.receivedBy("right")).To(HaveLen(1))
		Expect(recorder.receivedBy("third")).To(BeEmpty())
	})

	It("should run emissions from its behavior", func() {
		echo := MakeBuilder().
			WithBehavior(echoBehavior{}).
			Build("echo")
		echo.AcceptHook(recorder)

		_, _ = left.GetPort(1).CreateLink(echo.GetPort(1))
		Expect(left.GetPort(1).Open()).To(Succeed())
		Expect(echo.GetPort(1).Open()).To(Succeed())

		Expect(left.SendPacket(left.BuildPacket(echo.MAC(), nil), 1)).
			To(Succeed())

		Expect(recorder.receivedBy("echo")).To(HaveLen(1))
		Expect(recorder.receivedBy("left")).To(HaveLen(1))
	})
})

// echoBehavior answers each packet back out of the arrival port.
type echoBehavior struct{}

func (echoBehavior) OnReceive(dev *Device, d Delivery) []Emission {
	if d.Packet.Source() == dev.MAC() {
		return nil
	}

	return []Emission{{
		Port:   d.Receiver.Number(),
		Packet: dev.BuildPacket(d.Packet.Source(), d.Packet.Payload()),
	}}
}
