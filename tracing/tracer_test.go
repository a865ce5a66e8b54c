package tracing

import (
	"bytes"
	"database/sql"
	"path/filepath"

	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sarchlab/ethersim/datarecording"
	"github.com/sarchlab/ethersim/network"
	"github.com/sarchlab/ethersim/sim"
)

var _ = Describe("CollectTrace", func() {
	var l *lab

	BeforeEach(func() {
		l = newLab()
	})

	It("should follow a flooded packet hop by hop", func() {
		c := NewCollector()
		CollectTrace(l.net, c)

		pkt := l.ping()

		var steps []string
		for _, tr := range c.Transits() {
			steps = append(steps, tr.Device+" "+string(tr.Kind))
			Expect(tr.PacketID).To(Equal(pkt.ID()))
		}

		Expect(steps).To(Equal([]string{
			"hostA send",
			"S1 recv",
			"S1 deliver",
			"S1 learn",
			"S1 forward",
			"S1 send",
			"hostB recv",
			"hostB deliver",
		}))

		forward := c.Filter(KindForward)
		Expect(forward).To(HaveLen(1))
		Expect(forward[0].Detail).To(Equal("flood [2]"))

		send := c.Filter(KindSend)
		Expect(send[1].Port).To(Equal(2))
		Expect(send[1].Peer).To(Equal("hostB.Port1"))
	})

	It("should record drops with their reason", func() {
		c := NewCollector()
		CollectTrace(l.net, c)

		Expect(l.hostB.GetPort(1).Close()).To(Succeed())
		l.ping()

		drops := c.Filter(KindDrop)
		Expect(drops).To(HaveLen(1))
		Expect(drops[0].Device).To(Equal("hostB"))
		Expect(drops[0].Detail).To(Equal("port not enabled"))
	})

	It("should record link events", func() {
		c := NewCollector()
		CollectTrace(l.net, c)

		Expect(l.hostA.GetPort(1).DeleteLink()).To(Succeed())

		Expect(c.Filter(KindLinkDown)).To(ConsistOf(
			HaveField("Detail", "S1.Port1-hostA.Port1")))
	})

	It("should ignore unrelated hook positions", func() {
		c := NewCollector()
		h := &traceHook{t: c}

		h.Func(sim.HookCtx{Pos: sim.HookPosBeforeEvent})

		Expect(c.Transits()).To(BeEmpty())
	})

	It("should panic when the same tracer is attached twice", func() {
		c := NewCollector()
		CollectTrace(l.hostA, c)

		Expect(func() { CollectTrace(l.hostA, c) }).To(Panic())
	})

	It("should hand transits of a single device to the tracer", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		tracer := NewMockTracer(mockCtrl)
		CollectTrace(l.hostB, tracer)

		tracer.EXPECT().
			Trace(gomock.Any()).
			Do(func(tr Transit) {
				Expect(tr.Device).To(Equal("hostB"))
			}).
			Times(2)

		l.ping()
	})
})

var _ = Describe("LogTracer", func() {
	It("should log deliveries at info level", func() {
		core, logs := observer.New(zapcore.InfoLevel)
		l := newLab()
		CollectTrace(l.net, NewLogTracer(zap.New(core).Sugar()))

		l.ping()

		deliveries := logs.FilterMessage("deliver").All()
		Expect(deliveries).To(HaveLen(2))
		Expect(deliveries[1].ContextMap()).To(HaveKeyWithValue("device", "hostB"))
		Expect(deliveries[1].ContextMap()).
			To(HaveKeyWithValue("dst", "02:00:00:00:00:0b"))
	})
})

var _ = Describe("PcapTracer", func() {
	It("should write a frame for every hop", func() {
		buf := new(bytes.Buffer)
		tracer, err := NewPcapTracer(buf)
		Expect(err).NotTo(HaveOccurred())

		l := newLab()
		CollectTrace(l.net, tracer)
		pkt := l.ping()

		Expect(tracer.Err()).NotTo(HaveOccurred())
		Expect(tracer.Frames()).To(Equal(2))

		r, err := pcapgo.NewReader(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.LinkType()).To(Equal(layers.LinkTypeEthernet))

		for i := 0; i < 2; i++ {
			data, _, err := r.ReadPacketData()
			Expect(err).NotTo(HaveOccurred())

			src, dst, payload, err := network.ParseFrame(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(src).To(Equal(pkt.Source()))
			Expect(dst).To(Equal(pkt.Destination()))
			Expect(payload).To(Equal([]byte("ping")))
		}
	})
})

var _ = Describe("DBTracer", func() {
	It("should store every transit", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		recorder := datarecording.New(path)
		DeferCleanup(recorder.Close)

		tracer := NewDBTracer(recorder)
		l := newLab()
		CollectTrace(l.net, tracer)
		l.ping()
		tracer.Flush()

		db, err := sql.Open("sqlite3", path+".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		var count int
		Expect(db.QueryRow("SELECT COUNT(*) FROM transit").Scan(&count)).
			To(Succeed())
		Expect(count).To(Equal(8))

		var src, dst string
		Expect(db.QueryRow(
			"SELECT Source, Destination FROM transit WHERE Kind = 'deliver' "+
				"AND Device = 'hostB'",
		).Scan(&src, &dst)).To(Succeed())
		Expect(src).To(Equal("02:00:00:00:00:0a"))
		Expect(dst).To(Equal("02:00:00:00:00:0b"))
	})
})

var _ = Describe("MetricsTracer", func() {
	It("should count transits and decisions", func() {
		reg := prometheus.NewRegistry()
		tracer := NewMetricsTracer(reg)
		l := newLab()
		CollectTrace(l.net, tracer)

		l.ping()
		l.ping()

		Expect(testutil.ToFloat64(
			tracer.transits.WithLabelValues("S1", "forward"))).To(Equal(2.0))
		Expect(testutil.ToFloat64(
			tracer.decisions.WithLabelValues("S1", "flood"))).To(Equal(2.0))
		Expect(testutil.ToFloat64(
			tracer.bytes.WithLabelValues("hostB"))).To(Equal(8.0))
		Expect(testutil.CollectAndCount(tracer.decisions)).To(Equal(1))
	})
})
