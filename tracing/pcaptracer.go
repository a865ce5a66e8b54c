package tracing

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

const pcapSnapLen = 65536

// PcapTracer captures every packet that leaves a port as an Ethernet frame.
// The capture timestamp is the virtual time, read as nanoseconds since the
// epoch.
type PcapTracer struct {
	lock   sync.Mutex
	w      *pcapgo.Writer
	frames int
	err    error
}

// NewPcapTracer writes the pcap file header to w and returns a tracer that
// appends one record per sent packet.
func NewPcapTracer(w io.Writer) (*PcapTracer, error) {
	pw := pcapgo.NewWriter(w)

	err := pw.WriteFileHeader(pcapSnapLen, layers.LinkTypeEthernet)
	if err != nil {
		return nil, fmt.Errorf("writing pcap header: %w", err)
	}

	return &PcapTracer{w: pw}, nil
}

// Trace writes the frame of a sent packet.
func (t *PcapTracer) Trace(tr Transit) {
	if tr.Kind != KindSend || tr.Packet == nil {
		return
	}

	frame, err := tr.Packet.Frame()

	t.lock.Lock()
	defer t.lock.Unlock()

	if err != nil {
		t.keepFirstError(err)
		return
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     time.Unix(0, int64(tr.Time)),
		CaptureLength: len(frame),
		Length:        len(frame),
	}

	if err := t.w.WritePacket(ci, frame); err != nil {
		t.keepFirstError(fmt.Errorf("writing frame of %s: %w", tr.PacketID, err))
		return
	}

	t.frames++
}

func (t *PcapTracer) keepFirstError(err error) {
	if t.err == nil {
		t.err = err
	}
}

// Frames returns the number of frames written.
func (t *PcapTracer) Frames() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.frames
}

// Err returns the first error met while writing.
func (t *PcapTracer) Err() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.err
}
