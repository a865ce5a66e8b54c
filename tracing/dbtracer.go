package tracing

import (
	"github.com/sarchlab/ethersim/datarecording"
)

// TransitTable is the table that DBTracer writes to.
const TransitTable = "transit"

type transitEntry struct {
	Time        uint64
	Kind        string
	Device      string
	Port        int
	Peer        string
	PacketID    string
	Source      string
	Destination string
	Size        int
	Detail      string
}

// DBTracer stores transits into a data recorder.
type DBTracer struct {
	backend datarecording.DataRecorder
}

// NewDBTracer creates a DBTracer and the table it writes to.
func NewDBTracer(backend datarecording.DataRecorder) *DBTracer {
	backend.CreateTable(TransitTable, transitEntry{})

	return &DBTracer{backend: backend}
}

// Trace buffers the transit in the recorder.
func (t *DBTracer) Trace(tr Transit) {
	entry := transitEntry{
		Time:     uint64(tr.Time),
		Kind:     string(tr.Kind),
		Device:   tr.Device,
		Port:     tr.Port,
		Peer:     tr.Peer,
		PacketID: tr.PacketID,
		Size:     tr.Size,
		Detail:   tr.Detail,
	}

	if tr.PacketID != "" {
		entry.Source = tr.Source.String()
		entry.Destination = tr.Destination.String()
	}

	t.backend.InsertData(TransitTable, entry)
}

// Flush writes the buffered transits.
func (t *DBTracer) Flush() {
	t.backend.Flush()
}
