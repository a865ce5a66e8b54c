// Package monitoring serves a running simulation over HTTP so that it can be
// inspected and controlled from outside.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"go.uber.org/zap"

	"github.com/sarchlab/ethersim/monitoring/web"
	"github.com/sarchlab/ethersim/network"
	"github.com/sarchlab/ethersim/sim"
	"github.com/sarchlab/ethersim/switching"
)

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	network    *network.Network
	portNumber int
	gatherer   prometheus.Gatherer
	logger     *zap.SugaredLogger

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	listener net.Listener
}

// NewMonitor creates a new Monitor for the network.
func NewMonitor(n *network.Network) *Monitor {
	return &Monitor{
		network:  n,
		gatherer: prometheus.DefaultGatherer,
		logger:   zap.NewNop().Sugar(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warnw("port number not allowed for the monitoring server, "+
			"using a random port instead", "port", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithGatherer sets where the /metrics endpoint reads metrics from.
func (m *Monitor) WithGatherer(g prometheus.Gatherer) *Monitor {
	m.gatherer = g
	return m
}

// WithLogger sets the logger of the monitor.
func (m *Monitor) WithLogger(logger *zap.SugaredLogger) *Monitor {
	m.logger = logger
	return m
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		id:        sim.GetIDGenerator().Generate(),
		name:      name,
		startTime: time.Now(),
		total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler that serves the monitoring API and the web
// page.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine).Methods(http.MethodPost)
	r.HandleFunc("/api/continue", m.continueEngine).Methods(http.MethodPost)
	r.HandleFunc("/api/run", m.run).Methods(http.MethodPost)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/devices", m.listDevices)
	r.HandleFunc("/api/device/{name}", m.deviceDetails)
	r.HandleFunc("/api/device/{name}/ports", m.listPorts)
	r.HandleFunc("/api/device/{name}/mactable", m.macTable)
	r.HandleFunc("/api/links", m.listLinks)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	r.PathPrefix("/").Handler(http.FileServer(web.Assets()))

	return r
}

// StartServer starts serving in the background and returns the URL of the
// server.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", m.portNumber))
	if err != nil {
		return "", fmt.Errorf("starting monitoring server: %w", err)
	}

	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.Infow("monitoring simulation", "url", url)

	router := m.Router()

	go func() {
		err := http.Serve(listener, router)
		if err != nil && !errors.Is(err, net.ErrClosed) {
			m.logger.Errorw("monitoring server stopped", "error", err)
		}
	}()

	return url, nil
}

// StopServer closes the listener opened by StartServer.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	return m.listener.Close()
}

// OpenBrowser opens the monitoring page in the default browser.
func OpenBrowser(url string) error {
	browser.Stdout = os.Stderr
	return browser.OpenURL(url)
}

func (m *Monitor) engineOr409(w http.ResponseWriter) sim.Engine {
	e := m.network.Engine()
	if e == nil {
		http.Error(w, "network has no engine", http.StatusConflict)
	}

	return e
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	e := m.engineOr409(w)
	if e == nil {
		return
	}

	e.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	e := m.engineOr409(w)
	if e == nil {
		return
	}

	e.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) run(w http.ResponseWriter, _ *http.Request) {
	e := m.engineOr409(w)
	if e == nil {
		return
	}

	go func() {
		err := e.Run()
		if err != nil {
			m.logger.Errorw("simulation stopped", "error", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, map[string]sim.VTime{"now": m.network.CurrentTime()})
}

type deviceRsp struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	MAC      string `json:"mac"`
	NumPorts int    `json:"num_ports"`
}

func kindOf(d *network.Device) string {
	if _, ok := d.Behavior().(*switching.Switch); ok {
		return "switch"
	}

	return "node"
}

func (m *Monitor) listDevices(w http.ResponseWriter, _ *http.Request) {
	devices := m.network.Devices()

	rsp := make([]deviceRsp, 0, len(devices))
	for _, d := range devices {
		rsp = append(rsp, deviceRsp{
			Name:     d.Name(),
			Kind:     kindOf(d),
			MAC:      d.MAC().String(),
			NumPorts: d.NumPorts(),
		})
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor) findDeviceOr404(
	w http.ResponseWriter,
	r *http.Request,
) *network.Device {
	name := mux.Vars(r)["name"]

	d, found := m.network.Lookup(name)
	if !found {
		http.Error(w, "device not found", http.StatusNotFound)
		return nil
	}

	return d
}

// deviceView is what the device dump walks. It only holds values goseth can
// serialize.
type deviceView struct {
	Name     string
	Kind     string
	MAC      string
	Ports    []portRsp
	MACTable []macEntryRsp
}

func viewOf(d *network.Device) deviceView {
	v := deviceView{
		Name:  d.Name(),
		Kind:  kindOf(d),
		MAC:   d.MAC().String(),
		Ports: portsOf(d),
	}

	if s, ok := d.Behavior().(*switching.Switch); ok {
		v.MACTable = macEntriesOf(s)
	}

	return v
}

func (m *Monitor) deviceDetails(w http.ResponseWriter, r *http.Request) {
	d := m.findDeviceOr404(w, r)
	if d == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(viewOf(d))
	serializer.SetMaxDepth(3)

	w.Header().Set("Content-Type", "application/json")

	err := serializer.Serialize(w)
	if err != nil {
		m.logger.Errorw("serializing device", "device", d.Name(), "error", err)
	}
}

type portRsp struct {
	Number      int    `json:"number"`
	Description string `json:"description"`
	Open        bool   `json:"open"`
	Peer        string `json:"peer,omitempty"`
}

func portsOf(d *network.Device) []portRsp {
	rsp := make([]portRsp, 0, d.NumPorts())
	for _, p := range d.Ports() {
		pr := portRsp{
			Number:      p.Number(),
			Description: p.Description(),
			Open:        p.IsOpen(),
		}

		if peer := p.Peer(); peer != nil {
			pr.Peer = peer.Name()
		}

		rsp = append(rsp, pr)
	}

	return rsp
}

func (m *Monitor) listPorts(w http.ResponseWriter, r *http.Request) {
	d := m.findDeviceOr404(w, r)
	if d == nil {
		return
	}

	m.writeJSON(w, portsOf(d))
}

type macEntryRsp struct {
	Port int    `json:"port"`
	MAC  string `json:"mac"`
}

func macEntriesOf(s *switching.Switch) []macEntryRsp {
	entries := s.Table().Entries()

	rsp := make([]macEntryRsp, 0, len(entries))
	for _, e := range entries {
		rsp = append(rsp, macEntryRsp{Port: e.Port, MAC: e.MAC.String()})
	}

	return rsp
}

func (m *Monitor) macTable(w http.ResponseWriter, r *http.Request) {
	d := m.findDeviceOr404(w, r)
	if d == nil {
		return
	}

	s, ok := d.Behavior().(*switching.Switch)
	if !ok {
		http.Error(w, "device is not a switch", http.StatusBadRequest)
		return
	}

	m.writeJSON(w, macEntriesOf(s))
}

type linkRsp struct {
	Name     string    `json:"name"`
	Ends     [2]string `json:"ends"`
	InFlight int       `json:"in_flight"`
}

func (m *Monitor) listLinks(w http.ResponseWriter, _ *http.Request) {
	links := m.network.Links()

	rsp := make([]linkRsp, 0, len(links))
	for _, l := range links {
		ends := l.EndIDs()
		rsp = append(rsp, linkRsp{
			Name:     l.Name(),
			Ends:     [2]string{ends[0].String(), ends[1].String()},
			InFlight: l.InFlight(),
		})
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBarStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Status())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.internalError(w, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.internalError(w, err)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		m.internalError(w, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		m.internalError(w, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.internalError(w, err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		m.logger.Errorw("writing response", "error", err)
	}
}

func (m *Monitor) internalError(w http.ResponseWriter, err error) {
	m.logger.Errorw("monitoring request failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
