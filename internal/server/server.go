// Package server owns the orchestrator's single UDP socket and the
// shared mutable state every handler touches: worker table, expanded
// string S, global bitmap B, and the outbound sequence counter (spec §5,
// §9 "Global mutable state"). Every inbound datagram runs to completion
// before the next is read; there is no concurrency inside Orchestrator.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package server

import (
	"net"
	"strconv"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	shortid "github.com/teris-io/shortid"

	"github.com/NVIDIA/lstile/internal/grammar"
	"github.com/NVIDIA/lstile/internal/lsystem"
	"github.com/NVIDIA/lstile/internal/metrics"
	"github.com/NVIDIA/lstile/internal/obslog"
	"github.com/NVIDIA/lstile/internal/reassembler"
	"github.com/NVIDIA/lstile/internal/registry"
	"github.com/NVIDIA/lstile/internal/router"
	"github.com/NVIDIA/lstile/internal/wire"
)

// Canvas dimensions for this deployment's fixed 2x2 partition (spec §1,
// §3). Chosen so each quadrant matches the reassembler's NodeBitmapW/H.
const (
	CanvasWidth  = reassembler.NodeBitmapW * 2
	CanvasHeight = reassembler.NodeBitmapH * 2

	// MaxDataPerChunk bounds STRING_CHUNK's data so the whole datagram
	// fits MaxPacketSize (spec §4.2): header(4) + fixed chunk fields(10).
	MaxDataPerChunk = wire.MaxPacketSize - wire.HeaderSize - 10

	// starterWorker is the worker index the orchestrator injects START
	// into after the fourth registration (spec §4.3): node 2, bottom-left.
	starterWorker = 2
)

// Stats is the end-of-run snapshot printed/logged by the completion
// detector (spec §4.6, SPEC_FULL.md JSON stats supplement).
type Stats struct {
	TotalHandovers    uint64                 `json:"total_handovers"`
	MessagesSent      uint64                 `json:"messages_sent"`
	MessagesReceived  uint64                 `json:"messages_received"`
	FragmentsReceived [registry.MaxNodes]int `json:"fragments_received"`
}

// Orchestrator bundles the single owned mutable state region spec §9
// calls for: worker table, expanded string, bitmap, counters. All
// handlers take it by (implicit) exclusive mutable reference, since the
// dispatch loop that calls them never runs two handlers concurrently.
type Orchestrator struct {
	conn   net.PacketConn
	runID  string
	log    *logrus.Entry
	g      grammar.G
	s      string
	reg    *registry.Registry
	router *router.Router
	re     *reassembler.Reassembler
	met    *metrics.Metrics

	seq              uint32 // truncated to a byte per datagram, per spec §6.1
	messagesSent     uint64
	messagesReceived uint64
	completed        bool
}

// New builds the orchestrator's state around an already-parsed grammar.
// It expands G into S once, opens the worker registry, and wires the
// optional metrics collector. It does not open the socket; call Listen
// for that.
func New(g grammar.G, met *metrics.Metrics) (*Orchestrator, error) {
	reg, err := registry.New()
	if err != nil {
		return nil, errors.Wrap(err, "server: open registry")
	}
	runID, err := shortid.Generate()
	if err != nil {
		runID = "run"
	}
	s := lsystem.Expand(g)
	o := &Orchestrator{
		runID:  runID,
		log:    obslog.WithRunID(runID),
		g:      g,
		s:      s,
		reg:    reg,
		router: router.New(),
		re:     reassembler.New(CanvasWidth, CanvasHeight),
		met:    met,
	}
	o.log.Infof("expanded L-system: axiom_len=%d iterations=%d len(S)=%d xxhash=%x",
		len(g.Axiom), g.Iterations, len(s), lsystem.Checksum(s))
	return o, nil
}

// Listen binds the orchestrator's UDP socket. serverPort is the well-known
// port workers send to (spec §6.2: 5000).
func (o *Orchestrator) Listen(serverPort int) error {
	conn, err := net.ListenPacket("udp", ":"+strconv.Itoa(serverPort))
	if err != nil {
		return errors.Wrap(err, "server: listen udp")
	}
	o.conn = conn
	return nil
}

func (o *Orchestrator) Close() error {
	if o.conn != nil {
		_ = o.conn.Close()
	}
	return o.reg.Close()
}

// Serve runs the single-threaded reactive dispatch loop until the socket
// is closed or recv errors out (spec §5: the only blocking point is the
// recv). It returns nil on a clean close.
func (o *Orchestrator) Serve() error {
	buf := make([]byte, wire.MaxPacketSize)
	for {
		n, addr, err := o.conn.ReadFrom(buf)
		if err != nil {
			if isClosedErr(err) {
				return nil
			}
			return errors.Wrap(err, "server: recv")
		}
		o.messagesReceived++
		if o.met != nil {
			o.met.MessagesReceived.Inc()
		}
		o.dispatch(addr, append([]byte(nil), buf[:n]...))
	}
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// dispatch decodes the 4-byte header and routes to the per-type handler.
// Any parse failure here is local and non-fatal (spec §7): a short
// datagram is silently dropped.
func (o *Orchestrator) dispatch(addr net.Addr, buf []byte) {
	h, err := wire.DecodeHeader(buf)
	if err != nil {
		o.log.Debugf("dropping malformed datagram from %s: %v", addr, err)
		return
	}
	payload := buf[wire.HeaderSize : wire.HeaderSize+int(h.PayloadLength)]

	// Every type other than REGISTER requires a known sender (spec §7).
	host, _ := splitHost(addr)
	if h.Type != wire.TypeRegister {
		if _, ok := o.reg.Lookup(host, sourcePortOf(addr)); !ok {
			o.log.Debugf("dropping %#x from unregistered sender %s", h.Type, addr)
			return
		}
	}

	switch h.Type {
	case wire.TypeRegister:
		o.handleRegister(addr, payload)
	case wire.TypeRequestChunk:
		o.handleRequestChunk(addr, payload)
	case wire.TypeHandover:
		o.handleHandover(addr, payload)
	case wire.TypeDone:
		o.handleDone(addr, payload)
	case wire.TypeUpload:
		o.handleUpload(addr, payload)
	case wire.TypeAck:
		// no-op (spec §5, §7)
	case wire.TypeError:
		o.handleInboundError(addr, payload)
	default:
		o.log.Debugf("unknown message type %#x from %s", h.Type, addr)
	}
}

func sourcePortOf(addr net.Addr) uint16 {
	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0
	}
	p, _ := strconv.Atoi(portStr)
	return uint16(p)
}

func splitHost(addr net.Addr) (string, error) {
	host, _, err := net.SplitHostPort(addr.String())
	return host, err
}

// send encodes and writes one datagram, stamping the shared monotonic
// seq_no (truncated to uint8 on the wire per §6.1) and bumping counters.
func (o *Orchestrator) send(addr net.Addr, typ uint8, payload []byte) {
	seq := uint8(atomic.AddUint32(&o.seq, 1))
	buf, err := wire.EncodeHeader(typ, seq, payload)
	if err != nil {
		o.log.Errorf("send: encode %#x: %v", typ, err)
		return
	}
	if _, err := o.conn.WriteTo(buf, addr); err != nil {
		o.log.Warnf("send: write %#x to %s: %v", typ, addr, err)
		return
	}
	o.messagesSent++
	if o.met != nil {
		o.met.MessagesSent.Inc()
	}
}

// endpointAddr rebuilds a net.Addr for a registered worker's (host,
// node_port) pair, since the node_port in REGISTER may differ from the
// UDP source port of the datagram that carried it.
func endpointAddr(host string, port uint16) (net.Addr, error) {
	return net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(int(port))))
}

// Stats returns the run's current counters for the completion report.
func (o *Orchestrator) Stats() Stats {
	s := Stats{
		TotalHandovers:   o.router.TotalHandovers(),
		MessagesSent:     o.messagesSent,
		MessagesReceived: o.messagesReceived,
	}
	for i := 0; i < registry.MaxNodes; i++ {
		if w, ok := o.reg.ByIndex(i); ok {
			s.FragmentsReceived[i] = w.FragmentsReceived
		}
	}
	return s
}
