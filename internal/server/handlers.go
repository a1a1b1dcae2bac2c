package server

import (
	"net"

	"github.com/NVIDIA/lstile/internal/reassembler"
	"github.com/NVIDIA/lstile/internal/registry"
	"github.com/NVIDIA/lstile/internal/wire"
)

// handleRegister implements REGISTER -> CONFIG (spec §4.3, §4.4). It is
// idempotent per (addr, port), and the fourth successful registration
// injects the single START message into the starter worker.
func (o *Orchestrator) handleRegister(addr net.Addr, payload []byte) {
	m, err := wire.DecodeRegister(payload)
	if err != nil {
		o.log.Debugf("malformed REGISTER from %s: %v", addr, err)
		return
	}
	host, err := splitHost(addr)
	if err != nil {
		o.log.Debugf("REGISTER from unparseable addr %s: %v", addr, err)
		return
	}

	w, isNew, full := o.reg.Register(host, m.NodePort, CanvasWidth, CanvasHeight, reassembler.ExpectedFragmentsHeuristic())
	if full {
		o.log.Warnf("REGISTER from %s:%d dropped: four workers already registered", host, m.NodePort)
		return
	}
	o.router.Configure(w.Index)

	cfg := wire.Config{
		NodeID:   uint8(w.Index),
		StepSize: 2,
		Angle:    uint16(o.g.Angle),
		XMin:     w.Region.XMin,
		XMax:     w.Region.XMax,
		YMin:     w.Region.YMin,
		YMax:     w.Region.YMax,
	}
	o.send(addr, wire.TypeConfig, wire.EncodeConfig(cfg))

	if isNew {
		o.log.Infof("registered worker %d at %s:%d region=%+v", w.Index, host, m.NodePort, w.Region)
		if o.met != nil {
			o.met.WorkersRegistered.Set(float64(o.reg.Count()))
		}
	}
	if isNew && o.reg.Count() == registry.MaxNodes {
		o.injectStart()
	}
}

// injectStart sends the single START datagram to worker 2 once all four
// workers have registered (spec §4.3).
func (o *Orchestrator) injectStart() {
	w, ok := o.reg.ByIndex(starterWorker)
	if !ok {
		o.log.Errorf("injectStart: starter worker %d missing after fourth registration", starterWorker)
		return
	}
	dst, err := endpointAddr(w.Addr, w.Port)
	if err != nil {
		o.log.Errorf("injectStart: cannot resolve starter address: %v", err)
		return
	}
	start := wire.Start{
		StartX:     w.Region.XMin + 5,
		StartY:     w.Region.YMin + 5,
		StartAngle: 0,
		StringPos:  0,
	}
	o.send(dst, wire.TypeStart, wire.EncodeStart(start))
	o.log.Infof("all four workers registered; injected START into worker %d at %+v", starterWorker, start)
}

// handleRequestChunk implements REQUEST_CHUNK -> STRING_CHUNK (spec §4.2).
func (o *Orchestrator) handleRequestChunk(addr net.Addr, payload []byte) {
	m, err := wire.DecodeRequestChunk(payload)
	if err != nil {
		o.log.Debugf("malformed REQUEST_CHUNK from %s: %v", addr, err)
		return
	}
	chunk := o.serveChunk(m.Offset, m.MaxLen)
	o.send(addr, wire.TypeStringChunk, wire.EncodeStringChunk(chunk))
}

// handleHandover implements the routing decision of spec §4.4: forward
// verbatim with target_node_id overwritten, or mark the source Finished
// on a canvas exit.
func (o *Orchestrator) handleHandover(addr net.Addr, payload []byte) {
	m, err := wire.DecodeHandover(payload)
	if err != nil {
		o.log.Debugf("malformed HANDOVER from %s: %v", addr, err)
		return
	}
	host, err := splitHost(addr)
	if err != nil {
		return
	}
	src, ok := o.reg.Lookup(host, sourcePortOf(addr))
	if !ok {
		return
	}

	targetID, routable := o.router.Handover(src.Index, m.ExitDir)
	if !routable {
		o.reg.Finish(src.Index)
		o.log.Infof("worker %d exited the canvas via dir=%d; draw step finished", src.Index, m.ExitDir)
		return
	}

	target, ok := o.reg.ByIndex(targetID)
	if !ok {
		o.log.Warnf("HANDOVER from worker %d routes to unregistered worker %d", src.Index, targetID)
		return
	}
	dst, err := endpointAddr(target.Addr, target.Port)
	if err != nil {
		o.log.Warnf("HANDOVER: cannot resolve target %d address: %v", targetID, err)
		return
	}
	m.TargetNodeID = uint8(targetID)
	o.send(dst, wire.TypeHandover, wire.EncodeHandover(m))
	if o.met != nil {
		o.met.TotalHandovers.Inc()
	}
}

// handleDone implements the Configured -> Finished transition for a
// DONE datagram (spec §4.4). No reply is sent.
func (o *Orchestrator) handleDone(addr net.Addr, payload []byte) {
	m, err := wire.DecodeDone(payload)
	if err != nil {
		o.log.Debugf("malformed DONE from %s: %v", addr, err)
		return
	}
	o.reg.Finish(int(m.NodeID))
	o.router.Finish(int(m.NodeID))
	o.log.Infof("worker %d done, total_steps=%d", m.NodeID, m.TotalSteps)
}

// handleUpload implements the Upload Reassembler (spec §4.5) and, after
// every UPLOAD, checks the Completion Detector (spec §4.6).
func (o *Orchestrator) handleUpload(addr net.Addr, payload []byte) {
	m, err := wire.DecodeUpload(payload)
	if err != nil {
		o.log.Debugf("malformed UPLOAD from %s: %v", addr, err)
		return
	}
	o.re.Handle(o.reg, m)
	if o.met != nil {
		o.met.FragmentsReceived.Inc()
	}
	o.checkCompletion()
}

// handleInboundError logs an inbound ERROR datagram; it causes no state
// change (spec §7).
func (o *Orchestrator) handleInboundError(addr net.Addr, payload []byte) {
	m, err := wire.DecodeError(payload)
	if err != nil {
		return
	}
	o.log.Warnf("ERROR %#x from %s: %s", m.ErrorCode, addr, string(m.Message))
}
