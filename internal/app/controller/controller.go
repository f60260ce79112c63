// Package controller implements the Controller of §4.3: it owns the HSM
// instance and a single-threaded work queue, drains bus notifications from
// packets/thermo_sensors/pressure_sensors/weight_sensors into one HSM tick
// apiece, and publishes actuators/rocket_state when they change.
package controller

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/hsm"
	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
	"invictus2obc/internal/radio"
)

var tracer = otel.Tracer("invictus2obc/controller")

// Controller is the sole owner of the HSM object (§5 "Shared resources").
// Nothing outside this package may call Tick.
type Controller struct {
	bus     *bus.Bus
	machine *hsm.Machine
	link    radio.RadioLink
	cfg     *config.Config
	log     logger.Logger

	queue  chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	pending   model.Command
	ackFor    *radio.Packet // set when pending came from a decoded ground packet
	statusReq *radio.Packet // set when a STATUS_REQ is awaiting a reply

	metrics metrics
}

// New constructs a Controller and registers its bus listeners. link may be
// nil if ACK emission is not required (e.g. in tests exercising only the
// HSM-driving path).
func New(b *bus.Bus, machine *hsm.Machine, link radio.RadioLink, cfg *config.Config, log logger.Logger) *Controller {
	c := &Controller{
		bus:     b,
		machine: machine,
		link:    link,
		cfg:     cfg,
		log:     log,
		queue:   make(chan struct{}, config.WorkQueueDepth),
		metrics: newMetrics(),
	}

	_ = b.Listen(bus.Packets, c.onPacket)
	_ = b.Listen(bus.ThermoSensors, func(any) { c.enqueue() })
	_ = b.Listen(bus.PressureSensors, func(any) { c.enqueue() })
	_ = b.Listen(bus.WeightSensors, func(any) { c.enqueue() })

	return c
}

// onPacket latches the decoded command (if any) before enqueueing a tick.
// Latching happens synchronously here, outside the queue, so a saturated
// queue never loses a ground command — only the wake-up signal is
// droppable, not the command itself. A STATUS_REQ is latched the same way
// rather than answered inline: per §4.1 a bus listener must never block,
// and link.Send may do network I/O, so the reply is deferred to the next
// tick on the worker goroutine.
func (c *Controller) onPacket(v any) {
	p, ok := v.(radio.Packet)
	if !ok {
		return
	}

	cmd, ok := radio.ToCommand(p)
	if ok {
		c.mu.Lock()
		c.pending = cmd
		c.pending.ArrivedAt = time.Now()
		pkt := p
		c.ackFor = &pkt
		c.mu.Unlock()
	} else if p.CommandID == radio.CmdStatusReq {
		pkt := p
		c.mu.Lock()
		c.statusReq = &pkt
		c.mu.Unlock()
	}

	c.enqueue()
}

// enqueue wakes the worker. Non-blocking: per §4.1, a listener must never
// block, and a dropped wake is harmless here since the next successful
// wake still drains whatever is latched or newly published.
func (c *Controller) enqueue() {
	select {
	case c.queue <- struct{}{}:
	default:
		c.metrics.queueSaturated.Inc()
	}
}

// Start launches the single worker goroutine (§4.3 "single-threaded work
// queue").
func (c *Controller) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.run(runCtx)

	return nil
}

// Stop signals the worker to exit after any in-flight tick completes
// (§4.3 "in-flight work items complete").
func (c *Controller) Stop(context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	c.wg.Wait()

	return nil
}

func (c *Controller) run(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.queue:
			c.tick(ctx)
		}
	}
}

// tick is the single HSM evaluation of §4.3: assemble Input from the
// latest bus reads and the latched command, run one Machine.Tick,
// publish what changed, and emit the ACK for any ground command just
// consumed.
func (c *Controller) tick(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "controller.tick")
	defer span.End()

	start := time.Now()
	defer func() { c.metrics.tickDuration.Observe(time.Since(start).Seconds()) }()

	cmd, ackPkt, statusReq := c.takePending()

	in := hsm.Input{
		Sensors:   c.readSnapshot(),
		Navigator: c.readNavigator(),
		Command:   cmd,
	}

	res := c.machine.Tick(ctx, in)

	span.SetAttributes(
		attribute.Int("mission.main", int(res.Status.Main)),
		attribute.Int("mission.filling", int(res.Status.Filling)),
		attribute.Int("mission.flight", int(res.Status.Flight)),
		attribute.Bool("actuator_changed", res.ActuatorChanged),
		attribute.Bool("status_changed", res.StatusChanged),
	)

	if res.ActuatorChanged {
		if err := bus.Publish(c.bus, bus.Actuators, res.Actuators); err != nil {
			c.log.Warn().Err(err).Msg("actuators channel delivery saturated")
		}
	}

	if res.StatusChanged {
		if err := bus.Publish(c.bus, bus.RocketState, res.Status); err != nil {
			c.log.Warn().Err(err).Msg("rocket_state channel delivery saturated")
		}
	}

	if ackPkt != nil {
		c.sendAck(ctx, *ackPkt)
	}

	if statusReq != nil {
		c.replyStatus(ctx, *statusReq)
	}
}

// takePending atomically reads and clears the latched command, ACK target,
// and STATUS_REQ (§9 "Command latching"): the tick takes each once, before
// evaluation, so none re-fires on a later tick.
func (c *Controller) takePending() (model.Command, *radio.Packet, *radio.Packet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := c.pending
	ackPkt := c.ackFor
	statusReq := c.statusReq
	c.pending = model.Command{}
	c.ackFor = nil
	c.statusReq = nil

	return cmd, ackPkt, statusReq
}

func (c *Controller) readSnapshot() model.SensorSnapshot {
	thermo, _ := bus.Read[model.Thermocouples](c.bus, bus.ThermoSensors)
	pressure, _ := bus.Read[model.Pressures](c.bus, bus.PressureSensors)
	weight, _ := bus.Read[model.Loadcells](c.bus, bus.WeightSensors)

	return model.SensorSnapshot{Thermocouples: thermo, Pressures: pressure, Loadcells: weight}
}

func (c *Controller) readNavigator() model.NavigatorData {
	nav, _ := bus.Read[model.NavigatorData](c.bus, bus.NavigatorSensors)
	kalman, _ := bus.Read[model.KalmanOutputs](c.bus, bus.KalmanData)
	nav.Kalman = kalman

	return nav
}

// sendAck emits the SUPPLEMENTED ACK packet (original_source
// radio_commands.c/packets.c) for a ground command this tick consumed.
// Always accepted (status 0): an HSM guard rejection still means the
// command reached and was evaluated by the state machine, it just didn't
// produce a transition — §4.4's own failure semantics log that
// separately at debug level.
func (c *Controller) sendAck(ctx context.Context, p radio.Packet) {
	if c.link == nil {
		return
	}

	ack := radio.EncodeAck(c.cfg.Radio.SenderID, p.SenderID, p.CommandID, 0)

	if err := c.link.Send(ctx, ack.Encode()); err != nil {
		c.log.Warn().Err(err).Msg("ack send failed")
	}
}

// replyStatus answers a latched STATUS_REQ (§6). Run from tick, on the
// worker goroutine, never from the bus listener directly.
func (c *Controller) replyStatus(ctx context.Context, p radio.Packet) {
	if c.link == nil {
		return
	}

	snap := c.readSnapshot()
	actuators, _ := bus.Read[model.ActuatorVector](c.bus, bus.Actuators)
	nav := c.readNavigator()

	status := c.machine.Status()
	rep := radio.EncodeStatusRep(c.cfg.Radio.SenderID, p.SenderID, status, snap, actuators, nav)

	if err := c.link.Send(ctx, rep.Encode()); err != nil {
		c.log.Warn().Err(err).Msg("status reply send failed")
	}
}
