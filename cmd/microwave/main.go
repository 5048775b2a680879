// Command microwave runs the microwave oven controller. Panel buttons and the
// door switch come from GPIO or console commands; the power tube, light and
// display are driven from the control core, and every change is published to
// MQTT and the HTTP status page.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sweeney/microwave/internal/clock"
	"github.com/sweeney/microwave/internal/config"
	"github.com/sweeney/microwave/internal/device"
	"github.com/sweeney/microwave/internal/gpio"
	"github.com/sweeney/microwave/internal/logger"
	"github.com/sweeney/microwave/internal/mqtt"
	"github.com/sweeney/microwave/internal/oven"
	"github.com/sweeney/microwave/internal/status"
	"github.com/sweeney/microwave/internal/web"
)

// Queue sizes between the oven (which must never block) and the run loop.
const (
	lineQueue  = 256
	eventQueue = 256
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(cfg.LogLevel, os.Stderr)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalw("fatal", "error", err)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctl := newControls()

	var tubeSw, lightSw device.Switch
	if cfg.GPIO.Enabled {
		board, err := gpio.NewRealBoard(cfg.GPIO.Chip, cfg.GPIO.Pins(), cfg.GPIO.Debounce, ctl.inputs(), log)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer func() {
			if err := board.Close(); err != nil {
				log.Errorw("gpio close", "error", err)
			}
		}()
		tubeSw, lightSw = board.TubeSwitch(), board.LightSwitch()
	}

	a := newApp(ctl, os.Stdout, clock.New(clock.WithInterval(cfg.Tick)), tubeSw, lightSw, log)

	// Initialize MQTT
	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.NopPublisher{}
	if cfg.Broker != "" {
		publisher = mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID, log)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		LogLevel:    cfg.LogLevel,
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTP,
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		TickMs:      cfg.Tick.Milliseconds(),
		GPIO:        cfg.GPIO.Enabled,
		Console:     cfg.Console,
	})
	tracker.SetOven(a.oven.Status())

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warnw("failed to publish startup event", "error", err)
	}

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Infow("http status server listening", "addr", cfg.HTTP)
	}

	var commands <-chan command
	if cfg.Console {
		ch := make(chan command)
		go readCommands(os.Stdin, ch, os.Stderr, log)
		commands = ch
	}

	var heartbeat <-chan time.Time
	if cfg.Heartbeat > 0 {
		hb := time.NewTicker(cfg.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log.Infow("started",
		"tick", cfg.Tick, "heartbeat", cfg.Heartbeat, "broker", cfg.Broker,
		"http", cfg.HTTP, "gpio", cfg.GPIO.Enabled, "console", cfg.Console, "config", cfg.File)

	return runLoop(a, publisher, publisher, tracker, log, time.Now, commands, heartbeat, sigCh)
}

// controls are the panel inputs, driven by GPIO edges or console commands.
type controls struct {
	power *device.Button
	time  *device.Button
	start *device.Button
	door  *device.Door
}

func newControls() controls {
	return controls{
		power: device.NewButton("power"),
		time:  device.NewButton("time"),
		start: device.NewButton("start-cancel"),
		door:  device.NewDoor(),
	}
}

func (c controls) inputs() gpio.Inputs {
	return gpio.Inputs{Power: c.power, Time: c.time, StartCancel: c.start, Door: c.door}
}

func (c controls) apply(cmd command) {
	switch cmd {
	case cmdPower:
		c.power.Press()
	case cmdTime:
		c.time.Press()
	case cmdStart:
		c.start.Press()
	case cmdOpen:
		c.door.Open()
	case cmdClose:
		c.door.Close()
	}
}

// app is the wired control core plus the queues it feeds.
type app struct {
	controls controls
	oven     *oven.Oven
	lines    chan mqtt.OutputLine
	events   chan oven.Event
}

// newApp wires the devices into an oven. The output log goes to stdout and,
// through a queue, to MQTT. Full queues drop rather than stall the oven.
func newApp(ctl controls, stdout io.Writer, clk oven.Clock, tubeSw, lightSw device.Switch, log *logger.Logger) *app {
	a := &app{
		controls: ctl,
		lines:    make(chan mqtt.OutputLine, lineQueue),
		events:   make(chan oven.Event, eventQueue),
	}

	out := device.MultiOutput(
		device.NewWriterOutput(stdout),
		device.OutputFunc(func(line string) {
			select {
			case a.lines <- mqtt.OutputLine{Timestamp: time.Now(), Line: line}:
			default:
				log.Warnw("output queue full, line not published", "line", line)
			}
		}),
	)

	a.oven = oven.New(oven.Config{
		PowerButton:       ctl.power,
		TimeButton:        ctl.time,
		StartCancelButton: ctl.start,
		Door:              ctl.door,
		Clock:             clk,
		Tube:              device.NewPowerTube(tubeSw),
		Display:           device.NewDisplay(out),
		Light:             device.NewLight(out, lightSw),
		Output:            out,
	},
		oven.WithLogger(log),
		oven.WithEventHandler(func(ev oven.Event) {
			select {
			case a.events <- ev:
			default:
				log.Warnw("event queue full, event dropped", "kind", ev.Kind)
			}
		}),
	)
	return a
}

func runLoop(a *app, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, log *logger.Logger, now func() time.Time, commands <-chan command, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	refreshMQTT := func() {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	publishEvent := func(ev oven.Event) {
		tracker.Record(ev)
		if ev.Kind == oven.EventTick {
			return
		}
		log.Infow("oven event", "kind", ev.Kind, "state", ev.Status.State, "cooker", ev.Status.Cooker, "reason", ev.Reason)
		if err := publisher.PublishEvent(ev); err != nil {
			log.Warnw("publish event failed", "kind", ev.Kind, "error", err)
		}
	}

	publishLine := func(line mqtt.OutputLine) {
		if err := publisher.PublishLine(line); err != nil {
			log.Warnw("publish output failed", "error", err)
		}
	}

	shutdown := func(reason string) error {
		a.oven.Shutdown()

		// Flush whatever the oven queued, including the cancelled cycle.
		for drained := false; !drained; {
			select {
			case line := <-a.lines:
				publishLine(line)
			case ev := <-a.events:
				publishEvent(ev)
			default:
				drained = true
			}
		}

		refreshMQTT()
		snap := tracker.Snapshot()
		event := mqtt.SystemEvent{
			Timestamp:  now(),
			Event:      "SHUTDOWN",
			Reason:     reason,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
		}
		if err := publisher.PublishSystem(event); err != nil {
			log.Warnw("failed to publish shutdown event", "error", err)
		} else {
			log.Infow("published shutdown event", "reason", reason)
		}
		return nil
	}

	for {
		select {
		case s := <-sig:
			log.Infow("received signal, shutting down", "signal", s.String())
			return shutdown(signalName(s))

		case cmd, ok := <-commands:
			if !ok {
				log.Infow("console closed")
				commands = nil
				continue
			}
			if cmd == cmdQuit {
				log.Infow("quit requested, shutting down")
				return shutdown("QUIT")
			}
			log.Debugw("console command", "command", cmd)
			a.controls.apply(cmd)

		case line := <-a.lines:
			publishLine(line)

		case ev := <-a.events:
			publishEvent(ev)
			refreshMQTT()

		case <-heartbeat:
			refreshMQTT()
			snap := tracker.Snapshot()
			log.Infow("heartbeat",
				"uptime", snap.Uptime().Truncate(time.Second), "state", snap.Oven.State,
				"started", snap.Counts.Started, "completed", snap.Counts.Completed, "cancelled", snap.Counts.Cancelled)
			hb := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := publisher.PublishSystem(hb); err != nil {
				log.Warnw("heartbeat publish error", "error", err)
			}
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
