package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/microwave/internal/clock"
	"github.com/sweeney/microwave/internal/logger"
	"github.com/sweeney/microwave/internal/logic"
	"github.com/sweeney/microwave/internal/mqtt"
	"github.com/sweeney/microwave/internal/oven"
	"github.com/sweeney/microwave/internal/status"
)

// syncBuffer is a bytes.Buffer safe for the clock goroutine to write to.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	app       *app
	pub       *mqtt.FakePublisher
	tracker   *status.Tracker
	stdout    *syncBuffer
	commands  chan command
	heartbeat chan time.Time
	sig       chan os.Signal
	done      chan error
}

func fixedNow() time.Time {
	return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

// startLoop wires an app with a real countdown clock and runs the loop.
func startLoop(t *testing.T, tick time.Duration, pub *mqtt.FakePublisher) *harness {
	t.Helper()
	h := &harness{
		pub:       pub,
		tracker:   status.NewTracker(fixedNow(), status.Config{TickMs: tick.Milliseconds()}),
		stdout:    &syncBuffer{},
		commands:  make(chan command),
		heartbeat: make(chan time.Time),
		sig:       make(chan os.Signal, 1),
		done:      make(chan error, 1),
	}
	h.app = newApp(newControls(), h.stdout, clock.New(clock.WithInterval(tick)), nil, nil, logger.Nop())

	go func() {
		h.done <- runLoop(h.app, pub, pub, h.tracker, logger.Nop(), fixedNow, h.commands, h.heartbeat, h.sig)
	}()
	return h
}

func (h *harness) send(cmds ...command) {
	for _, c := range cmds {
		h.commands <- c
	}
}

func (h *harness) waitFor(t *testing.T, what string, cond func(status.Snapshot) bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond(h.tracker.Snapshot()) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last snapshot %+v", what, h.tracker.Snapshot())
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("run loop did not return")
		return nil
	}
}

func (h *harness) quit(t *testing.T) {
	t.Helper()
	h.send(cmdQuit)
	if err := h.wait(t); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func eventKinds(events []oven.Event) []oven.EventKind {
	var out []oven.EventKind
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func lineTexts(lines []mqtt.OutputLine) []string {
	var out []string
	for _, l := range lines {
		out = append(out, l.Line)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func cycleEnds(events []oven.Event) []logic.EndReason {
	var out []logic.EndReason
	for _, ev := range events {
		if ev.Kind == oven.EventCycleEnded {
			out = append(out, ev.Reason)
		}
	}
	return out
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    command
		wantOK  bool
		wantErr bool
	}{
		{"power", cmdPower, true, false},
		{"p", cmdPower, true, false},
		{"  T  ", cmdTime, true, false},
		{"start", cmdStart, true, false},
		{"s", cmdStart, true, false},
		{"cancel", cmdStart, true, false},
		{"OPEN", cmdOpen, true, false},
		{"c", cmdClose, true, false},
		{"q", cmdQuit, true, false},
		{"", "", false, false},
		{"   ", "", false, false},
		{"defrost", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok, err := parseCommand(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestReadCommands(t *testing.T) {
	out := make(chan command, 10)
	var help bytes.Buffer

	readCommands(strings.NewReader("p\n\nT\nbogus\nstart\nquit\n"), out, &help, logger.Nop())

	var got []command
	for c := range out {
		got = append(got, c)
	}
	want := []command{cmdPower, cmdTime, cmdStart, cmdQuit}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if !strings.Contains(help.String(), "commands:") {
		t.Errorf("expected help after unknown command, got %q", help.String())
	}
}

func TestNewAppWritesOutputAndQueues(t *testing.T) {
	var stdout bytes.Buffer
	a := newApp(newControls(), &stdout, clock.New(), nil, nil, logger.Nop())

	a.controls.apply(cmdPower)

	if got := stdout.String(); got != "Display shows: 50 W\n" {
		t.Errorf("stdout: got %q", got)
	}
	if len(a.lines) != 1 {
		t.Errorf("expected 1 queued line, got %d", len(a.lines))
	}
	if len(a.events) != 1 {
		t.Errorf("expected 1 queued event, got %d", len(a.events))
	}
}

func TestNewAppDropsWhenQueuesFull(t *testing.T) {
	var stdout bytes.Buffer
	a := newApp(newControls(), &stdout, clock.New(), nil, nil, logger.Nop())

	for i := 0; i < lineQueue+10; i++ {
		a.controls.apply(cmdPower)
	}
	if len(a.lines) != lineQueue {
		t.Errorf("line queue: got %d, want %d", len(a.lines), lineQueue)
	}
	if n := strings.Count(stdout.String(), "\n"); n != lineQueue+10 {
		t.Errorf("stdout should receive every line, got %d", n)
	}
}

func TestRunLoopCookCycleCompletes(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	h := startLoop(t, time.Millisecond, pub)

	h.send(cmdPower, cmdTime, cmdStart)
	h.waitFor(t, "cycle completion", func(s status.Snapshot) bool { return s.Counts.Completed == 1 })
	h.quit(t)

	lines := lineTexts(pub.Lines)
	for _, want := range []string{
		"Display shows: 50 W",
		"Display shows: 01:00",
		"Light is turned on",
		"PowerTube works with 50",
		"Display shows: 00:59",
		"Display shows: 00:01",
		"PowerTube turned off",
		"Display cleared",
		"Light is turned off",
	} {
		if !contains(lines, want) {
			t.Errorf("published lines missing %q", want)
		}
	}
	if contains(lines, "Display shows: 00:00") {
		t.Error("expiry should not be shown as a 00:00 tick")
	}
	if !strings.Contains(h.stdout.String(), "PowerTube works with 50\n") {
		t.Error("stdout missing tube line")
	}

	for _, ev := range pub.Events {
		if ev.Kind == oven.EventTick {
			t.Fatal("tick events must not be published")
		}
	}
	if got := cycleEnds(pub.Events); len(got) != 1 || got[0] != logic.EndCompleted {
		t.Errorf("cycle ends: got %v, want [COMPLETED]", got)
	}

	last := pub.SystemEvents[len(pub.SystemEvents)-1]
	if last.Event != "SHUTDOWN" || last.Reason != "QUIT" || !last.Retained {
		t.Errorf("unexpected shutdown event: %+v", last)
	}
	if snap := h.tracker.Snapshot(); snap.Oven.State != logic.StateReady || snap.Oven.Cooker != logic.CookerIdle {
		t.Errorf("expected READY/IDLE, got %s/%s", snap.Oven.State, snap.Oven.Cooker)
	}
}

func TestRunLoopDoorOpenCancelsCycle(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	h := startLoop(t, time.Hour, pub)

	h.send(cmdPower, cmdPower, cmdTime, cmdStart)
	h.waitFor(t, "cycle start", func(s status.Snapshot) bool { return s.Counts.Started == 1 })
	h.send(cmdOpen)
	h.waitFor(t, "cycle cancel", func(s status.Snapshot) bool { return s.Counts.Cancelled == 1 })
	h.quit(t)

	if got := cycleEnds(pub.Events); len(got) != 1 || got[0] != logic.EndCancelled {
		t.Errorf("cycle ends: got %v, want [CANCELLED]", got)
	}
	var started oven.Event
	for _, ev := range pub.Events {
		if ev.Kind == oven.EventCycleStarted {
			started = ev
		}
	}
	if started.Cycle.Power != 100 || started.Cycle.Seconds != 60 || started.Cycle.ID == "" {
		t.Errorf("unexpected started cycle: %+v", started.Cycle)
	}

	last := pub.Events[len(pub.Events)-1]
	if last.Kind != oven.EventState || last.Status.State != logic.StateDoorOpen {
		t.Errorf("expected final DOOR_OPEN state, got %+v", last)
	}
	if !contains(lineTexts(pub.Lines), "PowerTube turned off") {
		t.Error("expected tube off line")
	}
}

func TestRunLoopSignalStopsActiveCycle(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	h := startLoop(t, time.Hour, pub)

	h.send(cmdPower, cmdTime, cmdStart)
	h.waitFor(t, "cycle start", func(s status.Snapshot) bool { return s.Counts.Started == 1 })

	h.sig <- syscall.SIGTERM
	if err := h.wait(t); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if got := cycleEnds(pub.Events); len(got) != 1 || got[0] != logic.EndCancelled {
		t.Errorf("shutdown should cancel the cycle, got %v", got)
	}
	if !strings.Contains(h.stdout.String(), "PowerTube turned off") {
		t.Error("tube should be turned off on shutdown")
	}

	last := pub.SystemEvents[len(pub.SystemEvents)-1]
	if last.Event != "SHUTDOWN" || last.Reason != "SIGTERM" {
		t.Errorf("unexpected shutdown event: %+v", last)
	}
	if !strings.Contains(string(last.RawPayload), `"cancelled":1`) {
		t.Errorf("shutdown payload should include the cancelled cycle: %s", last.RawPayload)
	}
	for _, want := range []string{`"state":"READY"`, `"cooker":"IDLE"`} {
		if !strings.Contains(string(last.RawPayload), want) {
			t.Errorf("shutdown payload should contain %s: %s", want, last.RawPayload)
		}
	}
	if !strings.Contains(h.stdout.String(), "Light is turned off") {
		t.Error("light should be turned off on shutdown")
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	h := startLoop(t, time.Hour, pub)

	h.sig <- syscall.SIGINT
	if err := h.wait(t); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	ev := pub.SystemEvents[0]
	if ev.Event != "SHUTDOWN" || ev.Reason != "SIGINT" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if !ev.Timestamp.Equal(fixedNow()) {
		t.Errorf("timestamp: got %v", ev.Timestamp)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.Connected = true
	h := startLoop(t, time.Hour, pub)

	h.send(cmdPower)
	h.waitFor(t, "setting power", func(s status.Snapshot) bool { return s.Oven.State == logic.StateSettingPower })
	h.heartbeat <- fixedNow()
	h.quit(t)

	var hb *mqtt.SystemEvent
	for i := range pub.SystemEvents {
		if pub.SystemEvents[i].Event == "HEARTBEAT" {
			hb = &pub.SystemEvents[i]
		}
	}
	if hb == nil {
		t.Fatal("expected a heartbeat event")
	}
	if hb.Retained {
		t.Error("heartbeat should not be retained")
	}
	payload := string(hb.RawPayload)
	for _, want := range []string{`"event":"HEARTBEAT"`, `"connected":true`, `"state":"SETTING_POWER"`} {
		if !strings.Contains(payload, want) {
			t.Errorf("heartbeat payload missing %s: %s", want, payload)
		}
	}
}

func TestRunLoopPublishErrorNotFatal(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.PublishError = errors.New("broker down")
	h := startLoop(t, time.Hour, pub)

	h.send(cmdPower, cmdTime)
	h.waitFor(t, "setting time", func(s status.Snapshot) bool { return s.Oven.State == logic.StateSettingTime })
	h.quit(t)

	if len(pub.Lines) != 0 || len(pub.Events) != 0 {
		t.Errorf("nothing should be recorded on failure")
	}
	if len(pub.SystemEvents) != 1 || pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("shutdown should still be published: %+v", pub.SystemEvents)
	}
}

func TestRunLoopConsoleClosed(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	h := startLoop(t, time.Hour, pub)

	close(h.commands)
	h.sig <- syscall.SIGTERM
	if err := h.wait(t); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(pub.SystemEvents) != 1 {
		t.Errorf("expected shutdown event, got %d system events", len(pub.SystemEvents))
	}
}

func TestRunLoopStateEventsPublished(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	h := startLoop(t, time.Hour, pub)

	// The second close is a no-op: the door does not notify.
	h.send(cmdOpen, cmdClose, cmdClose)
	h.quit(t)

	kinds := eventKinds(pub.Events)
	if len(kinds) != 2 || kinds[0] != oven.EventState || kinds[1] != oven.EventState {
		t.Errorf("expected two STATE events, got %v", kinds)
	}
	if got := pub.Topic(mqtt.TopicState); len(got) != 2 || !got[0].Retained {
		t.Errorf("expected two retained state messages, got %+v", got)
	}
}

func TestSignalName(t *testing.T) {
	if signalName(syscall.SIGINT) != "SIGINT" || signalName(syscall.SIGTERM) != "SIGTERM" {
		t.Error("unexpected signal names")
	}
	if signalName(syscall.SIGHUP) != "UNKNOWN" {
		t.Error("expected UNKNOWN for SIGHUP")
	}
}
