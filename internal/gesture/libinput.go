package gesture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/1broseidon/ginn/internal/apps"
	"github.com/1broseidon/ginn/internal/wish"
)

// WindowResolver names the window a gesture starting now applies to.
type WindowResolver func() apps.WindowID

type LibinputConfig struct {
	Command string
	Device  string
}

// Libinput reads touchpad gestures from `libinput debug-events`.
type Libinput struct {
	cfg     LibinputConfig
	resolve WindowResolver
	subs    *Subscriptions
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLibinput(cfg LibinputConfig, resolve WindowResolver, logger *slog.Logger) *Libinput {
	if cfg.Command == "" {
		cfg.Command = "libinput"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Libinput{
		cfg:     cfg,
		resolve: resolve,
		subs:    NewSubscriptions(),
		logger:  logger,
	}
}

func (l *Libinput) Start(obs Observer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return fmt.Errorf("libinput channel already started")
	}

	args := []string{"debug-events"}
	if l.cfg.Device != "" {
		args = append(args, "--device", l.cfg.Device)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, l.cfg.Command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to open libinput output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start %s: %w", l.cfg.Command, err)
	}
	l.cancel = cancel
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		if obs.Initialized != nil {
			obs.Initialized()
		}
		l.read(stdout, obs)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			l.logger.Error("libinput exited", "error", err)
		}
	}()
	return nil
}

func (l *Libinput) read(r io.Reader, obs Observer) {
	tr := &translator{resolve: l.resolve}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rec, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		for _, ev := range tr.translate(rec) {
			if !l.subs.Wants(ev.Window, ev.Gesture) {
				continue
			}
			if obs.Event != nil {
				obs.Event(ev)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		l.logger.Warn("libinput read failed", "error", err)
	}
}

func (l *Libinput) Subscribe(window apps.WindowID, w *wish.Wish) (Subscription, error) {
	return l.subs.Add(window, w.Gesture), nil
}

func (l *Libinput) Close() error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

type record struct {
	gesture   string // SWIPE, PINCH or HOLD
	stage     string // BEGIN, UPDATE or END
	time      float64
	fingers   int
	values    []float64
	cancelled bool
}

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// parseLine decodes one gesture line of libinput debug-events, e.g.
//
//	event7   GESTURE_PINCH_UPDATE +5.120s	2  0.36/-0.73 ( 0.94/-1.88 unaccelerated)  1.01 @  0.52
func parseLine(line string) (record, bool) {
	fields := strings.Fields(line)
	idx := -1
	for i, f := range fields {
		if strings.HasPrefix(f, "GESTURE_") {
			idx = i
			break
		}
	}
	if idx < 0 {
		return record{}, false
	}

	parts := strings.Split(strings.TrimPrefix(fields[idx], "GESTURE_"), "_")
	if len(parts) != 2 {
		return record{}, false
	}
	rec := record{gesture: parts[0], stage: parts[1]}

	rest := fields[idx+1:]
	if len(rest) > 0 && strings.HasSuffix(rest[0], "s") {
		t, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimPrefix(rest[0], "+"), "s"), 64)
		if err == nil {
			rec.time = t
			rest = rest[1:]
		}
	}
	if len(rest) == 0 {
		return record{}, false
	}
	fingers, err := strconv.Atoi(rest[0])
	if err != nil {
		return record{}, false
	}
	rec.fingers = fingers

	tail := strings.Join(rest[1:], " ")
	rec.cancelled = strings.Contains(tail, "cancelled")
	for _, m := range numberPattern.FindAllString(tail, -1) {
		v, err := strconv.ParseFloat(m, 64)
		if err == nil {
			rec.values = append(rec.values, v)
		}
	}
	return rec, true
}

// translator turns libinput records into window-scoped events. State covers
// one gesture at a time, as libinput never interleaves them on a device.
type translator struct {
	resolve WindowResolver
	window  apps.WindowID
	begin   float64
	last    float64
	scale   float64
	angle   float64
}

func (t *translator) translate(rec record) []Event {
	if rec.stage == "BEGIN" {
		t.window = 0
		if t.resolve != nil {
			t.window = t.resolve()
		}
		t.begin, t.last = rec.time, rec.time
		t.scale, t.angle = 1, 0
	}
	if t.window == 0 {
		return nil
	}

	phase, ok := map[string]wish.Phase{
		"BEGIN":  wish.PhaseStart,
		"UPDATE": wish.PhaseUpdate,
		"END":    wish.PhaseFinish,
	}[rec.stage]
	if !ok {
		return nil
	}
	dt := rec.time - t.last
	t.last = rec.time

	event := func(kind wish.Kind, attrs map[string]float64) Event {
		return Event{
			Window:  t.window,
			Phase:   phase,
			Gesture: wish.GestureType{Kind: kind, Touches: rec.fingers},
			Attrs:   attrs,
		}
	}

	switch rec.gesture {
	case "SWIPE":
		attrs := map[string]float64{"delta x": 0, "delta y": 0}
		if phase == wish.PhaseUpdate && len(rec.values) >= 2 {
			dx, dy := rec.values[0], rec.values[1]
			attrs["delta x"], attrs["delta y"] = dx, dy
			attrs["velocity x"], attrs["velocity y"] = rate(dx, dt), rate(dy, dt)
		}
		return []Event{event(wish.KindDrag, attrs)}

	case "PINCH":
		pinch := map[string]float64{"radius": t.scale * 100, "radius delta": 0}
		rotate := map[string]float64{"angle": t.angle, "angle delta": 0}
		if phase == wish.PhaseUpdate && len(rec.values) >= 6 {
			scale, angleDelta := rec.values[4], rec.values[5]
			radiusDelta := (scale - t.scale) * 100
			t.scale = scale
			t.angle += angleDelta
			pinch["radius"], pinch["radius delta"] = scale*100, radiusDelta
			pinch["radial velocity"] = rate(radiusDelta, dt)
			rotate["angle"], rotate["angle delta"] = t.angle, angleDelta
			rotate["angular velocity"] = rate(angleDelta, dt)
		}
		return []Event{event(wish.KindPinch, pinch), event(wish.KindRotate, rotate)}

	case "HOLD":
		attrs := map[string]float64{}
		switch {
		case phase == wish.PhaseStart:
			attrs["tap time"] = 0
		case phase == wish.PhaseFinish && !rec.cancelled:
			attrs["tap time"] = (rec.time - t.begin) * 1000
		}
		return []Event{event(wish.KindTap, attrs)}
	}
	return nil
}

func rate(delta, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return delta / dt
}
