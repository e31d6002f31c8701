package keymap

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Xmodmap builds its table from `xmodmap -pke` output.
type Xmodmap struct {
	*Static
	command string
	timeout time.Duration
	logger  *slog.Logger
}

func NewXmodmap(logger *slog.Logger) *Xmodmap {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Xmodmap{
		Static:  NewStatic(nil),
		command: "xmodmap",
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Start checks that xmodmap exists, then loads the table in the background.
// A failed load leaves every name unresolved but still reports ready.
func (x *Xmodmap) Start(ready func()) error {
	path, err := exec.LookPath(x.command)
	if err != nil {
		return fmt.Errorf("xmodmap not found: %w", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), x.timeout)
		defer cancel()

		out, err := exec.CommandContext(ctx, path, "-pke").Output()
		if err != nil {
			x.logger.Warn("xmodmap failed, keys will be unresolved", "error", err)
		} else {
			codes := ParseXmodmap(bytes.NewReader(out))
			x.replace(codes)
			x.logger.Debug("keymap loaded", "keysyms", len(codes))
		}
		if ready != nil {
			ready()
		}
	}()
	return nil
}

// ParseXmodmap reads lines of the form "keycode  24 = q Q q Q". The first
// keycode listing a keysym wins. Malformed lines are ignored.
func ParseXmodmap(r io.Reader) map[string]uint8 {
	codes := make(map[string]uint8)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lhs, rhs, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		fields := strings.Fields(lhs)
		if len(fields) != 2 || fields[0] != "keycode" {
			continue
		}
		code, err := strconv.ParseUint(fields[1], 10, 8)
		if err != nil || code == 0 {
			continue
		}
		for _, sym := range strings.Fields(rhs) {
			if _, seen := codes[sym]; !seen {
				codes[sym] = uint8(code)
			}
		}
	}
	return codes
}
