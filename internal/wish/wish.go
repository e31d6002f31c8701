package wish

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a gesture as reported by the gesture source.
type Kind int

const (
	KindUnspecified Kind = iota
	KindDrag
	KindPinch
	KindRotate
	KindTap
	KindEnvironment
	KindMeta
)

var kindNames = map[Kind]string{
	KindDrag:        "Drag",
	KindPinch:       "Pinch",
	KindRotate:      "Rotate",
	KindTap:         "Tap",
	KindEnvironment: "Environment",
	KindMeta:        "Meta",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unspecified"
}

// ParseKind parses a gesture kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	want := strings.TrimSpace(s)
	for kind, name := range kindNames {
		if strings.EqualFold(name, want) {
			return kind, nil
		}
	}
	return KindUnspecified, fmt.Errorf("unknown gesture %q", s)
}

// MaxTouches is the largest finger count a gesture may carry.
const MaxTouches = 5

// GestureType is a gesture kind combined with its finger count.
type GestureType struct {
	Kind    Kind
	Touches int
}

// Specified reports whether the type names a concrete gesture.
func (g GestureType) Specified() bool {
	return g.Kind != KindUnspecified
}

func (g GestureType) String() string {
	return g.Kind.String() + strconv.Itoa(g.Touches)
}

// Validate checks the finger count against the kind. Environment and meta
// gestures are not tied to a finger count and accept zero.
func (g GestureType) Validate() error {
	switch g.Kind {
	case KindDrag, KindPinch, KindRotate, KindTap:
		if g.Touches < 1 || g.Touches > MaxTouches {
			return fmt.Errorf("%s gesture needs 1-%d touches, got %d", g.Kind, MaxTouches, g.Touches)
		}
	case KindEnvironment, KindMeta:
		if g.Touches < 0 || g.Touches > MaxTouches {
			return fmt.Errorf("%s gesture needs 0-%d touches, got %d", g.Kind, MaxTouches, g.Touches)
		}
	default:
		return fmt.Errorf("gesture kind is required")
	}
	return nil
}

// Phase is the lifecycle stage of a gesture.
type Phase int

const (
	PhaseStart Phase = iota + 1
	PhaseUpdate
	PhaseFinish
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseUpdate:
		return "update"
	case PhaseFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// ParsePhase parses the "when" attribute of a wish action.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "begin":
		return PhaseStart, nil
	case "update":
		return PhaseUpdate, nil
	case "finish", "end":
		return PhaseFinish, nil
	default:
		return 0, fmt.Errorf("unknown phase %q", s)
	}
}

// Wish binds a gesture trigger to an action. Wishes are immutable once built.
type Wish struct {
	Gesture    GestureType
	Phase      Phase
	Property   string
	Min        float64
	Max        float64
	Accumulate bool
	Action     Action
}

// Name identifies the wish within a List. Two wishes on the same gesture
// and property share a name, so the later definition replaces the earlier.
func (w *Wish) Name() string {
	return Name(w.Gesture, w.Property)
}

// Name builds a wish name from its gesture and trigger property.
func Name(g GestureType, property string) string {
	return g.String() + property
}

// InRange reports whether v lies within the inclusive trigger range.
func (w *Wish) InRange(v float64) bool {
	return w.Min <= v && v <= w.Max
}

// Validate checks the structural invariants of a wish.
func (w *Wish) Validate() error {
	if err := w.Gesture.Validate(); err != nil {
		return err
	}
	switch w.Phase {
	case PhaseStart, PhaseUpdate, PhaseFinish:
	default:
		return fmt.Errorf("phase is required")
	}
	if strings.TrimSpace(w.Property) == "" {
		return fmt.Errorf("trigger property is required")
	}
	if w.Min > w.Max {
		return fmt.Errorf("trigger %q: min %g exceeds max %g", w.Property, w.Min, w.Max)
	}
	if w.Action.Empty() {
		return fmt.Errorf("action is required")
	}
	return nil
}

func (w *Wish) String() string {
	acc := ""
	if w.Accumulate {
		acc = " accumulate"
	}
	return fmt.Sprintf("%s on %s %s in [%g, %g]%s -> %s",
		w.Name(), w.Phase, w.Property, w.Min, w.Max, acc, w.Action)
}
