package wish

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// KeyResolver maps a keysym name to a keycode. Unknown names resolve to 0.
type KeyResolver interface {
	Keycode(name string) uint8
}

type xmlDocument struct {
	XMLName      xml.Name         `xml:"ginn"`
	Global       *xmlScope        `xml:"global"`
	Applications []xmlApplication `xml:"applications>application"`
}

type xmlScope struct {
	Wishes []xmlWish `xml:"wish"`
}

type xmlApplication struct {
	Name   string    `xml:"name,attr"`
	Wishes []xmlWish `xml:"wish"`
}

type xmlWish struct {
	Gesture string      `xml:"gesture,attr"`
	Fingers string      `xml:"fingers,attr"`
	Actions []xmlAction `xml:"action"`
}

type xmlAction struct {
	Name    string      `xml:"name,attr"`
	When    string      `xml:"when,attr"`
	Trigger *xmlTrigger `xml:"trigger"`
	Key     *xmlTarget  `xml:"key"`
	Button  *xmlTarget  `xml:"button"`
}

type xmlTrigger struct {
	Prop       string `xml:"prop,attr"`
	Min        string `xml:"min,attr"`
	Max        string `xml:"max,attr"`
	Accumulate string `xml:"accumulate,attr"`
}

type xmlTarget struct {
	Modifier1 string `xml:"modifier1,attr"`
	Modifier2 string `xml:"modifier2,attr"`
	Modifier3 string `xml:"modifier3,attr"`
	Value     string `xml:",chardata"`
}

// ParseXML parses one wish document into a table. Any malformed or invalid
// wish rejects the whole document.
func ParseXML(text []byte, keys KeyResolver) (Table, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(text, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse wishes: %w", err)
	}

	table := Table{}
	if doc.Global != nil {
		if err := addWishes(table, GlobalKey, doc.Global.Wishes, keys); err != nil {
			return nil, fmt.Errorf("global: %w", err)
		}
	}
	for _, app := range doc.Applications {
		name := strings.TrimSpace(app.Name)
		if name == "" {
			return nil, fmt.Errorf("application without a name")
		}
		if err := addWishes(table, name, app.Wishes, keys); err != nil {
			return nil, fmt.Errorf("application %q: %w", name, err)
		}
	}
	return table, nil
}

func addWishes(table Table, app string, wishes []xmlWish, keys KeyResolver) error {
	for _, xw := range wishes {
		kind, err := ParseKind(xw.Gesture)
		if err != nil {
			return err
		}
		touches, err := strconv.Atoi(strings.TrimSpace(xw.Fingers))
		if err != nil {
			return fmt.Errorf("%s gesture: invalid fingers %q", kind, xw.Fingers)
		}
		gesture := GestureType{Kind: kind, Touches: touches}
		if len(xw.Actions) == 0 {
			return fmt.Errorf("%s gesture has no action", gesture)
		}
		for _, xa := range xw.Actions {
			w, err := buildWish(gesture, xa, keys)
			if err != nil {
				if xa.Name != "" {
					return fmt.Errorf("action %q: %w", xa.Name, err)
				}
				return err
			}
			table.Put(app, w)
		}
	}
	return nil
}

func buildWish(gesture GestureType, xa xmlAction, keys KeyResolver) (*Wish, error) {
	phase, err := ParsePhase(xa.When)
	if err != nil {
		return nil, err
	}
	if xa.Trigger == nil {
		return nil, fmt.Errorf("missing trigger")
	}
	min, err := parseBound(xa.Trigger.Min)
	if err != nil {
		return nil, fmt.Errorf("trigger min: %w", err)
	}
	max, err := parseBound(xa.Trigger.Max)
	if err != nil {
		return nil, fmt.Errorf("trigger max: %w", err)
	}
	accumulate := false
	if s := strings.TrimSpace(xa.Trigger.Accumulate); s != "" {
		accumulate, err = strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("trigger accumulate: invalid value %q", s)
		}
	}
	action, err := buildAction(xa, keys)
	if err != nil {
		return nil, err
	}

	w := &Wish{
		Gesture:    gesture,
		Phase:      phase,
		Property:   strings.TrimSpace(xa.Trigger.Prop),
		Min:        min,
		Max:        max,
		Accumulate: accumulate,
		Action:     action,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func parseBound(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func buildAction(xa xmlAction, keys KeyResolver) (Action, error) {
	switch {
	case xa.Key != nil && xa.Button != nil:
		return Action{}, fmt.Errorf("action has both key and button")
	case xa.Key != nil:
		name := strings.TrimSpace(xa.Key.Value)
		if name == "" {
			return Action{}, fmt.Errorf("empty key")
		}
		return KeyAction(keys.Keycode(name), modifierCodes(xa.Key, keys)...), nil
	case xa.Button != nil:
		s := strings.TrimSpace(xa.Button.Value)
		button, err := strconv.ParseUint(s, 10, 8)
		if err != nil || button == 0 {
			return Action{}, fmt.Errorf("invalid button %q", s)
		}
		return ButtonAction(uint8(button), modifierCodes(xa.Button, keys)...), nil
	default:
		return Action{}, fmt.Errorf("action needs a key or button")
	}
}

func modifierCodes(t *xmlTarget, keys KeyResolver) []uint8 {
	var mods []uint8
	for _, name := range []string{t.Modifier1, t.Modifier2, t.Modifier3} {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		mods = append(mods, keys.Keycode(name))
	}
	return mods
}
