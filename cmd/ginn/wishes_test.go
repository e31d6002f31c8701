package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/ginn/internal/config"
	"github.com/1broseidon/ginn/internal/ipc"
)

const testWishes = `<ginn>
  <global>
    <wish gesture="Drag" fingers="3">
      <action name="back" when="update">
        <trigger prop="delta x" min="-400" max="-60" accumulate="true"/>
        <key modifier1="Alt_L">Left</key>
      </action>
    </wish>
  </global>
  <applications>
    <application name="evince">
      <wish gesture="Pinch" fingers="2">
        <action name="zoom in" when="update">
          <trigger prop="radius delta" min="20" max="80"/>
          <key modifier1="Control_L">plus</key>
        </action>
      </wish>
    </application>
  </applications>
</ginn>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCheckWishesReportsEachFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.xml", testWishes)
	bad := writeFile(t, dir, "bad.xml", `<ginn><global><wish gesture="Swirl" fingers="2"/></global></ginn>`)

	var out bytes.Buffer
	if err := checkWishes(&out, []string{good}); err != nil {
		t.Fatalf("checkWishes(good): %v", err)
	}
	if !strings.Contains(out.String(), "ok   "+good+" (2 apps, 2 wishes)") {
		t.Fatalf("output = %q", out.String())
	}

	out.Reset()
	err := checkWishes(&out, []string{good, bad, filepath.Join(dir, "missing.xml")})
	if err == nil || !strings.Contains(err.Error(), "2 of 3") {
		t.Fatalf("checkWishes error = %v", err)
	}
	if strings.Count(out.String(), "FAIL ") != 2 {
		t.Fatalf("output = %q", out.String())
	}
}

func TestListWishesMergesSources(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.xml", testWishes)
	second := writeFile(t, dir, "b.xml", `<ginn><global><wish gesture="Drag" fingers="3">
  <action name="back" when="update">
    <trigger prop="delta x" min="-500" max="-100"/>
    <key>Left</key>
  </action>
</wish></global></ginn>`)

	var out bytes.Buffer
	logger := newLogger(&bytes.Buffer{}, config.DefaultConfig())
	if err := listWishes(&out, []string{first, second}, logger); err != nil {
		t.Fatalf("listWishes: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "[-500, -100]") || strings.Contains(text, "[-400, -60]") {
		t.Fatalf("later source did not win:\n%s", text)
	}
	if !strings.Contains(text, "evince") || !strings.Contains(text, "Pinch2radius delta") {
		t.Fatalf("evince wish missing:\n%s", text)
	}
}

func TestListWishesNeedsOneSource(t *testing.T) {
	logger := newLogger(&bytes.Buffer{}, config.DefaultConfig())
	if err := listWishes(&bytes.Buffer{}, []string{filepath.Join(t.TempDir(), "none.xml")}, logger); err == nil {
		t.Fatalf("expected error without loadable sources")
	}
}

func TestPrintWatches(t *testing.T) {
	watches := []ipc.WatchInfo{{WindowID: 0x3a00007, AppID: "evince", Title: "paper.pdf", Rule: "Pinch2radius delta"}}

	var plain bytes.Buffer
	printWatches(&plain, watches, false)
	if got := plain.String(); got != "0x03a00007\tevince\tPinch2radius delta\t0.00\n" {
		t.Fatalf("plain output = %q", got)
	}

	var table bytes.Buffer
	printWatches(&table, watches, true)
	if !strings.HasPrefix(table.String(), "WINDOW") || !strings.Contains(table.String(), "paper.pdf") {
		t.Fatalf("table output = %q", table.String())
	}

	table.Reset()
	printWatches(&table, nil, true)
	if table.String() != "no watches\n" {
		t.Fatalf("empty output = %q", table.String())
	}
}
