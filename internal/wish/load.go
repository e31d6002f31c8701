package wish

import (
	"io"
	"log/slog"
)

// Source is the raw text of one wish document.
type Source struct {
	Name string
	Text []byte
}

// LoadReport lists which sources made it into a table.
type LoadReport struct {
	Loaded  []string
	Skipped []string
}

// Load parses every source in order and merges the results, later sources
// overriding earlier ones. A source that fails to parse is logged and skipped.
func Load(sources []Source, keys KeyResolver, logger *slog.Logger) (Table, LoadReport) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	table := Table{}
	var report LoadReport
	for _, src := range sources {
		parsed, err := ParseXML(src.Text, keys)
		if err != nil {
			logger.Warn("skipping wish source", "source", src.Name, "error", err)
			report.Skipped = append(report.Skipped, src.Name)
			continue
		}
		table.Merge(parsed)
		report.Loaded = append(report.Loaded, src.Name)
		logger.Debug("loaded wish source", "source", src.Name, "apps", len(parsed), "wishes", parsed.WishCount())
	}
	return table, report
}
