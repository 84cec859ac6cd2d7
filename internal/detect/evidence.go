package detect

import (
	"fmt"
	"strings"

	"prefabls/internal/source"
)

// Host is the runtime a JavaScript-family document appears to target.
type Host uint8

const (
	HostUnknown Host = iota
	HostBrowser
	HostServer

	hostCount
)

func (h Host) String() string {
	switch h {
	case HostBrowser:
		return "browser"
	case HostServer:
		return "server"
	default:
		return "unknown"
	}
}

func (h Host) GoString() string {
	return fmt.Sprintf("Host(%s)", h.String())
}

// Hint is one piece of evidence that a document targets a host.
type Hint struct {
	Host   Host
	Score  int
	Reason string
	Span   source.Span
}

// Evidence aggregates hints collected from a whole document.
type Evidence struct {
	hints []Hint
}

func NewEvidence() *Evidence {
	return &Evidence{hints: make([]Hint, 0, 8)}
}

func (e *Evidence) Add(h Hint) {
	if e == nil {
		return
	}
	e.hints = append(e.hints, h)
}

func (e *Evidence) Hints() []Hint {
	if e == nil {
		return nil
	}
	return e.hints
}

// Classification is the scored outcome for a document.
type Classification struct {
	Browser int
	Server  int
	Signals int
}

// Winner returns the host with the strictly higher score, or HostUnknown on a
// tie.
func (c Classification) Winner() Host {
	switch {
	case c.Browser > c.Server:
		return HostBrowser
	case c.Server > c.Browser:
		return HostServer
	default:
		return HostUnknown
	}
}

// Classify sums hint scores per host. Non-positive scores are counted as
// observed signals but do not contribute.
func Classify(e *Evidence) Classification {
	var scores [hostCount]int
	observed := 0
	for _, h := range e.Hints() {
		observed++
		if h.Score <= 0 || h.Host <= HostUnknown || h.Host >= hostCount {
			continue
		}
		scores[h.Host] += h.Score
	}
	return Classification{
		Browser: scores[HostBrowser],
		Server:  scores[HostServer],
		Signals: observed,
	}
}

type signal struct {
	needle string
	host   Host
	reason string
}

var hostSignals = []signal{
	{"window.", HostBrowser, "window global"},
	{"document.", HostBrowser, "document global"},
	{"localStorage", HostBrowser, "web storage"},
	{"addEventListener", HostBrowser, "DOM event listener"},
	{"getElementById", HostBrowser, "DOM lookup"},
	{"querySelector", HostBrowser, "DOM query"},
	{"navigator.", HostBrowser, "navigator global"},
	{"process.env", HostServer, "process environment"},
	{"require(", HostServer, "CommonJS require"},
	{"module.exports", HostServer, "CommonJS export"},
	{"__dirname", HostServer, "module directory"},
	{"fs.", HostServer, "filesystem module"},
}

// CollectHostEvidence scans the whole buffer for host signals. Every
// occurrence scores one point.
func CollectHostEvidence(text string) *Evidence {
	e := NewEvidence()
	for _, sig := range hostSignals {
		from := 0
		for {
			idx := strings.Index(text[from:], sig.needle)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(sig.needle)
			if sig.needle == "fs." && start > 0 && isIdentByte(text[start-1]) {
				// part of a longer identifier such as `prefs.`
				from = end
				continue
			}
			e.Add(Hint{Host: sig.host, Score: 1, Reason: sig.reason, Span: source.SpanOf(start, end)})
			from = end
		}
	}
	return e
}

// BrowserWins reports whether browser signals strictly outscore server
// signals in text.
func BrowserWins(text string) bool {
	return Classify(CollectHostEvidence(text)).Winner() == HostBrowser
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
