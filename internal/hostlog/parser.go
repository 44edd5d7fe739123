// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package hostlog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jeranaias/wlctl/internal/identity"
)

// Kind identifies the type of a log event.
type Kind int

const (
	KindJoin Kind = iota
	KindLeave
	KindReject
	KindReset
)

// String returns the event kind name.
func (k Kind) String() string {
	switch k {
	case KindJoin:
		return "join"
	case KindLeave:
		return "leave"
	case KindReject:
		return "reject"
	case KindReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is one parsed log line.
type Event struct {
	Kind    Kind
	ID      identity.ID
	Name    string
	Address string
	Reason  string
}

// Patterns holds the regular expressions for each event kind. An empty
// pattern disables that kind.
type Patterns struct {
	Join   string
	Leave  string
	Reject string
	Reset  string
}

// DefaultPatterns matches the stock server console format.
func DefaultPatterns() Patterns {
	const uuid = `(?P<uuid>[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})`
	return Patterns{
		Join:   `(?P<name>[^\s()]+) \(` + uuid + `\) joined(?: from (?P<ip>\S+))?`,
		Leave:  `(?P<name>[^\s()]+) \(` + uuid + `\) (?:left|disconnected)`,
		Reject: `Rejected connection from (?P<name>[^\s()]+) \(` + uuid + `\)(?: \[(?P<ip>[^\]]*)\])?: (?P<reason>.+)$`,
		Reset:  `Server (?:starting|started|stopping|stopped)\b`,
	}
}

type rule struct {
	kind Kind
	re   *regexp.Regexp
}

// Parser matches log lines against a fixed set of rules.
type Parser struct {
	rules []rule
}

// NewParser compiles p. Join, leave and reject patterns must capture uuid.
func NewParser(p Patterns) (*Parser, error) {
	parser := &Parser{}
	for _, def := range []struct {
		kind    Kind
		pattern string
	}{
		{KindReject, p.Reject},
		{KindJoin, p.Join},
		{KindLeave, p.Leave},
		{KindReset, p.Reset},
	} {
		if def.pattern == "" {
			continue
		}
		re, err := regexp.Compile(def.pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %s pattern: %w", def.kind, err)
		}
		if def.kind != KindReset && re.SubexpIndex("uuid") < 0 {
			return nil, fmt.Errorf("%s pattern must capture a (?P<uuid>...) group", def.kind)
		}
		parser.rules = append(parser.rules, rule{kind: def.kind, re: re})
	}
	return parser, nil
}

// Parse matches line against each rule in turn. Lines with an unparseable
// identity are skipped.
func (p *Parser) Parse(line string) (Event, bool) {
	line = strings.TrimRight(line, "\r\n")
	for _, r := range p.rules {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ev := Event{Kind: r.kind}
		if r.kind == KindReset {
			return ev, true
		}

		id, err := identity.Parse(group(r.re, m, "uuid"))
		if err != nil {
			return Event{}, false
		}
		ev.ID = id
		ev.Name = group(r.re, m, "name")
		ev.Address = group(r.re, m, "ip")
		ev.Reason = group(r.re, m, "reason")
		return ev, true
	}
	return Event{}, false
}

func group(re *regexp.Regexp, m []string, name string) string {
	if i := re.SubexpIndex(name); i >= 0 && i < len(m) {
		return strings.TrimSpace(m[i])
	}
	return ""
}
