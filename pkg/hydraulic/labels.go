package hydraulic

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"unicode/utf8"
)

// MaxLabelLength bounds generated labels
const MaxLabelLength = 31

var typePrefix = map[AssetType]string{
	TypePipe:      "P",
	TypeJunction:  "J",
	TypeReservoir: "R",
	TypeTank:      "T",
	TypePump:      "PU",
	TypeValve:     "V",
}

var (
	defaultLabelPatterns = func() map[AssetType]*regexp.Regexp {
		out := make(map[AssetType]*regexp.Regexp, len(typePrefix))
		for t, prefix := range typePrefix {
			out[t] = regexp.MustCompile(`^` + prefix + `(\d+)$`)
		}
		return out
	}()
	counterSuffix = regexp.MustCompile(`^(.+)_(\d+)$`)
)

type labelOwner struct {
	typ AssetType
	id  AssetID
}

// LabelManager hands out unique per-type labels and tracks which assets use
// which label. It is shared across snapshots of one model and safe for
// concurrent use.
type LabelManager struct {
	mu        sync.Mutex
	nextIndex map[AssetType]int
	owners    map[string][]labelOwner
}

// NewLabelManager creates an empty label registry
func NewLabelManager() *LabelManager {
	return &LabelManager{
		nextIndex: make(map[AssetType]int),
		owners:    make(map[string][]labelOwner),
	}
}

// Register records that asset (typ, id) uses label
func (m *LabelManager) Register(label string, typ AssetType, id AssetID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.owners[label] {
		if o.id == id {
			return
		}
	}
	m.lowerIndex(label, typ)
	m.owners[label] = append(m.owners[label], labelOwner{typ: typ, id: id})
}

// Remove releases label from asset id
func (m *LabelManager) Remove(label string, typ AssetType, id AssetID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lowerIndex(label, typ)
	owners := m.owners[label]
	kept := owners[:0]
	for _, o := range owners {
		if o.id != id {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		delete(m.owners, label)
		return
	}
	m.owners[label] = kept
}

// lowerIndex lets the generator revisit a default-style index that may
// have been freed or skipped.
func (m *LabelManager) lowerIndex(label string, typ AssetType) {
	re, ok := defaultLabelPatterns[typ]
	if !ok {
		return
	}
	match := re.FindStringSubmatch(label)
	if match == nil {
		return
	}
	idx, err := strconv.Atoi(match[1])
	if err != nil {
		return
	}
	if cur, ok := m.nextIndex[typ]; !ok || idx < cur {
		m.nextIndex[typ] = idx
	}
}

// Count returns how many assets use label
func (m *LabelManager) Count(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.owners[label])
}

// GenerateFor returns the lowest free "<prefix><n>" label for typ and
// registers it for id.
func (m *LabelManager) GenerateFor(typ AssetType, id AssetID) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.nextIndex[typ]
	if idx < 1 {
		idx = 1
	}
	prefix := typePrefix[typ]
	for {
		candidate := prefix + strconv.Itoa(idx)
		if !m.usedByType(candidate, typ) {
			m.nextIndex[typ] = idx
			m.owners[candidate] = append(m.owners[candidate], labelOwner{typ: typ, id: id})
			return candidate
		}
		idx++
	}
}

func (m *LabelManager) usedByType(label string, typ AssetType) bool {
	for _, o := range m.owners[label] {
		if o.typ == typ {
			return true
		}
	}
	return false
}

// GenerateNextLabel derives a free "<base>_<n>" label from label. A label
// already ending in "_<n>" continues from n+1. The base is truncated so the
// result fits MaxLabelLength.
func (m *LabelManager) GenerateNextLabel(label string) (string, error) {
	base, counter := label, 1
	if match := counterSuffix.FindStringSubmatch(label); match != nil {
		if n, err := strconv.Atoi(match[2]); err == nil {
			base, counter = match[1], n+1
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		suffix := "_" + strconv.Itoa(counter)
		maxBase := MaxLabelLength - len(suffix)
		if maxBase <= 0 {
			return "", fmt.Errorf("%w: cannot fit %q within %d characters", ErrLabelTooLong, label, MaxLabelLength)
		}
		candidate := truncateLabel(base, maxBase) + suffix
		if len(m.owners[candidate]) == 0 {
			return candidate, nil
		}
		counter++
	}
}

// truncateLabel cuts s to at most n bytes without splitting a rune.
func truncateLabel(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
