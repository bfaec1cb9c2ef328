package pattern

import "StockSense/internal/model"

// Detector recognizes one candlestick pattern at the end of a series.
// Detect reports false when the pattern is absent or the series is shorter
// than the detector's look-back.
type Detector interface {
	Name() string
	Detect(series model.Series) (model.Finding, bool)
}

// Options controls which detectors a Matcher runs.
type Options struct {
	// Disabled lists detector names to skip.
	Disabled []string
	// Extended appends the library-backed multi-bar detectors after the core set.
	Extended bool
}

// Matcher runs a fixed, ordered list of detectors.
type Matcher struct {
	detectors []Detector
}

// NewMatcher builds a matcher with the core detectors in their canonical order,
// optionally followed by the extended set.
func NewMatcher(opts Options) *Matcher {
	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		disabled[name] = true
	}

	all := CoreDetectors()
	if opts.Extended {
		all = append(all, ExtendedDetectors()...)
	}

	m := &Matcher{}
	for _, d := range all {
		if disabled[d.Name()] {
			continue
		}
		m.detectors = append(m.detectors, d)
	}
	return m
}

// Detect runs every detector against the series and returns findings in detector order.
func (m *Matcher) Detect(series model.Series) []model.Finding {
	findings := make([]model.Finding, 0)
	for _, d := range m.detectors {
		if f, ok := d.Detect(series); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// Names returns the names of the active detectors in order.
func (m *Matcher) Names() []string {
	names := make([]string, len(m.detectors))
	for i, d := range m.detectors {
		names[i] = d.Name()
	}
	return names
}

// KnownName reports whether name identifies a core or extended detector.
func KnownName(name string) bool {
	for _, d := range append(CoreDetectors(), ExtendedDetectors()...) {
		if d.Name() == name {
			return true
		}
	}
	return false
}
