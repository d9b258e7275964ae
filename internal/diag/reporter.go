package diag

// Reporter receives diagnostics from a pass. Implementations used
// concurrently must be safe for it; BagReporter is.
type Reporter interface {
	Report(d Diagnostic)
}

type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// MultiReporter reports to each non-nil reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// BagReporter adds to Bag, or drops when Bag is nil.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}
