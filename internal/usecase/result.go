package usecase

// UnitStatus classifies the outcome of one unit of work (one scraper run or
// one registration sync).
type UnitStatus int

const (
	UnitOK UnitStatus = iota
	UnitSkipped
	UnitFailed
)

// UnitResult is the explicit outcome of one unit. Failures are carried as
// values so the loop driver decides whether to continue, never a panic or a
// propagated error.
type UnitResult struct {
	// Unit identifies the failing side: a platform handle for ingestion, a
	// registration ID for synchronization.
	Unit           string
	Status         UnitStatus
	Err            error
	NewResidences  int
	NewlyRanked    int
	SkippedRecords int
}

// RunReport aggregates the unit results of one job invocation.
type RunReport struct {
	Job     string
	Results []UnitResult
}

// Failed returns the number of failed units.
func (r RunReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == UnitFailed {
			n++
		}
	}
	return n
}

// NewResidences returns the total number of residences created by the run.
func (r RunReport) NewResidences() int {
	n := 0
	for _, res := range r.Results {
		n += res.NewResidences
	}
	return n
}
