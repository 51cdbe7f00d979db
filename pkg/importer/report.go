package importer

// RowIssue explains why a row was not inserted. Row counts data rows from 1.
type RowIssue struct {
	Row    int    `json:"row"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
}

// BatchFailure covers rows StartIndex..EndIndex (inclusive, zero based over
// the rows that reached the insert stage) that were rolled back together.
type BatchFailure struct {
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	Error      string `json:"error"`
}

// Report is the outcome of one import. Every counted row lands in exactly
// one of inserted, invalid, duplicate or failed.
type Report struct {
	Success                 bool           `json:"success"`
	TotalEntries            int            `json:"totalEntries"`
	InsertedEntries         int            `json:"insertedEntries"`
	SkippedDuplicateEntries int            `json:"skippedDuplicateEntries"`
	SkippedInvalidEntries   int            `json:"skippedInvalidEntries"`
	FailedEntries           int            `json:"failedEntries"`
	InvalidEntries          []RowIssue     `json:"invalidEntries"`
	DuplicateEntries        []RowIssue     `json:"duplicateEntries"`
	FailedBatches           []BatchFailure `json:"failedBatches,omitempty"`
}

func newReport() *Report {
	return &Report{
		InvalidEntries:   make([]RowIssue, 0),
		DuplicateEntries: make([]RowIssue, 0),
	}
}

func (r *Report) invalid(row int, key, reason string) {
	r.SkippedInvalidEntries++
	r.InvalidEntries = append(r.InvalidEntries, RowIssue{Row: row, Key: key, Reason: reason})
}

func (r *Report) duplicate(row int, key, reason string) {
	r.SkippedDuplicateEntries++
	r.DuplicateEntries = append(r.DuplicateEntries, RowIssue{Row: row, Key: key, Reason: reason})
}

func (r *Report) batch(start, end int, err error) {
	if err == nil {
		r.InsertedEntries += end - start
		return
	}
	r.FailedEntries += end - start
	r.FailedBatches = append(r.FailedBatches, BatchFailure{StartIndex: start, EndIndex: end - 1, Error: err.Error()})
}
