package pipeline

// Stats summarizes one run. Serialized to etl_stats.json at the end of
// the job.
type Stats struct {
	RunID              string         `json:"run_id"`
	TotalExecutionTime string         `json:"total_execution_time"`
	FilesRead          int            `json:"files_read"`
	BadLines           int            `json:"bad_lines"`
	UnmatchedEvents    int            `json:"unmatched_events"`
	RowsWritten        map[string]int `json:"rows_written"`
}

func NewStats(runID string) *Stats {
	return &Stats{RunID: runID, RowsWritten: make(map[string]int)}
}
