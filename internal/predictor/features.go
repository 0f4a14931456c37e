package predictor

import "query-advisor/internal/querylog"

// Features is the regression input for one query log.
type Features struct {
	RecordsProcessed float64
	IndexesUsed      float64 // 1 when the log names any index, else 0
}

// FeaturesOf extracts [records_processed, indexes_used ? 1 : 0]. Any non-empty
// indexes_used value counts as used, including "none".
func FeaturesOf(q querylog.QueryLog) Features {
	f := Features{RecordsProcessed: float64(q.RecordsProcessed)}
	if q.IndexesUsed != "" {
		f.IndexesUsed = 1
	}
	return f
}

// Sample pairs features with the observed execution time.
type Sample struct {
	Features
	ExecutionTime float64
}

func samplesOf(rows []querylog.QueryLog) []Sample {
	out := make([]Sample, 0, len(rows))
	for _, r := range rows {
		out = append(out, Sample{Features: FeaturesOf(r), ExecutionTime: r.ExecutionTime})
	}
	return out
}
