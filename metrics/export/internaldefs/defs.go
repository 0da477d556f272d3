package internaldefs

import (
	"github.com/MrEthical07/optionset/metrics"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   metrics.ID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   metrics.ID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: metrics.RecordSaved, Name: "optionset_record_saved_total", Help: "Records written to the store."},
	{ID: metrics.RecordLoaded, Name: "optionset_record_loaded_total", Help: "Records read from the store."},
	{ID: metrics.RecordNotFound, Name: "optionset_record_not_found_total", Help: "Loads and updates of missing records."},
	{ID: metrics.RecordDeleted, Name: "optionset_record_deleted_total", Help: "Deleted records."},
	{ID: metrics.MaskUpdated, Name: "optionset_mask_updated_total", Help: "Committed mask read-modify-write updates."},
	{ID: metrics.MaskUpdateConflict, Name: "optionset_mask_update_conflict_total", Help: "Mask updates retried after a concurrent write."},
	{ID: metrics.MaskUpdateAborted, Name: "optionset_mask_update_aborted_total", Help: "Mask updates that exhausted their retries."},
	{ID: metrics.MatchQuery, Name: "optionset_match_query_total", Help: "Executed matching queries."},
	{ID: metrics.MatchQueryRejected, Name: "optionset_match_query_rejected_total", Help: "Matching queries rejected before execution."},
}

// MatchLatencyDef names the matching-query latency histogram.
var MatchLatencyDef = HistogramDef{ID: metrics.MatchLatency, Name: "optionset_match_latency_seconds", Help: "Matching query latency histogram."}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{MatchLatencyDef}

// HistogramBounds are the upper bounds of the histogram buckets in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed 8-bucket array, zero-filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
