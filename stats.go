package demux

// Stats counts the outcomes of one read pipeline.
type Stats struct {
	// Records is the number of records framed from the primary input.
	Records uint64
	// Assigned, Ambiguous, and Unassigned partition Records by
	// classification outcome.
	Assigned   uint64
	Ambiguous  uint64
	Unassigned uint64
	// BadBarcodes counts records whose header carried no parseable
	// index pair (a subset of Unassigned).
	BadBarcodes uint64
	// DistinctPairs is the number of distinct observed index pairs, that
	// is, the size of the classification cache at shutdown.
	DistinctPairs int
	// PerSample maps sample ID to the number of records routed to it,
	// including the reserved names.
	PerSample map[string]uint64
}

func newStats() Stats {
	return Stats{PerSample: make(map[string]uint64)}
}

func (s *Stats) count(sampleID string) {
	s.Records++
	s.PerSample[sampleID]++
	switch sampleID {
	case Ambiguous:
		s.Ambiguous++
	case Unassigned:
		s.Unassigned++
	default:
		s.Assigned++
	}
}
