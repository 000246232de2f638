package navmsg

// bitPeriodEpochs is the number of 1ms prompt epochs per 50bps navigation
// bit.
const bitPeriodEpochs = 20

// bitSyncConfidenceEpochs is how many prompt epochs the histogram method
// accumulates before committing to a bit-boundary phase.
const bitSyncConfidenceEpochs = 2000

// bitSyncMarginEpochs is the minimum gap, in transition count, the best
// candidate phase must have over the second-best before sync is declared.
const bitSyncMarginEpochs = 4

// BitSync recovers the 20-epoch data-bit boundary from a stream of prompt
// correlator signs using the histogram method: navigation bit transitions
// can only occur at the true boundary, so transition counts binned by
// epoch-index-mod-20 peak sharply at the right phase once enough
// transitions have been observed.
type BitSync struct {
	transitionCounts [bitPeriodEpochs]int
	epochCount       int
	haveLastSign     bool
	lastSign         int8

	synced    bool
	phase     int
	sumInBit  float64
	countInBit int
}

// NewBitSync creates an unsynchronized bit-sync tracker.
func NewBitSync() *BitSync {
	return &BitSync{}
}

// Synced reports whether the bit boundary phase has been determined.
func (b *BitSync) Synced() bool { return b.synced }

// Feed consumes one prompt epoch's correlator value. Before sync it
// returns (false, 0, false). After sync it accumulates epochs into the
// current bit and returns (true, bitValue, true) whenever a bit
// completes, otherwise (true, 0, false).
func (b *BitSync) Feed(promptI float64) (synced bool, bit int8, bitReady bool) {
	sign := int8(1)
	if promptI < 0 {
		sign = -1
	}

	if !b.synced {
		if b.haveLastSign && sign != b.lastSign {
			b.transitionCounts[b.epochCount%bitPeriodEpochs]++
		}
		b.haveLastSign = true
		b.lastSign = sign
		b.epochCount++

		if b.epochCount >= bitSyncConfidenceEpochs {
			b.tryCommit()
		}
		return b.synced, 0, false
	}

	b.sumInBit += promptI
	b.countInBit++
	b.epochCount++

	if b.countInBit == bitPeriodEpochs {
		val := int8(0)
		if b.sumInBit > 0 {
			val = 1
		}
		b.sumInBit, b.countInBit = 0, 0
		return true, val, true
	}
	return true, 0, false
}

// tryCommit scores each of the 20 candidate boundary phases by how many
// observed sign transitions land away from it: a genuine data bit only
// changes sign at the true boundary, so the correct phase explains nearly
// every transition and has the fewest left over. It commits to sync once
// that best phase beats the next-best by a clear margin.
func (b *BitSync) tryCommit() {
	total := 0
	for _, c := range b.transitionCounts {
		total += c
	}
	if total == 0 {
		return
	}

	best, bestAway, secondAway := 0, total+1, total+1
	for p, c := range b.transitionCounts {
		away := total - c
		if away < bestAway {
			best, bestAway, secondAway = p, away, bestAway
		} else if away < secondAway {
			secondAway = away
		}
	}

	if secondAway-bestAway >= bitSyncMarginEpochs {
		b.synced = true
		b.phase = best
		b.countInBit = (b.epochCount - b.phase) % bitPeriodEpochs
		b.sumInBit = 0
	}
}
