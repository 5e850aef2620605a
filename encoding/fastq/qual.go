package fastq

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// DefaultPhredOffset is the offset of the standard Sanger / Illumina
	// 1.8+ quality encoding.
	DefaultPhredOffset = 33
	maxPhredChar       = 126
)

// scoreToErrorRate maps a phred score to its error probability
// 10^(-score/10).
var scoreToErrorRate [128]float64

func init() {
	for score := range scoreToErrorRate {
		scoreToErrorRate[score] = math.Pow(10, -float64(score)/10)
	}
}

// AverageErrorRate returns the mean per-base error probability of an
// ASCII encoded phred quality string. The empty string has error rate
// 0.
func AverageErrorRate(qualities string, phredOffset byte) (float64, error) {
	if len(qualities) == 0 {
		return 0, nil
	}
	var total float64
	for i := 0; i < len(qualities); i++ {
		c := qualities[i]
		if c < phredOffset || c > maxPhredChar {
			return 0, errors.Wrapf(ErrInvalid,
				"quality character %q out of range for phred offset %d", c, phredOffset)
		}
		total += scoreToErrorRate[c-phredOffset]
	}
	return total / float64(len(qualities)), nil
}

// QualityFilter rejects reads whose average per-base error rate
// exceeds a threshold, and counts how many reads it saw and passed.
type QualityFilter struct {
	threshold   float64
	phredOffset byte
	total       int64
	pass        int64
}

// NewQualityFilter creates a filter with the given error rate
// threshold. A threshold of 1 or higher passes everything.
func NewQualityFilter(threshold float64, phredOffset byte) *QualityFilter {
	return &QualityFilter{threshold: threshold, phredOffset: phredOffset}
}

// PassesFilter reports whether the quality string's average error rate
// is at or below the threshold.
func (f *QualityFilter) PassesFilter(qualities string) (bool, error) {
	f.total++
	rate, err := AverageErrorRate(qualities, f.phredOffset)
	if err != nil {
		return false, err
	}
	if rate > f.threshold {
		return false, nil
	}
	f.pass++
	return true, nil
}

// Total returns the number of reads seen.
func (f *QualityFilter) Total() int64 { return f.total }

// Pass returns the number of reads that passed.
func (f *QualityFilter) Pass() int64 { return f.pass }
