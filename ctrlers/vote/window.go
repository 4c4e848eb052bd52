package vote

import (
	"math"

	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// ResolveWindow normalizes a requested voting window against the clock.
// A zero start means "now"; a zero end means the earliest allowed end,
// which is start plus the minimum duration.
func ResolveWindow(startDate, endDate, minDuration, now uint64) (uint64, uint64, xerrors.XError) {
	start := startDate
	if start == 0 {
		start = now
	} else if start < now {
		return 0, 0, xerrors.ErrDateOutOfBounds.Wrapf("start date out of bounds - limit: %v, actual: %v", now, start)
	}

	if start > math.MaxUint64-minDuration {
		return 0, 0, xerrors.ErrOverFlow.Wrapf("overflow occurs when computing the earliest end date - start: %v, minDuration: %v", start, minDuration)
	}
	earliestEnd := start + minDuration

	end := endDate
	if end == 0 {
		end = earliestEnd
	} else if end < earliestEnd {
		return 0, 0, xerrors.ErrDateOutOfBounds.Wrapf("end date out of bounds - limit: %v, actual: %v", earliestEnd, end)
	}

	return start, end, nil
}
