package workflow

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"clipdeck/internal/backend"
	"clipdeck/internal/logging"
)

// ParseRanges converts user input into clip ranges. Pairs with a blank side
// are dropped silently; unparsable or inverted pairs are dropped with a
// warning. The second value counts every dropped pair.
func ParseRanges(inputs []RangeInput, logger *slog.Logger) ([]backend.Range, int) {
	if logger == nil {
		logger = logging.NewNop()
	}
	ranges := make([]backend.Range, 0, len(inputs))
	dropped := 0
	for i, in := range inputs {
		startRaw := strings.TrimSpace(in.Start)
		endRaw := strings.TrimSpace(in.End)
		if startRaw == "" || endRaw == "" {
			dropped++
			continue
		}
		start, errS := ParseTimestamp(startRaw)
		end, errE := ParseTimestamp(endRaw)
		if errS != nil || errE != nil || start >= end {
			dropped++
			logging.WarnWithContext(logger, "clip range dropped", "range_dropped",
				logging.Int("index", i),
				logging.String("start", startRaw),
				logging.String("end", endRaw),
				logging.String(logging.FieldErrorHint, "use seconds or HH:MM:SS with start before end"),
				logging.String(logging.FieldImpact, "no clip is requested for this range"),
			)
			continue
		}
		ranges = append(ranges, backend.Range{Start: start, End: end})
	}
	return ranges, dropped
}

// ParseTimestamp accepts plain seconds ("75.5"), MM:SS or HH:MM:SS with an
// optional fractional second.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		var n float64
		var err error
		if last {
			n, err = strconv.ParseFloat(part, 64)
		} else {
			var whole int
			whole, err = strconv.Atoi(part)
			n = float64(whole)
		}
		if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		if len(parts) > 1 && i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		total = total*60 + n
	}
	return total, nil
}
