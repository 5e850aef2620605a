package dedup

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A CheckSlice selects the part of a read's sequence that takes part
// in duplicate detection. It follows Python slice semantics including
// negative indices and steps, so existing check-length strings keep
// their meaning.
type CheckSlice struct {
	Start, Stop, Step *int
}

// ParseCheckLengths parses a comma separated list of check lengths or
// slices, one per input file. A bare integer n selects the first n
// bases; "4:8", "::8" and "24:8:-1" style slices are also accepted.
func ParseCheckLengths(s string) ([]CheckSlice, error) {
	parts := strings.Split(s, ",")
	slices := make([]CheckSlice, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(part, ":")
		if len(fields) > 3 {
			return nil, errors.Errorf("check length %q has too many colons", part)
		}
		values := make([]*int, 3)
		for i, field := range fields {
			if field == "" || field == "None" {
				continue
			}
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, errors.Wrapf(err, "check length %q", part)
			}
			values[i] = &v
		}
		var slc CheckSlice
		if len(fields) == 1 {
			// A bare length is a stop value.
			slc = CheckSlice{Stop: values[0]}
			if values[0] == nil {
				return nil, errors.Errorf("check length %q is empty", part)
			}
		} else {
			slc = CheckSlice{Start: values[0], Stop: values[1], Step: values[2]}
		}
		if slc.Step != nil && *slc.Step == 0 {
			return nil, errors.Errorf("check length %q has zero step", part)
		}
		slices = append(slices, slc)
	}
	return slices, nil
}

// Apply returns the selected part of s.
func (c CheckSlice) Apply(s string) string {
	length := len(s)
	step := 1
	if c.Step != nil {
		step = *c.Step
	}
	var start, stop int
	if step > 0 {
		start = sliceIndex(c.Start, 0, length, step)
		stop = sliceIndex(c.Stop, length, length, step)
		if start >= stop {
			return ""
		}
		if step == 1 {
			return s[start:stop]
		}
		var sb strings.Builder
		for i := start; i < stop; i += step {
			sb.WriteByte(s[i])
		}
		return sb.String()
	}
	start = sliceIndex(c.Start, length-1, length, step)
	stop = sliceIndex(c.Stop, -1, length, step)
	var sb strings.Builder
	for i := start; i > stop; i += step {
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// sliceIndex resolves an optional, possibly negative slice bound the
// way Python's slice.indices does.
func sliceIndex(value *int, def, length, step int) int {
	if value == nil {
		return def
	}
	v := *value
	if v < 0 {
		v += length
		if v < 0 {
			if step < 0 {
				return -1
			}
			return 0
		}
	}
	if v >= length {
		if step < 0 {
			return length - 1
		}
		return length
	}
	return v
}
