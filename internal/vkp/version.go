package vkp

import (
	"fmt"
	"strconv"
	"strings"
)

// Order is the result of comparing two MAJOR.MINOR.PATCH versions.
type Order int

const (
	OrderLT Order = -1
	OrderEQ Order = 0
	OrderGT Order = 1
)

// CompareVersions compares two semantic versions tuple-lexicographically
// (§4.5's Compare operation, §8 property 7: total, transitive, reflexive
// under equality). Both versions must already match the
// ^\d+\.\d+\.\d+$ shape.
func CompareVersions(v1, v2 string) (Order, error) {
	a, err := parseVersion(v1)
	if err != nil {
		return 0, err
	}
	b, err := parseVersion(v2)
	if err != nil {
		return 0, err
	}
	for i := 0; i < 3; i++ {
		switch {
		case a[i] < b[i]:
			return OrderLT, nil
		case a[i] > b[i]:
			return OrderGT, nil
		}
	}
	return OrderEQ, nil
}

func parseVersion(v string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return out, fmt.Errorf("%w: %q", ErrMalformedVersion, v)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return out, fmt.Errorf("%w: %q", ErrMalformedVersion, v)
		}
		out[i] = n
	}
	return out, nil
}
