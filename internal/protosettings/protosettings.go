// Package protosettings parses the --proto-settings grammar and
// implements the fixed/random/sweep size rotation rules from the
// requestor's per-iteration algorithm. Grounded on
// original_source/src/comsettings.hpp's cComSettings, whose comma-split
// constructor matches this grammar field for field; the step_width /
// disconnect shape and the isFixed/isRand/isSweep predicates are kept
// verbatim in spirit.
package protosettings

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Settings is the immutable per-connection communication configuration:
// request/response size bounds and an optional sweep step. All four size
// bounds must be >= wire.HeaderLen (28); callers enforce that separately
// so this package stays independent of the wire package.
type Settings struct {
	RequestSizeMin, RequestSizeMax   uint32
	ResponseSizeMin, ResponseSizeMax uint32
	StepWidth                        uint32

	// Disconnect is a reserved field carried for parity with the source
	// system's comm settings; nothing in babbler reads it (see the design
	// notes' "unused state" open question).
	Disconnect bool
}

func (s Settings) IsFixed() bool {
	return s.RequestSizeMin == s.RequestSizeMax && s.ResponseSizeMin == s.ResponseSizeMax
}

func (s Settings) IsRand() bool { return !s.IsFixed() && s.StepWidth == 0 }

func (s Settings) IsSweep() bool { return !s.IsFixed() && s.StepWidth != 0 }

// Parse interprets the comma-separated --proto-settings grammar:
//
//	1 value:  fixed size
//	2 values: random, same range for both directions (min,max)
//	3 values: sweep, same range for both (min,max,step)
//	4 values: random, independent (req_min,req_max,resp_min,resp_max)
//	5 values: sweep, independent (req_min,req_max,resp_min,resp_max,step)
func Parse(spec string) (Settings, error) {
	fields := strings.Split(spec, ",")
	nums := make([]uint32, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return Settings{}, fmt.Errorf("proto-settings: %q is not an unsigned integer", f)
		}
		nums[i] = uint32(n)
	}

	var s Settings
	switch len(nums) {
	case 1:
		s = Settings{RequestSizeMin: nums[0], RequestSizeMax: nums[0], ResponseSizeMin: nums[0], ResponseSizeMax: nums[0]}
	case 2:
		s = Settings{RequestSizeMin: nums[0], RequestSizeMax: nums[1], ResponseSizeMin: nums[0], ResponseSizeMax: nums[1]}
	case 3:
		s = Settings{RequestSizeMin: nums[0], RequestSizeMax: nums[1], ResponseSizeMin: nums[0], ResponseSizeMax: nums[1], StepWidth: nums[2]}
	case 4:
		s = Settings{RequestSizeMin: nums[0], RequestSizeMax: nums[1], ResponseSizeMin: nums[2], ResponseSizeMax: nums[3]}
	case 5:
		s = Settings{RequestSizeMin: nums[0], RequestSizeMax: nums[1], ResponseSizeMin: nums[2], ResponseSizeMax: nums[3], StepWidth: nums[4]}
	default:
		return Settings{}, fmt.Errorf("proto-settings: expected 1-5 comma-separated values, got %d", len(nums))
	}
	if s.RequestSizeMin > s.RequestSizeMax || s.ResponseSizeMin > s.ResponseSizeMax {
		return Settings{}, fmt.Errorf("proto-settings: min must not exceed max")
	}
	return s, nil
}

// Sizes is the mutable per-connection cursor a Requestor advances every
// iteration according to the rotation rule selected by Settings.
type Sizes struct {
	Request, Response uint32
}

// Initial returns the first iteration's sizes: the minimum for random and
// sweep, the (only) fixed value for fixed.
func (s Settings) Initial() Sizes {
	return Sizes{Request: s.RequestSizeMin, Response: s.ResponseSizeMin}
}

// Next computes the following iteration's sizes from cur, per the
// requestor's step 5: fixed never changes; random independently resamples
// each size uniformly in [min,max]; sweep adds step_width to each,
// wrapping to min when it would exceed max.
func (s Settings) Next(cur Sizes, rng *rand.Rand) Sizes {
	switch {
	case s.IsFixed():
		return cur
	case s.IsRand():
		return Sizes{
			Request:  uniform(rng, s.RequestSizeMin, s.RequestSizeMax),
			Response: uniform(rng, s.ResponseSizeMin, s.ResponseSizeMax),
		}
	default: // sweep
		return Sizes{
			Request:  sweepNext(cur.Request, s.StepWidth, s.RequestSizeMin, s.RequestSizeMax),
			Response: sweepNext(cur.Response, s.StepWidth, s.ResponseSizeMin, s.ResponseSizeMax),
		}
	}
}

func uniform(rng *rand.Rand, min, max uint32) uint32 {
	if min == max {
		return min
	}
	return min + uint32(rng.Int63n(int64(max-min)+1))
}

func sweepNext(cur, step, min, max uint32) uint32 {
	next := cur + step
	if next > max {
		return min
	}
	return next
}
