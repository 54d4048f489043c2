// Package quantity converts Kubernetes resource quantity strings into floats in
// a fixed unit: cores for CPU, GiB for memory and ephemeral storage.
//
// Parsing is total. Empty, malformed or non-finite input yields 0 instead of an
// error so that a bad value on one object never breaks a whole view.
package quantity

import (
	"math"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Unit names the fixed unit a parsed value is expressed in
type Unit string

const (
	Cores   Unit = "cores"
	GiB     Unit = "GiB"
	Bytes   Unit = "bytes"
	Percent Unit = "%"
)

// binary exponents of the target units (value * 1024^exp base units)
const (
	expBase = 0
	expGiB  = 3
)

const bytesPerGiB = 1 << 30

// binarySuffixes maps a binary SI suffix to its power of 1024
var binarySuffixes = []struct {
	suffix string
	exp    int
}{
	{"Ki", 1},
	{"Mi", 2},
	{"Gi", 3},
	{"Ti", 4},
}

// Quantity pairs a raw quantity string with its parsed value
type Quantity struct {
	Raw   string
	Value float64
	Unit  Unit
}

// String renders the parsed value with two decimals and its unit
func (q Quantity) String() string {
	if q.Unit == Percent {
		return strconv.FormatFloat(q.Value, 'f', 1, 64) + "%"
	}
	return strconv.FormatFloat(q.Value, 'f', 2, 64) + " " + string(q.Unit)
}

// CPU parses raw as a CPU quantity
func CPU(raw string) Quantity {
	return Quantity{Raw: raw, Value: ParseCPU(raw), Unit: Cores}
}

// Memory parses raw as a memory quantity in GiB
func Memory(raw string) Quantity {
	return Quantity{Raw: raw, Value: ParseMemory(raw), Unit: GiB}
}

// Storage parses raw as an ephemeral storage quantity in GiB
func Storage(raw string) Quantity {
	return Quantity{Raw: raw, Value: ParseStorage(raw), Unit: GiB}
}

// ParseCPU returns the number of cores in s ("250m" -> 0.25, "2" -> 2).
func ParseCPU(s string) float64 {
	return parse(s, expBase, false)
}

// ParseMemory returns s in GiB ("1Gi", "1024Mi" and "1048576Ki" -> 1).
// A value without a suffix is taken to be GiB already.
func ParseMemory(s string) float64 {
	return parse(s, expGiB, true)
}

// ParseStorage returns s in GiB. Storage shares the memory rules.
func ParseStorage(s string) float64 {
	return ParseMemory(s)
}

// ParseMemoryBytes returns s in bytes. A value without a suffix is bytes.
func ParseMemoryBytes(s string) float64 {
	return parse(s, expBase, false)
}

// ParsePercent parses "45%" or "45" into 45.
func ParsePercent(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v, ok := parseFloat(s)
	if !ok {
		return 0
	}
	return v
}

// Pct returns used as a percentage of total, or 0 when total is not positive.
func Pct(used, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return finite(used / total * 100)
}

// FromCPU converts a typed CPU quantity through its canonical string
func FromCPU(q resource.Quantity) Quantity {
	return CPU(q.String())
}

// FromMemory converts a typed memory quantity to GiB. An unsuffixed
// canonical string is a byte count, so it goes through the byte rules.
func FromMemory(q resource.Quantity) Quantity {
	raw := q.String()
	return Quantity{Raw: raw, Value: ParseMemoryBytes(raw) / bytesPerGiB, Unit: GiB}
}

// FromStorage converts a typed ephemeral storage quantity to GiB
func FromStorage(q resource.Quantity) Quantity {
	return FromMemory(q)
}

// CPUFromQuantity converts a typed quantity to cores
func CPUFromQuantity(q resource.Quantity) float64 {
	return FromCPU(q).Value
}

// MemoryFromQuantity converts a typed quantity to GiB
func MemoryFromQuantity(q resource.Quantity) float64 {
	return FromMemory(q).Value
}

// parse applies the suffix rules. targetExp is the power of 1024 of the
// output unit; bareInTarget reports whether an unsuffixed number is already
// in the output unit.
func parse(s string, targetExp int, bareInTarget bool) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0
	}

	if prefix, ok := strings.CutSuffix(s, "m"); ok {
		v, ok := parseFloat(prefix)
		if !ok {
			return 0
		}
		return v / 1000
	}

	for _, bs := range binarySuffixes {
		prefix, ok := strings.CutSuffix(s, bs.suffix)
		if !ok {
			continue
		}
		v, ok := parseFloat(prefix)
		if !ok {
			return 0
		}
		return finite(v * math.Pow(1024, float64(bs.exp-targetExp)))
	}

	if v, ok := parseFloat(s); ok {
		if bareInTarget {
			return v
		}
		return finite(v * math.Pow(1024, float64(expBase-targetExp)))
	}

	// Decimal suffixes and exponents ("1G", "500k", "1Pi").
	q, err := resource.ParseQuantity(s)
	if err != nil {
		return 0
	}
	return finite(q.AsApproximateFloat64() * math.Pow(1024, float64(expBase-targetExp)))
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
