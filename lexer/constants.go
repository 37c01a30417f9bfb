package lexer

import "math"

// NamedConstants is the fixed table of physical and mathematical
// constants addressable by a leading-underscore name, grounded on
// prx_constant in prx_func.c. Because Go keys this table by the full
// string rather than a length-then-memcmp pair, the original's
// `_eps0` bug — `length == 5 && memcmp(ps, "_eps0", 4)`, comparing only
// 4 of the 5 bytes the length check claims to have matched — cannot
// recur here: the map key is the exact 5-byte name.
var NamedConstants = map[string]float64{
	"_pi":        math.Pi,
	"_pi_2":      math.Pi / 2,
	"_pi_4":      math.Pi / 4,
	"_1_pi":      1 / math.Pi,
	"_2_pi":      2 / math.Pi,
	"_sqrtpi":    math.Sqrt(math.Pi),
	"_sqrt2pi":   math.Sqrt(2 * math.Pi),
	"_1_sqrtpi":  1 / math.Sqrt(math.Pi),
	"_2_sqrtpi":  2 / math.Sqrt(math.Pi),
	"_e":         math.E,
	"_ln2":       math.Ln2,
	"_ln10":      math.Log(10),
	"_log10e":    math.Log10E,
	"_sqrt2":     math.Sqrt2,
	"_sqrt1_2":   math.Sqrt(0.5),
	"_k":         1.3806485279e-23,
	"_c":         2.99792458e8,
	"_G":         6.67259e-11,
	"_eps0":      8.854187817e-12,
	"_mu0":       1.2566370614e-6,
	"_0C":        273.15,
	"_NA":        6.022140857e+23,
	"_R":         8.314459848,
	"_h":         6.626070040e-34,
	"_F":         9.64853328959e+4,
	"_q":         1.602176620898e-19,
}

// engineeringSuffix maps a single trailing suffix letter on a numeric
// literal to its power-of-ten multiplier, grounded on the switch in
// prx_number. Upper/lower pairs that the original treats as synonyms
// (a/A, f/F, n/N, u/U, k/K) are both present.
var engineeringSuffix = map[rune]float64{
	'y': 1e-24,
	'z': 1e-21,
	'a': 1e-18, 'A': 1e-18,
	'f': 1e-15, 'F': 1e-15,
	'p': 1e-12,
	'n': 1e-9, 'N': 1e-9,
	'u': 1e-6, 'U': 1e-6,
	'm': 1e-3,
	'k': 1e3, 'K': 1e3,
	'M': 1e6,
	'G': 1e9,
	'T': 1e12,
	'P': 1e15,
	'E': 1e18,
	'Z': 1e21,
	'Y': 1e24,
}

// engineeringScale is the inverse table used by the optional
// round-trip formatter (prx_number_format). The original duplicates
// "T" at ibase=15 — a copy-paste of the ibase=12 entry just above it —
// where every other entry in the table is a distinct scale letter and
// 1e15 is conventionally "peta". We fix the duplicate to "P" here and
// document the source bug rather than carry it forward.
var engineeringScale = map[int]string{
	-24: "y", -21: "z", -18: "a", -15: "f", -12: "p", -9: "n", -6: "u", -3: "m",
	3: "k", 6: "M", 9: "G", 12: "T", 15: "P", 18: "E", 21: "Z", 24: "Y",
}
