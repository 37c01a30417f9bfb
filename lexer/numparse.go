package lexer

import "strconv"

// parseMantissa decodes the digit/dot/exponent portion of a number
// literal already validated by scanNumber and applies the engineering
// multiplier, the way prx_number scales its sscanf("%le", ...) result
// by factor.
func parseMantissa(mantissa string, factor float64) (float64, error) {
	v, err := strconv.ParseFloat(mantissa, 64)
	if err != nil {
		return 0, err
	}
	return v * factor, nil
}
