package eval

import (
	"math"
	"strconv"
	"strings"

	"transform-rules/internal/jsonval"
	"transform-rules/internal/rterr"
)

// castEpsilon bounds the fractional part tolerated when casting a float to
// int: 3.0 (and anything closer to an integer than this) truncates cleanly,
// 3.5 does not (§4.6, §8 boundary behaviors).
const castEpsilon = 1e-9

// Cast applies the §4.6 type-cast table to a non-null value. Callers (the
// transform driver) are responsible for handling null separately —
// null is never passed to Cast.
func Cast(value any, typeName, rulePath string) (any, *rterr.Error) {
	switch typeName {
	case "string":
		return castToString(value, rulePath)
	case "int":
		return castToInt(value, rulePath)
	case "float":
		return castToFloat(value, rulePath)
	case "bool":
		return castToBool(value, rulePath)
	default:
		return nil, rterr.Newf(rterr.TypeCastFailed, "unknown cast target type %q", typeName).WithPath(rulePath)
	}
}

func castToString(value any, rulePath string) (any, *rterr.Error) {
	switch t := value.(type) {
	case string:
		return t, nil
	case int64, float64:
		s, ok := jsonval.NumberToString(t)
		if !ok {
			return nil, rterr.New(rterr.TypeCastFailed, "cannot render number as string").WithPath(rulePath)
		}
		return s, nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	default:
		return nil, rterr.Newf(rterr.TypeCastFailed, "cannot cast %s to string", jsonval.Describe(value)).WithPath(rulePath)
	}
}

func castToInt(value any, rulePath string) (any, *rterr.Error) {
	switch t := value.(type) {
	case int64:
		return t, nil
	case float64:
		rounded := math.Round(t)
		if math.Abs(t-rounded) > castEpsilon {
			return nil, rterr.Newf(rterr.TypeCastFailed, "value %v has a non-zero fractional part", t).WithPath(rulePath)
		}
		return int64(rounded), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			// Tolerate a decimal string whose fractional part is zero
			// ("3.0"), matching the cast-from-number epsilon rule.
			if f, ferr := strconv.ParseFloat(strings.TrimSpace(t), 64); ferr == nil {
				rounded := math.Round(f)
				if math.Abs(f-rounded) <= castEpsilon {
					return int64(rounded), nil
				}
			}
			return nil, rterr.Newf(rterr.TypeCastFailed, "cannot parse %q as int", t).WithPath(rulePath)
		}
		return parsed, nil
	default:
		return nil, rterr.Newf(rterr.TypeCastFailed, "cannot cast %s to int", jsonval.Describe(value)).WithPath(rulePath)
	}
}

func castToFloat(value any, rulePath string) (any, *rterr.Error) {
	switch t := value.(type) {
	case int64:
		return float64(t), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, rterr.New(rterr.TypeCastFailed, "non-finite float").WithPath(rulePath)
		}
		return t, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, rterr.Newf(rterr.TypeCastFailed, "cannot parse %q as float", t).WithPath(rulePath)
		}
		if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return nil, rterr.New(rterr.TypeCastFailed, "non-finite float").WithPath(rulePath)
		}
		return parsed, nil
	default:
		return nil, rterr.Newf(rterr.TypeCastFailed, "cannot cast %s to float", jsonval.Describe(value)).WithPath(rulePath)
	}
}

func castToBool(value any, rulePath string) (any, *rterr.Error) {
	switch t := value.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, rterr.Newf(rterr.TypeCastFailed, "cannot parse %q as bool", t).WithPath(rulePath)
		}
	default:
		return nil, rterr.Newf(rterr.TypeCastFailed, "cannot cast %s to bool", jsonval.Describe(value)).WithPath(rulePath)
	}
}
