package screener

import (
	"strconv"

	"market-screener/models"
	"market-screener/observability"
)

// UnknownConditionPolicy decides how conditions with an unknown field name or
// operation evaluate. The historical behavior is fail-open: malformed
// conditions silently match. That is preserved as the default but kept
// switchable because it is a latent correctness risk.
type UnknownConditionPolicy string

const (
	PolicyFailOpen   UnknownConditionPolicy = "fail-open"
	PolicyFailClosed UnknownConditionPolicy = "fail-closed"
)

// requiredPriceFields are the fields whose absence fails a condition rather
// than passing it vacuously. Every other known field passes when nil.
var requiredPriceFields = map[string]bool{
	"close": true,
	"open":  true,
	"high":  true,
	"low":   true,
}

// fieldGetters is the closed accessor table for condition field names.
// A getter returns nil when the record has no value for the field.
var fieldGetters = map[string]func(*models.InstrumentRecord) any{
	"close":              func(r *models.InstrumentRecord) any { return floatValue(r.Close) },
	"open":               func(r *models.InstrumentRecord) any { return floatValue(r.Open) },
	"high":               func(r *models.InstrumentRecord) any { return floatValue(r.High) },
	"low":                func(r *models.InstrumentRecord) any { return floatValue(r.Low) },
	"prev_close":         func(r *models.InstrumentRecord) any { return floatValue(r.PrevClose) },
	"change":             func(r *models.InstrumentRecord) any { return floatValue(r.Change) },
	"change_percent":     func(r *models.InstrumentRecord) any { return floatValue(r.ChangePercent) },
	"volume":             func(r *models.InstrumentRecord) any { return floatValue(r.Volume) },
	"avg_volume":         func(r *models.InstrumentRecord) any { return floatValue(r.AvgVolume) },
	"volume_ratio":       func(r *models.InstrumentRecord) any { return floatValue(r.VolumeRatio) },
	"volume_contraction": func(r *models.InstrumentRecord) any { return boolValue(r.VolumeContraction) },
	"52_week_high":       func(r *models.InstrumentRecord) any { return floatValue(r.Week52High) },
	"52_week_low":        func(r *models.InstrumentRecord) any { return floatValue(r.Week52Low) },
	"sma_20":             func(r *models.InstrumentRecord) any { return floatValue(r.SMA20) },
	"sma_50":             func(r *models.InstrumentRecord) any { return floatValue(r.SMA50) },
	"sma_200":            func(r *models.InstrumentRecord) any { return floatValue(r.SMA200) },
	"trend":              func(r *models.InstrumentRecord) any { return string(r.TrendDaily) },
	"weekly_trend":       func(r *models.InstrumentRecord) any { return string(r.TrendWeekly) },
	"trend_alignment":    func(r *models.InstrumentRecord) any { return string(r.TrendAlignment) },
	"currency":           func(r *models.InstrumentRecord) any { return r.Currency },
	"symbol":             func(r *models.InstrumentRecord) any { return r.Symbol },
	"is_equity":          func(r *models.InstrumentRecord) any { return r.IsEquity },
	"is_etf":             func(r *models.InstrumentRecord) any { return r.IsETF },
}

func floatValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolValue(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

// Evaluator applies condition sets to instrument records
type Evaluator struct {
	policy UnknownConditionPolicy
}

// NewEvaluator creates an Evaluator with the given unknown-condition policy
func NewEvaluator(policy UnknownConditionPolicy) *Evaluator {
	if policy != PolicyFailClosed {
		policy = PolicyFailOpen
	}
	return &Evaluator{policy: policy}
}

// Evaluate reports whether the record satisfies every condition in the set.
// An empty set matches unconditionally.
func (e *Evaluator) Evaluate(rec *models.InstrumentRecord, conditions models.ConditionSet) bool {
	for _, c := range conditions {
		if !e.EvaluateCondition(rec, c) {
			return false
		}
	}
	return true
}

// EvaluateCondition evaluates a single condition against a record.
//
// Missing values are handled asymmetrically: a nil value for one of the
// required price fields (close/open/high/low) fails the condition, while a
// nil value for any other known field passes it vacuously. Unknown field
// names and unknown operations evaluate per the configured policy.
//
// "near" is supported only for 52_week_high and 52_week_low and reads the
// precomputed proximity flag; when the flag is nil because the quote source
// had no historical data, the condition passes in a degraded, counted mode.
func (e *Evaluator) EvaluateCondition(rec *models.InstrumentRecord, c models.Condition) bool {
	passed := e.evaluateCondition(rec, c)
	observability.GetMetrics().RecordConditionCheck(string(c.Operation), passed)
	return passed
}

func (e *Evaluator) evaluateCondition(rec *models.InstrumentRecord, c models.Condition) bool {
	if c.Operation == models.OpNear {
		return e.evaluateNear(rec, c)
	}

	getter, known := fieldGetters[c.Left]
	if !known {
		observability.Debug("condition references unknown field",
			"field", c.Left,
			"policy", string(e.policy))
		return e.policy == PolicyFailOpen
	}

	left := getter(rec)
	if left == nil {
		return !requiredPriceFields[c.Left]
	}

	switch c.Operation {
	case models.OpEqual:
		// Strict equality. JSON decodes every number as float64, so numeric
		// fields compare against numeric literals without extra coercion.
		return left == c.Right
	case models.OpGreater:
		lf, lok := toFloat(left)
		rf, rok := toFloat(c.Right)
		return lok && rok && lf > rf
	case models.OpLess:
		lf, lok := toFloat(left)
		rf, rok := toFloat(c.Right)
		return lok && rok && lf < rf
	case models.OpIn:
		arr, ok := c.Right.([]any)
		if !ok {
			return false
		}
		for _, item := range arr {
			if left == item {
				return true
			}
		}
		return false
	default:
		observability.Debug("condition uses unknown operation",
			"operation", string(c.Operation),
			"policy", string(e.policy))
		return e.policy == PolicyFailOpen
	}
}

// evaluateNear evaluates the proximity conditions. Only the 52-week extremes
// are supported; any other field under "near" fails.
func (e *Evaluator) evaluateNear(rec *models.InstrumentRecord, c models.Condition) bool {
	var flag *bool
	switch c.Left {
	case "52_week_high":
		flag = rec.NearWeek52High
	case "52_week_low":
		flag = rec.NearWeek52Low
	default:
		return false
	}

	if flag == nil {
		// Quote-only mode: the proximity flag cannot be computed, so the
		// condition degrades to always-pass rather than excluding every
		// record from a history-less provider.
		observability.GetMetrics().RecordDegradedNearCheck()
		return true
	}
	return *flag
}

// toFloat coerces numbers and numeric strings to float64
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
