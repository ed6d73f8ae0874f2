package parallel

import (
	"github.com/CatalinaYepes/oq-risklib/util"
)

// AccumDict is the commutative accumulator the engine folds partial results
// into: a mapping whose values are numbers, []float64 vectors or nested
// AccumDicts. Missing keys behave as the additive identity of the value type,
// so merging never raises on an absent key. Merging is pure: a merge builds a
// new accumulator and leaves both inputs untouched, which is what makes
// partial results from concurrently running workers safe to combine in any
// completion order.
type AccumDict map[interface{}]interface{}

// Get returns the value stored under key, or def when the key is absent.
func (a AccumDict) Get(key, def interface{}) interface{} {
	if v, ok := a[key]; ok {
		return v
	}
	return def
}

// Clone returns a copy of the accumulator, deep for nested AccumDict and
// []float64 values.
func (a AccumDict) Clone() AccumDict {
	out := make(AccumDict, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge combines two accumulators per-key: result[k] = a[k] + b[k], with an
// implicit zero for keys present on one side only. The operation is
// commutative and associative, and the empty AccumDict is its identity.
func (a AccumDict) Merge(b AccumDict) (AccumDict, EngineError) {
	out := make(AccumDict, len(a)+len(b))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	for k, v := range b {
		cur, ok := out[k]
		if !ok {
			out[k] = cloneValue(v)
			continue
		}
		merged, err := MergeValue(cur, v)
		if err != nil {
			return nil, NewEngineError(ErrCodeShapeMismatch, "cannot merge values under key %v", k, err)
		}
		out[k] = merged
	}
	return out, nil
}

// MergeValue applies the accumulator algebra to two bare values: nil is the
// universal identity, numbers add (int/float64 mixes promote to float64),
// []float64 vectors add elementwise, AccumDicts merge recursively. Values of
// incompatible shape or type fail with ErrCodeShapeMismatch.
func MergeValue(a, b interface{}) (interface{}, EngineError) {
	if a == nil {
		return cloneValue(b), nil
	}
	if b == nil {
		return cloneValue(a), nil
	}
	if da, ok := asDict(a); ok {
		db, ok := asDict(b)
		if !ok {
			return nil, shapeErr(a, b)
		}
		return da.Merge(db)
	}
	if va, ok := a.([]float64); ok {
		vb, ok := b.([]float64)
		if !ok {
			return nil, shapeErr(a, b)
		}
		sum, ok := util.AddFloat64(va, vb)
		if !ok {
			return nil, NewEngineError(ErrCodeShapeMismatch,
				"cannot merge vectors of length %d and %d", len(va), len(vb))
		}
		return sum, nil
	}
	return mergeNumeric(a, b)
}

func mergeNumeric(a, b interface{}) (interface{}, EngineError) {
	switch x := a.(type) {
	case int:
		switch y := b.(type) {
		case int:
			return x + y, nil
		case int64:
			return int64(x) + y, nil
		case float64:
			return float64(x) + y, nil
		}
	case int64:
		switch y := b.(type) {
		case int64:
			return x + y, nil
		case int:
			return x + int64(y), nil
		case float64:
			return float64(x) + y, nil
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return x + y, nil
		case int:
			return x + float64(y), nil
		case int64:
			return x + float64(y), nil
		}
	}
	return nil, shapeErr(a, b)
}

func shapeErr(a, b interface{}) EngineError {
	return NewEngineError(ErrCodeShapeMismatch, "cannot merge %T with %T", a, b)
}

func asDict(v interface{}) (AccumDict, bool) {
	switch d := v.(type) {
	case AccumDict:
		return d, true
	case map[interface{}]interface{}:
		return AccumDict(d), true
	}
	return nil, false
}

func cloneValue(v interface{}) interface{} {
	switch x := v.(type) {
	case AccumDict:
		return x.Clone()
	case map[interface{}]interface{}:
		return AccumDict(x).Clone()
	case []float64:
		return util.CloneFloat64(x)
	}
	return v
}
