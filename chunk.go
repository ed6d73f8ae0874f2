package parallel

import (
	"math"

	"github.com/CatalinaYepes/oq-risklib/util"
)

// WeightFn estimates the cost of one item. Weights only drive load balancing,
// never merge order or correctness. A nil WeightFn weighs every item 1.
type WeightFn func(item interface{}) float64

// KeyFn classifies an item; items with different keys never share a chunk.
type KeyFn func(item interface{}) interface{}

// Chunk is a contiguous, order-preserving slice of the input sequence together
// with its aggregate weight. Index is the position in the partition order:
// concatenating chunks by Index reproduces the original sequence exactly.
// A chunk is immutable after Split returns it and is consumed by exactly one
// work-function invocation.
type Chunk struct {
	Index  int
	Items  []interface{}
	Weight float64
}

func unitWeight(interface{}) float64 {
	return 1
}

// weightsOf evaluates the weight function over all items, failing before any
// dispatch when a weight is negative or non-finite.
func weightsOf(items []interface{}, weightFn WeightFn) ([]float64, EngineError) {
	if weightFn == nil {
		weightFn = unitWeight
	}
	ws := make([]float64, len(items))
	for i, item := range items {
		w := weightFn(item)
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, NewEngineError(ErrCodeInvalidWeight,
				"weight %v of item at position %d must be finite and non-negative", w, i)
		}
		ws[i] = w
	}
	return ws, nil
}

// Split partitions items into at most numChunks contiguous chunks of nearly
// equal weight. It walks the sequence once, closing the current chunk as soon
// as its running weight meets or exceeds the target total/numChunks; once
// numChunks-1 chunks are closed all remaining items form the final chunk.
// When the total weight is zero the target falls back to an item count.
// numChunks <= 0 behaves as 1; empty input yields no chunks; the chunk count
// never exceeds len(items).
func Split(items []interface{}, numChunks int, weightFn WeightFn) ([]Chunk, EngineError) {
	if len(items) == 0 {
		return nil, nil
	}
	if numChunks <= 0 {
		numChunks = 1
	}
	ws, err := weightsOf(items, weightFn)
	if err != nil {
		return nil, err
	}
	return greedySplit(items, ws, numChunks, 0), nil
}

// SplitByKey is Split with an additional constraint: a chunk never mixes items
// with different keys. Each maximal run of equal-keyed items is split
// independently, with a pro-rata share of numChunks (at least one chunk per
// run, so the chunk count can exceed numChunks when there are more keys than
// chunks). A nil keyFn degrades to Split.
func SplitByKey(items []interface{}, numChunks int, weightFn WeightFn, keyFn KeyFn) ([]Chunk, EngineError) {
	if keyFn == nil {
		return Split(items, numChunks, weightFn)
	}
	if len(items) == 0 {
		return nil, nil
	}
	if numChunks <= 0 {
		numChunks = 1
	}
	ws, err := weightsOf(items, weightFn)
	if err != nil {
		return nil, err
	}
	total := util.SumFloat64(ws)
	var chunks []Chunk
	for start := 0; start < len(items); {
		key := keyFn(items[start])
		end := start + 1
		for end < len(items) && keyFn(items[end]) == key {
			end++
		}
		runItems, runWs := items[start:end], ws[start:end]
		var share float64
		if total > 0 {
			share = float64(numChunks) * util.SumFloat64(runWs) / total
		} else {
			share = float64(numChunks) * float64(len(runItems)) / float64(len(items))
		}
		runChunks := int(math.Round(share))
		if runChunks < 1 {
			runChunks = 1
		}
		chunks = append(chunks, greedySplit(runItems, runWs, runChunks, len(chunks))...)
		start = end
	}
	return chunks, nil
}

// greedySplit implements the single-pass splitter over pre-validated weights.
// baseIndex offsets the chunk identifiers so key runs number consecutively.
func greedySplit(items []interface{}, ws []float64, numChunks, baseIndex int) []Chunk {
	eff := ws
	total := util.SumFloat64(ws)
	if total == 0 {
		// weightless input, balance by count instead
		eff = make([]float64, len(items))
		for i := range eff {
			eff[i] = 1
		}
		total = float64(len(items))
	}
	target := total / float64(numChunks)

	var chunks []Chunk
	var cur []interface{}
	var curEff, curWeight float64
	for i, item := range items {
		cur = append(cur, item)
		curEff += eff[i]
		curWeight += ws[i]
		if len(chunks) < numChunks-1 && curEff >= target {
			chunks = append(chunks, Chunk{Index: baseIndex + len(chunks), Items: cur, Weight: curWeight})
			cur, curEff, curWeight = nil, 0, 0
		}
	}
	if len(cur) > 0 {
		chunks = append(chunks, Chunk{Index: baseIndex + len(chunks), Items: cur, Weight: curWeight})
	}
	return chunks
}
