package status

//ReduceStatus status of a reduction run
type ReduceStatus string

const (
	//INIT reduction created, inputs bound, nothing executed yet
	INIT ReduceStatus = "INIT"
	//CHUNKING input sequence being partitioned into weighted chunks
	CHUNKING ReduceStatus = "CHUNKING"
	//DISPATCHED chunk tasks submitted for execution
	DISPATCHED ReduceStatus = "DISPATCHED"
	//REDUCING partial results being folded into the accumulator
	REDUCING ReduceStatus = "REDUCING"
	//DONE reduction finished successfully
	DONE ReduceStatus = "DONE"
	//FAILED reduction aborted on the first task or merge failure
	FAILED ReduceStatus = "FAILED"
)

var statuses = map[ReduceStatus]int{
	INIT:       0,
	CHUNKING:   1,
	DISPATCHED: 2,
	REDUCING:   3,
	DONE:       4,
	FAILED:     5,
}

var transitions = map[ReduceStatus][]ReduceStatus{
	INIT:       {CHUNKING},
	CHUNKING:   {DISPATCHED, DONE, FAILED},
	DISPATCHED: {REDUCING, FAILED},
	REDUCING:   {DONE, FAILED},
	DONE:       {},
	FAILED:     {},
}

// And combines two statuses, keeping the one further along; FAILED absorbs.
func (s ReduceStatus) And(other ReduceStatus) ReduceStatus {
	i1, ok1 := statuses[s]
	i2, ok2 := statuses[other]
	if ok1 && ok2 {
		if i1 < i2 {
			return other
		}
		return s
	} else if ok1 {
		return s
	}
	return other
}

// Terminal reports whether no further transition is possible.
func (s ReduceStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the move from s to next is legal.
func (s ReduceStatus) CanTransitionTo(next ReduceStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
