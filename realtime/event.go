package realtime

import "sort"

type inputKind uint8

const (
	inputEvent inputKind = iota
	inputProperty
	inputRaw
)

// InputWithMeta adds sequencing metadata for deterministic ordering.
type InputWithMeta struct {
	kind        inputKind
	Name        string
	Value       any
	SequenceNum uint64
	Priority    int
}

// sortInputs orders inputs deterministically: higher priority first, then FIFO.
func sortInputs(inputs []InputWithMeta) {
	sort.SliceStable(inputs, func(i, j int) bool {
		if inputs[i].Priority != inputs[j].Priority {
			return inputs[i].Priority > inputs[j].Priority
		}
		return inputs[i].SequenceNum < inputs[j].SequenceNum
	})
}
