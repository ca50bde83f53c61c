package huffman

import (
	"container/heap"
	"fmt"
)

// MaxCodeLen is the longest code the coder can represent.
const MaxCodeLen = 64

// Count returns the frequency of every symbol in [0, alphabet).
func Count(symbols []uint32, alphabet int) ([]uint64, error) {
	if alphabet <= 0 {
		return nil, fmt.Errorf("%w: alphabet size %d", ErrInvalidTable, alphabet)
	}
	freqs := make([]uint64, alphabet)
	for i, s := range symbols {
		if int(s) >= alphabet {
			return nil, fmt.Errorf("%w: symbol %d at position %d (alphabet %d)", ErrSymbolOutOfRange, s, i, alphabet)
		}
		freqs[s]++
	}
	return freqs, nil
}

type node struct {
	freq   uint64
	minSym uint32 // smallest symbol in this subtree, used as tie-break
	leaf   bool
	left   *node
	right  *node
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].minSym < h[j].minSym
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// CodeLengths derives a code length for every symbol from its frequency.
// Symbols with zero frequency get length 0 (no code).
func CodeLengths(freqs []uint64) ([]uint8, error) {
	lengths := make([]uint8, len(freqs))

	h := make(nodeHeap, 0, len(freqs))
	for sym, f := range freqs {
		if f > 0 {
			h = append(h, &node{freq: f, minSym: uint32(sym), leaf: true})
		}
	}

	switch len(h) {
	case 0:
		return lengths, nil
	case 1:
		lengths[h[0].minSym] = 1
		return lengths, nil
	}

	heap.Init(&h)
	for h.Len() > 1 {
		a := heap.Pop(&h).(*node)
		b := heap.Pop(&h).(*node)
		parent := &node{
			freq:   a.freq + b.freq,
			minSym: min(a.minSym, b.minSym),
			left:   a,
			right:  b,
		}
		heap.Push(&h, parent)
	}

	if err := assignDepths(h[0], 0, lengths); err != nil {
		return nil, err
	}
	return lengths, nil
}

func assignDepths(n *node, depth int, lengths []uint8) error {
	if n.leaf {
		if depth > MaxCodeLen {
			return fmt.Errorf("%w: code length %d exceeds %d", ErrInvalidTable, depth, MaxCodeLen)
		}
		lengths[n.minSym] = uint8(depth)
		return nil
	}
	if err := assignDepths(n.left, depth+1, lengths); err != nil {
		return err
	}
	return assignDepths(n.right, depth+1, lengths)
}

// Build constructs a canonical code table from symbol frequencies.
func Build(freqs []uint64) (*Table, error) {
	lengths, err := CodeLengths(freqs)
	if err != nil {
		return nil, err
	}
	return NewTable(lengths)
}
