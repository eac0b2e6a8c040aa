package pngn

import "fmt"

const (
	maxCodeBits       = 15 // Longest literal/length or distance code.
	maxCodeLengthBits = 7  // Longest code in the code-length alphabet.

	emptySlot = 0xFFFF // Trie slot that no code passes through.
)

// huffmanTree is a canonical Huffman decoding trie stored in a flat arena.
// Node i owns slots 2*i (bit 0) and 2*i+1 (bit 1). A slot holds a symbol when its
// value is below numSymbols, the child node numSymbols+index otherwise, or emptySlot.
type huffmanTree struct {
	nodes      []uint16
	numSymbols int
}

// newHuffmanTree builds a decoding trie from per-symbol code lengths.
func newHuffmanTree(lengths []uint8, maxBits int) (*huffmanTree, error) {
	t := new(huffmanTree)
	if err := t.build(lengths, maxBits); err != nil {
		return nil, err
	}

	return t, nil
}

// build (re)initializes the trie from per-symbol code lengths using the canonical
// code assignment of RFC 1951 section 3.2.2. A length of zero means the symbol is unused.
// The lengths must form a complete or under-subscribed prefix code.
func (t *huffmanTree) build(lengths []uint8, maxBits int) error {
	if maxBits > maxCodeBits {
		return fmt.Errorf("maximum code length %d exceeds %d: %w", maxBits, maxCodeBits, ErrInvalidCodeLengths)
	}

	// Count the number of codes for each code length.
	var count [maxCodeBits + 1]int
	for sym, l := range lengths {
		if int(l) > maxBits {
			return fmt.Errorf("symbol %d has code length %d, maximum is %d: %w", sym, l, maxBits, ErrInvalidCodeLengths)
		}

		count[l]++
	}

	count[0] = 0

	// Reject over-subscribed codes: the number of codes of each length must fit
	// into the code space left over by the shorter lengths.
	left := 1
	for l := 1; l <= maxBits; l++ {
		left <<= 1
		left -= count[l]
		if left < 0 {
			return fmt.Errorf("over-subscribed code at length %d: %w", l, ErrInvalidCodeLengths)
		}
	}

	// Find the numerical value of the smallest code for each code length.
	var next [maxCodeBits + 1]uint32
	var code uint32
	for l := 1; l <= maxBits; l++ {
		code = (code + uint32(count[l-1])) << 1
		next[l] = code
	}

	n := len(lengths)
	t.numSymbols = n
	t.nodes = append(t.nodes[:0], emptySlot, emptySlot)

	// Insert every code into the trie, most significant bit first.
	for sym, l := range lengths {
		if l == 0 {
			continue
		}

		c := next[l]
		next[l]++

		node := 0
		for i := int(l) - 1; i >= 0; i-- {
			slot := 2*node + int((c>>uint(i))&1)
			v := t.nodes[slot]

			if i == 0 {
				if v != emptySlot {
					return fmt.Errorf("code for symbol %d collides with another code: %w", sym, ErrInvalidCodeLengths)
				}

				t.nodes[slot] = uint16(sym)

				break
			}

			switch {
			case v == emptySlot:
				node = len(t.nodes) / 2
				if n+node >= emptySlot {
					return fmt.Errorf("trie overflow at symbol %d: %w", sym, ErrInvalidCodeLengths)
				}

				t.nodes[slot] = uint16(n + node)
				t.nodes = append(t.nodes, emptySlot, emptySlot)
			case int(v) < n:
				return fmt.Errorf("code for symbol %d extends the code of symbol %d: %w", sym, v, ErrInvalidCodeLengths)
			default:
				node = int(v) - n
			}
		}
	}

	return nil
}

// decode walks the trie from the root one bit at a time and returns the symbol at the leaf.
// Running out of input mid-walk, or reaching a slot no code uses, is a corrupt stream.
func (t *huffmanTree) decode(br *bitReader) int {
	node := 0
	for {
		if br.exhausted() {
			br.panic(fmt.Errorf("huffman code runs past end of input: %w", ErrCorruptStream))
		}

		v := t.nodes[2*node+int(br.readBit())]
		if v == emptySlot {
			br.panic(fmt.Errorf("invalid huffman code before bit %d: %w", br.pos, ErrCorruptStream))
		}

		if int(v) < t.numSymbols {
			return int(v)
		}

		node = int(v) - t.numSymbols
	}
}
