// Package bitarray provides a dense, fixed-capacity array of 1-bit flags
// with O(1) get/set/flip, backed by github.com/bits-and-blooms/bitset.
// Indexing past the array's declared capacity is a programmer contract
// violation and is fatal, matching the source this is grounded on
// (canu's bitArray, src/utility/bits.H).
package bitarray

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/korenlab/ovstore/internal/diag"
)

// Array is a dense sequence of nMax bits. The zero value is not usable;
// construct with New.
type Array struct {
	bits *bitset.BitSet
	nMax uint64
}

// New allocates an Array able to address bits [0, nMax). All bits start clear.
func New(nMax uint64) *Array {
	return &Array{
		bits: bitset.New(uint(nMax)),
		nMax: nMax,
	}
}

func (a *Array) checkBounds(op string, i uint64) {
	if i >= a.nMax {
		diag.Fatalf("bitarray", "%s: index %d >= capacity %d", op, i, a.nMax)
	}
}

// Get returns the bit at position i.
func (a *Array) Get(i uint64) bool {
	a.checkBounds("Get", i)
	return a.bits.Test(uint(i))
}

// Set writes the bit at position i.
func (a *Array) Set(i uint64, v bool) {
	a.checkBounds("Set", i)
	a.bits.SetTo(uint(i), v)
}

// Flip toggles the bit at position i and returns its previous value.
func (a *Array) Flip(i uint64) bool {
	a.checkBounds("Flip", i)
	old := a.bits.Test(uint(i))
	a.bits.SetTo(uint(i), !old)
	return old
}

// Clear zeroes all storage; an array that has never been written also
// reads back as all zero bits.
func (a *Array) Clear() {
	a.bits.ClearAll()
}

// Len reports the array's declared capacity in bits.
func (a *Array) Len() uint64 {
	return a.nMax
}

func (a *Array) String() string {
	return fmt.Sprintf("bitarray.Array{nMax: %d}", a.nMax)
}
