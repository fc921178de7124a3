// Package accumulator implements the MultisetAccumulator capability the
// commitment tree's leaves are built on: an incremental, commutative,
// invertible digest over a multiset of byte strings, realized over the
// secp256k1 curve.
//
// Absorbing an element maps it to a curve point via hash-to-curve and adds
// that point to a running accumulator point; removing an element subtracts
// the same point. Because point addition is commutative and associative,
// the running point - and therefore Finalize's digest - depends only on the
// multiset of elements absorbed, never on the order they were absorbed or
// removed in.
package accumulator

import (
	"crypto/elliptic"
	"crypto/sha256"
	"math/big"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/fantom-foundation/utxo-commit/go/common"
)

var (
	curveOnce sync.Once
	curve     elliptic.Curve
)

// curveContext lazily initializes the process-wide secp256k1 curve context.
// The context is immortal for the process lifetime; there is no teardown.
func curveContext() elliptic.Curve {
	curveOnce.Do(func() {
		curve = secp256k1.S256()
	})
	return curve
}

// Accumulator is a MultisetAccumulator implementation over secp256k1. The
// zero value is not valid; use New.
type Accumulator struct {
	// x, y hold the running point in affine coordinates. (0, 0) represents
	// the point at infinity, i.e. the identity element of the group, per the
	// convention used throughout Go's crypto/elliptic.
	x, y *big.Int
}

// New returns a fresh accumulator initialized to the identity element (the
// digest of the empty multiset).
func New() *Accumulator {
	return &Accumulator{x: big.NewInt(0), y: big.NewInt(0)}
}

// Add absorbs an element into the accumulator. Absorbing the same element
// twice keeps two copies in the multiset; it does not cancel out.
func (a *Accumulator) Add(element []byte) {
	px, py := hashToCurve(element)
	a.x, a.y = curveContext().Add(a.x, a.y, px, py)
}

// Remove absorbs the inverse of an element into the accumulator. Add(X)
// followed by Remove(X) returns the accumulator to its prior state.
func (a *Accumulator) Remove(element []byte) {
	px, py := hashToCurve(element)
	py = negateY(py)
	a.x, a.y = curveContext().Add(a.x, a.y, px, py)
}

// Combine merges another accumulator's multiset into this one. Combine is
// associative and commutative: init().Combine(A) == A.
func (a *Accumulator) Combine(other *Accumulator) {
	a.x, a.y = curveContext().Add(a.x, a.y, other.x, other.y)
}

// Clone returns an independent copy of the accumulator's current state.
func (a *Accumulator) Clone() *Accumulator {
	return &Accumulator{x: new(big.Int).Set(a.x), y: new(big.Int).Set(a.y)}
}

// Reset returns the accumulator to the identity element, as if freshly
// created by New.
func (a *Accumulator) Reset() {
	a.x.SetInt64(0)
	a.y.SetInt64(0)
}

// IsIdentity reports whether the accumulator currently holds the empty
// multiset's digest.
func (a *Accumulator) IsIdentity() bool {
	return a.x.Sign() == 0 && a.y.Sign() == 0
}

// identityDigest is the fixed 32-byte finalisation of the identity element,
// the hash L referenced throughout the commitment tree's empty-state
// digests. It is defined as the all-zero value directly, rather than as
// sha256 of the curve's own encoding of infinity, so that every leaf and
// trunk of a freshly constructed tree shares byte-for-byte the same digest
// without depending on curve-specific point encoding.
var identityDigest = common.Hash{}

// Finalize computes the deterministic 32-byte digest of the accumulator's
// current state.
func (a *Accumulator) Finalize() common.Hash {
	if a.IsIdentity() {
		return identityDigest
	}
	compressed := compress(a.x, a.y)
	return common.Hash(sha256.Sum256(compressed))
}

// compress encodes a curve point in the standard 33-byte compressed form:
// a one-byte parity prefix followed by the big-endian X coordinate.
func compress(x, y *big.Int) []byte {
	out := make([]byte, 33)
	if y.Bit(0) == 0 {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	x.FillBytes(out[1:])
	return out
}

// negateY mirrors a Y coordinate across the field, computing -y mod P; this
// is elliptic-curve point negation, used to turn addition into subtraction.
func negateY(y *big.Int) *big.Int {
	p := curveContext().Params().P
	return new(big.Int).Mod(new(big.Int).Neg(y), p)
}

// hashToCurve maps an arbitrary byte string onto a point on the curve using
// try-and-increment: hash the element with an incrementing counter until the
// result is a valid X coordinate, then take the (canonical, even-Y) root.
func hashToCurve(element []byte) (*big.Int, *big.Int) {
	params := curveContext().Params()
	p := params.P
	// b is the curve's constant term (secp256k1: y^2 = x^3 + 7); B is
	// exported by crypto/elliptic's CurveParams.
	b := params.B

	for counter := uint32(0); ; counter++ {
		h := sha256.New()
		h.Write(element)
		h.Write([]byte{byte(counter), byte(counter >> 8), byte(counter >> 16), byte(counter >> 24)})
		sum := h.Sum(nil)

		x := new(big.Int).SetBytes(sum)
		x.Mod(x, p)

		// rhs = x^3 + b mod p
		rhs := new(big.Int).Exp(x, big.NewInt(3), p)
		rhs.Add(rhs, b)
		rhs.Mod(rhs, p)

		y, ok := modSqrt(rhs, p)
		if !ok {
			continue
		}
		// Canonicalize to the even root so repeated hash-to-curve calls for
		// the same element are deterministic regardless of which root the
		// square root routine happens to return.
		if y.Bit(0) != 0 {
			y = negateYWithP(y, p)
		}
		return x, y
	}
}

func negateYWithP(y, p *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Neg(y), p)
}

// modSqrt computes a square root of a modulo p, where p is a prime
// congruent to 3 mod 4 (true for the secp256k1 field prime), using the
// direct exponentiation formula sqrt(a) = a^((p+1)/4) mod p. It reports
// whether a is a quadratic residue mod p.
func modSqrt(a, p *big.Int) (*big.Int, bool) {
	exp := new(big.Int).Add(p, big.NewInt(1))
	exp.Rsh(exp, 2)
	root := new(big.Int).Exp(a, exp, p)

	check := new(big.Int).Exp(root, big.NewInt(2), p)
	if check.Cmp(new(big.Int).Mod(a, p)) != 0 {
		return nil, false
	}
	return root, true
}
