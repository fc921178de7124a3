package commitment

import "encoding/binary"

// OutPoint identifies a transaction output: the 32-byte transaction id and
// the output's index within that transaction.
type OutPoint struct {
	Txid  [32]byte
	Index uint32
}

// NewOutPoint constructs an OutPoint.
func NewOutPoint(txid [32]byte, index uint32) OutPoint {
	return OutPoint{Txid: txid, Index: index}
}

// Coin carries the value attached to an unspent output: the height and
// coinbase status it was created at, its amount, and its locking script.
type Coin struct {
	Height   uint64
	Coinbase bool
	Amount   uint64
	Script   []byte
}

// NewCoin constructs a Coin.
func NewCoin(height uint64, coinbase bool, amount uint64, script []byte) Coin {
	return Coin{Height: height, Coinbase: coinbase, Amount: amount, Script: script}
}

// Encode produces the canonical byte encoding of a UTXO, per spec.md
// section 6: the OutPoint (txid, then 4-byte little-endian index) followed
// by the Coin (height*2+coinbase_flag as a compact-size integer, then the
// 8-byte little-endian amount, then the compact-size-prefixed script).
// This exact layout is part of the protocol: any two implementations
// encoding the same UTXO must produce byte-identical output for their
// digests to agree.
func Encode(op OutPoint, coin Coin) []byte {
	heightField := coin.Height * 2
	if coin.Coinbase {
		heightField++
	}

	out := make([]byte, 0, 32+4+9+8+9+len(coin.Script))
	out = append(out, op.Txid[:]...)
	out = binary.LittleEndian.AppendUint32(out, op.Index)
	out = appendCompactSize(out, heightField)
	out = binary.LittleEndian.AppendUint64(out, coin.Amount)
	out = appendCompactSize(out, uint64(len(coin.Script)))
	out = append(out, coin.Script...)
	return out
}

// appendCompactSize appends v encoded as a Bitcoin-style CompactSize
// variable-length integer: values below 0xFD are a single byte; larger
// values are prefixed by 0xFD/0xFE/0xFF followed by 2/4/8 little-endian
// bytes respectively.
func appendCompactSize(dst []byte, v uint64) []byte {
	switch {
	case v < 0xFD:
		return append(dst, byte(v))
	case v <= 0xFFFF:
		dst = append(dst, 0xFD)
		return binary.LittleEndian.AppendUint16(dst, uint16(v))
	case v <= 0xFFFFFFFF:
		dst = append(dst, 0xFE)
		return binary.LittleEndian.AppendUint32(dst, uint32(v))
	default:
		dst = append(dst, 0xFF)
		return binary.LittleEndian.AppendUint64(dst, v)
	}
}
