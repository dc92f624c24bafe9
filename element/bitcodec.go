package element

// bitMask returns a mask of the low `bits` bits (bits in [0,32]).
func bitMask(bits uint32) uint32 {
	if bits >= 32 {
		return ^uint32(0)
	}
	return (uint32(1) << bits) - 1
}

func byteOffsetAndShift(bitPos uint32) (offset, shift uint32) {
	return bitPos >> 3, bitPos & 0x07
}

func wordOffsetAndShift(bitPos uint32) (offset, shift uint32) {
	return bitPos >> 5, bitPos & 0x1f
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// ReadBits copies `bits` bits starting at `srcStartBit` of src into the
// packed little-endian 32-bit word array dst, optionally sign-extending
// the result, and reports whether the words in dst actually changed.
//
// Byte-aligned, non-sign-extended reads take a direct compare+copy fast
// path; everything else falls back to a shift-and-OR loop that copies up
// to one source byte per step, never allocates, and is defined for bits
// in [0, 1<<31].
func ReadBits(src []byte, dst []uint32, bits uint32, srcStartBit uint32, signExtend bool) (changed bool) {
	if bits == 0 {
		return false
	}

	if srcStartBit%8 == 0 && bits%8 == 0 && !signExtend {
		srcOffset := srcStartBit / 8
		n := bits / 8
		var i uint32
		for ; i < n; i++ {
			wi, shift := i/4, 8*(i%4)
			nb := src[srcOffset+i]
			ob := byte(dst[wi] >> shift)
			if nb != ob {
				dst[wi] = (dst[wi] &^ (0xff << shift)) | (uint32(nb) << shift)
				changed = true
			}
		}
		return changed
	}

	var (
		dstShift, dstStartBit, dstOffset, lastDstOffset uint32
		word                                            uint32
		totalBitsProcessed                              uint32
		bitsToCopy                                      = bits
	)

	for bitsToCopy > 0 {
		srcOffset, srcShift := byteOffsetAndShift(srcStartBit)

		bitsProcessed := minU32(bitsToCopy, minU32(8-srcShift, 32-dstShift))

		tmp := (uint32(src[srcOffset]) >> srcShift) & bitMask(bitsProcessed)
		word |= tmp << dstShift

		dstStartBit += bitsProcessed
		srcStartBit += bitsProcessed
		bitsToCopy -= bitsProcessed
		totalBitsProcessed += bitsProcessed

		dstOffset, dstShift = wordOffsetAndShift(dstStartBit)

		if dstOffset != lastDstOffset || bitsToCopy == 0 {
			if lastDstOffset == 0 && signExtend {
				if totalBitsProcessed < 32 && word&(1<<(totalBitsProcessed-1)) != 0 {
					word |= ^bitMask(totalBitsProcessed)
				}
			}

			if dst[lastDstOffset] != word {
				dst[lastDstOffset] = word
				changed = true
			}
			word = 0
			lastDstOffset = dstOffset
		}
	}

	return changed
}

// WriteBits packs `bits` bits from the little-endian word array src into
// dst at dstStartBit. Byte-aligned writes copy whole bytes; other writes
// OR into the destination, so callers that want overwrite semantics must
// zero dst first. Bits outside the target range are never cleared. CreateReport always allocates a fresh, zeroed buffer
// so this never matters for outbound reports.
func WriteBits(src []uint32, dst []byte, bits uint32, dstStartBit uint32) {
	if bits == 0 {
		return
	}

	if dstStartBit%8 == 0 && bits%8 == 0 {
		dstOffset := dstStartBit / 8
		n := bits / 8
		for i := uint32(0); i < n; i++ {
			wi, shift := i/4, 8*(i%4)
			dst[dstOffset+i] = byte(src[wi] >> shift)
		}
		return
	}

	var srcStartBit uint32
	bitsToCopy := bits

	for bitsToCopy > 0 {
		dstOffset, dstShift := byteOffsetAndShift(dstStartBit)
		srcOffset, srcShift := wordOffsetAndShift(srcStartBit)

		bitsProcessed := minU32(bitsToCopy, minU32(8-dstShift, 32-srcShift))

		tmp := (src[srcOffset] >> srcShift) & bitMask(bitsProcessed)
		dst[dstOffset] |= uint8(tmp << dstShift)

		dstStartBit += bitsProcessed
		srcStartBit += bitsProcessed
		bitsToCopy -= bitsProcessed
	}
}

// MulOverflows reports whether a*b overflows uint32, guarding
// reportBits*reportCount before it is used as a bit count.
func MulOverflows(a, b uint32) bool {
	if a == 0 || b == 0 {
		return false
	}
	return a > (^uint32(0))/b
}
