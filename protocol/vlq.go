package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// EncodeVLQInt writes v most significant group first, seven bits per
// byte, with the high bit marking continuation. Values in [-32, 96)
// take one byte; any int32 takes at most five.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var buf [5]byte
	n := 0
	if !(-(1<<26) <= v && v < (3<<26)) {
		buf[n] = byte((v>>28)&0x7F) | 0x80
		n++
	}
	if !(-(1<<19) <= v && v < (3<<19)) {
		buf[n] = byte((v>>21)&0x7F) | 0x80
		n++
	}
	if !(-(1<<12) <= v && v < (3<<12)) {
		buf[n] = byte((v>>14)&0x7F) | 0x80
		n++
	}
	if !(-(1<<5) <= v && v < (3<<5)) {
		buf[n] = byte((v>>7)&0x7F) | 0x80
		n++
	}
	buf[n] = byte(v & 0x7F)
	output.Output(buf[:n+1])
}

// EncodeVLQUint encodes an unsigned integer; values of 2^31 and above
// travel as their int32 bit pattern
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt decodes a VLQ signed integer from the data slice.
// The data slice is advanced past the consumed bytes
func DecodeVLQInt(data *[]byte) (int32, error) {
	if len(*data) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32((*data)[0])
	*data = (*data)[1:]

	v := c & 0x7F
	// Sign extension for negative numbers
	if (c & 0x60) == 0x60 {
		v |= ^uint32(0x1F)
	}

	for n := 1; c&0x80 != 0; n++ {
		if n == 5 {
			return 0, ErrInvalidVLQ
		}
		if len(*data) == 0 {
			return 0, ErrBufferTooSmall
		}
		c = uint32((*data)[0])
		*data = (*data)[1:]
		v = (v << 7) | (c & 0x7F)
	}

	return int32(v), nil
}

// DecodeVLQUint decodes a VLQ unsigned integer from the data slice
func DecodeVLQUint(data *[]byte) (uint32, error) {
	val, err := DecodeVLQInt(data)
	return uint32(val), err
}
