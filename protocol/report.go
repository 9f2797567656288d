package protocol

import "errors"

var ErrBadFrame = errors.New("malformed report frame")

// Report is one uptime sample taken by the firmware.
type Report struct {
	Seq          uint8  // Low four bits of the block sequence
	UptimeMillis uint32 // SysTick uptime counter
	Micros       uint32 // Microsecond time source at the same instant
	Ticks        uint32 // Tick callback invocations observed so far
}

// EncodeReport appends r to output as one complete block.
func EncodeReport(output OutputBuffer, r Report) {
	start := output.CurPosition()
	output.Output([]byte{0, MessageDest | (r.Seq & MessageSeqMask)})

	EncodeVLQUint(output, r.UptimeMillis)
	EncodeVLQUint(output, r.Micros)
	EncodeVLQUint(output, r.Ticks)

	msgLen := output.CurPosition() - start + MessageTrailerSize
	output.Update(start+MessagePositionLen, byte(msgLen))

	crc := CRC16(output.DataSince(start))
	output.Output([]byte{byte(crc >> 8), byte(crc), MessageValueSync})
}

func decodeReport(seq uint8, payload []byte) (Report, error) {
	r := Report{Seq: seq & MessageSeqMask}
	var err error
	if r.UptimeMillis, err = DecodeVLQUint(&payload); err != nil {
		return Report{}, err
	}
	if r.Micros, err = DecodeVLQUint(&payload); err != nil {
		return Report{}, err
	}
	if r.Ticks, err = DecodeVLQUint(&payload); err != nil {
		return Report{}, err
	}
	if len(payload) != 0 {
		return Report{}, ErrBadFrame
	}
	return r, nil
}
