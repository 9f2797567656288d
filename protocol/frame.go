package protocol

import "bytes"

// Decoder splits a byte stream into reports. After a corrupt block it
// discards input up to the next sync byte.
type Decoder struct {
	buf          []byte
	synchronized bool

	// Dropped counts blocks rejected for bad framing, CRC or payload
	Dropped int
}

// NewDecoder creates a Decoder that expects the stream to start on a block
// boundary
func NewDecoder() *Decoder {
	return &Decoder{synchronized: true}
}

// Feed appends data to the pending input and returns every complete
// report it contains. Incomplete blocks are kept for the next call.
func (d *Decoder) Feed(data []byte) []Report {
	d.buf = append(d.buf, data...)

	var reports []Report
	for len(d.buf) > 0 {
		if !d.synchronized {
			syncPos := bytes.IndexByte(d.buf, MessageValueSync)
			if syncPos < 0 {
				d.buf = d.buf[:0]
				break
			}
			d.buf = d.buf[syncPos+1:]
			d.synchronized = true
			continue
		}

		// Skip leading sync bytes
		if d.buf[0] == MessageValueSync {
			d.buf = d.buf[1:]
			continue
		}

		if len(d.buf) < MessageLengthMin {
			break
		}

		msgLen := int(d.buf[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}

		seq := d.buf[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}

		// Wait for full message
		if len(d.buf) < msgLen {
			break
		}

		if d.buf[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(d.buf[msgLen-MessageTrailerCRC])<<8 |
			uint16(d.buf[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(d.buf[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		report, err := decodeReport(seq, d.buf[MessageHeaderSize:msgLen-MessageTrailerSize])
		d.buf = d.buf[msgLen:]
		if err != nil {
			d.Dropped++
			continue
		}
		reports = append(reports, report)
	}

	if len(d.buf) == 0 {
		d.buf = nil
	}
	return reports
}

// Pending returns the number of buffered bytes not yet decoded
func (d *Decoder) Pending() int {
	return len(d.buf)
}

func (d *Decoder) desync() {
	d.synchronized = false
	d.Dropped++
}
