// Package protocol implements the framed uptime reports that gotick
// firmware streams to the host.
package protocol

// Version represents the report format version
const Version = "0.1.0"

// Block layout: len | seq | payload | crc16 hi | crc16 lo | sync
const (
	MessageMax         = 256 // Scratch output capacity
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence mask
	MessageSeqMask = 0x0F
)
