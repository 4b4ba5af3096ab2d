// Package protocol frames motion reports between the sensor firmware and
// the host.
//
// Each report travels in its own block:
//
//	[len][seq|0x10][payload...][crc16 hi][crc16 lo][0x7E]
//
// The payload is a VLQ message id followed by VLQ-encoded fields.
package protocol

// Version of the report protocol
const Version = "0.1.0"

// Block layout constants
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3 // CRC offset from end of block
	MessageTrailerSync = 1 // sync offset from end of block

	MessageValueSync = 0x7E
	MessageDest      = 0x10
	MessageSeqMask   = 0x0F

	// Scratch space for building one payload
	MessageMax = MessageLengthMax
)
