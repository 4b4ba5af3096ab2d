package protocol

import (
	"errors"
	"io"
)

var (
	ErrMessageTooLong = errors.New("message too long")
	ErrShortWrite     = errors.New("incomplete write")
)

// CRC16 is the CRC-16/MCRF4XX checksum over header and payload
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b = b ^ uint8(crc&0xFF)
		b = b ^ (b << 4)
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

// AppendBlock frames payload with the given sequence number and appends the
// block to dst.
func AppendBlock(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	msgLen := MessageHeaderSize + len(payload) + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return dst, ErrMessageTooLong
	}

	start := len(dst)
	dst = append(dst, uint8(msgLen), (seq&MessageSeqMask)|MessageDest)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}

// Block is one decoded frame
type Block struct {
	Seq     uint8 // low four bits only
	Payload []byte
}

// Decoder extracts blocks from a byte stream. Corrupt blocks are dropped
// and the decoder resynchronises on the next sync byte.
type Decoder struct {
	rx     *RxBuffer
	synced bool

	// Dropped counts blocks discarded for a bad length, sync or CRC
	Dropped int
}

// NewDecoder creates a decoder with room for several blocks
func NewDecoder() *Decoder {
	return &Decoder{
		rx:     NewRxBuffer(8 * MessageLengthMax),
		synced: true,
	}
}

// Write feeds received bytes. Bytes that do not fit are refused; call Next
// until it reports false to make room.
func (d *Decoder) Write(p []byte) (int, error) {
	n := d.rx.Write(p)
	if n < len(p) {
		return n, io.ErrShortBuffer
	}
	return n, nil
}

// Next returns the next complete block, or false when more input is needed.
// The returned payload is a copy.
func (d *Decoder) Next() (Block, bool) {
	data := d.rx.Data()
	defer func() {
		d.rx.Pop(d.rx.Available() - len(data))
	}()

	for len(data) > 0 {
		if !d.synced {
			i := 0
			for i < len(data) && data[i] != MessageValueSync {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			d.synced = true
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.lose()
			continue
		}
		if len(data) < msgLen {
			break
		}
		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.lose()
			continue
		}
		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 | uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.lose()
			continue
		}

		blk := Block{
			Seq:     data[MessagePositionSeq] & MessageSeqMask,
			Payload: append([]byte(nil), data[MessageHeaderSize:msgLen-MessageTrailerSize]...),
		}
		data = data[msgLen:]
		return blk, true
	}
	return Block{}, false
}

func (d *Decoder) lose() {
	d.synced = false
	d.Dropped++
}

// Writer sends reports as framed blocks with an incrementing sequence.
type Writer struct {
	w       io.Writer
	seq     uint8
	scratch ScratchOutput
	block   [MessageLengthMax]byte
}

// NewWriter creates a Writer on w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Send encodes and writes one report
func (w *Writer) Send(r Report) error {
	w.scratch.Reset()
	r.Encode(&w.scratch)
	if w.scratch.Overflow() {
		return ErrMessageTooLong
	}

	block, err := AppendBlock(w.block[:0], w.seq, w.scratch.Result())
	if err != nil {
		return err
	}
	n, err := w.w.Write(block)
	if err != nil {
		return err
	}
	if n != len(block) {
		return ErrShortWrite
	}
	w.seq = (w.seq + 1) & MessageSeqMask
	return nil
}
