package protocol

import "errors"

// ErrUnknownMessage is returned for a message id this package does not know
var ErrUnknownMessage = errors.New("unknown message id")

// Message ids
const (
	MsgIdentify uint32 = 1
	MsgMotion   uint32 = 2
	MsgFault    uint32 = 3
)

// Report is one message sent from the sensor firmware
type Report interface {
	// Encode writes the message id and fields
	Encode(output OutputBuffer)
}

// Identify is sent once the sensor is configured
type Identify struct {
	ProductID       uint8
	RevisionID      uint8
	SROMID          uint8
	ResolutionCPI   uint16
	MinSamplePeriod uint16 // µs
	MaxSamplePeriod uint16 // µs
	Firmware        string
}

func (m *Identify) Encode(output OutputBuffer) {
	EncodeVLQUint(output, MsgIdentify)
	EncodeVLQUint(output, uint32(m.ProductID))
	EncodeVLQUint(output, uint32(m.RevisionID))
	EncodeVLQUint(output, uint32(m.SROMID))
	EncodeVLQUint(output, uint32(m.ResolutionCPI))
	EncodeVLQUint(output, uint32(m.MinSamplePeriod))
	EncodeVLQUint(output, uint32(m.MaxSamplePeriod))
	EncodeVLQString(output, m.Firmware)
}

// Motion carries the raw counts of one capture
type Motion struct {
	DX, DY        int32
	DT            uint32 // µs since the previous capture
	Motion        bool
	ResolutionCPI uint16
}

func (m *Motion) Encode(output OutputBuffer) {
	EncodeVLQUint(output, MsgMotion)
	EncodeVLQInt(output, m.DX)
	EncodeVLQInt(output, m.DY)
	EncodeVLQUint(output, m.DT)
	EncodeVLQBool(output, m.Motion)
	EncodeVLQUint(output, uint32(m.ResolutionCPI))
}

// FaultCode identifies the operation that failed
type FaultCode uint8

const (
	FaultBegin   FaultCode = 1
	FaultCapture FaultCode = 2
)

func (c FaultCode) String() string {
	switch c {
	case FaultBegin:
		return "begin"
	case FaultCapture:
		return "capture"
	}
	return "unknown"
}

// faultDetailMax keeps a Fault inside one block
const faultDetailMax = 48

// Fault reports a firmware-side error
type Fault struct {
	Code   FaultCode
	Detail string
}

func (m *Fault) Encode(output OutputBuffer) {
	EncodeVLQUint(output, MsgFault)
	EncodeVLQUint(output, uint32(m.Code))
	detail := m.Detail
	if len(detail) > faultDetailMax {
		detail = detail[:faultDetailMax]
	}
	EncodeVLQString(output, detail)
}

// Decode parses a block payload into a report
func Decode(payload []byte) (Report, error) {
	data := payload
	id, err := DecodeVLQUint(&data)
	if err != nil {
		return nil, err
	}

	switch id {
	case MsgIdentify:
		var f [6]uint32
		for i := range f {
			if f[i], err = DecodeVLQUint(&data); err != nil {
				return nil, err
			}
		}
		fw, err := DecodeVLQString(&data)
		if err != nil {
			return nil, err
		}
		return &Identify{
			ProductID:       uint8(f[0]),
			RevisionID:      uint8(f[1]),
			SROMID:          uint8(f[2]),
			ResolutionCPI:   uint16(f[3]),
			MinSamplePeriod: uint16(f[4]),
			MaxSamplePeriod: uint16(f[5]),
			Firmware:        fw,
		}, nil

	case MsgMotion:
		m := &Motion{}
		if m.DX, err = DecodeVLQInt(&data); err != nil {
			return nil, err
		}
		if m.DY, err = DecodeVLQInt(&data); err != nil {
			return nil, err
		}
		if m.DT, err = DecodeVLQUint(&data); err != nil {
			return nil, err
		}
		if m.Motion, err = DecodeVLQBool(&data); err != nil {
			return nil, err
		}
		cpi, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		m.ResolutionCPI = uint16(cpi)
		return m, nil

	case MsgFault:
		code, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		detail, err := DecodeVLQString(&data)
		if err != nil {
			return nil, err
		}
		return &Fault{Code: FaultCode(code), Detail: detail}, nil
	}
	return nil, ErrUnknownMessage
}
