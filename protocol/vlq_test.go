package protocol

import (
	"testing"
)

func TestVLQRoundTripInt(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 95, 96, -32, -33,
		127, -127, 128, -128,
		1000, -1000, 65535, -65535,
		1000000, -1000000,
		2147483647, -2147483648,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
		if len(data) != 0 {
			t.Errorf("VLQ decode left %d bytes for value %d", len(data), expected)
		}
	}
}

func TestVLQEncodedLength(t *testing.T) {
	testCases := []struct {
		v    int32
		want int
	}{
		{0, 1},
		{95, 1},
		{-32, 1},
		{96, 2},
		{-33, 2},
		{1310, 2},
		{12500, 3},
		{-2147483648, 5},
	}
	for _, tc := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, tc.v)
		if got := output.CurPosition(); got != tc.want {
			t.Errorf("EncodeVLQInt(%d) used %d bytes, want %d", tc.v, got, tc.want)
		}
	}
}

func TestVLQUintAndBool(t *testing.T) {
	output := NewScratchOutput()
	EncodeVLQUint(output, 4294967295)
	EncodeVLQBool(output, true)
	EncodeVLQBool(output, false)

	data := output.Result()
	u, err := DecodeVLQUint(&data)
	if err != nil || u != 4294967295 {
		t.Errorf("DecodeVLQUint = %d, %v", u, err)
	}
	b, err := DecodeVLQBool(&data)
	if err != nil || !b {
		t.Errorf("first bool = %v, %v", b, err)
	}
	b, err = DecodeVLQBool(&data)
	if err != nil || b {
		t.Errorf("second bool = %v, %v", b, err)
	}
}

func TestVLQString(t *testing.T) {
	testCases := []string{
		"",
		"rev 0x03",
		"rev 0x03 srom 0xA6",
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQString(output, expected)

		data := output.Result()
		decoded, err := DecodeVLQString(&data)
		if err != nil {
			t.Errorf("Failed to decode string '%s': %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("String mismatch: expected '%s', got '%s'", expected, decoded)
		}
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	data := []byte{0x80} // Continuation byte but no following byte
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}

	data = []byte{0x05, 'a', 'b'} // String shorter than its length
	if _, err := DecodeVLQString(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestVLQTooLong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
