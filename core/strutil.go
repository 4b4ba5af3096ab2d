package core

// Number formatting for firmware code that cannot afford fmt.

const hexDigits = "0123456789ABCDEF"

// utoa renders n in decimal using a stack buffer.
func utoa(n uint32) string {
	var buf [10]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return string(buf[i:])
}

// Utoa is utoa for other packages
func Utoa(n uint32) string { return utoa(n) }

// FormatHex renders a byte as 0xNN
func FormatHex(b uint8) string {
	return string([]byte{'0', 'x', hexDigits[b>>4], hexDigits[b&0x0F]})
}

// FormatHex16 renders a 16-bit word as 0xNNNN
func FormatHex16(v uint16) string {
	return FormatHex(uint8(v>>8)) + string([]byte{hexDigits[(v>>4)&0x0F], hexDigits[v&0x0F]})
}
