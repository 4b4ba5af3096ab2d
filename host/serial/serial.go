package serial

import (
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Port is an open serial port. Native ports use github.com/tarm/serial;
// tests substitute any io.ReadWriteCloser.
type Port interface {
	io.ReadWriteCloser

	// Flush discards buffered data
	Flush() error
}

// DefaultBaud is ignored by USB CDC but required by the termios setup
const DefaultBaud = 115200

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string `yaml:"device" mapstructure:"device"`

	Baud int `yaml:"baud" mapstructure:"baud"`

	// Read timeout in milliseconds (0 = blocking until data or Close)
	ReadTimeout int `yaml:"read_timeout" mapstructure:"read_timeout"`
}

// DefaultConfig returns a blocking configuration for device
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 0,
	}
}

// ListPorts returns candidate USB serial devices for this platform
func ListPorts() []string {
	var ports []string
	switch runtime.GOOS {
	case "windows":
		for i := 1; i <= 32; i++ {
			ports = append(ports, "COM"+strconv.Itoa(i))
		}
	case "linux":
		files, err := os.ReadDir("/dev")
		if err != nil {
			return nil
		}
		for _, f := range files {
			name := f.Name()
			if strings.HasPrefix(name, "ttyACM") || strings.HasPrefix(name, "ttyUSB") {
				ports = append(ports, "/dev/"+name)
			}
		}
	case "darwin":
		files, err := os.ReadDir("/dev")
		if err != nil {
			return nil
		}
		for _, f := range files {
			if strings.HasPrefix(f.Name(), "tty.usbmodem") {
				ports = append(ports, "/dev/"+f.Name())
			}
		}
	}
	return ports
}
