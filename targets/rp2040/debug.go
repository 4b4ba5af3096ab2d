//go:build rp2040 || rp2350

package main

import (
	"machine"

	"navsense/core"
)

// debugUART prints core debug output on UART1, GPIO8 (TX) and GPIO9 (RX)
var debugUART *machine.UART

// InitDebugUART routes core.DebugPrintln to UART1 when enabled is set
func InitDebugUART(enabled bool) {
	if !enabled {
		return
	}
	debugUART = machine.UART1
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO8,
		RX:       machine.GPIO9,
	})
	if err != nil {
		debugUART = nil
		return
	}

	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.DebugPrintln("=== navsense debug UART 115200 ===")
}
