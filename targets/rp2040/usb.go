//go:build rp2040 || rp2350

package main

import (
	"machine"

	"navsense/protocol"
)

// InitUSB configures machine.Serial, which is USB CDC-ACM on the RP2040
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// usbWriter feeds write outcomes to a StallGate so the main loop can drop
// reports while no host is attached.
type usbWriter struct {
	gate protocol.StallGate
}

func newUSBWriter() *usbWriter {
	return &usbWriter{gate: protocol.StallGate{Limit: 10, Reprobe: 64}}
}

func (w *usbWriter) Write(p []byte) (int, error) {
	n, err := machine.Serial.Write(p)
	w.gate.Record(err == nil && n == len(p))
	return n, err
}

// ShouldDrop reports whether the next report should be discarded
func (w *usbWriter) ShouldDrop() bool {
	return w.gate.Drop()
}
