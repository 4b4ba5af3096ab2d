//go:build rp2040 || rp2350

package main

import "navsense/adns"

// The ADNS-9800 SROM image is distributed by the vendor under NDA and is not
// part of this tree. Fill sromImage from a generated file to have Begin
// upload it; an empty image runs the chip on its ROM firmware.
var (
	sromImage []byte
	sromID    byte
)

func sromFirmware() *adns.Firmware {
	if len(sromImage) == 0 {
		return nil
	}
	return &adns.Firmware{Image: sromImage, ID: sromID}
}
