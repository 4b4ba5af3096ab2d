package adns

import "navsense/core"

// Register is an ADNS-9800 register address
type Register uint8

// Register map
const (
	RegProductID            Register = 0x00
	RegRevisionID           Register = 0x01
	RegMotion               Register = 0x02
	RegDeltaXL              Register = 0x03
	RegDeltaXH              Register = 0x04
	RegDeltaYL              Register = 0x05
	RegDeltaYH              Register = 0x06
	RegSQUAL                Register = 0x07
	RegPixelSum             Register = 0x08
	RegMaximumPixel         Register = 0x09
	RegMinimumPixel         Register = 0x0A
	RegShutterLower         Register = 0x0B
	RegShutterUpper         Register = 0x0C
	RegFramePeriodLower     Register = 0x0D
	RegFramePeriodUpper     Register = 0x0E
	RegConfigurationI       Register = 0x0F
	RegConfigurationII      Register = 0x10
	RegFrameCapture         Register = 0x12
	RegSROMEnable           Register = 0x13
	RegRunDownshift         Register = 0x14
	RegRest1Rate            Register = 0x15
	RegRest1Downshift       Register = 0x16
	RegRest2Rate            Register = 0x17
	RegRest2Downshift       Register = 0x18
	RegRest3Rate            Register = 0x19
	RegFramePeriodMaxBoundL Register = 0x1A
	RegFramePeriodMaxBoundU Register = 0x1B
	RegFramePeriodMinBoundL Register = 0x1C
	RegFramePeriodMinBoundU Register = 0x1D
	RegShutterMaxBoundL     Register = 0x1E
	RegShutterMaxBoundU     Register = 0x1F
	RegLaserCtrl0           Register = 0x20
	RegObservation          Register = 0x24
	RegDataOutLower         Register = 0x25
	RegDataOutUpper         Register = 0x26
	RegSROMID               Register = 0x2A
	RegLiftDetectionThr     Register = 0x2E
	RegConfigurationV       Register = 0x2F
	RegConfigurationIV      Register = 0x39
	RegPowerUpReset         Register = 0x3A
	RegShutdown             Register = 0x3B
	RegInverseProductID     Register = 0x3F
	RegSnapAngle            Register = 0x42
	RegMotionBurst          Register = 0x50
	RegSROMLoadBurst        Register = 0x62
	RegPixelBurst           Register = 0x64
)

// Register values and bit fields
const (
	ProductID        = 0x33
	InverseProductID = 0xCC

	powerUpResetCmd = 0x5A
	shutdownCmd     = 0xB6

	motionMOT = 0x80 // Motion: new motion since last read

	config2RestEn = 0x20 // Configuration_II: rest mode enable

	laserCtrl0Mask = 0xF0 // LASER_CTRL0: clear Force_Disabled and the low nibble

	config4SROMSize = 0x02 // Configuration_IV: 3K SROM

	sromEnableInit  = 0x1D
	sromEnableLoad  = 0x18
	sromEnableCRC   = 0x15
	sromCRCExpected = 0xBEEF

	downshiftMax = 0xFF

	liftThresholdMax = 0x1F

	readFlag  = 0x00
	writeFlag = 0x80
	addrMask  = 0x7F
)

var registerNames = map[Register]string{
	RegProductID:            "Product_ID",
	RegRevisionID:           "Revision_ID",
	RegMotion:               "Motion",
	RegDeltaXL:              "Delta_X_L",
	RegDeltaXH:              "Delta_X_H",
	RegDeltaYL:              "Delta_Y_L",
	RegDeltaYH:              "Delta_Y_H",
	RegSQUAL:                "SQUAL",
	RegPixelSum:             "Pixel_Sum",
	RegMaximumPixel:         "Maximum_Pixel",
	RegMinimumPixel:         "Minimum_Pixel",
	RegShutterLower:         "Shutter_Lower",
	RegShutterUpper:         "Shutter_Upper",
	RegFramePeriodLower:     "Frame_Period_Lower",
	RegFramePeriodUpper:     "Frame_Period_Upper",
	RegConfigurationI:       "Configuration_I",
	RegConfigurationII:      "Configuration_II",
	RegFrameCapture:         "Frame_Capture",
	RegSROMEnable:           "SROM_Enable",
	RegRunDownshift:         "Run_Downshift",
	RegRest1Rate:            "Rest1_Rate",
	RegRest1Downshift:       "Rest1_Downshift",
	RegRest2Rate:            "Rest2_Rate",
	RegRest2Downshift:       "Rest2_Downshift",
	RegRest3Rate:            "Rest3_Rate",
	RegFramePeriodMaxBoundL: "Frame_Period_Max_Bound_Lower",
	RegFramePeriodMaxBoundU: "Frame_Period_Max_Bound_Upper",
	RegFramePeriodMinBoundL: "Frame_Period_Min_Bound_Lower",
	RegFramePeriodMinBoundU: "Frame_Period_Min_Bound_Upper",
	RegShutterMaxBoundL:     "Shutter_Max_Bound_Lower",
	RegShutterMaxBoundU:     "Shutter_Max_Bound_Upper",
	RegLaserCtrl0:           "LASER_CTRL0",
	RegObservation:          "Observation",
	RegDataOutLower:         "Data_Out_Lower",
	RegDataOutUpper:         "Data_Out_Upper",
	RegSROMID:               "SROM_ID",
	RegLiftDetectionThr:     "Lift_Detection_Thr",
	RegConfigurationV:       "Configuration_V",
	RegConfigurationIV:      "Configuration_IV",
	RegPowerUpReset:         "Power_Up_Reset",
	RegShutdown:             "Shutdown",
	RegInverseProductID:     "Inverse_Product_ID",
	RegSnapAngle:            "Snap_Angle",
	RegMotionBurst:          "Motion_Burst",
	RegSROMLoadBurst:        "SROM_Load_Burst",
	RegPixelBurst:           "Pixel_Burst",
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	return "Register(" + core.FormatHex(uint8(r)) + ")"
}
