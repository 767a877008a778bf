package model

import (
	"math"
	"time"
)

type EngineState string

const (
	EngineRunning EngineState = "running"
	EngineOff     EngineState = "off"
	EngineIdle    EngineState = "idle"
	EngineUnknown EngineState = "unknown"
)

type FaultSource string

const (
	FaultSourceProvider FaultSource = "fault_code"
	FaultSourceDVIR     FaultSource = "dvir_defect"
)

const (
	FaultCodeUnknown     = "Unknown"
	FaultNoDescription   = "No description available"
	FaultSeverityDefault = "Medium"
)

type TelemetrySnapshot struct {
	VehicleID string
	// Full precision; use OdometerDisplayMiles for rendering.
	OdometerMiles         float64
	FuelPercent           *float64
	EngineState           EngineState
	EngineRPM             *float64
	EngineLoadPercent     *float64
	CoolantTempFahrenheit *float64
	Location              *Location
	FaultCodes            []FaultCode
}

func (s TelemetrySnapshot) OdometerDisplayMiles() int64 {
	return int64(math.Round(s.OdometerMiles))
}

type Location struct {
	Latitude       float64
	Longitude      float64
	SpeedMph       int64
	HeadingDegrees float64
	Address        string
}

type FaultCode struct {
	Code        string
	Description string
	Severity    string
	Source      FaultSource
	ReportedAt  *time.Time
}
