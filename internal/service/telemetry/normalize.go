package telemetry

import (
	"math"
	"strings"
	"time"

	"github.com/go-faster/jx"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

const (
	metersPerMile = 1609.34
	mpsToMph      = 2.237
)

// Stat type names requested from the provider.
const (
	StatEngineStates      = "engineStates"
	StatOdometerMeters    = "obdOdometerMeters"
	StatFuelPercents      = "fuelPercents"
	StatGPS               = "gps"
	StatFaultCodes        = "faultCodes"
	StatEngineRPM         = "engineRpm"
	StatEngineLoadPercent = "engineLoadPercent"
	StatCoolantMilliC     = "engineCoolantTemperatureMilliC"
)

var (
	DefaultStatTypes = []string{StatEngineStates, StatOdometerMeters, StatFuelPercents}
	FullStatTypes    = []string{
		StatEngineStates, StatOdometerMeters, StatFuelPercents,
		StatGPS, StatFaultCodes, StatEngineRPM, StatEngineLoadPercent, StatCoolantMilliC,
	}
)

var odometerKeys = []string{StatOdometerMeters, "odbOdometerMeters", "gpsOdometerMeters"}

// Normalize converts a raw stats payload into a snapshot. It never fails:
// missing or malformed fields fall back to zero, Unknown or absent.
func Normalize(vehicleID string, payload []byte) model.TelemetrySnapshot {
	fields := parsePayload(payload, vehicleID)

	snap := model.TelemetrySnapshot{
		VehicleID:   vehicleID,
		EngineState: model.EngineUnknown,
		FaultCodes:  []model.FaultCode{},
	}
	if snap.VehicleID == "" {
		snap.VehicleID, _ = fields["id"].str()
	}

	for _, key := range odometerKeys {
		if m, ok := fields[key].float(); ok {
			snap.OdometerMiles = math.Max(0, MetersToMiles(m))
			break
		}
	}

	if v, ok := fields[StatFuelPercents].float(); ok {
		snap.FuelPercent = ptr(math.Min(100, math.Max(0, v)))
	}

	if s, ok := fields[StatEngineStates].str(); ok {
		snap.EngineState = ParseEngineState(s)
	}

	if v, ok := fields[StatEngineRPM].float(); ok && v >= 0 {
		snap.EngineRPM = ptr(v)
	}
	if v, ok := fields[StatEngineLoadPercent].float(); ok && v >= 0 {
		snap.EngineLoadPercent = ptr(v)
	}
	if v, ok := fields[StatCoolantMilliC].float(); ok {
		snap.CoolantTempFahrenheit = ptr(MilliCelsiusToFahrenheit(v))
	}

	snap.Location = location(fields[StatGPS])
	snap.FaultCodes = append(snap.FaultCodes, faultCodes(fields[StatFaultCodes])...)

	return snap
}

// NormalizeDiagnostics reads the backend's merged diagnostic list, where
// each entry is a provider fault code or a DVIR defect.
func NormalizeDiagnostics(payload []byte) []model.FaultCode {
	root := unwrap(jx.Raw(payload))
	entries := root.list()
	if obj, ok := root.object(); ok {
		entries = obj["data"].list()
	}

	out := make([]model.FaultCode, 0, len(entries))
	for _, e := range entries {
		obj, ok := e.object()
		if !ok {
			if _, ok := e.str(); ok {
				out = append(out, placeholderFault(textOr(e, model.FaultCodeUnknown)))
			}
			continue
		}

		fc := model.FaultCode{
			Code:        textOr(firstPresent(obj, "code", "defectCode"), model.FaultCodeUnknown),
			Description: textOr(firstPresent(obj, "description", "comment"), model.FaultNoDescription),
			Severity:    textOr(obj["severity"], model.FaultSeverityDefault),
			Source:      model.FaultSourceProvider,
			ReportedAt:  reportedAt(obj),
		}
		if kind, _ := obj["type"].str(); kind == string(model.FaultSourceDVIR) {
			fc.Source = model.FaultSourceDVIR
		}
		out = append(out, fc)
	}

	return out
}

func MetersToMiles(m float64) float64 { return m / metersPerMile }

func MpsToMph(mps float64) int64 { return int64(math.Round(mps * mpsToMph)) }

// MilliCelsiusToFahrenheit keeps one decimal digit.
func MilliCelsiusToFahrenheit(milliC float64) float64 {
	f := (milliC/1000)*9/5 + 32
	return math.Round(f*10) / 10
}

// ParseEngineState maps on/off/idle case-insensitively; anything else is Unknown.
func ParseEngineState(s string) model.EngineState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return model.EngineRunning
	case "off":
		return model.EngineOff
	case "idle":
		return model.EngineIdle
	default:
		return model.EngineUnknown
	}
}

// parsePayload accepts a flat stats object or the provider envelope
// {"data":[{...}]}, picking the entry whose id matches vehicleID.
func parsePayload(payload []byte, vehicleID string) map[string]field {
	root, ok := unwrap(jx.Raw(payload)).object()
	if !ok {
		return map[string]field{}
	}

	data, hasData := root["data"]
	if !hasData {
		return root
	}

	entries := data.list()
	if len(entries) == 0 {
		if obj, ok := data.object(); ok {
			return obj
		}
		return map[string]field{}
	}

	var first map[string]field
	for _, e := range entries {
		obj, ok := e.object()
		if !ok {
			continue
		}
		if first == nil {
			first = obj
		}
		if id, ok := obj["id"].str(); ok && vehicleID != "" && id == vehicleID {
			return obj
		}
	}
	if first == nil {
		return map[string]field{}
	}

	return first
}

func location(f field) *model.Location {
	gps, ok := f.object()
	if !ok {
		return nil
	}

	lat, latOK := gps["latitude"].float()
	lon, lonOK := gps["longitude"].float()
	if !latOK || !lonOK {
		return nil
	}

	loc := &model.Location{Latitude: lat, Longitude: lon}

	if mps, ok := gps["speedMetersPerSecond"].float(); ok && mps >= 0 {
		loc.SpeedMph = MpsToMph(mps)
	} else if mph, ok := gps["speedMilesPerHour"].float(); ok && mph >= 0 {
		loc.SpeedMph = int64(math.Round(mph))
	}

	if h, ok := gps["headingDegrees"].float(); ok {
		loc.HeadingDegrees = h
	}

	if geo, ok := gps["reverseGeo"].object(); ok {
		loc.Address, _ = geo["formattedLocation"].str()
	}
	if loc.Address == "" {
		loc.Address, _ = gps["address"].str()
	}

	return loc
}

func faultCodes(f field) []model.FaultCode {
	items := f.list()
	out := make([]model.FaultCode, 0, len(items))

	for _, item := range items {
		if obj, ok := item.object(); ok {
			out = append(out, model.FaultCode{
				Code:        textOr(obj["code"], model.FaultCodeUnknown),
				Description: textOr(obj["description"], model.FaultNoDescription),
				Severity:    textOr(obj["severity"], model.FaultSeverityDefault),
				Source:      model.FaultSourceProvider,
			})
			continue
		}

		if _, ok := item.str(); ok {
			out = append(out, placeholderFault(textOr(item, model.FaultCodeUnknown)))
		}
	}

	return out
}

func placeholderFault(code string) model.FaultCode {
	return model.FaultCode{
		Code:        code,
		Description: model.FaultNoDescription,
		Severity:    model.FaultSeverityDefault,
		Source:      model.FaultSourceProvider,
	}
}

func firstPresent(obj map[string]field, keys ...string) field {
	for _, k := range keys {
		if f := obj[k]; f.present() {
			return f
		}
	}
	return field{}
}

func reportedAt(obj map[string]field) *time.Time {
	if ms, ok := obj["inspectionTimeMs"].float(); ok && ms > 0 {
		return ptr(time.UnixMilli(int64(ms)).UTC())
	}

	s, ok := obj["reported_date"].str()
	if !ok {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ptr(ts.UTC())
		}
	}

	return nil
}

func textOr(f field, placeholder string) string {
	s, ok := f.str()
	if !ok || strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func ptr[T any](v T) *T { return &v }
