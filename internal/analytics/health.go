package analytics

import (
	"math"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
)

const (
	LowVoltage       = 11.8
	NominalVoltage   = 12.0
	HighTemperature  = 50.0
	WarmTemperature  = 45.0
	StaleAfter       = 2 * time.Hour
	criticalWarnings = 2
)

const (
	WarnLowVoltage        = "low voltage"
	WarnVoltageDeclining  = "voltage declining"
	WarnHighTemperature   = "high temperature"
	WarnTemperatureRising = "temperature rising"
	WarnDataOutdated      = "data outdated"

	WarnMissingBatteryID = "invalid record: missing battery id"
	WarnMissingVoltage   = "invalid record: missing voltage"
	WarnInvalidVoltage   = "invalid record: voltage is not a finite number"
	WarnInvalidTemp      = "invalid record: temperature is not a finite number"
	WarnInvalidTimestamp = "invalid record: timestamp must be positive"
)

// Assessment is the classifier output for one battery.
type Assessment struct {
	Health   models.Health
	Warnings []string
}

// ClassifyHealth rates the latest of records, which must be sorted by
// timestamp ascending. now is the wall-clock reference for staleness.
func ClassifyHealth(records []models.BatteryRecord, now time.Time) Assessment {
	if len(records) == 0 {
		return Assessment{Health: models.HealthUnknown, Warnings: []string{}}
	}

	latest := records[len(records)-1]
	if problem := validate(latest); problem != "" {
		return Assessment{Health: models.HealthUnknown, Warnings: []string{problem}}
	}

	warnings := []string{}

	voltage := *latest.Voltage
	switch {
	case voltage < LowVoltage:
		warnings = append(warnings, WarnLowVoltage)
	case voltage < NominalVoltage:
		warnings = append(warnings, WarnVoltageDeclining)
	}

	if latest.Temperature != nil {
		temp := *latest.Temperature
		switch {
		case temp > HighTemperature:
			warnings = append(warnings, WarnHighTemperature)
		case temp > WarmTemperature:
			warnings = append(warnings, WarnTemperatureRising)
		}
	}

	if now.UnixMilli()-latest.Timestamp > StaleAfter.Milliseconds() {
		warnings = append(warnings, WarnDataOutdated)
	}

	return Assessment{Health: healthFor(len(warnings)), Warnings: warnings}
}

func healthFor(warnings int) models.Health {
	switch {
	case warnings >= criticalWarnings:
		return models.HealthCritical
	case warnings == 1:
		return models.HealthWarning
	default:
		return models.HealthGood
	}
}

func validate(r models.BatteryRecord) string {
	switch {
	case r.BatteryID == "":
		return WarnMissingBatteryID
	case r.Voltage == nil:
		return WarnMissingVoltage
	case !finite(*r.Voltage):
		return WarnInvalidVoltage
	case r.Temperature != nil && !finite(*r.Temperature):
		return WarnInvalidTemp
	case r.Timestamp <= 0:
		return WarnInvalidTimestamp
	}
	return ""
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
