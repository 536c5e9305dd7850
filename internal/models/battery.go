package models

type BatteryState string

const (
	StateCharging    BatteryState = "charging"
	StateDischarging BatteryState = "discharging"
	StateIdle        BatteryState = "idle"
)

func (s BatteryState) Valid() bool {
	switch s {
	case StateCharging, StateDischarging, StateIdle:
		return true
	}
	return false
}

type Health string

const (
	HealthGood     Health = "good"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
	HealthUnknown  Health = "unknown"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// BatteryRecord is one telemetry reading as persisted in the battery data file.
// Only Status, Notes and Timestamp change after the record is appended.
type BatteryRecord struct {
	ID          string       `json:"id"`
	BatteryID   string       `json:"batteryId"`
	Timestamp   int64        `json:"timestamp"`
	Voltage     *float64     `json:"voltage,omitempty"`
	Current     *float64     `json:"current,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	Status      BatteryState `json:"status,omitempty"`
	Location    string       `json:"location,omitempty"`
	Grade       string       `json:"grade,omitempty"`
	Tag         string       `json:"tag,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

// BatterySummary is derived from the full record set on every read.
type BatterySummary struct {
	BatteryID          string       `json:"batteryId"`
	CycleCount         int          `json:"cycleCount"`
	CurrentVoltage     *float64     `json:"currentVoltage"`
	CurrentCurrent     *float64     `json:"currentCurrent"`
	CurrentTemperature *float64     `json:"currentTemperature"`
	AverageVoltage     float64      `json:"averageVoltage"`
	AverageTemperature float64      `json:"averageTemperature"`
	VoltageTrend       float64      `json:"voltageTrend"`
	Trend              Trend        `json:"trend"`
	LastUsed           int64        `json:"lastUsed"`
	Status             BatteryState `json:"status,omitempty"`
	Location           string       `json:"location"`
	Grade              string       `json:"grade,omitempty"`
	Tag                string       `json:"tag,omitempty"`
	Notes              string       `json:"notes,omitempty"`
	Health             Health       `json:"health"`
	Warnings           []string     `json:"warnings"`
}

// NewBatteryRecord is the caller-supplied part of a reading.
type NewBatteryRecord struct {
	BatteryID   string       `json:"batteryId"`
	Voltage     *float64     `json:"voltage"`
	Current     *float64     `json:"current"`
	Temperature *float64     `json:"temperature"`
	Status      BatteryState `json:"status"`
	Location    string       `json:"location"`
	Grade       string       `json:"grade"`
	Tag         string       `json:"tag"`
	Notes       string       `json:"notes"`
}

type BatteryStatusUpdate struct {
	BatteryID string       `json:"batteryId"`
	Status    BatteryState `json:"status"`
	Notes     *string      `json:"notes"`
}

func Float(v float64) *float64 {
	return &v
}
