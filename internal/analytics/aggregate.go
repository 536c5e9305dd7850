package analytics

import (
	"sort"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
)

// Summarize groups records by battery and derives one summary per battery.
// Records without a battery id are ignored.
func Summarize(records []models.BatteryRecord, now time.Time) map[string]models.BatterySummary {
	groups := make(map[string][]models.BatteryRecord)
	for _, r := range records {
		if r.BatteryID == "" {
			continue
		}
		groups[r.BatteryID] = append(groups[r.BatteryID], r)
	}

	summaries := make(map[string]models.BatterySummary, len(groups))
	for id, group := range groups {
		summaries[id] = summarizeBattery(id, group, now)
	}
	return summaries
}

// SortedSummaries returns the summaries ordered by battery id.
func SortedSummaries(summaries map[string]models.BatterySummary) []models.BatterySummary {
	out := make([]models.BatterySummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatteryID < out[j].BatteryID })
	return out
}

func summarizeBattery(id string, group []models.BatteryRecord, now time.Time) models.BatterySummary {
	// group is a fresh slice owned by Summarize, safe to sort in place
	sort.SliceStable(group, func(i, j int) bool { return group[i].Timestamp < group[j].Timestamp })

	latest := group[len(group)-1]
	assessment := ClassifyHealth(group, now)

	recent := group
	if len(recent) > RecentWindow {
		recent = recent[len(recent)-RecentWindow:]
	}

	var voltages, temps []float64
	for _, r := range recent {
		if r.Voltage != nil && finite(*r.Voltage) {
			voltages = append(voltages, *r.Voltage)
		}
		if r.Temperature != nil && finite(*r.Temperature) {
			temps = append(temps, *r.Temperature)
		}
	}

	slope := TrendSlope(voltages)

	return models.BatterySummary{
		BatteryID:          id,
		CycleCount:         len(group),
		CurrentVoltage:     latest.Voltage,
		CurrentCurrent:     latest.Current,
		CurrentTemperature: latest.Temperature,
		AverageVoltage:     mean(voltages),
		AverageTemperature: mean(temps),
		VoltageTrend:       slope,
		Trend:              TrendLabel(slope),
		LastUsed:           latest.Timestamp,
		Status:             latest.Status,
		Location:           locationOrDefault(latest.Location),
		Grade:              latest.Grade,
		Tag:                latest.Tag,
		Notes:              latest.Notes,
		Health:             assessment.Health,
		Warnings:           assessment.Warnings,
	}
}

func locationOrDefault(location string) string {
	if location == "" {
		return "Unknown"
	}
	return location
}
