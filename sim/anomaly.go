package sim

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Anomaly keys accepted by ToggleAnomaly. Matching is case-insensitive.
const (
	AnomalyUnderVoltage   = "undervoltage"
	AnomalyOverVoltage    = "overvoltage"
	AnomalyFrequencyDrift = "frequencydrift"
	AnomalyPhaseLoss      = "phaseloss"
	AnomalyGroundFault    = "groundfault"
	AnomalyLoadJam        = "loadjam"
	AnomalyBearingWear    = "bearingwear"
	AnomalySensorNoise    = "sensornoise"
)

// AnomalyKeys lists every recognized key.
var AnomalyKeys = []string{
	AnomalyUnderVoltage, AnomalyOverVoltage, AnomalyFrequencyDrift, AnomalyPhaseLoss,
	AnomalyGroundFault, AnomalyLoadJam, AnomalyBearingWear, AnomalySensorNoise,
}

// IsAnomalyKey reports whether key names a known anomaly.
func IsAnomalyKey(key string) bool {
	k := strings.ToLower(key)
	for _, known := range AnomalyKeys {
		if k == known {
			return true
		}
	}
	return false
}

// ToggleAnomaly sets or clears an anomaly flag and reports whether anything
// was changed. With segment == AllSegments, supply anomalies go to the supply
// and segment anomalies go to every segment. With a segment index, sag and
// surge set that drive's local flags instead. Unknown keys and segments are
// ignored.
func (sim *Simulator) ToggleAnomaly(segment int, key string, enable bool) bool {
	k := strings.ToLower(key)
	if segment == AllSegments {
		if sim.toggleSupplyAnomaly(k, enable) {
			sim.Log(fmt.Sprintf("anomaly %s %s on supply", k, onOff(enable)))
			return true
		}
		applied := false
		for _, seg := range sim.Segments {
			applied = toggleSegmentAnomaly(seg, k, enable) || applied
		}
		if !applied {
			logrus.Debugf("ignoring unknown anomaly key %q", key)
			return false
		}
		sim.Log(fmt.Sprintf("anomaly %s %s on all segments", k, onOff(enable)))
		return true
	}

	if segment < 0 || segment >= len(sim.Segments) {
		logrus.Debugf("ignoring anomaly %q for unknown segment %d", key, segment)
		return false
	}
	if !toggleSegmentAnomaly(sim.Segments[segment], k, enable) {
		logrus.Debugf("ignoring unknown anomaly key %q", key)
		return false
	}
	sim.Log(fmt.Sprintf("anomaly %s %s on segment %d", k, onOff(enable), segment))
	return true
}

func (sim *Simulator) toggleSupplyAnomaly(key string, enable bool) bool {
	st := &sim.Supply.State
	switch key {
	case AnomalyUnderVoltage:
		st.UnderVoltage = enable
	case AnomalyOverVoltage:
		st.OverVoltage = enable
	case AnomalyFrequencyDrift:
		st.FrequencyDrift = enable
	default:
		return false
	}
	return true
}

// toggleSegmentAnomaly routes a key to the drive and/or motor of one segment.
// Phase loss is raised on both: the drive trips on it and the motor derates.
func toggleSegmentAnomaly(seg *Segment, key string, enable bool) bool {
	d := &seg.Vfd.State
	m := &seg.Motor.State
	switch key {
	case AnomalyUnderVoltage:
		d.UnderVoltage = enable
	case AnomalyOverVoltage:
		d.OverVoltage = enable
	case AnomalyPhaseLoss:
		d.PhaseLoss = enable
		m.PhaseLoss = enable
	case AnomalyGroundFault:
		d.GroundFault = enable
	case AnomalyLoadJam:
		m.LoadJam = enable
	case AnomalyBearingWear:
		m.BearingWear = enable
	case AnomalySensorNoise:
		m.SensorNoise = enable
	default:
		return false
	}
	return true
}

func onOff(enable bool) string {
	if enable {
		return "ON"
	}
	return "OFF"
}
