package telemetry

import (
	"strconv"
	"time"
)

// Reading is one normalized sensor snapshot for a room. Magnet follows the
// door-contact convention 0 = open, 1 = closed; both provider shapes are
// normalized to it.
type Reading struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Battery     float64   `json:"battery"`
	Magnet      int       `json:"magnet"`
	Timestamp   time.Time `json:"timestamp"`
}

// ExtractChannel pulls the channel number out of a logical sensor id.
// The first run of digits names the channel: "S-CH12" -> 12. Ids without
// digits carry no channel and the room cannot be resolved.
func ExtractChannel(sensorID string) (int, bool) {
	start := -1
	for i, r := range sensorID {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			ch, err := strconv.Atoi(sensorID[start:i])
			if err != nil {
				return 0, false
			}
			return ch, true
		}
	}
	if start >= 0 {
		ch, err := strconv.Atoi(sensorID[start:])
		if err != nil {
			return 0, false
		}
		return ch, true
	}
	return 0, false
}

// toFloat coerces the heterogeneous value shapes the gateways emit
// (float, int, numeric string, bool) into a float64, falling back to 0.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return 0
}

// toMagnet normalizes a door-contact value to 0 (open) or 1 (closed).
func toMagnet(v any) int {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	if toFloat(v) != 0 {
		return 1
	}
	return 0
}
