package reading

import "time"

// Data is one poll snapshot of the household readings.
type Data struct {
	HID      string             `json:"hid"`
	Time     time.Time          `json:"time"`
	InstantW float64            `json:"w,omitempty"`
	Sensors  map[string]float64 `json:"sensors,omitempty"`
}
