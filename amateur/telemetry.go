// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package amateur

import (
	"encoding/json"
	"math"
	"time"

	"github.com/relvacode/iso8601"
)

type (
	// Record is one telemetry document as uploaded.
	Record map[string]any

	// Telemetry is a single observation of an amateur payload. Optional
	// fields are pointers; nil fields are omitted from the upload.
	Telemetry struct {
		PayloadCallsign string

		// Time is the payload's own timestamp. When zero, Timestamp is
		// parsed instead: either a full ISO 8601 date-time, or a bare
		// HH:MM:SS time which is completed with FixDateTime.
		Time      time.Time
		Timestamp string

		Lat float64
		Lon float64
		Alt float64

		// TimeReceived defaults to the current time.
		TimeReceived time.Time

		Frame       *int
		Sats        *int
		Batt        *float64
		Temp        *float64
		Humidity    *float64
		Pressure    *float64
		VelV        *float64
		VelH        *float64
		Heading     *float64
		TxFrequency *float64

		Modulation string
		SNR        *float64
		Frequency  *float64
		RSSI       *float64

		// Per-packet uploader details. They replace the uploader's own
		// details only when UploaderCallsign is set.
		UploaderCallsign string
		UploaderPosition *[3]float64
		UploaderRadio    string
		UploaderAntenna  string

		// Extra holds custom fields. They never replace a standard field.
		Extra map[string]any
	}
)

// DateTimeFormat is the layout of every date-time sent to the telemetry API.
const DateTimeFormat = "2006-01-02T15:04:05.000000Z"

const timeOnlyFormat = "15:04:05"

// FixDateTime completes a bare HH:MM:SS time with the date of now (in UTC).
// Around midnight the payload and the receiver may disagree on the day: a
// time in hour 23 seen during hour 0 belongs to the previous day, and a time
// in hour 0 seen during hour 23 belongs to the next day.
func FixDateTime(hms string, now time.Time) (time.Time, error) {
	t, err := time.Parse(timeOnlyFormat, hms)
	if err != nil {
		return time.Time{}, err
	}

	now = now.UTC()
	fixed := time.Date(
		now.Year(), now.Month(), now.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		time.UTC,
	)

	switch {
	case t.Hour() == 23 && now.Hour() == 0:
		fixed = fixed.AddDate(0, 0, -1)
	case t.Hour() == 0 && now.Hour() == 23:
		fixed = fixed.AddDate(0, 0, 1)
	}
	return fixed, nil
}

// record shapes one observation into an upload document.
func (u *Uploader) record(t *Telemetry, now time.Time) (Record, error) {
	if t.PayloadCallsign == "" {
		return nil, &InvalidTelemetryError{
			Field:  "payload_callsign",
			Reason: "missing",
		}
	}
	if !finite(t.Lat, t.Lon, t.Alt) {
		return nil, &InvalidTelemetryError{
			Field:  "position",
			Reason: "not a finite number",
		}
	}
	for field, v := range map[string]*float64{
		"batt":         t.Batt,
		"temp":         t.Temp,
		"humidity":     t.Humidity,
		"pressure":     t.Pressure,
		"vel_v":        t.VelV,
		"vel_h":        t.VelH,
		"heading":      t.Heading,
		"tx_frequency": t.TxFrequency,
		"snr":          t.SNR,
		"frequency":    t.Frequency,
		"rssi":         t.RSSI,
	} {
		if v != nil && !finite(*v) {
			return nil, &InvalidTelemetryError{
				Field:  field,
				Reason: "not a finite number",
			}
		}
	}
	if t.UploaderPosition != nil && !finite(t.UploaderPosition[:]...) {
		return nil, &InvalidTelemetryError{
			Field:  "uploader_position",
			Reason: "not a finite number",
		}
	}
	for k, v := range t.Extra {
		if _, err := json.Marshal(v); err != nil {
			return nil, &InvalidTelemetryError{
				Field:   k,
				Reason:  "not encodable as JSON",
				wrapped: err,
			}
		}
	}
	if t.Lat == 0 && t.Lon == 0 {
		return nil, ErrNullIsland
	}
	if t.Sats != nil && *t.Sats == 0 {
		return nil, ErrNoSatellites
	}

	ts, err := timestamp(t, now)
	if err != nil {
		return nil, err
	}

	r := Record{
		"payload_callsign": t.PayloadCallsign,
		"datetime":         ts.UTC().Format(DateTimeFormat),
		"lat":              t.Lat,
		"lon":              t.Lon,
		"alt":              t.Alt,
		"software_name":    u.opts.SoftwareName,
		"software_version": u.opts.SoftwareVersion,
	}
	if u.opts.DeveloperMode {
		r["dev"] = true
	}

	received := t.TimeReceived
	if received.IsZero() {
		received = now
	}
	r["time_received"] = received.UTC().Format(DateTimeFormat)

	setInt(r, "frame", t.Frame)
	setInt(r, "sats", t.Sats)
	setFloat(r, "batt", t.Batt)
	setFloat(r, "temp", t.Temp)
	setFloat(r, "humidity", t.Humidity)
	setFloat(r, "pressure", t.Pressure)
	setFloat(r, "vel_v", t.VelV)
	setFloat(r, "vel_h", t.VelH)
	setFloat(r, "heading", t.Heading)
	setFloat(r, "tx_frequency", t.TxFrequency)
	setString(r, "modulation", t.Modulation)
	setFloat(r, "snr", t.SNR)
	setFloat(r, "frequency", t.Frequency)
	setFloat(r, "rssi", t.RSSI)

	if t.UploaderCallsign != "" {
		r["uploader_callsign"] = t.UploaderCallsign
		if t.UploaderPosition != nil {
			p := t.UploaderPosition
			r["uploader_position"] = []float64{p[0], p[1], p[2]}
		}
		setString(r, "uploader_radio", t.UploaderRadio)
		setString(r, "uploader_antenna", t.UploaderAntenna)
	} else {
		r["uploader_callsign"] = u.callsign
		if len(u.opts.UploaderPosition) == 3 {
			r["uploader_position"] = u.opts.UploaderPosition
		}
		setString(r, "uploader_radio", u.opts.UploaderRadio)
		setString(r, "uploader_antenna", u.opts.UploaderAntenna)
	}

	for k, v := range t.Extra {
		if _, ok := r[k]; !ok {
			r[k] = v
		}
	}
	return r, nil
}

func timestamp(t *Telemetry, now time.Time) (time.Time, error) {
	if !t.Time.IsZero() {
		return t.Time, nil
	}
	if t.Timestamp == "" {
		return time.Time{}, &InvalidTelemetryError{
			Field:  "datetime",
			Reason: "missing",
		}
	}

	if ts, err := FixDateTime(t.Timestamp, now); err == nil {
		return ts, nil
	}

	ts, err := iso8601.ParseString(t.Timestamp)
	if err != nil {
		return time.Time{}, &InvalidTelemetryError{
			Field:   "datetime",
			Reason:  "unparseable timestamp",
			wrapped: err,
		}
	}
	return ts, nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func setInt(r Record, key string, v *int) {
	if v != nil {
		r[key] = *v
	}
}

func setFloat(r Record, key string, v *float64) {
	if v != nil {
		r[key] = *v
	}
}

func setString(r Record, key, v string) {
	if v != "" {
		r[key] = v
	}
}
