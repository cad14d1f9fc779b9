// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package amateur_test

import (
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/sondehub/sondehub-go/amateur"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestFixDateTime(t *testing.T) {
	at := func(day, hour, minute, second int) time.Time {
		return time.Date(2021, time.March, day, hour, minute, second, 0, time.UTC)
	}

	for _, tc := range []struct {
		name     string
		hms      string
		now      time.Time
		expected time.Time
	}{
		{"same day", "12:34:56", at(2, 12, 35, 0), at(2, 12, 34, 56)},
		{"late telemetry after midnight", "23:59:58", at(2, 0, 0, 3), at(1, 23, 59, 58)},
		{"early telemetry before midnight", "00:00:02", at(1, 23, 59, 59), at(2, 0, 0, 2)},
		{"no rollover outside the window", "23:00:00", at(2, 1, 0, 0), at(2, 23, 0, 0)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fixed, err := amateur.FixDateTime(tc.hms, tc.now)
			require.NoError(t, err)
			require.Equal(t, tc.expected, fixed)
		})
	}

	fixed, err := amateur.FixDateTime("10:11:12.5", at(2, 10, 0, 0))
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, time.Duration(fixed.Nanosecond()))

	_, err = amateur.FixDateTime("2021-03-02T10:11:12Z", at(2, 10, 0, 0))
	require.Error(t, err)
}

func TestAddTelemetryRejects(t *testing.T) {
	s := newServer(t, http.StatusOK, "")
	u := newUploader(t, s)

	valid := amateur.Telemetry{
		PayloadCallsign: "HORUS-V2",
		Timestamp:       "2021-03-02T10:11:12Z",
		Lat:             -34.9,
		Lon:             138.6,
		Alt:             1000,
	}

	nullIsland := valid
	nullIsland.Lat, nullIsland.Lon = 0, 0
	require.ErrorIs(t, u.AddTelemetry(nullIsland), amateur.ErrNullIsland)

	noSats := valid
	noSats.Sats = ptr(0)
	require.ErrorIs(t, u.AddTelemetry(noSats), amateur.ErrNoSatellites)

	var telErr *amateur.InvalidTelemetryError

	noCallsign := valid
	noCallsign.PayloadCallsign = ""
	require.ErrorAs(t, u.AddTelemetry(noCallsign), &telErr)
	require.Equal(t, "payload_callsign", telErr.Field)

	noTime := valid
	noTime.Timestamp = ""
	require.ErrorAs(t, u.AddTelemetry(noTime), &telErr)
	require.Equal(t, "datetime", telErr.Field)

	badTime := valid
	badTime.Timestamp = "yesterday"
	require.ErrorAs(t, u.AddTelemetry(badTime), &telErr)
	require.Equal(t, "datetime", telErr.Field)

	nanSNR := valid
	nanSNR.SNR = ptr(math.NaN())
	require.ErrorAs(t, u.AddTelemetry(nanSNR), &telErr)
	require.Equal(t, "snr", telErr.Field)

	infPosition := valid
	infPosition.UploaderCallsign = "VK5QI"
	infPosition.UploaderPosition = &[3]float64{-35, math.Inf(1), 10}
	require.ErrorAs(t, u.AddTelemetry(infPosition), &telErr)
	require.Equal(t, "uploader_position", telErr.Field)

	nanExtra := valid
	nanExtra.Extra = map[string]any{"noise_floor": math.NaN()}
	require.ErrorAs(t, u.AddTelemetry(nanExtra), &telErr)
	require.Equal(t, "noise_floor", telErr.Field)

	u.Close()
	u.Wait()
	require.Empty(t, s.Requests())
}

func TestValidTelemetrySurvivesRejectedNeighbour(t *testing.T) {
	s := newServer(t, http.StatusOK, "")
	u := newUploader(t, s, amateur.WithInterval(time.Hour))

	good := amateur.Telemetry{
		PayloadCallsign: "HORUS-V2",
		Timestamp:       "2021-03-02T10:11:12Z",
		Lat:             -34.9,
		Lon:             138.6,
		Alt:             1000,
	}
	require.NoError(t, u.AddTelemetry(good))

	bad := good
	bad.SNR = ptr(math.NaN())
	require.Error(t, u.AddTelemetry(bad))

	// Unchecked records that cannot be encoded are left out of the batch.
	u.AddRecord(amateur.Record{"payload_callsign": "HORUS-V2", "snr": math.NaN()})
	u.AddRecord(amateur.Record{"payload_callsign": "HORUS-V3"})

	u.Close()
	u.Wait()

	batch := uploaded(t, s)
	require.Len(t, batch, 2)
	require.Equal(t, "HORUS-V2", batch[0]["payload_callsign"])
	require.Equal(t, "HORUS-V3", batch[1]["payload_callsign"])
}

func TestAddTelemetryShape(t *testing.T) {
	s := newServer(t, http.StatusOK, "")
	u := newUploader(t, s,
		amateur.WithUploaderPosition{-34.9, 138.6, 100},
		amateur.WithUploaderRadio("RTL-SDR"),
		amateur.WithUploaderAntenna("Yagi"),
		amateur.WithDeveloperMode(true),
		amateur.WithInterval(time.Hour),
	)

	received := time.Date(2021, time.March, 2, 10, 11, 13, 0, time.UTC)
	require.NoError(t, u.AddTelemetry(amateur.Telemetry{
		PayloadCallsign: "HORUS-V2",
		Timestamp:       "2021-03-02T10:11:12.25Z",
		Lat:             -34.5,
		Lon:             138.5,
		Alt:             25000,
		TimeReceived:    received,
		Frame:           ptr(42),
		Sats:            ptr(9),
		Humidity:        ptr(55.5),
		Modulation:      "Horus Binary",
		SNR:             ptr(12.5),
		Extra: map[string]any{
			"lat":         1.0,
			"custom_note": "hello",
		},
	}))

	require.NoError(t, u.AddTelemetry(amateur.Telemetry{
		PayloadCallsign:  "HORUS-V2",
		Time:             time.Date(2021, time.March, 2, 10, 11, 14, 0, time.UTC),
		Lat:              -34.5,
		Lon:              138.5,
		Alt:              25010,
		TimeReceived:     received,
		UploaderCallsign: "VK5QI",
		UploaderPosition: &[3]float64{-35, 139, 10},
	}))

	u.Close()
	u.Wait()

	batch := uploaded(t, s)
	require.Len(t, batch, 2)

	require.Equal(t, map[string]any{
		"payload_callsign":  "HORUS-V2",
		"datetime":          "2021-03-02T10:11:12.250000Z",
		"time_received":     "2021-03-02T10:11:13.000000Z",
		"lat":               -34.5,
		"lon":               138.5,
		"alt":               float64(25000),
		"frame":             float64(42),
		"sats":              float64(9),
		"humidity":          55.5,
		"modulation":        "Horus Binary",
		"snr":               12.5,
		"uploader_callsign": "N0CALL",
		"uploader_position": []any{-34.9, 138.6, float64(100)},
		"uploader_radio":    "RTL-SDR",
		"uploader_antenna":  "Yagi",
		"software_name":     amateur.DefaultSoftwareName,
		"software_version":  amateur.Version,
		"dev":               true,
		"custom_note":       "hello",
	}, batch[0])

	require.Equal(t, "2021-03-02T10:11:14.000000Z", batch[1]["datetime"])
	require.Equal(t, "VK5QI", batch[1]["uploader_callsign"])
	require.Equal(t, []any{float64(-35), float64(139), float64(10)}, batch[1]["uploader_position"])
	require.NotContains(t, batch[1], "uploader_radio")
	require.NotContains(t, batch[1], "uploader_antenna")
}

func TestAddTelemetryTimeOnly(t *testing.T) {
	s := newServer(t, http.StatusOK, "")
	u := newUploader(t, s, amateur.WithInterval(time.Hour))

	require.NoError(t, u.AddTelemetry(amateur.Telemetry{
		PayloadCallsign: "HORUS-V2",
		Timestamp:       "01:02:03",
		Lat:             -34.5,
		Lon:             138.5,
		Alt:             25000,
	}))
	u.Close()
	u.Wait()

	batch := uploaded(t, s)
	require.Len(t, batch, 1)

	dt, err := time.Parse(amateur.DateTimeFormat, batch[0]["datetime"].(string))
	require.NoError(t, err)
	require.Equal(t, 1, dt.Hour())
	require.Equal(t, 2, dt.Minute())
	require.Equal(t, 3, dt.Second())
}
