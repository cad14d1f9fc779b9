// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package amateur

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// StationPosition describes a receiving station for the tracker map. A
// mobile station is drawn as a chase car and should be uploaded often.
type StationPosition struct {
	// Callsign defaults to the uploader's callsign.
	Callsign     string
	Position     [3]float64
	Radio        string
	Antenna      string
	ContactEmail string
	Mobile       bool
}

type stationDocument struct {
	SoftwareName     string     `json:"software_name"`
	SoftwareVersion  string     `json:"software_version"`
	UploaderCallsign string     `json:"uploader_callsign"`
	UploaderPosition [3]float64 `json:"uploader_position"`
	UploaderRadio    string     `json:"uploader_radio"`
	UploaderAntenna  string     `json:"uploader_antenna"`
	ContactEmail     string     `json:"uploader_contact_email"`
	Mobile           bool       `json:"mobile"`
	Dev              bool       `json:"dev"`
}

// UploadStationPosition uploads the station position once, outside the
// telemetry batches. A 404 means the listeners API is not deployed and is
// treated as success. Only an invalid position is returned as an error;
// upload failures are logged.
func (u *Uploader) UploadStationPosition(
	ctx context.Context,
	pos StationPosition,
) error {
	if !finite(pos.Position[:]...) {
		return &InvalidArgumentError{
			message: "station position is not a finite [lat, lon, alt]",
		}
	}

	callsign := pos.Callsign
	if callsign == "" {
		callsign = u.callsign
	}

	body, err := json.Marshal(&stationDocument{
		SoftwareName:     u.opts.SoftwareName,
		SoftwareVersion:  u.opts.SoftwareVersion,
		UploaderCallsign: callsign,
		UploaderPosition: pos.Position,
		UploaderRadio:    pos.Radio,
		UploaderAntenna:  pos.Antenna,
		ContactEmail:     pos.ContactEmail,
		Mobile:           pos.Mobile,
		Dev:              u.opts.DeveloperMode,
	})
	if err != nil {
		return &InvalidArgumentError{
			message: "could not encode station position",
			wrapped: err,
		}
	}

	err = u.retry.Start(ctx, "upload station position", func(
		ctx context.Context,
	) (bool, error) {
		res, err := u.put(ctx, u.opts.ListenersURL, body, false)
		if err != nil {
			return false, err
		}

		switch {
		case res.status == http.StatusOK:
			return false, nil
		case res.status == http.StatusNotFound:
			u.log.Warn(ctx, "station position API not available",
				slog.String("url", u.opts.ListenersURL),
			)
			return false, nil
		default:
			rej := res.rejected(u.opts.ListenersURL)
			return rej.Transient(), rej
		}
	})
	if err != nil {
		u.log.Err(ctx, err, slog.String("callsign", callsign))
		return nil
	}

	u.log.Info(ctx, "uploaded station position",
		slog.String("callsign", callsign),
	)
	return nil
}
