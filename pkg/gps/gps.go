// Package gps defines the messages published by the GPS service on its
// /pvt and /relposned streams.
package gps

import "fmt"

// Pvt is a position-velocity-time solution from the GPS receiver,
// published on /pvt.
type Pvt struct {
	Stamp              float64 `json:"stamp"`
	GpsTime            float64 `json:"gps_time"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	Altitude           float64 `json:"altitude"`
	GroundSpeed        float64 `json:"ground_speed"`
	SpeedAccuracy      float64 `json:"speed_accuracy"`
	HorizontalAccuracy float64 `json:"horizontal_accuracy"`
	VerticalAccuracy   float64 `json:"vertical_accuracy"`
	PDop               float64 `json:"p_dop"`
}

func (p Pvt) String() string {
	return fmt.Sprintf(
		"Message stamp: %.3f\nGPS time: %.3f\nLatitude: %.8f\nLongitude: %.8f\nAltitude: %.3f\n"+
			"Ground speed: %.3f\nSpeed accuracy: %.3f\nHorizontal accuracy: %.3f\nVertical accuracy: %.3f\nP DOP: %.2f",
		p.Stamp, p.GpsTime, p.Latitude, p.Longitude, p.Altitude,
		p.GroundSpeed, p.SpeedAccuracy, p.HorizontalAccuracy, p.VerticalAccuracy, p.PDop)
}

// RelPosNed is the position of the receiver relative to the RTK base
// station, in north/east/down, published on /relposned.
type RelPosNed struct {
	Stamp              float64 `json:"stamp"`
	GpsTime            float64 `json:"gps_time"`
	RelativePoseNorth  float64 `json:"relative_pose_north"`
	RelativePoseEast   float64 `json:"relative_pose_east"`
	RelativePoseDown   float64 `json:"relative_pose_down"`
	RelativePoseLength float64 `json:"relative_pose_length"`
	AccuracyNorth      float64 `json:"accuracy_north"`
	AccuracyEast       float64 `json:"accuracy_east"`
	AccuracyDown       float64 `json:"accuracy_down"`
	CarrSoln           int     `json:"carr_soln"`
	GnssFixOk          bool    `json:"gnss_fix_ok"`
}

func (r RelPosNed) String() string {
	return fmt.Sprintf(
		"Message stamp: %.3f\nGPS time: %.3f\nRelative pose north: %.3f\nRelative pose east: %.3f\n"+
			"Relative pose down: %.3f\nRelative pose length: %.3f\nAccuracy north: %.3f\nAccuracy east: %.3f\n"+
			"Accuracy down: %.3f\nCarrier solution: %d\nGNSS fix ok: %t",
		r.Stamp, r.GpsTime, r.RelativePoseNorth, r.RelativePoseEast,
		r.RelativePoseDown, r.RelativePoseLength, r.AccuracyNorth, r.AccuracyEast,
		r.AccuracyDown, r.CarrSoln, r.GnssFixOk)
}
