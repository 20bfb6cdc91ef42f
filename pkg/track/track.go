// Package track defines waypoint tracks for the track_follower service:
// the pose and track types, JSON track files, and builders for simple
// geometric tracks.
package track

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Pose is a planar pose of frame B relative to frame A.
type Pose struct {
	FrameA  string  `json:"frame_a"`
	FrameB  string  `json:"frame_b"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"` // radians
}

// Mul composes the pose with a relative pose of frame C in frame B and
// returns the pose of frame C in frame A.
func (p Pose) Mul(rel Pose) Pose {
	sin, cos := math.Sincos(p.Heading)
	return Pose{
		FrameA:  p.FrameA,
		FrameB:  rel.FrameB,
		X:       p.X + cos*rel.X - sin*rel.Y,
		Y:       p.Y + sin*rel.X + cos*rel.Y,
		Heading: p.Heading + rel.Heading,
	}
}

// Translation returns a relative pose moving x forward and y left in
// the parent frame.
func Translation(frameA, frameB string, x, y float64) Pose {
	return Pose{FrameA: frameA, FrameB: frameB, X: x, Y: y}
}

// Rotation returns a relative pose turning by angle radians in place.
func Rotation(frameA, frameB string, angle float64) Pose {
	return Pose{FrameA: frameA, FrameB: frameB, Heading: angle}
}

func (p Pose) String() string {
	return fmt.Sprintf("%s -> %s: x %.3f y %.3f heading %.3f", p.FrameA, p.FrameB, p.X, p.Y, p.Heading)
}

// Track is an ordered list of waypoints for the track_follower to
// drive.
type Track struct {
	Name      string `json:"name,omitempty"`
	Waypoints []Pose `json:"waypoints"`
}

// Length returns the cumulative straight-line distance along the
// waypoints, in meters.
func (t Track) Length() float64 {
	var length float64
	for i := 1; i < len(t.Waypoints); i++ {
		dx := t.Waypoints[i].X - t.Waypoints[i-1].X
		dy := t.Waypoints[i].Y - t.Waypoints[i-1].Y
		length += math.Hypot(dx, dy)
	}
	return length
}

// Load reads a Track from a JSON file. Legacy files holding a
// FilterTrack are converted transparently.
func Load(path string) (Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Track{}, fmt.Errorf("failed to read track: %w", err)
	}

	var t Track
	if err := json.Unmarshal(data, &t); err != nil {
		return Track{}, fmt.Errorf("failed to parse track %s: %w", path, err)
	}
	if len(t.Waypoints) > 0 {
		return t, nil
	}

	// Older recordings store FilterTrack files; accept those too.
	var ft FilterTrack
	if err := json.Unmarshal(data, &ft); err == nil && len(ft.States) > 0 {
		return ft.Track(), nil
	}
	return Track{}, fmt.Errorf("track %s has no waypoints", path)
}

// Save writes the track to a JSON file.
func Save(t Track, path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal track: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write track: %w", err)
	}
	return nil
}
