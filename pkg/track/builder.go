package track

import (
	"fmt"
	"math"
)

// Waypoint spacing used when interpolating segments.
const (
	straightSpacing = 0.1 // meters
	turnSpacing     = 0.1 // radians
)

// StraightSegment interpolates a straight drive of distance meters from
// the previous pose, one waypoint every 10 cm. The last waypoint's
// child frame is named frameB.
func StraightSegment(previous Pose, frameB string, distance float64) []Pose {
	poses := []Pose{previous}

	counter := 0
	remaining := distance
	for math.Abs(remaining) > 0.01 {
		step := math.Copysign(math.Min(math.Abs(remaining), straightSpacing), distance)

		last := poses[len(poses)-1]
		next := last.Mul(Translation(last.FrameB, fmt.Sprintf("%s_%d", frameB, counter), step, 0))
		poses = append(poses, next)

		counter++
		remaining -= step
	}

	poses[len(poses)-1].FrameB = frameB
	return poses
}

// TurnSegment interpolates an in-place turn of angle radians (positive
// is left) from the previous pose, one waypoint every 0.1 rad. The last
// waypoint's child frame is named frameB.
func TurnSegment(previous Pose, frameB string, angle float64) []Pose {
	poses := []Pose{previous}

	counter := 0
	remaining := angle
	for math.Abs(remaining) > 0.01 {
		step := math.Copysign(math.Min(math.Abs(remaining), turnSpacing), angle)

		last := poses[len(poses)-1]
		next := last.Mul(Rotation(last.FrameB, fmt.Sprintf("%s_%d", frameB, counter), step))
		poses = append(poses, next)

		counter++
		remaining -= step
	}

	poses[len(poses)-1].FrameB = frameB
	return poses
}

// BuildSquare builds a square track starting at the robot's current
// world pose: four sides of sideLength meters with 90 degree turns,
// clockwise or counter-clockwise.
func BuildSquare(worldPoseRobot Pose, sideLength float64, clockwise bool) Track {
	angle := math.Pi / 2
	if clockwise {
		angle = -angle
	}

	start := worldPoseRobot
	start.FrameB = "goal0"
	waypoints := []Pose{start}

	goal := 1
	for side := 0; side < 4; side++ {
		straight := StraightSegment(waypoints[len(waypoints)-1], fmt.Sprintf("goal%d", goal), sideLength)
		waypoints = append(waypoints, straight[1:]...)
		goal++

		turn := TurnSegment(waypoints[len(waypoints)-1], fmt.Sprintf("goal%d", goal), angle)
		waypoints = append(waypoints, turn[1:]...)
		goal++
	}

	return Track{Name: "square", Waypoints: waypoints}
}
