package track

import (
	"encoding/json"
	"fmt"
)

// FollowRequest is the payload of the track_follower /set_track
// request.
type FollowRequest struct {
	Track Track `json:"track"`
}

// FollowerStatus reports what the track_follower is doing with the
// loaded track.
type FollowerStatus int

const (
	FollowerTrackLoaded FollowerStatus = iota
	FollowerFollowing
	FollowerPaused
	FollowerComplete
	FollowerAborted
)

var followerStatusNames = map[FollowerStatus]string{
	FollowerTrackLoaded: "TRACK_LOADED",
	FollowerFollowing:   "FOLLOWING",
	FollowerPaused:      "PAUSED",
	FollowerComplete:    "COMPLETE",
	FollowerAborted:     "ABORTED",
}

func (s FollowerStatus) String() string {
	if name, ok := followerStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("FollowerStatus(%d)", int(s))
}

// MarshalJSON encodes the status by name, matching the service wire
// format.
func (s FollowerStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *FollowerStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for status, n := range followerStatusNames {
		if n == name {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("track: unknown follower status %q", name)
}

// FollowerState is the state message streamed by the track_follower on
// its /state path.
type FollowerState struct {
	Status          FollowerStatus `json:"status"`
	WaypointIndex   int            `json:"waypoint_index"`
	WaypointCount   int            `json:"waypoint_count"`
	DistanceRemain  float64        `json:"distance_remaining"`
	CrossTrackError float64        `json:"cross_track_error"`
	RobotPose       Pose           `json:"robot_pose"`
}

func (s FollowerState) String() string {
	return fmt.Sprintf("status: %s waypoint: %d/%d remaining: %.2f m cross track: %.3f m",
		s.Status, s.WaypointIndex, s.WaypointCount, s.DistanceRemain, s.CrossTrackError)
}
