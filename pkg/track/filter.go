package track

// FilterState is one state estimate published by the filter service,
// and the payload of its /get_state reply.
type FilterState struct {
	Pose            Pose    `json:"pose"`
	HasConverged    bool    `json:"has_converged"`
	DivergenceRatio float64 `json:"divergence_ratio,omitempty"`
}

// FilterTrack is the legacy track recording format: the sequence of
// filter states captured while driving.
type FilterTrack struct {
	Name   string        `json:"name,omitempty"`
	States []FilterState `json:"states"`
}

// Track converts the recording to a generic Track by keeping the pose
// of each state.
func (ft FilterTrack) Track() Track {
	waypoints := make([]Pose, len(ft.States))
	for i, state := range ft.States {
		waypoints[i] = state.Pose
	}
	return Track{Name: ft.Name, Waypoints: waypoints}
}
