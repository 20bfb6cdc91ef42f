package canbus

import "fmt"

// Twist2d is the planar velocity command (and echoed state) exchanged
// with the canbus service on the vehicle twist channel.
type Twist2d struct {
	LinearVelocityX float64 `json:"linear_velocity_x"`
	LinearVelocityY float64 `json:"linear_velocity_y"`
	AngularVelocity float64 `json:"angular_velocity"`
}

func (t Twist2d) String() string {
	return fmt.Sprintf("twist vx %.3f vy %.3f w %.3f",
		t.LinearVelocityX, t.LinearVelocityY, t.AngularVelocity)
}
