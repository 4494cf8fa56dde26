package simulation

import (
	"fmt"

	"herd-sim/internal/common"
)

// AgentView is the read-only state of one agent exposed to renderers and loggers.
type AgentView struct {
	ID       int
	Position common.Vector
	Heading  float64
	Speed    float64
	State    State
}

func viewOf(a *Agent) AgentView {
	return AgentView{
		ID:       a.ID,
		Position: a.Position,
		Heading:  a.Heading,
		Speed:    a.Speed,
		State:    a.State,
	}
}

// HeadingVector returns the unit vector along the agent's heading.
func (v AgentView) HeadingVector() common.Vector {
	return common.HeadingVector(v.Heading)
}

func (v AgentView) String() string {
	return fmt.Sprintf("Agent[%d] Pos: %s Heading: %.3f State: %s", v.ID, common.String(v.Position), v.Heading, v.State)
}
