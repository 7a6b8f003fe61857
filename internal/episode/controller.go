package episode

import (
	"explorerl/internal/env"
)

// State is the lifecycle state of the current episode
type State int

const (
	Running State = iota
	Done
)

func (s State) String() string {
	if s == Done {
		return "done"
	}
	return "running"
}

// Outcome is the per-step verdict handed back to the driver
type Outcome struct {
	Done      bool // goal reached
	Truncated bool // run span exhausted
}

// Controller decides goal and truncation for one session
type Controller struct {
	RunSpan int

	state  State
	reason env.EndReason
}

// NewController creates a controller that truncates at runSpan steps
func NewController(runSpan int) *Controller {
	return &Controller{RunSpan: runSpan}
}

// Evaluate checks the step against the goal (badges gained since the start
// of the step) and the step budget. Evaluating after Done reports the
// recorded outcome again without re-checking.
func (c *Controller) Evaluate(step, badgesBefore, badgesNow int) Outcome {
	if c.state == Done {
		return Outcome{Done: c.reason == env.EndGoal, Truncated: c.reason == env.EndTruncated}
	}

	out := Outcome{
		Done:      badgesNow > badgesBefore,
		Truncated: step >= c.RunSpan,
	}
	switch {
	case out.Done:
		c.state, c.reason = Done, env.EndGoal
	case out.Truncated:
		c.state, c.reason = Done, env.EndTruncated
	}
	return out
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// Reason returns why the episode ended, or EndNone while running
func (c *Controller) Reason() env.EndReason {
	return c.reason
}

// Reset re-enters Running for a new episode
func (c *Controller) Reset() {
	c.state = Running
	c.reason = env.EndNone
}
