// Package info derives optional per-step diagnostic values from the
// simulation transition. Info values are purely observational and never
// feed back into the environment state.
package info

// Values is one trajectory's diagnostic payload for a single step.
type Values map[string]float64

// Calculator produces one Values entry per trajectory from the pre-step
// state, the action taken and the resulting rewards.
type Calculator interface {
	Calculate(current, action [][]float64, rewards []float64) []Values
	Reset()
}

// EpisodeReward accumulates rewards across an episode and reports the
// per-step reward together with the running total.
type EpisodeReward struct {
	cumulative []float64
}

func NewEpisodeReward() *EpisodeReward { return &EpisodeReward{} }

func (c *EpisodeReward) Calculate(current, action [][]float64, rewards []float64) []Values {
	if len(c.cumulative) != len(rewards) {
		c.cumulative = make([]float64, len(rewards))
	}
	out := make([]Values, len(rewards))
	for i, r := range rewards {
		c.cumulative[i] += r
		out[i] = Values{
			"reward":         r,
			"episode_reward": c.cumulative[i],
		}
	}
	return out
}

func (c *EpisodeReward) Reset() { c.cumulative = nil }
