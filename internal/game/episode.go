package game

// RunEpisode plays one full round with policy and returns the final result.
func RunEpisode(env *Env, policy Policy) (StepResult, error) {
	state, err := env.Reset()
	if err != nil {
		return StepResult{}, err
	}
	for {
		res, err := env.Step(policy.Decide(state))
		if err != nil {
			return StepResult{}, err
		}
		if res.Done {
			return res, nil
		}
		state = res.State
	}
}
