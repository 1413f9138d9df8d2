package llm

import (
	"context"
	"strings"
)

// GetProbabilities measures how likely the model is to continue prompt with
// each option group. Every group is a set of spellings for one outcome; the
// result holds one accumulated probability per group, indexed like options.
//
// Because a spelling may span several tokens, candidates that are a strict
// prefix of an option recurse with the prefix appended to the prompt, and
// the deeper probabilities are weighted by the prefix token's own.
func GetProbabilities(ctx context.Context, backend Backend, prompt string, options [][]string) ([]float64, error) {
	prober, ok := backend.(ProbabilityBackend)
	if !ok {
		return nil, ErrNoProbabilities
	}

	groups := make(map[string]int)
	for i, spellings := range options {
		for _, spelling := range spellings {
			groups[spelling] = i
		}
	}

	return findTokens(ctx, prober, prompt, groups, "", len(options))
}

func findTokens(ctx context.Context, prober ProbabilityBackend, prompt string, groups map[string]int, prefix string, size int) ([]float64, error) {
	positions, err := prober.RunInferenceProbabilities(ctx, prompt+prefix, 1)
	if err != nil {
		return nil, err
	}

	result := make([]float64, size)
	if len(positions) == 0 {
		return result, nil
	}

	for token, probability := range positions[0] {
		if probability == 0 {
			continue
		}

		candidate := prefix + token
		if group, ok := groups[candidate]; ok {
			result[group] += probability
			continue
		}

		if !hasPrefixedOption(groups, candidate) {
			continue
		}
		deeper, err := findTokens(ctx, prober, prompt, groups, candidate, size)
		if err != nil {
			return nil, err
		}
		for i := range deeper {
			result[i] += deeper[i] * probability
		}
	}

	return result, nil
}

func hasPrefixedOption(groups map[string]int, prefix string) bool {
	for spelling := range groups {
		if strings.HasPrefix(spelling, prefix) {
			return true
		}
	}
	return false
}
