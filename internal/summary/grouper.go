package summary

import (
	"slices"
	"strings"

	"github.com/humanzai/cpdash/pkg/models"
)

// GroupedActions represents journaled actions grouped by deployment
type GroupedActions struct {
	Deployments map[DeploymentKey][]models.Action
}

// GroupByDeployment groups actions by the app and deployment they targeted
func GroupByDeployment(actions []models.Action) *GroupedActions {
	grouped := &GroupedActions{
		Deployments: make(map[DeploymentKey][]models.Action),
	}

	for _, a := range actions {
		key := DeploymentKey{App: a.App, Deployment: a.Deployment}
		grouped.Deployments[key] = append(grouped.Deployments[key], a)
	}

	return grouped
}

// Keys returns the deployment keys sorted by app, then deployment
func (g *GroupedActions) Keys() []DeploymentKey {
	keys := make([]DeploymentKey, 0, len(g.Deployments))
	for k := range g.Deployments {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b DeploymentKey) int {
		if c := strings.Compare(a.App, b.App); c != 0 {
			return c
		}
		return strings.Compare(a.Deployment, b.Deployment)
	})
	return keys
}

// Summarize aggregates each deployment's actions, ordered like Keys
func (g *GroupedActions) Summarize() []DeploymentSummary {
	var out []DeploymentSummary
	for _, key := range g.Keys() {
		actions := g.Deployments[key]

		s := DeploymentSummary{
			Key:       key,
			Kinds:     make(map[models.ActionKind]int),
			FirstTime: actions[0].Timestamp,
			LastTime:  actions[0].Timestamp,
		}
		for _, a := range actions {
			s.ActionCount++
			s.Kinds[a.Kind]++
			if a.Status == models.StatusFailed {
				s.Failed++
			}
			s.FirstTime = min(s.FirstTime, a.Timestamp)
			s.LastTime = max(s.LastTime, a.Timestamp)
		}
		out = append(out, s)
	}
	return out
}
