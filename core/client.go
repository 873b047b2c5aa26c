package core

import (
	"context"
	"fmt"

	"github.com/hubtools/space-restart/build"
	"github.com/hubtools/space-restart/hub"
)

type HubClient interface {
	Endpoint() string
	ListModels(ctx context.Context, filter hub.ModelFilter) ([]hub.ModelInfo, error)
	RestartSpace(ctx context.Context, repoID string, factoryReboot bool) (*hub.SpaceRuntime, error)
	GetSpaceRuntime(ctx context.Context, repoID string) (*hub.SpaceRuntime, error)
}

// HubClientFactory builds an unauthenticated handle when token is empty.
type HubClientFactory func(endpoint string, token string) (HubClient, error)

func userAgent() string {
	return fmt.Sprintf("restart-space/%s (%s)", build.Version, build.ShortCommit())
}

func NewHubClient(endpoint string, token string) (HubClient, error) {
	c, err := hub.New(endpoint, token, hub.WithUserAgent(userAgent()))
	if err != nil {
		return nil, err
	}
	return c, nil
}
