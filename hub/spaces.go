package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type SpaceStage string

const (
	StageNoAppFile          SpaceStage = "NO_APP_FILE"
	StageConfigError        SpaceStage = "CONFIG_ERROR"
	StageBuilding           SpaceStage = "BUILDING"
	StageBuildError         SpaceStage = "BUILD_ERROR"
	StageRunning            SpaceStage = "RUNNING"
	StageRunningBuilding    SpaceStage = "RUNNING_BUILDING"
	StageRunningAppStarting SpaceStage = "RUNNING_APP_STARTING"
	StageAppStarting        SpaceStage = "APP_STARTING"
	StageRuntimeError       SpaceStage = "RUNTIME_ERROR"
	StageDeleting           SpaceStage = "DELETING"
	StageStopped            SpaceStage = "STOPPED"
	StagePaused             SpaceStage = "PAUSED"
	StageSleeping           SpaceStage = "SLEEPING"
)

// IsError reports whether the space is stuck in a failure stage.
func (s SpaceStage) IsError() bool {
	switch s {
	case StageConfigError, StageBuildError, StageRuntimeError, StageNoAppFile:
		return true
	}
	return false
}

// SpaceRuntime is the runtime state the hub reports for a space. Fields the
// hub leaves null are zero; Raw keeps the full payload.
type SpaceRuntime struct {
	Stage             SpaceStage
	Hardware          string
	RequestedHardware string
	SleepTime         *time.Duration
	Storage           string
	Raw               map[string]interface{}
}

type spaceRuntimePayload struct {
	Stage    SpaceStage `json:"stage"`
	Hardware *struct {
		Current   *string `json:"current"`
		Requested *string `json:"requested"`
	} `json:"hardware"`
	GcTimeout *int64  `json:"gcTimeout"`
	Storage   *string `json:"storage"`
}

func (r *SpaceRuntime) UnmarshalJSON(data []byte) error {
	var payload spaceRuntimePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = SpaceRuntime{
		Stage: payload.Stage,
		Raw:   raw,
	}
	if h := payload.Hardware; h != nil {
		if h.Current != nil {
			r.Hardware = *h.Current
		}
		if h.Requested != nil {
			r.RequestedHardware = *h.Requested
		}
	}
	if payload.GcTimeout != nil {
		d := time.Duration(*payload.GcTimeout) * time.Second
		r.SleepTime = &d
	}
	if payload.Storage != nil {
		r.Storage = *payload.Storage
	}
	return nil
}

func (r SpaceRuntime) String() string {
	orNone := func(s string) string {
		if s == "" {
			return "none"
		}
		return s
	}
	sleep := "none"
	if r.SleepTime != nil {
		sleep = r.SleepTime.String()
	}
	return fmt.Sprintf("SpaceRuntime(stage=%s, hardware=%s, requested_hardware=%s, sleep_time=%s, storage=%s)",
		orNone(string(r.Stage)),
		orNone(r.Hardware),
		orNone(r.RequestedHardware),
		sleep,
		orNone(r.Storage),
	)
}

func spacePath(repoID string, action string) string {
	return "/api/spaces/" + strings.TrimPrefix(repoID, "/") + "/" + action
}

// RestartSpace asks the hub to restart a space. With factoryReboot the space
// is rebuilt from scratch instead of soft restarted.
func (c *Client) RestartSpace(ctx context.Context, repoID string, factoryReboot bool) (*SpaceRuntime, error) {
	if err := ValidateRepoID(repoID); err != nil {
		return nil, err
	}

	query := url.Values{}
	if factoryReboot {
		query.Set("factory", "true")
	}
	u, err := c.resolve(spacePath(repoID, "restart"), query)
	if err != nil {
		return nil, err
	}

	out := new(SpaceRuntime)
	if _, err := c.sendRequest(ctx, http.MethodPost, u, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSpaceRuntime(ctx context.Context, repoID string) (*SpaceRuntime, error) {
	if err := ValidateRepoID(repoID); err != nil {
		return nil, err
	}

	u, err := c.resolve(spacePath(repoID, "runtime"), nil)
	if err != nil {
		return nil, err
	}

	out := new(SpaceRuntime)
	if _, err := c.sendRequest(ctx, http.MethodGet, u, out); err != nil {
		return nil, err
	}
	return out, nil
}
