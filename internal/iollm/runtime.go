package iollm

import (
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/gnames/taxfinder/pkg/config"
)

// prepareOllama makes sure a local Ollama runtime is reachable and the
// model is present. When this call starts the runtime itself and
// StopAfterRun is set, it returns a cleanup callback that terminates
// the started process.
func prepareOllama(
	client *http.Client,
	baseURL string,
	cfg config.LlmConfig,
) (func(), error) {
	rt := &runtime{client: client, baseURL: baseURL}

	var started *exec.Cmd
	if !rt.reachable() && cfg.AutoStart {
		cmd := exec.Command("ollama", "serve")
		if err := cmd.Start(); err != nil {
			return nil, NewRuntimeError(baseURL, err)
		}
		started = cmd

		deadline := time.Now().Add(startDeadline(cfg.Timeout))
		for !rt.reachable() {
			if time.Now().After(deadline) {
				_ = cmd.Process.Kill()
				return nil, NewRuntimeStartError(baseURL)
			}
			time.Sleep(500 * time.Millisecond)
		}
	}

	if !rt.reachable() {
		return nil, NewRuntimeUnreachableError(baseURL)
	}

	if cfg.AutoPullModel && !rt.modelAvailable(cfg.Model) {
		err := exec.Command("ollama", "pull", cfg.Model).Run()
		if err != nil {
			return nil, NewModelPullError(cfg.Model, err)
		}
		if !rt.modelAvailable(cfg.Model) {
			return nil, NewModelMissingError(cfg.Model)
		}
	}

	if started == nil || !cfg.StopAfterRun {
		return nil, nil
	}
	return func() {
		_ = started.Process.Kill()
	}, nil
}

type runtime struct {
	client  *http.Client
	baseURL string
}

func (rt *runtime) tags() (map[string]any, bool) {
	url := strings.TrimRight(rt.baseURL, "/") + "/api/tags"
	resp, err := rt.client.Get(url)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, false
	}

	var data map[string]any
	enc := gnfmt.GNjson{}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true
	}
	if err = enc.Decode(raw, &data); err != nil {
		return nil, true
	}
	return data, true
}

func (rt *runtime) reachable() bool {
	_, ok := rt.tags()
	return ok
}

func (rt *runtime) modelAvailable(model string) bool {
	data, ok := rt.tags()
	if !ok {
		return false
	}
	models, _ := data["models"].([]any)
	for _, m := range models {
		entry, ok := m.(map[string]any)
		if !ok {
			continue
		}
		if name, _ := entry["name"].(string); name == model {
			return true
		}
	}
	return false
}

func startDeadline(timeout float64) time.Duration {
	res := time.Duration(timeout * float64(time.Second))
	if res < 5*time.Second {
		res = 5 * time.Second
	}
	return res
}
