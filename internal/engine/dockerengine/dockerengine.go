// Package dockerengine runs a containerized calculator (DFT or force-field
// image) for each pipeline operation. The protocol is a bind-mounted work
// directory with a _task.json handed in and a _result.json handed back; the
// container is created fresh per operation and removed afterwards.
package dockerengine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/screening"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/vault"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/workspace"
)

const (
	labelPrefix = "hpfneb"
	taskFile    = "_task.json"
	resultFile  = "_result.json"
)

type Engine struct {
	docker *client.Client
	cfg    config.CalculatorConfig
	env    []string
}

// New builds the engine and resolves the configured credential secrets from
// the ledger into container environment variables.
func New(cfg config.CalculatorConfig, l *ledger.Ledger, v *vault.Vault) (*Engine, error) {
	docker, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	if cfg.Image == "" {
		return nil, fmt.Errorf("calculator image not configured")
	}

	e := &Engine{docker: docker, cfg: cfg}
	for _, name := range cfg.Secrets {
		if l == nil || v == nil {
			return nil, fmt.Errorf("secret %s configured but vault/ledger unavailable", name)
		}
		sec, err := l.GetSecret(name)
		if err != nil {
			return nil, err
		}
		if sec == nil {
			return nil, fmt.Errorf("secret %s not found", name)
		}
		plaintext, err := v.Decrypt(sec.Value, sec.Nonce)
		if err != nil {
			return nil, fmt.Errorf("decrypt secret %s: %w", name, err)
		}
		e.env = append(e.env, fmt.Sprintf("%s=%s", name, plaintext))
	}
	return e, nil
}

type task struct {
	Op    string          `json:"op"`
	Input json.RawMessage `json:"input"`
}

// runTask executes one calculator operation with workdir bind-mounted at
// /work inside the container, blocking until the container exits.
func (e *Engine) runTask(ctx context.Context, op string, input, output any, workdir string) error {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal %s input: %w", op, err)
	}
	taskJSON, err := json.Marshal(task{Op: op, Input: inputJSON})
	if err != nil {
		return fmt.Errorf("marshal %s task: %w", op, err)
	}
	if err := os.WriteFile(filepath.Join(workdir, taskFile), taskJSON, 0o644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	abs, err := filepath.Abs(workdir)
	if err != nil {
		return fmt.Errorf("resolve workdir: %w", err)
	}

	containerName := fmt.Sprintf("hpfneb-calc-%s-%d", op, time.Now().UnixNano())
	resp, err := e.docker.ContainerCreate(ctx,
		&dockercontainer.Config{
			Image:  e.cfg.Image,
			Env:    e.env,
			Labels: map[string]string{labelPrefix + ".managed": "true", labelPrefix + ".op": op},
		},
		&dockercontainer.HostConfig{Binds: []string{abs + ":/work"}},
		nil, nil, containerName,
	)
	if err != nil {
		return fmt.Errorf("create calculator container: %w", err)
	}
	defer func() {
		_ = e.docker.ContainerRemove(context.Background(), resp.ID, dockercontainer.RemoveOptions{Force: true})
	}()

	if err := e.docker.ContainerStart(ctx, resp.ID, dockercontainer.StartOptions{}); err != nil {
		return fmt.Errorf("start calculator container: %w", err)
	}
	slog.Debug("calculator started", "op", op, "container", resp.ID[:12])

	waitCh, errCh := e.docker.ContainerWait(ctx, resp.ID, dockercontainer.WaitConditionNotRunning)
	select {
	case status := <-waitCh:
		if status.StatusCode != 0 {
			return fmt.Errorf("calculator %s exited with status %d", op, status.StatusCode)
		}
	case err := <-errCh:
		return fmt.Errorf("wait for calculator %s: %w", op, err)
	}

	resultJSON, err := os.ReadFile(filepath.Join(workdir, resultFile))
	if err != nil {
		return fmt.Errorf("read %s result: %w", op, err)
	}
	if output != nil {
		if err := json.Unmarshal(resultJSON, output); err != nil {
			return fmt.Errorf("parse %s result: %w", op, err)
		}
	}
	return nil
}

// scratch runs an operation that has no pipeline workdir of its own.
func (e *Engine) scratch(ctx context.Context, op string, input, output any) error {
	dir, err := os.MkdirTemp("", "hpfneb-"+op+"-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)
	return e.runTask(ctx, op, input, output, dir)
}

func (e *Engine) Initialize(ctx context.Context, name string) (chem.Structure, error) {
	var out chem.Structure
	err := e.scratch(ctx, "initialize", map[string]string{"name": name}, &out)
	return out, err
}

func (e *Engine) Optimize(ctx context.Context, s chem.Structure) (chem.Structure, error) {
	var out chem.Structure
	err := e.scratch(ctx, "optimize", s, &out)
	return out, err
}

func (e *Engine) OptimizeSlab(ctx context.Context) (chem.Structure, error) {
	var out chem.Structure
	err := e.scratch(ctx, "optimize_slab", e.cfg.Slab, &out)
	return out, err
}

func (e *Engine) Screen(ctx context.Context, slab, ads chem.Structure, opts engine.ScreenOptions) (*screening.Results, error) {
	input := map[string]any{
		"slab":       slab,
		"adsorbate":  ads,
		"centering":  opts.Centering,
		"exhaustive": opts.Exhaustive,
	}
	// The container streams site artifacts and the canonical file into the
	// bind-mounted workdir; the authoritative output is on disk.
	if err := e.runTask(ctx, "screen", input, nil, opts.Workdir); err != nil {
		return nil, err
	}
	return screening.Load(filepath.Join(opts.Workdir, workspace.ResultsFileName))
}

type endpointsOut struct {
	Start chem.Structure `json:"start"`
	End   chem.Structure `json:"end"`
}

func (e *Engine) TranslationEndpoints(best screening.Site, res *screening.Results) (chem.Structure, chem.Structure, error) {
	var out endpointsOut
	input := map[string]any{"best_site": best, "results": res}
	if err := e.scratch(context.Background(), "endpoints_translation", input, &out); err != nil {
		return chem.Structure{}, chem.Structure{}, err
	}
	return out.Start, out.End, nil
}

func (e *Engine) RotationEndpoints(best screening.Site, res *screening.Results, angleDeg float64) (chem.Structure, chem.Structure, error) {
	var out endpointsOut
	input := map[string]any{"best_site": best, "results": res, "angle_degrees": angleDeg}
	if err := e.scratch(context.Background(), "endpoints_rotation", input, &out); err != nil {
		return chem.Structure{}, chem.Structure{}, err
	}
	return out.Start, out.End, nil
}

func (e *Engine) RunNEB(ctx context.Context, start, end chem.Structure, opts engine.NEBOptions) (*engine.NEBResult, error) {
	var out engine.NEBResult
	input := map[string]any{
		"start":  start,
		"end":    end,
		"images": opts.Images,
		"kind":   opts.Kind,
	}
	if err := e.runTask(ctx, "neb", input, &out, opts.Workdir); err != nil {
		return nil, err
	}
	return &out, nil
}
