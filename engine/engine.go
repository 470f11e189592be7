package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spaghettifunk/anima-playground/engine/assets"
	"github.com/spaghettifunk/anima-playground/engine/assets/loaders"
	"github.com/spaghettifunk/anima-playground/engine/core"
	"github.com/spaghettifunk/anima-playground/engine/math"
	"github.com/spaghettifunk/anima-playground/engine/platform"
	"github.com/spaghettifunk/anima-playground/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-playground/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine initialization is complete
	EngineStageInitialized
	// Scene models were imported
	EngineStageSceneLoaded
	// Engine is watching the assets directory for changes
	EngineStageWatching
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage  Stage
	config        *core.Config
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager

	// OnReload, when set, is called after a watched model was re-imported.
	OnReload func(*metadata.Mesh)
}

func New(config *core.Config) (*Engine, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	// no point in more workers than models to import
	workers := math.Clamp(config.Assets.Workers, 1, max(len(config.Assets.Models), 1))
	sm, err := systems.NewSystemManager(&systems.SystemManagerConfig{
		Workers:   workers,
		QueueSize: len(config.Assets.Models),
	}, am)
	if err != nil {
		_ = am.Shutdown()
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage:  EngineStageUninitialized,
		config:        config,
		assetManager:  am,
		systemManager: sm,
	}, nil
}

func (e *Engine) importOptions() []loaders.ImportOption {
	return []loaders.ImportOption{
		loaders.WithStrictPositions(e.config.Import.StrictPositions),
		loaders.WithReaderOptions(
			platform.WithDelimiter(e.config.Reader.Delimiter),
			platform.WithChunkSize(e.config.Reader.ChunkSize),
		),
	}
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	if err := e.assetManager.Initialize(e.config.Assets.Dir, e.importOptions()...); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized with assets from '%s'", e.config.Name, e.config.Assets.Dir)
	return nil
}

// LoadScene imports every configured model. Models that fail are logged and
// reported in the returned error; the others stay available.
func (e *Engine) LoadScene(ctx context.Context) (map[string]*metadata.Mesh, error) {
	if e.currentStage == EngineStageUninitialized {
		return nil, fmt.Errorf("engine not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type loaded struct {
		meshes map[string]*metadata.Mesh
		err    error
	}
	clock := core.NewClock()
	clock.Start()
	done := make(chan loaded, 1)
	go func() {
		meshes, err := e.systemManager.LoadMeshes(e.config.Assets.Models)
		done <- loaded{meshes, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case l := <-done:
		for _, name := range e.config.Assets.Models {
			if m, ok := l.meshes[name]; ok {
				core.LogInfo("mesh '%s': %d vertices, %d indices, extents %v..%v",
					name, m.Record.VertexCount(), len(m.Record.Indices), m.Extents.Min, m.Extents.Max)
			}
		}
		clock.Stop()
		if l.err != nil {
			core.LogError("scene loaded with errors: %s", l.err)
		}
		core.LogInfo("scene loaded in %s, %s per model on average", clock.Elapsed(), e.Meshes().Metrics().Average())
		e.currentStage = EngineStageSceneLoaded
		return l.meshes, l.err
	}
}

// Watch re-imports scene models as their files change, until ctx ends or the
// asset manager shuts down. Import failures are logged and the last good mesh kept.
func (e *Engine) Watch(ctx context.Context) error {
	if e.currentStage == EngineStageUninitialized {
		return fmt.Errorf("engine not initialized")
	}
	e.currentStage = EngineStageWatching
	meshes := e.systemManager.MeshSystem
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-e.assetManager.Errors():
			if !ok {
				return nil
			}
			core.LogWarn("watcher: %s", err)
		case ev, ok := <-e.assetManager.Events():
			if !ok {
				return nil
			}
			if ev.Type != metadata.ResourceTypeModel || !slices.Contains(e.config.Assets.Models, ev.Name) {
				continue
			}
			if ev.Removed {
				if meshes.Release(ev.Name) {
					core.LogWarn("model '%s' was removed", ev.Name)
				}
				continue
			}
			m, err := meshes.Reload(ev.Name)
			if err != nil {
				core.LogError("failed to reload '%s': %s", ev.Name, err)
				continue
			}
			core.LogInfo("mesh '%s' reloaded (generation %d)", m.Name, m.Generation)
			if e.OnReload != nil {
				e.OnReload(m)
			}
		}
	}
}

func (e *Engine) Meshes() *systems.MeshSystem {
	return e.systemManager.MeshSystem
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	return errors.Join(e.systemManager.Shutdown(), e.assetManager.Shutdown())
}
