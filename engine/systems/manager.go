package systems

import (
	"errors"

	"github.com/spaghettifunk/anima-playground/engine/renderer/metadata"
)

type SystemManagerConfig struct {
	// Workers is the number of import jobs run at once.
	Workers int
	// QueueSize is the number of jobs that can wait for a worker without blocking Submit.
	QueueSize int
}

type SystemManager struct {
	JobSystem  *JobSystem
	MeshSystem *MeshSystem
}

func NewSystemManager(config *SystemManagerConfig, source ModelSource) (*SystemManager, error) {
	js, err := NewJobSystem(config.Workers, config.QueueSize)
	if err != nil {
		return nil, err
	}
	ms, err := NewMeshSystem(source)
	if err != nil {
		_ = js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		JobSystem:  js,
		MeshSystem: ms,
	}, nil
}

// LoadMeshes acquires every named mesh on the job workers and waits for all
// of them. Failures are joined; meshes that did load are still returned.
func (sm *SystemManager) LoadMeshes(names []string) (map[string]*metadata.Mesh, error) {
	type outcome struct {
		name string
		mesh *metadata.Mesh
		err  error
	}
	results := make(chan outcome, len(names))

	submitted := 0
	var errs []error
	for _, name := range names {
		err := sm.JobSystem.Submit(sm.MeshSystem.LoadJob(name,
			func(r interface{}) { results <- outcome{name: name, mesh: r.(*metadata.Mesh)} },
			func(err error) { results <- outcome{name: name, err: err} },
		))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		submitted++
	}

	meshes := make(map[string]*metadata.Mesh, len(names))
	for i := 0; i < submitted; i++ {
		o := <-results
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		meshes[o.name] = o.mesh
	}
	return meshes, errors.Join(errs...)
}

func (sm *SystemManager) Shutdown() error {
	return errors.Join(sm.JobSystem.Shutdown(), sm.MeshSystem.Shutdown())
}
