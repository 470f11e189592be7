package systems

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-playground/engine/core"
	"github.com/spaghettifunk/anima-playground/engine/math"
	"github.com/spaghettifunk/anima-playground/engine/renderer/metadata"
)

// ModelSource is the part of the asset manager the mesh system needs.
type ModelSource interface {
	LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error)
	UnloadAsset(*metadata.Resource) error
}

// MeshSystem keeps the imported meshes of the playground by asset name.
type MeshSystem struct {
	source  ModelSource
	meshes  map[string]*metadata.Mesh
	mutex   sync.RWMutex
	metrics *core.ImportMetrics
}

func NewMeshSystem(source ModelSource) (*MeshSystem, error) {
	if source == nil {
		return nil, fmt.Errorf("mesh system needs a model source")
	}
	return &MeshSystem{
		source:  source,
		meshes:  make(map[string]*metadata.Mesh),
		metrics: core.NewImportMetrics(),
	}, nil
}

func (ms *MeshSystem) Shutdown() error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	ms.meshes = make(map[string]*metadata.Mesh)
	return nil
}

// Acquire returns the named mesh, importing it on first use.
func (ms *MeshSystem) Acquire(name string) (*metadata.Mesh, error) {
	if m, ok := ms.Get(name); ok {
		return m, nil
	}
	record, err := ms.importRecord(name)
	if err != nil {
		return nil, err
	}

	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	// another job may have won the race
	if m, ok := ms.meshes[name]; ok {
		return m, nil
	}
	m := newMesh(uuid.New(), name, 0, record)
	ms.meshes[name] = m
	core.LogDebug("mesh '%s' acquired (id=%s)", name, m.ID)
	return m, nil
}

// Reload re-imports the named mesh, keeping its ID and bumping its generation.
// On failure the previously loaded mesh stays in place.
func (ms *MeshSystem) Reload(name string) (*metadata.Mesh, error) {
	record, err := ms.importRecord(name)
	if err != nil {
		return nil, err
	}

	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	prev, ok := ms.meshes[name]
	if !ok {
		m := newMesh(uuid.New(), name, 0, record)
		ms.meshes[name] = m
		return m, nil
	}
	m := newMesh(prev.ID, name, prev.Generation+1, record)
	ms.meshes[name] = m
	core.LogDebug("mesh '%s' reloaded (generation %d)", name, m.Generation)
	return m, nil
}

func (ms *MeshSystem) Get(name string) (*metadata.Mesh, bool) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()
	m, ok := ms.meshes[name]
	return m, ok
}

// Release forgets the named mesh. It reports whether the mesh was loaded.
func (ms *MeshSystem) Release(name string) bool {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	_, ok := ms.meshes[name]
	delete(ms.meshes, name)
	return ok
}

// Names lists the loaded meshes in lexical order.
func (ms *MeshSystem) Names() []string {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()
	names := make([]string, 0, len(ms.meshes))
	for n := range ms.meshes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadJob describes acquiring the named mesh on a job worker.
func (ms *MeshSystem) LoadJob(name string, onComplete metadata.JobOnComplete, onFailure metadata.JobOnFailure) metadata.JobTask {
	return metadata.JobTask{
		Name:        "load mesh " + name,
		InputParams: name,
		OnStart:     ms.meshLoadJobStart,
		OnComplete:  onComplete,
		OnFailure:   onFailure,
	}
}

func (ms *MeshSystem) meshLoadJobStart(params interface{}) (interface{}, error) {
	name, ok := params.(string)
	if !ok {
		return nil, fmt.Errorf("failed to cast params to `string`")
	}
	return ms.Acquire(name)
}

// Metrics reports import timings of this mesh system.
func (ms *MeshSystem) Metrics() *core.ImportMetrics {
	return ms.metrics
}

func (ms *MeshSystem) importRecord(name string) (*metadata.MeshRecord, error) {
	clock := core.NewClock()
	clock.Start()
	res, err := ms.source.LoadAsset(name, metadata.ResourceTypeModel, map[string]string{"name": name})
	clock.Stop()
	ms.metrics.Record(clock.Elapsed(), err)
	if err != nil {
		return nil, err
	}
	record, ok := res.Data.(*metadata.MeshRecord)
	if !ok {
		return nil, fmt.Errorf("resource '%s' does not hold a mesh record", name)
	}
	// the record now belongs to the mesh, the resource wrapper can go
	if err := ms.source.UnloadAsset(res); err != nil {
		core.LogWarn("failed to unload resource '%s': %s", name, err)
	}
	return record, nil
}

func newMesh(id uuid.UUID, name string, generation uint16, record *metadata.MeshRecord) *metadata.Mesh {
	extents, center := math.GeometryCalculateExtents(record.Positions())
	return &metadata.Mesh{
		ID:         id,
		Name:       name,
		Generation: generation,
		Record:     record,
		Center:     center,
		Extents:    extents,
	}
}
