package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-playground/engine/assets/loaders"
	"github.com/spaghettifunk/anima-playground/engine/core"
	"github.com/spaghettifunk/anima-playground/engine/renderer/metadata"
)

const eventBufferSize = 64

var ErrAssetManagerClosed = errors.New("asset manager already closed")

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetEvent is published when an indexed asset is created, written or removed.
type AssetEvent struct {
	// Name is the file name without directory and extension, e.g. "case".
	Name    string
	Path    string
	Type    metadata.ResourceType
	Removed bool
}

type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done      chan struct{}
	fsnotify  *fsnotify.Watcher
	isClosed  bool
	started   bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	events    chan AssetEvent
	errors    chan error
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		events:   make(chan AssetEvent, eventBufferSize),
		errors:   make(chan error, eventBufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Initialize indexes and watches assetsDir recursively and registers the
// model loader with the given import options.
func (am *AssetManager) Initialize(assetsDir string, options ...loaders.ImportOption) error {
	fi, err := os.Stat(assetsDir)
	if err != nil {
		return fmt.Errorf("assets directory: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("assets directory %s is not a directory", assetsDir)
	}
	am.root = filepath.Clean(assetsDir)

	// Register loaders
	am.RegisterLoader(metadata.ResourceTypeModel, &loaders.ModelLoader{Options: options})

	if err := am.addRecursive(am.root); err != nil {
		return err
	}

	am.started = true
	am.wg.Add(1)
	go am.start()

	core.LogDebug("asset manager watching '%s' (%d assets indexed)", am.root, len(am.Assets()))
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return ErrAssetManagerClosed
	}
	return am.watchRecursive(name)
}

// RegisterLoader sets the loader used for an asset type, replacing any previous one.
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

// AssetPath resolves an asset name to the file it is expected in.
func (am *AssetManager) AssetPath(name string, resourceType metadata.ResourceType) (string, error) {
	switch resourceType {
	case metadata.ResourceTypeModel:
		return filepath.Join(am.root, "models", name+".obj"), nil
	case metadata.ResourceTypeMaterial:
		return filepath.Join(am.root, "models", name+".mtl"), nil
	default:
		return "", fmt.Errorf("unknown resource type %s", resourceType)
	}
}

// LoadAsset loads an asset using the appropriate loader.
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	path, err := am.AssetPath(name, resourceType)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if !exists {
		// the watcher may not have seen a freshly created file yet
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			asset = AssetInfo{Path: path, Type: determineAssetType(path)}
			exists = true
		}
	}
	if !exists {
		am.mutex.Unlock()
		return nil, fmt.Errorf("asset not found: %s: %w", path, core.ErrFileUnreadable)
	}
	asset.LastLoaded = time.Now()
	am.assets[path] = asset
	loader, loaderExists := am.loaders[asset.Type]
	am.mutex.Unlock()

	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Load(path, resourceType, params)
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return fmt.Errorf("unload: nil asset")
	}
	am.mutex.RLock()
	loader, ok := am.loaders[asset.Type]
	am.mutex.RUnlock()
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

// Assets returns a snapshot of the index sorted by path.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (am *AssetManager) Events() <-chan AssetEvent {
	return am.events
}

func (am *AssetManager) Errors() <-chan error {
	return am.errors
}

// Shutdown stops the watcher and closes the event channels. Safe to call twice.
func (am *AssetManager) Shutdown() error {
	am.closeOnce.Do(func() {
		am.isClosed = true
		close(am.done)
		am.wg.Wait()
		if !am.started {
			// the watcher goroutine never ran, so nothing else closes these
			am.fsnotify.Close()
			close(am.events)
			close(am.errors)
		}
	})
	return nil
}

func (am *AssetManager) start() {
	defer func() {
		am.fsnotify.Close()
		close(am.events)
		close(am.errors)
		am.wg.Done()
	}()
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if info, ok := am.handleFileEvent(e.Name); ok {
					am.publish(AssetEvent{Name: assetName(e.Name), Path: info.Path, Type: info.Type})
				}
			}
			// Can't stat a deleted file, so renames and removals just drop the index entry.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if info, ok := am.removeAsset(e.Name); ok {
					am.publish(AssetEvent{Name: assetName(e.Name), Path: info.Path, Type: info.Type, Removed: true})
				}
			}

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(e.Error())
			select {
			case am.errors <- e:
			default:
			}

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) publish(ev AssetEvent) {
	select {
	case am.events <- ev:
	default:
		core.LogWarn("asset event queue full, dropping event for '%s'", ev.Path)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found on the way.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return AssetInfo{}, false
	}
	path = filepath.Clean(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()

	info := am.assets[path]
	info.Path = path
	info.Type = assetType
	am.assets[path] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (AssetInfo, bool) {
	path = filepath.Clean(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()

	info, ok := am.assets[path]
	delete(am.assets, path)
	return info, ok
}

func assetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return metadata.ResourceTypeModel
	case ".mtl":
		return metadata.ResourceTypeMaterial
	default:
		return metadata.ResourceTypeNone
	}
}
