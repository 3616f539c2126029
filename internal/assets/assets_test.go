package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/animodel/internal/config"
	"github.com/Faultbox/animodel/internal/engine/model"
	"github.com/Faultbox/animodel/pkg/formats"
)

const triangleOBJ = `v 0 0 0
v 2 0 0
v 0 2 0
f 1 2 3
`

func writeModel(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestManager_GetCaches(t *testing.T) {
	path := writeModel(t, "tri.obj", triangleOBJ)
	mgr := NewManager(DefaultOptions())
	defer mgr.Close()

	first, err := mgr.Get(path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	second, err := mgr.Get(path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached model to be shared")
	}

	hits, misses, cached := mgr.Stats()
	if hits != 1 || misses != 1 || cached != 1 {
		t.Errorf("expected 1 hit, 1 miss, 1 cached, got %d/%d/%d", hits, misses, cached)
	}

	if len(first.Indices) != 3 {
		t.Errorf("expected 3 indices, got %d", len(first.Indices))
	}
	// default options normalize to unit size
	box, _ := first.Bounds()
	if size := box.Size(); size[0] < 0.999 || size[0] > 1.001 {
		t.Errorf("expected unit extent, got %v", size)
	}
}

func TestManager_Evict(t *testing.T) {
	path := writeModel(t, "tri.obj", triangleOBJ)
	mgr := NewManager(DefaultOptions())

	if _, err := mgr.Get(path); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !mgr.Evict(path) {
		t.Error("expected Evict to report a cached model")
	}
	if mgr.Evict(path) {
		t.Error("expected second Evict to report nothing")
	}
	if _, _, cached := mgr.Stats(); cached != 0 {
		t.Errorf("expected empty cache, got %d", cached)
	}
}

func TestManager_Errors(t *testing.T) {
	parseErr := errors.New("bad header")

	tests := []struct {
		name    string
		path    string
		parse   func(string) (*formats.Scene, error)
		wantErr []error
	}{
		{
			name:    "missing file",
			path:    "does/not/exist.obj",
			wantErr: []error{model.ErrFileNotFound},
		},
		{
			name: "parser failure",
			path: writeModel(t, "broken.obj", "junk"),
			parse: func(string) (*formats.Scene, error) {
				return nil, parseErr
			},
			wantErr: []error{model.ErrParseFailure, parseErr},
		},
		{
			name: "no meshes",
			path: writeModel(t, "empty.obj", ""),
			parse: func(string) (*formats.Scene, error) {
				return &formats.Scene{Root: &formats.Node{Name: "ROOT"}}, nil
			},
			wantErr: []error{model.ErrNoMeshes},
		},
		{
			name:    "unsupported extension",
			path:    writeModel(t, "model.xyz", "x"),
			wantErr: []error{model.ErrParseFailure, formats.ErrUnsupportedFormat},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Depth = 0
			opts.Parse = tt.parse
			mgr := NewManager(opts)

			_, err := mgr.Get(tt.path)
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("expected %v in %v", want, err)
				}
			}
			if _, _, cached := mgr.Stats(); cached != 0 {
				t.Errorf("failed loads must not be cached")
			}
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Loader.PathMode = "absolute"
	cfg.Loader.SearchDepth = 2
	cfg.Loader.UnitNormalize = false

	opts, err := OptionsFromConfig(cfg.Loader)
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if opts.Mode != Absolute || opts.Depth != 2 || opts.Load.NormalizeToUnit {
		t.Errorf("unexpected options %+v", opts)
	}

	cfg.Loader.PathMode = "sideways"
	if _, err := OptionsFromConfig(cfg.Loader); err == nil {
		t.Error("expected error for unknown path mode")
	}
}
