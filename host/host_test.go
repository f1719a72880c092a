package host

import (
	"testing"
	"time"

	"github.com/framegrace/texelcast/config"
	"github.com/framegrace/texelcast/gfx"
)

type stubSource struct {
	settings config.Section
	ticks    int
}

func (s *stubSource) Update(settings config.Section)  { s.settings = settings }
func (s *stubSource) Show()                           {}
func (s *stubSource) Hide()                           {}
func (s *stubSource) Tick(dt time.Duration)           { s.ticks++ }
func (s *stubSource) Render(draw func(*gfx.Texture))  {}
func (s *stubSource) Width() int                      { return 0 }
func (s *stubSource) Height() int                     { return 0 }
func (s *stubSource) Properties() []Property          { return nil }
func (s *stubSource) Destroy()                        {}

func stubInfo(id string) SourceInfo {
	return SourceInfo{
		ID:   id,
		Name: id,
		Defaults: func(settings config.Section) {
			if _, ok := settings["mode"]; !ok {
				settings.Set("mode", "auto")
			}
		},
		Create: func(settings config.Section) (Source, error) {
			return &stubSource{settings: settings}, nil
		},
	}
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubInfo("stub")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.Count() != 1 {
		t.Fatalf("expected 1 source type")
	}

	src, err := r.Create("stub", config.Section{"mode": "manual"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	stub := src.(*stubSource)
	if stub.settings.GetString("mode", "") != "manual" {
		t.Fatalf("defaults overwrote user settings")
	}

	// Nil settings get a fresh section with defaults applied.
	src, err = r.Create("stub", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if src.(*stubSource).settings.GetString("mode", "") != "auto" {
		t.Fatalf("defaults not applied")
	}
}

func TestRegistryDuplicateID(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubInfo("stub")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register(stubInfo("stub")); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestRegistryUnknownID(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create("nope", nil); err == nil {
		t.Fatalf("expected unknown source error")
	}
	if _, ok := r.Lookup("nope"); ok {
		t.Fatalf("lookup should miss")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(SourceInfo{ID: "b", Name: "Zeta"})
	r.Register(SourceInfo{ID: "a", Name: "Alpha"})
	list := r.List()
	if len(list) != 2 || list[0].Name != "Alpha" {
		t.Fatalf("expected sorted list, got %+v", list)
	}
}
