package script

import (
	"testing"

	"autovid-pipeline/types"
)

func TestStubScriptStructure(t *testing.T) {
	concept := &types.Idea{
		Title:  "The Power of Stoicism",
		Hook:   "This ancient philosophy will change your life.",
		Points: []string{"Control", "Perception", "Action", "Acceptance", "Extra point"},
		CTA:    "Follow for more!",
	}

	s := StubScript(concept)

	if !s.Fallback {
		t.Fatal("stub script must be flagged as fallback")
	}
	// hook + 4 points (capped) + cta
	if len(s.Scenes) != 6 {
		t.Fatalf("expected 6 scenes, got %d", len(s.Scenes))
	}
	if s.Scenes[0].Narration != concept.Hook {
		t.Fatalf("first scene must narrate the hook, got %q", s.Scenes[0].Narration)
	}
	if s.Scenes[len(s.Scenes)-1].Narration != concept.CTA {
		t.Fatalf("last scene must narrate the CTA, got %q", s.Scenes[len(s.Scenes)-1].Narration)
	}
	for i, scene := range s.Scenes {
		if scene.Visual == "" || scene.Narration == "" {
			t.Errorf("scene %d missing visual or narration: %+v", i, scene)
		}
	}
	if s.Scenes[1].Narration != "Control" || s.Scenes[4].Narration != "Acceptance" {
		t.Fatalf("middle scenes should follow point order, got %+v", s.Scenes[1:5])
	}
}

func TestStubScriptFillsEmptyConcept(t *testing.T) {
	s := StubScript(&types.Idea{})

	if !s.Fallback {
		t.Fatal("stub script must be flagged as fallback")
	}
	if len(s.Scenes) < 3 {
		t.Fatalf("even an empty concept should yield hook, points and CTA scenes, got %d", len(s.Scenes))
	}
	for i, scene := range s.Scenes {
		if scene.Narration == "" {
			t.Errorf("scene %d has empty narration", i)
		}
	}
}
