package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/evsched/core/model"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario fixtures found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte(":"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("expected unmarshal error")
	}
	unnamed := filepath.Join(dir, "unnamed.yaml")
	if err := os.WriteFile(unnamed, []byte("users: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(unnamed); err == nil {
		t.Fatal("expected missing name error")
	}
}

func TestDefinitionsToModel(t *testing.T) {
	u, err := UserDef{ID: "u", Type: "taxi", SoC: 30}.ToModel()
	if err != nil {
		t.Fatal(err)
	}
	if u.MaxWaitTime != 15 || u.PreferredPower != 50 || u.MaxRange != 400 {
		t.Fatalf("unexpected defaults %+v", u)
	}
	if _, err := (UserDef{ID: "u", Type: "bus"}).ToModel(); err == nil {
		t.Fatal("expected unknown user type error")
	}

	c, err := ChargerDef{ID: "c", MaxPower: 100, HealthScore: 80}.ToModel()
	if err != nil {
		t.Fatal(err)
	}
	if c.Type != model.ChargerSlow || c.AvailablePower != 80 {
		t.Fatalf("unexpected charger %+v", c)
	}
	c, _ = ChargerDef{ID: "c", AvailablePower: 5}.ToModel()
	if c.AvailablePower != 5 || c.HealthScore != 95 {
		t.Fatalf("unexpected charger %+v", c)
	}
	if _, err := (ChargerDef{ID: "c", Type: "warp"}).ToModel(); err == nil {
		t.Fatal("expected unknown charger type error")
	}
}
