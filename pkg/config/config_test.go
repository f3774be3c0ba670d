package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProjectConfigMissingFileIsFine(t *testing.T) {
	cfg, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadProjectConfig error: %v", err)
	}
	if len(cfg.IncludePaths) != 0 {
		t.Errorf("missing file should yield a zero-value config")
	}
}

func TestLoadProjectConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cprep.yaml")
	contents := "include_paths:\n  - ./include\ndefines:\n  - DEBUG\n  - LEVEL=2\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectConfig error: %v", err)
	}
	if len(cfg.IncludePaths) != 1 || cfg.IncludePaths[0] != "./include" {
		t.Errorf("IncludePaths = %v, want [./include]", cfg.IncludePaths)
	}
	if len(cfg.Defines) != 2 {
		t.Errorf("Defines = %v, want 2 entries", cfg.Defines)
	}
}

func TestMergeFlagsWinOnConflict(t *testing.T) {
	project := &ProjectConfig{
		IncludePaths: []string{"/project/include"},
		Defines:      []string{"LEVEL=1"},
	}
	flagDefines := map[string]string{"LEVEL": "2"}
	opts := Merge(project, []string{"/flag/include"}, nil, flagDefines, nil, false, false)

	if opts.Defines["LEVEL"] != "2" {
		t.Errorf("Defines[LEVEL] = %q, want 2 (flag should win)", opts.Defines["LEVEL"])
	}
	if len(opts.IncludePaths) != 2 || opts.IncludePaths[0] != "/flag/include" {
		t.Errorf("IncludePaths = %v, want flag path first", opts.IncludePaths)
	}
}

func TestMergeUndefineRemovesDefine(t *testing.T) {
	project := &ProjectConfig{Defines: []string{"DEBUG"}}
	opts := Merge(project, nil, nil, nil, []string{"DEBUG"}, false, false)
	if _, ok := opts.Defines["DEBUG"]; ok {
		t.Errorf("DEBUG should be removed by a flag -U")
	}
}

func TestDefinesList(t *testing.T) {
	opts := &Options{Defines: map[string]string{"A": "", "B": "2"}}
	list := opts.DefinesList()
	found := map[string]bool{}
	for _, d := range list {
		found[d] = true
	}
	if !found["A"] || !found["B=2"] {
		t.Errorf("DefinesList() = %v, want A and B=2", list)
	}
}
