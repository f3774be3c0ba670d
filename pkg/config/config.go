// Package config loads preprocessor options from the command line and
// from an optional .cprep.yaml project file, merging the two with
// flags winning on conflict. Project files are parsed with
// gopkg.in/yaml.v3.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options holds the fully merged preprocessor configuration: flag
// values combined with an optional project file.
type Options struct {
	IncludePaths []string
	SystemPaths  []string
	Defines      map[string]string
	Undefines    []string
	UseExternal  bool
	LineMarkers  bool
}

// ProjectConfig is the shape of a .cprep.yaml project file: persistent
// include paths and defines that apply to every invocation in a
// directory tree, without needing to repeat -I/-D on every command
// line.
type ProjectConfig struct {
	IncludePaths []string `yaml:"include_paths"`
	SystemPaths  []string `yaml:"system_paths"`
	Defines      []string `yaml:"defines"`   // "NAME" or "NAME=VALUE"
	Undefines    []string `yaml:"undefines"`
	LineMarkers  bool     `yaml:"line_markers"`
}

// LoadProjectConfig reads and parses a .cprep.yaml file at path. A
// missing file is not an error — callers get a zero-value
// ProjectConfig and proceed with flags alone.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ProjectConfig{}, nil
		}
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge combines a project file's settings with command-line flags.
// Flags win on conflict: a -D/-U given on the command line is applied
// after (and so overrides, for the same name) the project file's
// defines/undefines; include paths are ordered flags-then-project so
// flag-supplied directories are searched first.
func Merge(project *ProjectConfig, flagIncludes, flagSystem []string, flagDefines map[string]string, flagUndefines []string, flagLineMarkers, lineMarkersSet bool) *Options {
	opts := &Options{
		IncludePaths: append(append([]string{}, flagIncludes...), project.IncludePaths...),
		SystemPaths:  append(append([]string{}, flagSystem...), project.SystemPaths...),
		Defines:      make(map[string]string),
		LineMarkers:  project.LineMarkers,
	}
	if lineMarkersSet {
		opts.LineMarkers = flagLineMarkers
	}

	for _, d := range project.Defines {
		name, value := splitDefine(d)
		opts.Defines[name] = value
	}
	for name, value := range flagDefines {
		opts.Defines[name] = value
	}

	undefined := make(map[string]bool)
	for _, u := range project.Undefines {
		undefined[u] = true
	}
	for _, u := range flagUndefines {
		undefined[u] = true
		delete(opts.Defines, u)
	}
	for name := range undefined {
		opts.Undefines = append(opts.Undefines, name)
	}

	return opts
}

func splitDefine(d string) (name, value string) {
	if idx := strings.Index(d, "="); idx >= 0 {
		return d[:idx], d[idx+1:]
	}
	return d, ""
}

// DefinesList flattens Options.Defines back into "NAME" / "NAME=VALUE"
// strings, the form macrotable.ApplyCmdlineDefines expects.
func (o *Options) DefinesList() []string {
	out := make([]string, 0, len(o.Defines))
	for name, value := range o.Defines {
		if value == "" {
			out = append(out, name)
		} else {
			out = append(out, name+"="+value)
		}
	}
	return out
}
