package bulk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type manifest struct {
	Jobs []manifestJob `yaml:"jobs" json:"jobs"`
}

type manifestJob struct {
	Path    string `yaml:"path" json:"path"`
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Company string `yaml:"company" json:"company"`
}

// Discover resolves jobsPath to job specs. Paths containing glob metacharacters are expanded; a directory
// yields its *.txt files then its *.md files, each sorted; .yaml, .yml and .json files are read as manifests;
// any other file is a single job.
func Discover(jobsPath string) ([]JobSpec, error) {
	if strings.ContainsAny(jobsPath, "*?[") {
		return discoverGlob(jobsPath)
	}

	info, err := os.Stat(jobsPath)
	if err == nil && info.IsDir() {
		return discoverDir(jobsPath)
	}
	switch strings.ToLower(filepath.Ext(jobsPath)) {
	case ".yaml", ".yml", ".json":
		return discoverManifest(jobsPath)
	}
	if err == nil {
		return []JobSpec{specFromPath(jobsPath)}, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrJobsNotFound, jobsPath)
	}
	return nil, err
}

func discoverDir(dir string) ([]JobSpec, error) {
	var specs []JobSpec
	for _, pattern := range []string{"*.txt", "*.md"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		for _, m := range matches {
			specs = append(specs, specFromPath(m))
		}
	}
	return specs, nil
}

func discoverGlob(pattern string) ([]JobSpec, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", pattern, err)
	}
	sort.Strings(matches)
	var specs []JobSpec
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		specs = append(specs, specFromPath(m))
	}
	return specs, nil
}

func discoverManifest(path string) ([]JobSpec, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrJobsNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}

	base := filepath.Dir(path)
	specs := make([]JobSpec, 0, len(m.Jobs))
	for i, j := range m.Jobs {
		if strings.TrimSpace(j.Path) == "" {
			return nil, fmt.Errorf("%w: %s: job %d has no path", ErrInvalidManifest, path, i)
		}
		jobPath := j.Path
		if !filepath.IsAbs(jobPath) {
			jobPath = filepath.Join(base, jobPath)
		}
		spec := JobSpec{Path: jobPath, ID: j.ID, Name: j.Name, Company: j.Company}
		if spec.ID == "" {
			spec.ID = specFromPath(jobPath).ID
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
