package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// atomicWriteJSON writes v to a temp file and renames it over path,
// so a reader polling path never sees a partial file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadIndex loads report.json from a report directory.
func ReadIndex(outputDir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, "report.json")) //#nosec G304 -- report directory chosen by the user
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse report.json: %w", err)
	}
	return &index, nil
}

// ReadScenario loads one scenario detail file.
func ReadScenario(outputDir, id string) (*ScenarioDetail, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, "scenarios", id+".json")) //#nosec G304 -- report directory chosen by the user
	if err != nil {
		return nil, err
	}
	var detail ScenarioDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("parse %s: %w", id, err)
	}
	return &detail, nil
}
