package types

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadHardwareSpec loads a hardware spec from a JSON or YAML file (picked by
// extension) and validates it.
func ReadHardwareSpec(path string) (HardwareSpec, error) {
	var spec HardwareSpec
	if err := readSpecFile(path, &spec); err != nil {
		return HardwareSpec{}, err
	}
	if err := spec.Validate(); err != nil {
		return HardwareSpec{}, fmt.Errorf("invalid hardware spec %s: %w", path, err)
	}
	return spec, nil
}

// ReadProgramSpec loads a program spec from a JSON or YAML file and
// validates it.
func ReadProgramSpec(path string) (ProgramSpec, error) {
	var spec ProgramSpec
	if err := readSpecFile(path, &spec); err != nil {
		return ProgramSpec{}, err
	}
	if err := spec.Validate(); err != nil {
		return ProgramSpec{}, fmt.Errorf("invalid program spec %s: %w", path, err)
	}
	return spec, nil
}

func readSpecFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read spec file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return nil
}
