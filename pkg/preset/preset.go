/*
Package preset defines the compiler configuration presets external projects
are built with, and translates them into compiler settings.
*/
package preset

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Preset is a named combination of compiler pipeline and optimizer settings.
type Preset string

const (
	LegacyNoOptimize      Preset = "legacy-no-optimize"
	IRNoOptimize          Preset = "ir-no-optimize"
	LegacyOptimizeEVMOnly Preset = "legacy-optimize-evm-only"
	IROptimizeEVMOnly     Preset = "ir-optimize-evm-only"
	LegacyOptimizeEVMYul  Preset = "legacy-optimize-evm+yul"
	IROptimizeEVMYul      Preset = "ir-optimize-evm+yul"
)

var all = [...]Preset{
	LegacyNoOptimize,
	IRNoOptimize,
	LegacyOptimizeEVMOnly,
	IROptimizeEVMOnly,
	LegacyOptimizeEVMYul,
	IROptimizeEVMYul,
}

// All returns every known preset, in canonical order.
func All() []Preset {
	return slices.Clone(all[:])
}

func (p Preset) String() string {
	return string(p)
}

// Valid reports whether p is one of the known presets.
func (p Preset) Valid() bool {
	return slices.Contains(all[:], p)
}

// ViaIR reports whether the preset compiles through the IR pipeline.
func (p Preset) ViaIR() bool {
	return strings.HasPrefix(string(p), "ir-")
}

// Optimize reports whether the preset enables the optimizer.
func (p Preset) Optimize() bool {
	return !strings.HasSuffix(string(p), "-no-optimize")
}

// OptimizeYul reports whether the preset enables the Yul optimizer.
func (p Preset) OptimizeYul() bool {
	return strings.HasSuffix(string(p), "+yul")
}

// UnmarshalText implements encoding.TextUnmarshaler, so presets can be
// decoded directly from configuration files.
func (p *Preset) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Parse returns the preset with the given name.
func Parse(name string) (Preset, error) {
	p := Preset(strings.TrimSpace(name))
	if !p.Valid() {
		return "", fmt.Errorf("preset: invalid preset %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// ParseList parses a list of preset names separated by commas or whitespace.
// Duplicates are dropped and the order of first appearance is kept.
func ParseList(list string) ([]Preset, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	var out []Preset
	for _, f := range fields {
		p, err := Parse(f)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Names returns the names of all known presets.
func Names() []string {
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = string(p)
	}
	return names
}

// Filter returns the presets in selected that are also in supported,
// in the order they appear in selected.
func Filter(selected, supported []Preset) []Preset {
	var out []Preset
	for _, p := range selected {
		if slices.Contains(supported, p) && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// Settings is the subset of the compiler's standard JSON settings
// the presets control.
type Settings struct {
	EVMVersion string    `json:"evmVersion,omitempty"`
	ViaIR      bool      `json:"viaIR"`
	Optimizer  Optimizer `json:"optimizer"`
}

// Optimizer holds the optimizer settings.
type Optimizer struct {
	Enabled bool              `json:"enabled"`
	Details *OptimizerDetails `json:"details,omitempty"`
}

// OptimizerDetails toggles individual optimizer components.
type OptimizerDetails struct {
	Yul bool `json:"yul"`
}

// Settings returns the compiler settings for the preset. An empty evmVersion
// leaves the compiler default in place.
func (p Preset) Settings(evmVersion string) Settings {
	s := Settings{
		EVMVersion: evmVersion,
		ViaIR:      p.ViaIR(),
		Optimizer:  Optimizer{Enabled: p.Optimize()},
	}
	if s.Optimizer.Enabled {
		s.Optimizer.Details = &OptimizerDetails{Yul: p.OptimizeYul()}
	}
	return s
}

// String returns the settings as a JSON object, which is also a valid
// JavaScript and TypeScript object literal.
func (s Settings) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("preset: cannot encode settings: %v", err))
	}
	return string(b)
}
