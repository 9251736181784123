package speaker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// FamilyGMM is the only model family currently understood.
const FamilyGMM = "gmm"

// Artifact is the serialized form of one enrolled speaker model. The file
// extension picks the codec: .yaml/.yml, .json or .msgpack/.mp.
type Artifact struct {
	Family         string         `yaml:"family" json:"family" msgpack:"family"`
	Label          string         `yaml:"label,omitempty" json:"label,omitempty" msgpack:"label,omitempty"`
	CovarianceType CovarianceType `yaml:"covariance_type" json:"covariance_type" msgpack:"covariance_type"`
	Components     []Component    `yaml:"components" json:"components" msgpack:"components"`
	TiedCovariance [][]float64    `yaml:"tied_covariance,omitempty" json:"tied_covariance,omitempty" msgpack:"tied_covariance,omitempty"`
}

type codec int

const (
	codecYAML codec = iota
	codecJSON
	codecMsgpack
)

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return codecYAML, nil
	case ".json":
		return codecJSON, nil
	case ".msgpack", ".mp":
		return codecMsgpack, nil
	}
	return 0, fmt.Errorf("unsupported model artifact extension %q", filepath.Ext(path))
}

// ReadArtifact decodes the artifact at path.
func ReadArtifact(path string) (*Artifact, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var a Artifact
	switch c {
	case codecYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&a)
	case codecJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&a)
	case codecMsgpack:
		err = msgpack.Unmarshal(data, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	return &a, nil
}

// WriteArtifact encodes a to path using the codec its extension selects.
func WriteArtifact(path string, a *Artifact) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}

	var data []byte
	switch c {
	case codecYAML:
		data, err = yaml.Marshal(a)
	case codecJSON:
		data, err = json.MarshalIndent(a, "", "  ")
	case codecMsgpack:
		data, err = msgpack.Marshal(a)
	}
	if err != nil {
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Model builds the scoring model the artifact describes. fallbackLabel is
// used when the artifact carries no label of its own.
func (a *Artifact) Model(fallbackLabel string) (Model, error) {
	label := a.Label
	if label == "" {
		label = fallbackLabel
	}

	switch a.Family {
	case FamilyGMM, "":
		return NewGMM(label, a.CovarianceType, a.Components, a.TiedCovariance)
	default:
		return nil, fmt.Errorf("unsupported model family %q", a.Family)
	}
}

// labelFromPath returns the file name without its extension.
func labelFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
