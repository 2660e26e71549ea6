package loader

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	kindConfigFileNameConstant     = "kind.yml"
	readYAMLErrorTemplateConstant  = "failed to read %s: %w"
	parseYAMLErrorTemplateConstant = "failed to parse %s: %w"
)

// KindConfigReader reads kind.yml files and job files from a filesystem.
type KindConfigReader struct {
	fileSystem afero.Fs
}

// NewKindConfigReader constructs a reader, defaulting to the OS filesystem.
func NewKindConfigReader(fileSystem afero.Fs) KindConfigReader {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return KindConfigReader{fileSystem: fileSystem}
}

// Read loads <directory>/kind.yml.
func (reader KindConfigReader) Read(directory string) (KindConfig, error) {
	mapping, readError := reader.ReadYAML(filepath.Join(directory, kindConfigFileNameConstant))
	if readError != nil {
		return nil, readError
	}
	return KindConfig(mapping), nil
}

// ReadYAML loads a YAML mapping file. An empty file yields an empty mapping.
func (reader KindConfigReader) ReadYAML(filePath string) (map[string]any, error) {
	fileSystem := reader.fileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}

	contentBytes, readError := afero.ReadFile(fileSystem, filePath)
	if readError != nil {
		return nil, fmt.Errorf(readYAMLErrorTemplateConstant, filePath, readError)
	}

	mapping := map[string]any{}
	if unmarshalError := yaml.Unmarshal(contentBytes, &mapping); unmarshalError != nil {
		return nil, fmt.Errorf(parseYAMLErrorTemplateConstant, filePath, unmarshalError)
	}
	if mapping == nil {
		mapping = map[string]any{}
	}
	return mapping, nil
}
