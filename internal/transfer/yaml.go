package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportVersion is written into every exported header
const ExportVersion = "1.0"

var (
	ErrEmptyFile     = errors.New("file is empty")
	ErrUnknownFormat = errors.New("unknown file format")
)

// ExportHeader describes an exported file
type ExportHeader struct {
	Version    string `yaml:"version"`
	ExportedAt string `yaml:"exportedAt"`
	WordCount  int    `yaml:"wordCount"`
}

// ExportData is the YAML document layout
type ExportData struct {
	Header ExportHeader     `yaml:"header"`
	Words  []ExportableWord `yaml:"words"`
}

// ExportYAML writes the whole vocabulary and returns the number of words
func (s *Service) ExportYAML(ctx context.Context, w io.Writer) (int, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	data := ExportData{
		Header: ExportHeader{
			Version:    ExportVersion,
			ExportedAt: s.now().UTC().Format(time.RFC3339),
			WordCount:  len(words),
		},
		Words: make([]ExportableWord, 0, len(words)),
	}
	for _, word := range words {
		data.Words = append(data.Words, toExportable(word))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return 0, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}
	return len(words), nil
}

// ParseYAML accepts the headered layout or a bare list of words. header is
// nil for a bare list.
func ParseYAML(content []byte) ([]ExportableWord, *ExportHeader, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil, ErrEmptyFile
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var words []ExportableWord
		if err := doc.Decode(&words); err != nil {
			return nil, nil, fmt.Errorf("YAML parse error: %w", err)
		}
		return words, nil, nil
	case yaml.MappingNode:
		if !hasKeys(doc, "header", "words") {
			return nil, nil, ErrUnknownFormat
		}
		var data ExportData
		if err := doc.Decode(&data); err != nil {
			return nil, nil, fmt.Errorf("YAML parse error: %w", err)
		}
		return data.Words, &data.Header, nil
	default:
		return nil, nil, ErrUnknownFormat
	}
}

func hasKeys(mapping *yaml.Node, keys ...string) bool {
	present := make(map[string]bool, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		present[mapping.Content[i].Value] = true
	}
	for _, k := range keys {
		if !present[k] {
			return false
		}
	}
	return true
}

// ImportYAML parses content and imports it with the given strategy
func (s *Service) ImportYAML(ctx context.Context, content []byte, strategy Strategy) (*ImportResult, error) {
	words, header, err := ParseYAML(content)
	if err != nil {
		return nil, err
	}
	if header != nil && header.Version != ExportVersion {
		s.log.Warn("importing file with unexpected version", "version", header.Version)
	}
	return s.Import(ctx, words, strategy)
}
