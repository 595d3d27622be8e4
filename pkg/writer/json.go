// Package writer provides common JSON and compressed-JSON writers for scan
// summaries and persisted graph exports.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/classgraph/classgraph/pkg/compression"
)

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: ""}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteToFile writes the data as JSON to a file.
func (w *JSONWriter[T]) WriteToFile(data T, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(data, file)
}

// CompressedWriter writes data as JSON through a pkg/compression.Compressor,
// so a large scan summary or exported graph lands on disk (or on the wire)
// already shrunk. The compressor is picked once and reused across writes.
type CompressedWriter[T any] struct {
	comp compression.Compressor
}

// NewGzipWriter creates a writer that compresses its JSON with gzip at the
// default level.
func NewGzipWriter[T any]() *CompressedWriter[T] {
	return &CompressedWriter[T]{comp: compression.NewGzipCompressor(compression.LevelDefault)}
}

// NewGzipWriterWithLevel creates a gzip writer for a compression level. Only
// 1 (gzip.BestSpeed) and 9 (gzip.BestCompression) select their own gzip
// level; any other value uses gzip.DefaultCompression.
func NewGzipWriterWithLevel[T any](level int) *CompressedWriter[T] {
	return &CompressedWriter[T]{comp: compression.NewGzipCompressor(compression.Level(level))}
}

// NewZstdWriter creates a writer that compresses its JSON with zstd, which
// trades a little gzip compatibility for materially better ratio and speed
// on the large, highly repetitive class-name payloads a whole-classpath
// scan summary tends to produce.
func NewZstdWriter[T any](level compression.Level) (*CompressedWriter[T], error) {
	comp, err := compression.NewZstdCompressor(level)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return &CompressedWriter[T]{comp: comp}, nil
}

// Write marshals data to JSON, compresses it, and writes the result to writer.
func (w *CompressedWriter[T]) Write(data T, writer io.Writer) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	compressed, err := w.comp.Compress(jsonData)
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}

	_, err = writer.Write(compressed)
	return err
}

// WriteToFile compresses the data as JSON to a file.
func (w *CompressedWriter[T]) WriteToFile(data T, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(data, file)
}

// WriteResult contains statistics about a compressed write.
type WriteResult struct {
	JSONSize       int64
	CompressedSize int64
	CompressionPct float64
}

// WriteToFileWithStats writes and returns statistics about the output.
func (w *CompressedWriter[T]) WriteToFileWithStats(data T, filepath string) (*WriteResult, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	jsonSize := int64(len(jsonData))

	compressed, err := w.comp.Compress(jsonData)
	if err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	if err := os.WriteFile(filepath, compressed, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	compressedSize := int64(len(compressed))
	compressionPct := 0.0
	if jsonSize > 0 {
		compressionPct = float64(compressedSize) / float64(jsonSize) * 100
	}

	return &WriteResult{
		JSONSize:       jsonSize,
		CompressedSize: compressedSize,
		CompressionPct: compressionPct,
	}, nil
}

// Close releases the writer's underlying compressor resources, where it
// holds any (zstd does; gzip does not).
func (w *CompressedWriter[T]) Close() {
	compression.Close(w.comp)
}
