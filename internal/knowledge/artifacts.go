package knowledge

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/tenmon/internal/models"
)

// Artifact file names inside the index directory. The manifest is written
// last; its presence marks the artifact set complete, so a crashed writer
// leaves a set that readers reject as a whole.
const (
	vectorsFile  = "vectors.bin"
	metadataFile = "metadata.json"
	manifestFile = "manifest.json"
	vocabFile    = "vocab.json"
)

// headerSize is the vectors.bin prefix: uint32 dimension + uint32 row count.
const headerSize = 8

// Manifest describes a persisted index snapshot.
type Manifest struct {
	CreatedAt          time.Time `json:"created_at"`
	TotalDocuments     int       `json:"total_documents"`
	EmbeddingDimension int       `json:"embedding_dimension"`
	Vectorizer         string    `json:"vectorizer"`
}

type vocabArtifact struct {
	Terms []string  `json:"terms"`
	IDF   []float64 `json:"idf"`
}

type artifactSet struct {
	manifest Manifest
	matrix   [][]float32
	records  []models.NormalizedRecord
	vocab    *vocabArtifact
}

// saveArtifacts writes the full artifact set to dir. vocab is nil for
// semantic snapshots. Write order: vectors, metadata, vocab, manifest.
func saveArtifacts(dir string, manifest Manifest, matrix [][]float32, records []models.NormalizedRecord, vocab *vocabArtifact) error {
	if dir == "" {
		return fmt.Errorf("index directory not configured")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := writeVectors(filepath.Join(dir, vectorsFile), manifest.EmbeddingDimension, matrix); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, metadataFile), records); err != nil {
		return err
	}
	if vocab != nil {
		if err := writeJSONFile(filepath.Join(dir, vocabFile), vocab); err != nil {
			return err
		}
	}
	return writeJSONFile(filepath.Join(dir, manifestFile), manifest)
}

// loadArtifacts reads and cross-checks the artifact set in dir. Any missing
// file or inconsistency between manifest, matrix, and metadata fails the
// load as a whole.
func loadArtifacts(dir string) (*artifactSet, error) {
	var manifest Manifest
	if err := readJSONFile(filepath.Join(dir, manifestFile), &manifest); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	dims, matrix, err := readVectors(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, err
	}
	if dims != manifest.EmbeddingDimension {
		return nil, fmt.Errorf("vector dimension %d does not match manifest %d", dims, manifest.EmbeddingDimension)
	}
	if len(matrix) != manifest.TotalDocuments {
		return nil, fmt.Errorf("vector count %d does not match manifest %d", len(matrix), manifest.TotalDocuments)
	}

	var records []models.NormalizedRecord
	if err := readJSONFile(filepath.Join(dir, metadataFile), &records); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if len(records) != manifest.TotalDocuments {
		return nil, fmt.Errorf("metadata count %d does not match manifest %d", len(records), manifest.TotalDocuments)
	}

	set := &artifactSet{manifest: manifest, matrix: matrix, records: records}
	if manifest.Vectorizer == VectorizerTFIDF {
		var vocab vocabArtifact
		if err := readJSONFile(filepath.Join(dir, vocabFile), &vocab); err != nil {
			return nil, fmt.Errorf("read vocabulary: %w", err)
		}
		if len(vocab.Terms) != manifest.EmbeddingDimension {
			return nil, fmt.Errorf("vocabulary size %d does not match dimension %d", len(vocab.Terms), manifest.EmbeddingDimension)
		}
		set.vocab = &vocab
	}
	return set, nil
}

// writeVectors persists the embedding matrix: little-endian uint32 dimension
// and row count, then each row as raw float32 values.
func writeVectors(path string, dims int, matrix [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vectors file: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, uint32(dims)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(matrix))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, row := range matrix {
		if len(row) != dims {
			return fmt.Errorf("row %d has dimension %d, expected %d", i, len(row), dims)
		}
		if _, err := f.Write(float32SliceToBytes(row)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

func readVectors(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("open vectors file: %w", err)
	}
	defer f.Close()

	var dims, count uint32
	if err := binary.Read(f, binary.LittleEndian, &dims); err != nil {
		return 0, nil, fmt.Errorf("read dimension: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return 0, nil, fmt.Errorf("read count: %w", err)
	}

	// The header sizes every allocation below, so cross-check it against the
	// actual file size before trusting it. A corrupt header must surface as a
	// load error, not an out-of-memory abort.
	info, err := f.Stat()
	if err != nil {
		return 0, nil, fmt.Errorf("stat vectors file: %w", err)
	}
	want := headerSize + int64(dims)*int64(count)*4
	if info.Size() != want {
		return 0, nil, fmt.Errorf("vectors file is %d bytes, header implies %d", info.Size(), want)
	}

	matrix := make([][]float32, 0, count)
	buf := make([]byte, int(dims)*4)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return 0, nil, fmt.Errorf("read row %d: %w", i, err)
		}
		matrix = append(matrix, bytesToFloat32Slice(buf))
	}
	return int(dims), matrix, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
