package pipeline

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// inputExts lists the extensions of raw intensity files picked up from the
// input directory.
var inputExts = map[string]bool{".raw": true, ".bin": true}

// LoadIntensity reads a dim x dim matrix of little-endian float32 samples,
// row-major, and returns their absolute values.
func LoadIntensity(path string, dim int) (*mat.Dense, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if want := dim * dim * 4; len(data) != want {
		return nil, fmt.Errorf("%s: expected %d bytes for a %dx%d matrix, got %d", path, want, dim, dim, len(data))
	}

	samples := make([]float32, dim*dim)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	values := make([]float64, len(samples))
	for i, v := range samples {
		values[i] = math.Abs(float64(v))
	}
	return mat.NewDense(dim, dim, values), nil
}

// WriteIntensity stores m in the format read by LoadIntensity.
func WriteIntensity(path string, m *mat.Dense) error {
	rows, cols := m.Dims()
	samples := make([]float32, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			samples = append(samples, float32(m.At(y, x)))
		}
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, samples); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// listInputs returns the raw intensity files of dir ordered by the number in
// their names.
func listInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if inputExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no raw intensity files found in %s", dir)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return extractNumber(files[i]) < extractNumber(files[j])
	})
	return files, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}
