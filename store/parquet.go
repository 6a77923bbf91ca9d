// Package store persists self-play examples as Parquet files, one file per episode.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gorgonia/searchrl"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/pkg/errors"
)

const schema = "selfplay_example_v2"

// ExampleRow is a single training example.
//
// Move is the move of the episode that the example was taken at; augmented examples of a move share it,
// and Variant tells them apart (0 is the example as played).
// Board is the row major Rows x Cols board. Policy has one entry per legal action of the position.
// Value is the backed up outcome in [-1..1].
type ExampleRow struct {
	Episode int32     `parquet:"episode"`
	Move    int32     `parquet:"move"`
	Variant int32     `parquet:"variant"`
	Rows    int32     `parquet:"rows"`
	Cols    int32     `parquet:"cols"`
	Board   []float32 `parquet:"board"`
	Policy  []float32 `parquet:"policy"`
	Value   float32   `parquet:"value"`
	Source  string    `parquet:"source,dict"`
}

// Writer writes every episode it receives into its own Parquet file in a directory.
type Writer struct {
	dir    string
	source string
}

var _ searchrl.ExampleWriter = &Writer{}

// NewWriter creates dir if needed. source is recorded in every row, typically the game name.
func NewWriter(dir, source string) (*Writer, error) {
	if dir == "" {
		return nil, errors.New("dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output dir")
	}
	return &Writer{dir: dir, source: source}, nil
}

// Path is the file that holds the examples of the given episode.
func (w *Writer) Path(episode int) string {
	return filepath.Join(w.dir, fmt.Sprintf("episode_%06d.parquet", episode))
}

// WriteExamples writes the examples of an episode to a temp file and renames it, so readers never see a partial file.
func (w *Writer) WriteExamples(episode int, examples []searchrl.Example) error {
	rows := make([]ExampleRow, 0, len(examples))
	var variant int32
	for i, ex := range examples {
		if i > 0 && examples[i-1].Move == ex.Move {
			variant++
		} else {
			variant = 0
		}
		rows = append(rows, ExampleRow{
			Episode: int32(episode),
			Move:    int32(ex.Move),
			Variant: variant,
			Rows:    int32(ex.Rows),
			Cols:    int32(ex.Cols),
			Board:   ex.Board,
			Policy:  ex.Policy,
			Value:   ex.Value,
			Source:  w.source,
		})
	}

	outPath := w.Path(episode)
	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "write parquet")
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "rename parquet")
	}
	return nil
}

// ReadExamples reads back every row of a file written by a Writer.
func ReadExamples(path string) ([]ExampleRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, errors.Wrapf(err, "open parquet %v", path)
	}
	if s, ok := pf.Lookup("schema"); !ok || s != schema {
		return nil, errors.Errorf("%v: unexpected schema %q", path, s)
	}

	reader := parquet.NewGenericReader[ExampleRow](pf)
	defer reader.Close()

	rows := make([]ExampleRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "read parquet")
	}
	return rows[:n], nil
}

// ToExample converts a row back into an example.
func (r ExampleRow) ToExample() searchrl.Example {
	return searchrl.Example{
		Board:  r.Board,
		Policy: r.Policy,
		Value:  r.Value,
		Rows:   int(r.Rows),
		Cols:   int(r.Cols),
		Move:   int(r.Move),
	}
}
