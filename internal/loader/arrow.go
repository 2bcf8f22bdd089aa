package loader

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
)

// arrowCodec handles the Arrow IPC file format (Feather v2).
type arrowCodec struct{}

func (arrowCodec) Format() Format { return Arrow }

func (arrowCodec) Read(src io.Reader, opt Options) (*dataframe.DataFrame, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	r, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("open arrow file: %w", err)
	}
	defer r.Close()

	var frames []*dataframe.DataFrame
	rows := 0
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("record batch %d: %w", i, err)
		}
		df, err := dataframe.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		if opt.MaxRows > 0 && rows+df.NumRows() > opt.MaxRows {
			keep := make([]int, opt.MaxRows-rows)
			for j := range keep {
				keep[j] = j
			}
			df = df.Select(keep)
		}
		frames = append(frames, df)
		rows += df.NumRows()
		if opt.MaxRows > 0 && rows >= opt.MaxRows {
			break
		}
	}
	return dataframe.Concat(frames...)
}

func (arrowCodec) Write(w io.Writer, df *dataframe.DataFrame) error {
	mem := memory.NewGoAllocator()
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(df.ArrowSchema()), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("create arrow writer: %w", err)
	}
	rec := df.ToRecord(mem)
	defer rec.Release()
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("write record batch: %w", err)
	}
	return fw.Close()
}
