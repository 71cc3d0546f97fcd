package export

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/SoarinFerret/TabWarden/internal/ledger"
)

// Row is one (day, domain) usage entry.
type Row struct {
	Day     ledger.DayKey
	Domain  string
	Seconds int64
}

func usageSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "day", Type: arrow.BinaryTypes.String},
		{Name: "domain", Type: arrow.BinaryTypes.String},
		{Name: "seconds", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
}

// Rows flattens buckets into rows, day by day, most used domain first.
func Rows(days []ledger.Day) []Row {
	var rows []Row
	for _, d := range days {
		for _, u := range d.Bucket.Sorted() {
			rows = append(rows, Row{Day: d.Key, Domain: string(u.Domain), Seconds: u.Seconds})
		}
	}
	return rows
}

// WriteParquet writes the usage of days to w as a single parquet file.
func WriteParquet(w io.Writer, days []ledger.Day) error {
	schema := usageSchema()
	mem := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	dayB := builder.Field(0).(*array.StringBuilder)
	domainB := builder.Field(1).(*array.StringBuilder)
	secondsB := builder.Field(2).(*array.Int64Builder)
	for _, r := range Rows(days) {
		dayB.Append(string(r.Day))
		domainB.Append(r.Domain)
		secondsB.Append(r.Seconds)
	}

	record := builder.NewRecord()
	defer record.Release()

	writer, err := pqarrow.NewFileWriter(schema, w, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write usage records: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// ReadParquet reads back a file produced by WriteParquet.
func ReadParquet(ctx context.Context, data []byte) ([]Row, error) {
	fileReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet data: %w", err)
	}
	defer fileReader.Close()

	reader, err := pqarrow.NewFileReader(fileReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}
	table, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage table: %w", err)
	}
	defer table.Release()

	var rows []Row
	dayChunks := table.Column(0).Data().Chunks()
	domainChunks := table.Column(1).Data().Chunks()
	secondsChunks := table.Column(2).Data().Chunks()
	for c := range dayChunks {
		dayCol := dayChunks[c].(*array.String)
		domainCol := domainChunks[c].(*array.String)
		secondsCol := secondsChunks[c].(*array.Int64)
		for i := 0; i < dayCol.Len(); i++ {
			rows = append(rows, Row{
				Day:     ledger.DayKey(dayCol.Value(i)),
				Domain:  domainCol.Value(i),
				Seconds: secondsCol.Value(i),
			})
		}
	}
	return rows, nil
}
