package output

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/chrissnell/eventtable/internal/events"
	"github.com/chrissnell/eventtable/internal/types"
	"github.com/vmihailenco/msgpack/v5"
)

// Encoder writes a batch of events to w
type Encoder interface {
	Encode(w io.Writer, records []types.EventRecord) error
}

// TextEncoder writes one "condition;onset;duration;angle" line per event
type TextEncoder struct {
	Decimals int32
}

// Encode implements Encoder
func (e TextEncoder) Encode(w io.Writer, records []types.EventRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := bw.WriteString(FormatLine(r, e.Decimals)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatLine renders an event as an event table line, without the newline.
// Onset and duration get exactly decimals places; the angle keeps full precision.
func FormatLine(r types.EventRecord, decimals int32) string {
	return strings.Join([]string{
		string(r.Condition),
		events.Format(r.Onset, decimals),
		events.Format(r.Duration, decimals),
		FormatAngle(r.Angle),
	}, ";")
}

// FormatAngle renders the shortest representation of a that reads back
// exactly, always with a decimal point for whole numbers ("30.0")
func FormatAngle(a float64) string {
	s := strconv.FormatFloat(a, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// MsgPackEncoder writes each event as a MessagePack map. Appended batches form
// a valid MessagePack stream.
type MsgPackEncoder struct{}

// Encode implements Encoder
func (MsgPackEncoder) Encode(w io.Writer, records []types.EventRecord) error {
	enc := msgpack.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgPack reads back a stream written by MsgPackEncoder
func DecodeMsgPack(r io.Reader) ([]types.EventRecord, error) {
	dec := msgpack.NewDecoder(r)
	var records []types.EventRecord
	for {
		var rec types.EventRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// FilenameData is available to the event table filename template
type FilenameData struct {
	Subject   string
	Run       string
	RunNumber string
}

// TableWriter writes one event table file per subject and run
type TableWriter struct {
	dir      string
	filename *template.Template
	encoder  Encoder
}

// NewTableWriter creates a TableWriter writing into dir. filenameTemplate is a
// text/template over FilenameData.
func NewTableWriter(dir, filenameTemplate string, encoder Encoder) (*TableWriter, error) {
	tmpl, err := template.New("filename").Option("missingkey=error").Parse(filenameTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filename template: %w", err)
	}
	return &TableWriter{dir: dir, filename: tmpl, encoder: encoder}, nil
}

// Path returns the event table path for a subject's run
func (t *TableWriter) Path(subject, run string) (string, error) {
	data := FilenameData{Subject: subject, Run: run}
	if run != "" {
		data.RunNumber = run[len(run)-1:]
	}

	var sb strings.Builder
	if err := t.filename.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render filename: %w", err)
	}
	return filepath.Join(t.dir, sb.String()), nil
}

// BeginRun truncates the run's event table, creating it if needed
func (t *TableWriter) BeginRun(ctx context.Context, subject, run string) error {
	path, err := t.Path(subject, run)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create event table: %w", err)
	}
	return f.Close()
}

// Append adds events to the end of the run's event table
func (t *TableWriter) Append(ctx context.Context, subject, run string, records []types.EventRecord) error {
	path, err := t.Path(subject, run)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event table: %w", err)
	}

	if err := t.encoder.Encode(f, records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write events to %s: %w", path, err)
	}
	return f.Close()
}
