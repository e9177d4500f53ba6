package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// payloadExt is the file extension of checkpoint payloads.
const payloadExt = ".ckpt"

// writePayload writes header and body to path as a zstd stream: one JSON
// header line followed by the JSON body. Returns the compressed size.
func writePayload(path string, h Header, body any) (int64, error) {
	staged, size, err := stagePayload(path, h, body)
	if err != nil {
		return 0, err
	}
	if err := os.Rename(staged, path); err != nil {
		os.Remove(staged)
		return 0, err
	}
	return size, nil
}

// stagePayload writes a complete payload to a temporary file beside path and
// returns its name. The caller moves it into place or removes it.
func stagePayload(path string, h Header, body any) (string, int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", 0, err
	}
	tmp := f.Name()
	done := false
	defer func() {
		if !done {
			f.Close()
			os.Remove(tmp)
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", 0, err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(h)
	if err != nil {
		enc.Close()
		return "", 0, fmt.Errorf("encode header: %w", err)
	}
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return "", 0, err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return "", 0, err
	}
	if err := json.NewEncoder(bw).Encode(body); err != nil {
		enc.Close()
		return "", 0, fmt.Errorf("encode body: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return "", 0, err
	}
	if err := enc.Close(); err != nil {
		return "", 0, err
	}
	if err := f.Sync(); err != nil {
		return "", 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return "", 0, err
	}
	if err := f.Close(); err != nil {
		return "", 0, err
	}
	done = true
	return tmp, info.Size(), nil
}

// payloadSwap is a staged payload moved into place with the previous one
// kept aside until the swap is committed or undone.
type payloadSwap struct {
	path    string
	backup  string
	hadPrev bool
}

// swapPayload moves staged to path, keeping any existing payload as a backup.
func swapPayload(staged, path string) (*payloadSwap, error) {
	sw := &payloadSwap{path: path, backup: path + ".prev"}
	switch err := os.Rename(path, sw.backup); {
	case err == nil:
		sw.hadPrev = true
	case !os.IsNotExist(err):
		os.Remove(staged)
		return nil, err
	}
	if err := os.Rename(staged, path); err != nil {
		os.Remove(staged)
		sw.undo()
		return nil, err
	}
	return sw, nil
}

// commit drops the backup.
func (sw *payloadSwap) commit() {
	if sw.hadPrev {
		os.Remove(sw.backup)
	}
}

// undo puts the previous payload back, or removes the new one if there was
// none.
func (sw *payloadSwap) undo() error {
	if sw.hadPrev {
		return os.Rename(sw.backup, sw.path)
	}
	if err := os.Remove(sw.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// readPayload decompresses path and returns its header and the raw JSON body.
// Anything undecodable is ErrCorrupt; a missing file is ErrNotFound.
func readPayload(path string) (Header, []byte, error) {
	var h Header
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return h, nil, fmt.Errorf("payload %s: %w", filepath.Base(path), ErrNotFound)
	}
	if err != nil {
		return h, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, nil, fmt.Errorf("payload %s: %w: %v", filepath.Base(path), ErrCorrupt, err)
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, nil, fmt.Errorf("payload %s: header: %w: %v", filepath.Base(path), ErrCorrupt, err)
	}
	if err := json.Unmarshal(line, &h); err != nil || h.Format != formatName {
		return h, nil, fmt.Errorf("payload %s: header: %w", filepath.Base(path), ErrCorrupt)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return h, nil, fmt.Errorf("payload %s: body: %w: %v", filepath.Base(path), ErrCorrupt, err)
	}
	return h, body, nil
}

// decodeBody decodes a payload body of any supported version into the
// current layout.
func decodeBody(h Header, body []byte) (DocumentV2, error) {
	switch h.Version {
	case CurrentVersion:
		var doc DocumentV2
		if err := json.Unmarshal(body, &doc); err != nil {
			return DocumentV2{}, fmt.Errorf("decode v%d: %w: %v", h.Version, ErrCorrupt, err)
		}
		return doc, nil
	case VersionV1:
		var doc DocumentV1
		if err := json.Unmarshal(body, &doc); err != nil {
			return DocumentV2{}, fmt.Errorf("decode v%d: %w: %v", h.Version, ErrCorrupt, err)
		}
		return migrateV1(doc), nil
	}
	return DocumentV2{}, &IncompatibleVersionError{Found: h.Version, Supported: CurrentVersion}
}
