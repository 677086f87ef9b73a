// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package neighbors

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Artifact format identifiers.
const (
	FormatName    = "bookshelf-knn"
	FormatVersion = 1
)

// Metadata describes a persisted artifact.
type Metadata struct {
	Header

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`

	SavedAt            time.Time `json:"saved_at"`
	TrainingDurationMS int64     `json:"training_duration_ms"`
}

// storedFile is the on-disk layout: clear metadata, then the compressed payload.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// payload holds the row keys and vectors.
type payload struct {
	Keys    []string
	Vectors [][]float32
}

// Marshal serializes ix. meta supplies TrainingDurationMS; the header,
// checksum, size and save time are filled in and returned.
func Marshal(ix *Index, meta Metadata) ([]byte, *Metadata, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(payload{Keys: ix.Keys, Vectors: ix.Vectors}); err != nil {
		return nil, nil, fmt.Errorf("encode index: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, nil, fmt.Errorf("compress index: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.Header = ix.Header
	meta.Checksum = hex.EncodeToString(hash[:])
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return nil, nil, fmt.Errorf("encode artifact: %w", err)
	}
	return out.Bytes(), &meta, nil
}

// Unmarshal decodes and verifies an artifact. Every failure wraps ErrModelLoad.
func Unmarshal(data []byte) (*Index, *Metadata, error) {
	var sf storedFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&sf); err != nil {
		return nil, nil, fmt.Errorf("%w: read artifact: %v", ErrModelLoad, err)
	}
	if err := checkHeader(&sf.Metadata.Header); err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decompress artifact: %v", ErrModelLoad, err)
	}
	defer func() { _ = gzr.Close() }()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read decompressed artifact: %v", ErrModelLoad, err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("%w: checksum mismatch: expected %s, got %s", ErrModelLoad, sf.Metadata.Checksum, checksum)
	}

	var p payload
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&p); err != nil {
		return nil, nil, fmt.Errorf("%w: decode index: %v", ErrModelLoad, err)
	}

	h := sf.Metadata.Header
	if len(p.Keys) != h.Rows || len(p.Vectors) != h.Rows {
		return nil, nil, fmt.Errorf("%w: header says %d rows, payload has %d keys and %d vectors",
			ErrModelLoad, h.Rows, len(p.Keys), len(p.Vectors))
	}
	for i, row := range p.Vectors {
		if len(row) != h.Dims {
			return nil, nil, fmt.Errorf("%w: row %d has %d dims, header says %d", ErrModelLoad, i, len(row), h.Dims)
		}
	}

	ix := &Index{Header: h, Keys: p.Keys, Vectors: p.Vectors}
	ix.computeNorms()
	return ix, &sf.Metadata, nil
}

// ReadMetadata decodes only the metadata of an artifact.
func ReadMetadata(r io.Reader) (*Metadata, error) {
	var sf storedFile
	if err := gob.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("%w: read artifact: %v", ErrModelLoad, err)
	}
	if err := checkHeader(&sf.Metadata.Header); err != nil {
		return nil, err
	}
	return &sf.Metadata, nil
}

func checkHeader(h *Header) error {
	switch {
	case h.Format != FormatName:
		return fmt.Errorf("%w: unknown artifact format %q", ErrModelLoad, h.Format)
	case h.Version != FormatVersion:
		return fmt.Errorf("%w: unsupported artifact version %d", ErrModelLoad, h.Version)
	case h.Metric != MetricCosine:
		return fmt.Errorf("%w: unsupported metric %q", ErrModelLoad, h.Metric)
	case h.Algorithm != AlgorithmBrute:
		return fmt.Errorf("%w: unsupported algorithm %q", ErrModelLoad, h.Algorithm)
	case h.Rows <= 0 || h.Dims < 0:
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrModelLoad, h.Rows, h.Dims)
	}
	return nil
}
