// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package matrix

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
)

// Orientations accepted by View.
const (
	OrientationUsers = "users"
	OrientationItems = "items"
)

// View is the matrix seen from one axis: each row is one key's vector over
// the other axis.
type View struct {
	Orientation string
	RowKeys     []string
	ColKeys     []string
	Rows        [][]float32

	rowIndex map[string]int
}

// UserView returns users as rows. Rows share storage with m.
func (m *RatingMatrix) UserView() *View {
	return newView(OrientationUsers, userKeys(m.UserIDs), m.ISBNs, m.Values)
}

// Transpose returns books as rows: row j is the rating vector of ISBNs[j]
// over all users.
func (m *RatingMatrix) Transpose() *View {
	rows := make([][]float32, m.Cols())
	cells := make([]float32, m.Cols()*m.Rows())
	n := m.Rows()
	for j := range rows {
		rows[j] = cells[j*n : (j+1)*n : (j+1)*n]
	}
	for i, row := range m.Values {
		for j, v := range row {
			rows[j][i] = v
		}
	}
	return newView(OrientationItems, m.ISBNs, userKeys(m.UserIDs), rows)
}

// View returns the view for orientation.
func (m *RatingMatrix) View(orientation string) (*View, error) {
	switch orientation {
	case OrientationUsers:
		return m.UserView(), nil
	case OrientationItems:
		return m.Transpose(), nil
	default:
		return nil, fmt.Errorf("unknown orientation %q", orientation)
	}
}

func newView(orientation string, rowKeys, colKeys []string, rows [][]float32) *View {
	idx := make(map[string]int, len(rowKeys))
	for i, k := range rowKeys {
		idx[k] = i
	}
	return &View{
		Orientation: orientation,
		RowKeys:     rowKeys,
		ColKeys:     colKeys,
		Rows:        rows,
		rowIndex:    idx,
	}
}

func userKeys(ids []int32) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = strconv.FormatInt(int64(id), 10)
	}
	return keys
}

// RowIndex returns the row of key.
func (v *View) RowIndex(key string) (int, bool) {
	i, ok := v.rowIndex[key]
	return i, ok
}

// Dims returns the length of each row.
func (v *View) Dims() int { return len(v.ColKeys) }

// Fingerprint is a SHA-256 digest over the orientation, the dimensions,
// both key lists and every cell. A persisted index whose fingerprint does
// not match the rebuilt view was fitted over different data.
func (v *View) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte

	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}

	writeString(v.Orientation)
	binary.LittleEndian.PutUint64(buf[:], uint64(len(v.RowKeys)))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(v.ColKeys)))
	h.Write(buf[:])
	for _, k := range v.RowKeys {
		writeString(k)
	}
	for _, k := range v.ColKeys {
		writeString(k)
	}
	for _, row := range v.Rows {
		for _, x := range row {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(x))
			h.Write(buf[:4])
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
