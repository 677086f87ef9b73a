// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package matrix

import (
	"slices"
	"testing"

	"github.com/tomtom215/bookshelf/internal/dataset"
)

func smallMatrix(t *testing.T) *RatingMatrix {
	t.Helper()
	m, err := Build([]dataset.Rating{
		{UserID: 1, ISBN: "A", Rating: 5},
		{UserID: 1, ISBN: "B", Rating: 3},
		{UserID: 2, ISBN: "B", Rating: 4},
		{UserID: 3, ISBN: "C", Rating: 1},
	}, Options{MinUserRatings: 1, MinItemRatings: 1})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

func TestTranspose(t *testing.T) {
	m := smallMatrix(t)
	v := m.Transpose()

	if v.Orientation != OrientationItems {
		t.Errorf("Orientation = %q", v.Orientation)
	}
	if !slices.Equal(v.RowKeys, []string{"A", "B", "C"}) {
		t.Errorf("RowKeys = %v", v.RowKeys)
	}
	if !slices.Equal(v.ColKeys, []string{"1", "2", "3"}) {
		t.Errorf("ColKeys = %v", v.ColKeys)
	}
	want := [][]float32{{5, 0, 0}, {3, 4, 0}, {0, 0, 1}}
	for i := range want {
		if !slices.Equal(v.Rows[i], want[i]) {
			t.Errorf("row %d = %v, want %v", i, v.Rows[i], want[i])
		}
	}
	if i, ok := v.RowIndex("B"); !ok || i != 1 {
		t.Errorf("RowIndex(B) = %d, %v", i, ok)
	}
	if v.Dims() != 3 {
		t.Errorf("Dims() = %d", v.Dims())
	}
}

func TestView(t *testing.T) {
	m := smallMatrix(t)

	users, err := m.View(OrientationUsers)
	if err != nil {
		t.Fatalf("View(users) error = %v", err)
	}
	if i, ok := users.RowIndex("3"); !ok || i != 2 {
		t.Errorf("RowIndex(3) = %d, %v", i, ok)
	}
	if _, err := m.View("diagonal"); err == nil {
		t.Error("expected error for unknown orientation")
	}
}

func TestFingerprint(t *testing.T) {
	m := smallMatrix(t)

	users := m.UserView().Fingerprint()
	items := m.Transpose().Fingerprint()
	if users == items {
		t.Error("orientation should change the fingerprint")
	}
	if len(users) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(users))
	}
	if m.UserView().Fingerprint() != users {
		t.Error("fingerprint should be deterministic")
	}

	m.Values[0][0] = 4
	if m.UserView().Fingerprint() == users {
		t.Error("changing a cell should change the fingerprint")
	}
}
