// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package matrix

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/tomtom215/bookshelf/internal/dataset"
)

// scenarioRecords returns ratings where users 0..users-1 rate books
// 0..books-1 plus extra tail books, so that every user reaches minUser and
// only the first `books` books reach minItem. Inactive users add noise.
func scenarioRecords(users, books, tailPerUser, tailBooks, inactive int, seed uint64) []dataset.Rating {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	var out []dataset.Rating
	for u := 0; u < users; u++ {
		for b := 0; b < books; b++ {
			out = append(out, dataset.Rating{UserID: int32(1000 + u), ISBN: fmt.Sprintf("P%05d", b), Rating: float32(1 + rng.IntN(10))})
		}
		for k := 0; k < tailPerUser; k++ {
			out = append(out, dataset.Rating{UserID: int32(1000 + u), ISBN: fmt.Sprintf("T%05d", (u*tailPerUser+k)%tailBooks), Rating: float32(1 + rng.IntN(10))})
		}
	}
	for u := 0; u < inactive; u++ {
		for b := 0; b < 10; b++ {
			out = append(out, dataset.Rating{UserID: int32(900000 + u), ISBN: fmt.Sprintf("P%05d", (u+b)%books), Rating: 7})
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestBuild_Scenario250x150(t *testing.T) {
	records := scenarioRecords(250, 150, 50, 250, 20, 42)

	m, err := Build(records, DefaultOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if m.Rows() != 250 || m.Cols() != 150 {
		t.Fatalf("dims = %dx%d, want 250x150", m.Rows(), m.Cols())
	}
	if !slices.IsSorted(m.UserIDs) || !slices.IsSorted(m.ISBNs) {
		t.Error("row and column keys should be sorted")
	}

	// Every cell is 0 or an original rating for that (user, isbn).
	source := make(map[string]float32, len(records))
	for _, r := range records {
		source[fmt.Sprintf("%d/%s", r.UserID, r.ISBN)] = r.Rating
	}
	for i, uid := range m.UserIDs {
		for j, isbn := range m.ISBNs {
			v := m.Values[i][j]
			want, ok := source[fmt.Sprintf("%d/%s", uid, isbn)]
			if !ok && v != 0 {
				t.Fatalf("cell (%d,%s) = %v, want 0", uid, isbn, v)
			}
			if ok && v != want {
				t.Fatalf("cell (%d,%s) = %v, want %v", uid, isbn, v, want)
			}
		}
	}

	if m.Summary.InputRecords != len(records) {
		t.Errorf("Summary.InputRecords = %d, want %d", m.Summary.InputRecords, len(records))
	}
	if m.Summary.KeptRecords != 250*150 {
		t.Errorf("Summary.KeptRecords = %d, want %d", m.Summary.KeptRecords, 250*150)
	}
	if m.Summary.NonZeroCells != 250*150 {
		t.Errorf("Summary.NonZeroCells = %d", m.Summary.NonZeroCells)
	}
}

func TestBuild_ThresholdInvariants(t *testing.T) {
	records := scenarioRecords(40, 20, 15, 30, 5, 3)
	opts := Options{MinUserRatings: 30, MinItemRatings: 25}

	m, err := Build(records, opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	userCounts := map[int32]int{}
	for _, r := range records {
		userCounts[r.UserID]++
	}
	itemCounts := map[string]int{}
	for _, r := range records {
		if userCounts[r.UserID] >= opts.MinUserRatings {
			itemCounts[r.ISBN]++
		}
	}

	for _, uid := range m.UserIDs {
		if userCounts[uid] < opts.MinUserRatings {
			t.Errorf("user %d has %d ratings, below threshold", uid, userCounts[uid])
		}
	}
	for _, isbn := range m.ISBNs {
		if itemCounts[isbn] < opts.MinItemRatings {
			t.Errorf("isbn %s has %d ratings after user filter, below threshold", isbn, itemCounts[isbn])
		}
	}
}

func TestBuild_ItemCountAfterUserFilter(t *testing.T) {
	// Book "B" has 3 ratings overall but only 1 from an active user, so it
	// must be dropped by the item filter.
	records := []dataset.Rating{
		{UserID: 1, ISBN: "A", Rating: 5},
		{UserID: 1, ISBN: "B", Rating: 4},
		{UserID: 2, ISBN: "A", Rating: 3},
		{UserID: 2, ISBN: "C", Rating: 1},
		{UserID: 3, ISBN: "B", Rating: 2},
		{UserID: 4, ISBN: "B", Rating: 2},
	}

	m, err := Build(records, Options{MinUserRatings: 2, MinItemRatings: 2})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !slices.Equal(m.UserIDs, []int32{1, 2}) {
		t.Errorf("UserIDs = %v, want [1 2]", m.UserIDs)
	}
	if !slices.Equal(m.ISBNs, []string{"A"}) {
		t.Errorf("ISBNs = %v, want [A]", m.ISBNs)
	}
	if m.Values[0][0] != 5 || m.Values[1][0] != 3 {
		t.Errorf("Values = %v", m.Values)
	}
}

func TestBuild_ZeroFill(t *testing.T) {
	records := []dataset.Rating{
		{UserID: 2, ISBN: "X", Rating: 8},
		{UserID: 1, ISBN: "Y", Rating: 0},
		{UserID: 1, ISBN: "X", Rating: 6},
	}

	m, err := Build(records, Options{MinUserRatings: 1, MinItemRatings: 1})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := [][]float32{{6, 0}, {8, 0}}
	for i := range want {
		if !slices.Equal(m.Values[i], want[i]) {
			t.Errorf("row %d = %v, want %v", i, m.Values[i], want[i])
		}
	}
	// A literal 0 rating still counts towards the item threshold.
	if m.Summary.NonZeroCells != 2 {
		t.Errorf("NonZeroCells = %d, want 2", m.Summary.NonZeroCells)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records []dataset.Rating
		opts    Options
		wantErr error
	}{
		{
			name:    "no records",
			records: nil,
			opts:    DefaultOptions(),
			wantErr: ErrEmptyMatrix,
		},
		{
			name:    "nobody active",
			records: scenarioRecords(5, 5, 0, 1, 0, 1),
			opts:    DefaultOptions(),
			wantErr: ErrEmptyMatrix,
		},
		{
			name: "duplicate pair",
			records: []dataset.Rating{
				{UserID: 1, ISBN: "A", Rating: 5},
				{UserID: 1, ISBN: "A", Rating: 0},
			},
			opts:    Options{MinUserRatings: 1, MinItemRatings: 1},
			wantErr: ErrDuplicateRating,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.records, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuild_Idempotent(t *testing.T) {
	records := scenarioRecords(30, 12, 5, 20, 4, 9)
	opts := Options{MinUserRatings: 15, MinItemRatings: 20}

	first, err := Build(records, opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	shuffled := slices.Clone(records)
	rand.New(rand.NewPCG(1, 2)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second, err := Build(shuffled, opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !first.Equal(second) {
		t.Error("builds over the same records should be identical")
	}
	if first.UserView().Fingerprint() != second.UserView().Fingerprint() {
		t.Error("fingerprints should match")
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	records := scenarioRecords(10, 4, 2, 3, 2, 5)
	before := slices.Clone(records)

	if _, err := Build(records, Options{MinUserRatings: 5, MinItemRatings: 5}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !slices.Equal(records, before) {
		t.Error("Build() modified its input")
	}
}

func TestLookups(t *testing.T) {
	m, err := Build([]dataset.Rating{
		{UserID: 30, ISBN: "b", Rating: 1},
		{UserID: 10, ISBN: "a", Rating: 2},
		{UserID: 20, ISBN: "c", Rating: 3},
	}, Options{MinUserRatings: 1, MinItemRatings: 1})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if i, ok := m.UserRow(20); !ok || i != 1 {
		t.Errorf("UserRow(20) = %d, %v", i, ok)
	}
	if _, ok := m.UserRow(99); ok {
		t.Error("UserRow(99) should not be found")
	}
	if j, ok := m.ItemColumn("c"); !ok || j != 2 {
		t.Errorf("ItemColumn(c) = %d, %v", j, ok)
	}
}
