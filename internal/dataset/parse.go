// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// field returns column i of a record, or "" when the record is short.
func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func parseRating(record []string, line int) (Rating, error) {
	if len(record) < 3 {
		return Rating{}, fmt.Errorf("%w: ratings line %d: expected 3 columns, got %d", ErrDataLoad, line, len(record))
	}

	user, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 32)
	if err != nil {
		return Rating{}, fmt.Errorf("%w: ratings line %d: user %q: %v", ErrDataLoad, line, record[0], err)
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 32)
	if err != nil {
		return Rating{}, fmt.Errorf("%w: ratings line %d: rating %q: %v", ErrDataLoad, line, record[2], err)
	}
	// ParseFloat accepts "NaN" and "Inf"; neither is a rating.
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return Rating{}, fmt.Errorf("%w: ratings line %d: rating %q is not finite", ErrDataLoad, line, record[2])
	}

	return Rating{
		UserID: int32(user),
		ISBN:   record[1],
		Rating: float32(rating),
	}, nil
}

func parseBook(record []string, line int) (Book, error) {
	if len(record) == 0 || record[0] == "" {
		return Book{}, fmt.Errorf("%w: books line %d: missing isbn", ErrDataLoad, line)
	}
	return Book{
		ISBN:   record[0],
		Title:  field(record, 1),
		Author: field(record, 2),
	}, nil
}

func parseUser(record []string, line int) (User, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(field(record, 0)), 10, 32)
	if err != nil {
		return User{}, fmt.Errorf("%w: users line %d: id %q: %v", ErrDataLoad, line, field(record, 0), err)
	}

	u := User{ID: int32(id), Location: field(record, 1)}
	if age, ok := parseAge(field(record, 2)); ok {
		u.Age = age
		u.HasAge = true
	}
	return u, nil
}

// parseAge accepts integer or integral float ages ("25", "25.0").
func parseAge(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}
