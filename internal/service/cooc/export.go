package cooc

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"corpus-go/internal/model/corpus"
)

// Resolver maps codes back to their tokens
type Resolver interface {
	Token(code corpus.Code) (string, bool)
}

type row struct {
	target, context string
	frequency       int64
}

// WriteCSV writes one target,context,frequency row per entry, without a header.
// With a resolver, rows are ordered by target token then context token.
// Codes are written as integers in entry order when resolver is nil.
func WriteCSV(w io.Writer, entries []corpus.Entry, resolver Resolver) error {
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		target, err := field(e.Target, resolver)
		if err != nil {
			return err
		}
		context, err := field(e.Context, resolver)
		if err != nil {
			return err
		}
		rows = append(rows, row{target: target, context: context, frequency: e.Frequency})
	}
	if resolver != nil {
		slices.SortFunc(rows, func(a, b row) int {
			return cmp.Or(cmp.Compare(a.target, b.target), cmp.Compare(a.context, b.context))
		})
	}

	cw := csv.NewWriter(w)
	for _, r := range rows {
		if err := cw.Write([]string{r.target, r.context, strconv.FormatInt(r.frequency, 10)}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func field(code corpus.Code, resolver Resolver) (string, error) {
	if resolver == nil {
		return strconv.FormatUint(uint64(code), 10), nil
	}
	token, ok := resolver.Token(code)
	if !ok {
		return "", fmt.Errorf("no token for code %d", code)
	}
	return token, nil
}
