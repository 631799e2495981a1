package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/use-agent/flightscrape/models"
)

// ExtractFields resolves every entry of table against row and returns a
// field → value mapping. A locator that matches nothing yields
// models.Missing; only genuine query faults are returned as errors.
func ExtractFields(ctx context.Context, row Element, table SelectorTable) (map[string]string, error) {
	out := make(map[string]string, table.Len())
	for _, s := range table.entries {
		v, err := fieldText(ctx, row, s.Locator)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", s.Field, err)
		}
		out[s.Field] = v
	}
	return out, nil
}

func fieldText(ctx context.Context, row Element, locator string) (string, error) {
	el, ok, err := row.Find(ctx, locator)
	if err != nil {
		return "", err
	}
	if !ok {
		return models.Missing, nil
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
