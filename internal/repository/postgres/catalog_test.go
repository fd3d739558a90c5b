package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakdale/lessongo/internal/domain"
	"github.com/oakdale/lessongo/internal/repository"
)

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"math":      "math",
		"100%":      `100\%`,
		"a_b":       `a\_b`,
		`back\slash`: `back\\slash`,
		`%_\`:       `\%\_` + `\\`,
	}
	for in, want := range cases {
		require.Equal(t, want, escapeLike(in), in)
	}
}

func TestApplyUpdate_EmptyUpdateNeverTouchesDB(t *testing.T) {
	r := &CatalogRepo{}

	_, err := r.ApplyUpdate(context.Background(), 1, domain.LessonUpdate{})
	require.ErrorIs(t, err, repository.ErrEmptyUpdate)
}
