package matching

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-match/internal/domain"
)

func TestCategorizeBoundaries(t *testing.T) {
	c := NewCategorizer(domain.DefaultScoreDomain)

	cases := []struct {
		score int
		want  domain.TraitCategory
	}{
		{1, domain.CategoryVeryLow},
		{7, domain.CategoryVeryLow},
		{8, domain.CategoryLow},
		{11, domain.CategoryLow},
		{12, domain.CategoryModerate},
		{15, domain.CategoryModerate},
		{16, domain.CategoryHigh},
		{18, domain.CategoryHigh},
		{19, domain.CategoryVeryHigh},
		{20, domain.CategoryVeryHigh},
	}
	for _, tc := range cases {
		got, err := c.Categorize(tc.score)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "score %d", tc.score)
	}
}

func TestCategorizeIsNonDecreasing(t *testing.T) {
	c := NewCategorizer(domain.DefaultScoreDomain)
	prev := domain.CategoryVeryLow
	for s := 1; s <= 20; s++ {
		got, err := c.Categorize(s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, int(got), int(prev), "score %d", s)
		prev = got
	}
}

func TestCategorizeRejectsOutOfDomain(t *testing.T) {
	t.Run("default domain", func(t *testing.T) {
		c := NewCategorizer(domain.DefaultScoreDomain)
		for _, s := range []int{0, -3, 21, 100} {
			_, err := c.Categorize(s)
			var invalid *domain.InvalidScoreError
			require.True(t, errors.As(err, &invalid), "score %d", s)
			assert.Equal(t, s, invalid.Score)
		}
	})

	t.Run("likert domain", func(t *testing.T) {
		c := NewCategorizer(domain.LikertScoreDomain)
		_, err := c.Categorize(3)
		var invalid *domain.InvalidScoreError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, 4, invalid.Min)

		got, err := c.Categorize(4)
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryVeryLow, got)
	})
}

func TestCategoryText(t *testing.T) {
	assert.Equal(t, "very_high", domain.CategoryVeryHigh.String())

	raw, err := domain.CategoryModerate.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "moderate", string(raw))

	var c domain.TraitCategory
	require.NoError(t, c.UnmarshalText([]byte("low")))
	assert.Equal(t, domain.CategoryLow, c)
	assert.Error(t, c.UnmarshalText([]byte("medium")))
}
