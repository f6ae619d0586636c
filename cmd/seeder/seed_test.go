package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"adwall/internal/model"
	"adwall/internal/repository"
	"adwall/pkg/logger"
)

type countingRepo struct {
	repository.AdRepository
	mu   sync.Mutex
	ads  []*model.Ad
	fail int
}

func (r *countingRepo) Create(_ context.Context, ad *model.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ads)+r.fail < 2 && r.fail == 0 {
		r.fail++
		return errors.New("duplicate")
	}
	r.ads = append(r.ads, ad)
	return nil
}

func TestFakeAdIsValid(t *testing.T) {
	faker := gofakeit.New(42)
	for i := 0; i < 50; i++ {
		ad := fakeAd(faker, []int64{7, 8})
		assert.NotEmpty(t, ad.ID)
		assert.Contains(t, []int64{7, 8}, ad.TypeID)
		assert.GreaterOrEqual(t, ad.Price, 0.5)
		assert.GreaterOrEqual(t, ad.Heat, int64(0))
		assert.NotEmpty(t, ad.LandingURL)
	}
}

func TestSeedCountsSuccesses(t *testing.T) {
	repo := &countingRepo{}
	n := Seed(context.Background(), repo, []int64{1}, 20, 4, logger.NewNop())
	assert.Equal(t, 19, n)
	assert.Len(t, repo.ads, 19)
}
