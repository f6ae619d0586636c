package main

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"adwall/internal/model"
	"adwall/internal/repository"
	"adwall/pkg/logger"
)

// fakeAd 随机生成一条广告，出价保留两位小数
func fakeAd(faker *gofakeit.Faker, typeIDs []int64) *model.Ad {
	price := math.Round(faker.Price(0.5, 500)*100) / 100
	return &model.Ad{
		ID:         uuid.New().String(),
		TypeID:     typeIDs[faker.Number(0, len(typeIDs)-1)],
		Publisher:  faker.Company(),
		Title:      faker.Sentence(faker.Number(2, 6)),
		Content:    faker.Paragraph(1, 2, 12, " "),
		Heat:       int64(faker.Number(0, 500)),
		Price:      price,
		LandingURL: faker.URL(),
		ExtInfo:    model.ExtInfo{"slogan": faker.HipsterSentence(4)},
	}
}

// Seed 并发写入 n 条随机广告，返回成功数量
func Seed(ctx context.Context, repo repository.AdRepository, typeIDs []int64, n, concurrency int, logger *logger.Logger) int {
	var (
		wg      sync.WaitGroup
		created atomic.Int64
		mu      sync.Mutex
	)
	faker := gofakeit.New(0)
	semaphore := make(chan struct{}, concurrency)

	for i := 0; i < n; i++ {
		// Faker 不是并发安全的，生成数据时加锁
		mu.Lock()
		ad := fakeAd(faker, typeIDs)
		mu.Unlock()

		wg.Add(1)
		semaphore <- struct{}{}
		go func(index int, ad *model.Ad) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := repo.Create(ctx, ad); err != nil {
				logger.Error("创建广告失败", "index", index+1, "error", err)
				return
			}
			created.Add(1)
			logger.Debug("创建广告", "index", index+1, "ad_id", ad.ID)
		}(i, ad)
	}

	wg.Wait()
	return int(created.Load())
}
