package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"adwall/internal/model"
	"adwall/internal/ranking"
	"adwall/internal/store"
)

var (
	listPage int
	listSize int
)

var adsCmd = &cobra.Command{
	Use:   "ads",
	Short: "广告管理",
}

var adsListCmd = &cobra.Command{
	Use:   "list",
	Short: "按排序查看广告",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		page, err := c.ListAds(ctx, listPage, listSize)
		if err != nil {
			return err
		}
		return printOut(cmd.OutOrStdout(), summarize(page))
	},
}

var adsHeatCmd = &cobra.Command{
	Use:   "heat <ad-id>",
	Short: "热度加一",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		ad, err := c.IncrementHeat(ctx, args[0])
		if err != nil {
			return err
		}
		return printOut(cmd.OutOrStdout(), ad)
	},
}

var adsCopyCmd = &cobra.Command{
	Use:   "copy <ad-id>",
	Short: "复制广告，新广告热度为 0",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		ad, err := c.CopyAd(ctx, args[0])
		if err != nil {
			return err
		}
		return printOut(cmd.OutOrStdout(), ad)
	},
}

var adsDeleteCmd = &cobra.Command{
	Use:   "delete <ad-id>",
	Short: "删除广告",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		if err := c.DeleteAd(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已删除 %s\n", args[0])
		return nil
	},
}

var bidCmd = &cobra.Command{
	Use:   "bid <ad-id> <price>",
	Short: "修改出价，本地立即重排，等待服务端确认",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := strconv.ParseFloat(args[1], 64)
		if err != nil || price < 0 {
			return fmt.Errorf("出价必须是非负数字: %s", args[1])
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}

		s := store.NewAdStore(c, store.Options{Page: listPage, PageSize: listSize}, newLogger())
		defer s.Close()
		if err := s.Fetch(ctx, 0, 0, false); err != nil {
			return err
		}

		select {
		case err := <-s.UpdatePrice(args[0], price):
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		page, size, total := s.Page()
		return printOut(cmd.OutOrStdout(), summarize(&model.AdPage{Page: page, Size: size, Total: total, List: ranking.Resort(s.Ads())}))
	},
}

// rankedAd 列表输出的精简行
type rankedAd struct {
	Rank  int     `json:"rank"`
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Heat  int64   `json:"heat"`
	Score float64 `json:"score"`
}

type rankedPage struct {
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Total int64      `json:"total"`
	Ads   []rankedAd `json:"ads"`
}

func summarize(p *model.AdPage) rankedPage {
	out := rankedPage{Page: p.Page, Size: p.Size, Total: p.Total, Ads: make([]rankedAd, 0, len(p.List))}
	offset := 0
	if p.Page > 1 {
		offset = (p.Page - 1) * p.Size
	}
	for i, ad := range p.List {
		out.Ads = append(out.Ads, rankedAd{
			Rank:  offset + i + 1,
			ID:    ad.ID,
			Title: ad.Title,
			Price: ad.Price,
			Heat:  ad.Heat,
			Score: ranking.AdScore(ad),
		})
	}
	return out
}

func init() {
	for _, cmd := range []*cobra.Command{adsListCmd, bidCmd} {
		cmd.Flags().IntVar(&listPage, "page", 1, "页码")
		cmd.Flags().IntVar(&listSize, "size", 10, "每页数量")
	}
	adsCmd.AddCommand(adsListCmd, adsHeatCmd, adsCopyCmd, adsDeleteCmd)
}
