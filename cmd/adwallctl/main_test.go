package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adwall/internal/model"
)

func TestParseCandidate(t *testing.T) {
	doc := []byte(`
title: 新品上架
price: 12.5
ext_info:
  slogan: 买一送一
video_ids:
  - v1
  - ""
  - v2
`)
	c, err := parseCandidate(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, c.VideoIDs)
	assert.Equal(t, "买一送一", c.Ext["slogan"])

	v, ok := c.Lookup("price")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = c.Lookup("slogan")
	assert.True(t, ok)
	assert.Equal(t, "买一送一", v)
}

func TestParseCandidateRejectsInvalidYAML(t *testing.T) {
	_, err := parseCandidate([]byte("title: [unclosed"))
	assert.Error(t, err)
}

func TestSummarizeRanksFromPageOffset(t *testing.T) {
	p := &model.AdPage{Page: 2, Size: 10, Total: 12, List: []*model.Ad{
		{ID: "a", Price: 10, Heat: 0},
		{ID: "b", Price: 1, Heat: 10},
	}}
	got := summarize(p)
	require.Len(t, got.Ads, 2)
	assert.Equal(t, 11, got.Ads[0].Rank)
	assert.Equal(t, 12, got.Ads[1].Rank)
	assert.InDelta(t, 10.0, got.Ads[0].Score, 1e-9)
	assert.InDelta(t, 5.2, got.Ads[1].Score, 1e-9)
}

func TestPrintOutUsesJSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	output = "yaml"
	require.NoError(t, printOut(&buf, &model.Ad{ID: "a", LandingURL: "https://x.test"}))
	assert.Contains(t, buf.String(), "landing_url: https://x.test")

	buf.Reset()
	output = "json"
	defer func() { output = "yaml" }()
	require.NoError(t, printOut(&buf, map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n":1}`, buf.String())
}
