// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetscan/internal/config"
	"sheetscan/internal/detector"
)

func newExtractor() *Extractor {
	return New(config.Default().Extraction, nil, nil)
}

func TestExtract_Phones(t *testing.T) {
	e := newExtractor()

	got := e.Extract("联系方式：13812345678，备用：15912345678")
	require.Len(t, got.Phones, 2)
	assert.True(t, got.Phones[0].Valid)
	assert.True(t, got.Phones[1].Valid)
	assert.Equal(t, "13812345678", got.Phones[0].Value)
	assert.Equal(t, "15912345678", got.Phones[1].Value)
}

func TestExtract_IDCards(t *testing.T) {
	e := newExtractor()

	got := e.Extract("身份证号：440308199901010012")
	require.Len(t, got.IDCards, 1)
	assert.True(t, got.IDCards[0].Valid)
}

func TestExtract_BankCards(t *testing.T) {
	e := newExtractor()

	got := e.Extract("银行卡：4111111111111111")
	require.Len(t, got.BankCards, 1)
	assert.True(t, got.BankCards[0].Valid)
}

func TestExtract_ValidIDSuppressesOverlappingBankCard(t *testing.T) {
	e := newExtractor()

	got := e.Extract("身份证：110105199003072039")
	require.Len(t, got.IDCards, 1)
	assert.True(t, got.IDCards[0].Valid)
	assert.Empty(t, got.BankCards)
}

func TestExtract_InvalidIDDoesNotSuppressBankCard(t *testing.T) {
	e := newExtractor()

	// Same shape but a broken checksum: both readings must surface.
	got := e.Extract("号码：110105199003072030")
	require.Len(t, got.IDCards, 1)
	assert.False(t, got.IDCards[0].Valid)
	assert.NotEmpty(t, got.BankCards)
}

func TestExtract_OffsetsAddressSourceText(t *testing.T) {
	e := newExtractor()

	text := "电话13812345678，身份证110105199003072039，卡4111 1111 1111 1111"
	got := e.Extract(text)

	all := append(append(append([]detector.Match{}, got.Phones...), got.IDCards...), got.BankCards...)
	require.NotEmpty(t, all)
	for _, m := range all {
		assert.Less(t, m.Start, m.End)
		assert.Equal(t, m.Value, text[m.Start:m.End])
	}
}

func TestExtract_DisabledCategoriesYieldEmptySlices(t *testing.T) {
	cfg := config.Default().Extraction
	cfg.EnablePhone = false
	cfg.EnableIDCard = false
	cfg.EnableBankCard = false
	cfg.EnableName = true
	e := New(cfg, nil, nil)

	got := e.Extract("电话13812345678，身份证110105199003072039")
	assert.NotNil(t, got.Phones)
	assert.NotNil(t, got.IDCards)
	assert.NotNil(t, got.BankCards)
	assert.NotNil(t, got.Names)
	assert.True(t, got.Empty())
}

type stubNames struct {
	matches []detector.Match
	calls   int
}

func (s *stubNames) Extract(string) []detector.Match {
	s.calls++
	return s.matches
}

func TestExtract_MergesNameSourceResults(t *testing.T) {
	cfg := config.Default().Extraction
	cfg.EnableName = true
	src := &stubNames{matches: []detector.Match{{Value: "张三", Valid: true}}}
	e := New(cfg, src, nil)

	got := e.Extract("张三的电话是13812345678")
	require.Len(t, got.Names, 1)
	assert.Equal(t, "张三", got.Names[0].Value)
	assert.Equal(t, 1, src.calls)
}

func TestExtract_NilNameSourceResultBecomesEmpty(t *testing.T) {
	cfg := config.Default().Extraction
	cfg.EnableName = true
	e := New(cfg, &stubNames{matches: nil}, nil)

	got := e.Extract("任意文本")
	assert.NotNil(t, got.Names)
	assert.Empty(t, got.Names)
}

func TestExtract_Idempotent(t *testing.T) {
	e := newExtractor()
	text := "电话13812345678，身份证110105199003072039，卡6225 8801 2345 6789"

	first := e.Extract(text)
	second := e.Extract(text)
	assert.Equal(t, first, second)
}
