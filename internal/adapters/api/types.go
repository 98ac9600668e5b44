package api

import (
	"time"

	"github.com/alejandrodnm/optionsim/internal/domain"
)

// Wire records mirror the engine entities field for field.

type optionRecord struct {
	ID         string    `json:"id"`
	Asset      string    `json:"asset"`
	Direction  string    `json:"direction"`
	Stake      float64   `json:"stake"`
	Duration   int64     `json:"duration_seconds"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	ExpiryTime time.Time `json:"expiry_time"`
	Status     string    `json:"status"`
	ExitPrice  *float64  `json:"exit_price,omitempty"`
	Payout     *float64  `json:"payout,omitempty"`
}

type positionRecord struct {
	optionRecord
	CurrentPrice float64 `json:"current_price"`
	RemainingSec int64   `json:"remaining_seconds"`
	Winning      bool    `json:"winning"`
}

type accountRecord struct {
	AccountID string  `json:"account_id"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency"`
}

type assetRecord struct {
	Name   string `json:"name"`
	RIC    string `json:"ric"`
	Active bool   `json:"active"`
}

type tickRecord struct {
	Asset     string    `json:"asset"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

type statsRecord struct {
	TradeCount int     `json:"trade_count"`
	OpenCount  int     `json:"open_count"`
	WonCount   int     `json:"won_count"`
	LostCount  int     `json:"lost_count"`
	WinRate    float64 `json:"win_rate"`
	GrossStake float64 `json:"gross_stake"`
	NetProfit  float64 `json:"net_profit"`
}

type openTradeRequest struct {
	Asset     string  `json:"asset"`
	Direction string  `json:"direction"`
	Stake     float64 `json:"stake"`
	Duration  int64   `json:"duration_seconds"`
}

type resetRequest struct {
	InitialBalance float64 `json:"initial_balance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toOptionRecord(opt domain.Option) optionRecord {
	rec := optionRecord{
		ID:         opt.ID,
		Asset:      opt.Asset,
		Direction:  string(opt.Direction),
		Stake:      opt.Stake,
		Duration:   int64(opt.Duration.Seconds()),
		EntryPrice: opt.EntryPrice,
		EntryTime:  opt.EntryTime,
		ExpiryTime: opt.ExpiryTime,
		Status:     string(opt.Status),
	}
	if opt.Status.Terminal() {
		exit, payout := opt.ExitPrice, opt.Payout
		rec.ExitPrice = &exit
		rec.Payout = &payout
	}
	return rec
}

func toOptionRecords(opts []domain.Option) []optionRecord {
	out := make([]optionRecord, len(opts))
	for i, opt := range opts {
		out[i] = toOptionRecord(opt)
	}
	return out
}

func toPositionRecord(pos domain.Position) positionRecord {
	return positionRecord{
		optionRecord: toOptionRecord(pos.Option),
		CurrentPrice: pos.CurrentPrice,
		RemainingSec: int64(pos.TimeLeft.Seconds()),
		Winning:      pos.Winning,
	}
}
