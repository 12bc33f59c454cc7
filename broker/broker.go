// Package broker defines the brokerage collaborators the decision loop
// talks to. Adapters live in broker/oanda and broker/paper.
package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/trendbot/market"
)

var (
	// ErrDataUnavailable means the source returned no bars or no quote.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrOrderRejected is matched by every *RejectedError.
	ErrOrderRejected = errors.New("order rejected")

	// ErrConnection means the session with the broker is not usable.
	ErrConnection = errors.New("broker connection failed")
)

// DefaultClientTag marks orders placed by this process.
const DefaultClientTag = "trendbot"

type MarketData interface {
	// Bars returns the last count completed bars, oldest first.
	Bars(ctx context.Context, instrument string, tf market.Timeframe, count int) ([]market.Bar, error)
}

type Account interface {
	Balance(ctx context.Context) (float64, error)
	SymbolLimits(ctx context.Context, instrument string) (SymbolLimits, error)
}

type Orders interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	ModifyStop(ctx context.Context, req ModifyRequest) error
}

type Positions interface {
	OpenPositions(ctx context.Context) ([]Position, error)
	Quote(ctx context.Context, instrument string) (market.Quote, error)
}

type Broker interface {
	MarketData
	Account
	Orders
	Positions
}

// SymbolLimits are the per-instrument trading constraints. PipValue is the
// account-currency value of a one-point move for one lot.
type SymbolLimits struct {
	PointSize float64
	PipValue  float64
	VolumeMin float64
	VolumeMax float64
}

type OrderRequest struct {
	Instrument string
	Side       market.Side
	Volume     float64 // lots
	Price      float64 // expected fill, informational for market orders
	StopLoss   float64
	TakeProfit float64
	ClientTag  string
}

func (r OrderRequest) String() string {
	return fmt.Sprintf("%s %s %.2f @ %.5f sl=%.5f tp=%.5f",
		r.Side, r.Instrument, r.Volume, r.Price, r.StopLoss, r.TakeProfit)
}

type OrderResult struct {
	Ticket    string
	FillPrice float64
	Volume    float64
}

type ModifyRequest struct {
	Ticket     string
	Instrument string
	StopLoss   float64
	TakeProfit float64 // unchanged target, resent with the stop
}

// Position is an open trade as reported by the broker. A zero StopLoss or
// TakeProfit means none is set.
type Position struct {
	Ticket     string
	Instrument string
	Side       market.Side
	Volume     float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
}

// RejectedError carries the broker's reason for refusing an order.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "order rejected: " + e.Reason
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrOrderRejected
}

// Reject builds a *RejectedError with a formatted reason.
func Reject(format string, args ...any) error {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}
