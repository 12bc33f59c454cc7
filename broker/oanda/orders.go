package oanda

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rustyeddy/trendbot/broker"
)

type priceDetails struct {
	Price       string `json:"price"`
	TimeInForce string `json:"timeInForce,omitempty"`
}

type clientExtensions struct {
	Tag     string `json:"tag,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type marketOrder struct {
	Type             string            `json:"type"`
	Instrument       string            `json:"instrument"`
	Units            string            `json:"units"`
	TimeInForce      string            `json:"timeInForce"`
	PositionFill     string            `json:"positionFill"`
	StopLossOnFill   *priceDetails     `json:"stopLossOnFill,omitempty"`
	TakeProfitOnFill *priceDetails     `json:"takeProfitOnFill,omitempty"`
	ClientExtensions *clientExtensions `json:"clientExtensions,omitempty"`
}

type orderRequest struct {
	Order marketOrder `json:"order"`
}

type orderResponse struct {
	OrderFillTransaction *struct {
		ID          string `json:"id"`
		Price       string `json:"price"`
		Units       string `json:"units"`
		TradeOpened *struct {
			TradeID string `json:"tradeID"`
			Units   string `json:"units"`
			Price   string `json:"price"`
		} `json:"tradeOpened"`
	} `json:"orderFillTransaction"`
	OrderCancelTransaction *struct {
		Reason string `json:"reason"`
	} `json:"orderCancelTransaction"`
}

type tradeOrdersRequest struct {
	StopLoss   *priceDetails `json:"stopLoss,omitempty"`
	TakeProfit *priceDetails `json:"takeProfit,omitempty"`
}

// SubmitOrder places a fill-or-kill market order with the stop and target
// attached on fill. Volume is in lots.
func (c *Client) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	units := math.Round(req.Volume * c.unitsPerLot)
	if req.Side.Sign() == 0 || units == 0 {
		return broker.OrderResult{}, broker.Reject("order %s has no size or side", req)
	}

	ord := marketOrder{
		Type:         "MARKET",
		Instrument:   req.Instrument,
		Units:        strconv.FormatFloat(req.Side.Sign()*units, 'f', 0, 64),
		TimeInForce:  "FOK",
		PositionFill: "DEFAULT",
	}
	if req.StopLoss != 0 {
		ord.StopLossOnFill = &priceDetails{Price: c.formatPrice(req.Instrument, req.StopLoss), TimeInForce: "GTC"}
	}
	if req.TakeProfit != 0 {
		ord.TakeProfitOnFill = &priceDetails{Price: c.formatPrice(req.Instrument, req.TakeProfit), TimeInForce: "GTC"}
	}
	if req.ClientTag != "" {
		ord.ClientExtensions = &clientExtensions{Tag: req.ClientTag, Comment: req.ClientTag}
	}

	var resp orderResponse
	err := c.do(ctx, "POST", c.accountPath("/orders"), nil, orderRequest{Order: ord}, &resp)
	if err != nil {
		return broker.OrderResult{}, rejection(err)
	}
	if resp.OrderCancelTransaction != nil {
		return broker.OrderResult{}, broker.Reject("%s", resp.OrderCancelTransaction.Reason)
	}
	fill := resp.OrderFillTransaction
	if fill == nil || fill.TradeOpened == nil {
		return broker.OrderResult{}, broker.Reject("no trade opened")
	}

	price, err := parseFloat(fill.TradeOpened.Price)
	if err != nil {
		price, _ = parseFloat(fill.Price)
	}
	filled, err := parseFloat(fill.TradeOpened.Units)
	if err != nil {
		filled = units
	}
	return broker.OrderResult{
		Ticket:    fill.TradeOpened.TradeID,
		FillPrice: price,
		Volume:    math.Abs(filled) / c.unitsPerLot,
	}, nil
}

// ModifyStop replaces the stop (and target, when set) of an open trade.
func (c *Client) ModifyStop(ctx context.Context, req broker.ModifyRequest) error {
	body := tradeOrdersRequest{
		StopLoss: &priceDetails{Price: c.formatPrice(req.Instrument, req.StopLoss), TimeInForce: "GTC"},
	}
	if req.TakeProfit != 0 {
		body.TakeProfit = &priceDetails{Price: c.formatPrice(req.Instrument, req.TakeProfit), TimeInForce: "GTC"}
	}

	path := c.accountPath("/trades/%s/orders", url.PathEscape(req.Ticket))
	if err := c.do(ctx, "PUT", path, nil, body, nil); err != nil {
		return fmt.Errorf("modify trade %s: %w", req.Ticket, rejection(err))
	}
	return nil
}

// rejection turns a 400/404 from an order endpoint into a
// *broker.RejectedError; anything else is returned unchanged.
func rejection(err error) error {
	var se *statusError
	if errors.As(err, &se) && (se.Status == http.StatusBadRequest || se.Status == http.StatusNotFound) {
		reason := se.ErrorMessage
		if se.ErrorCode != "" {
			reason = se.ErrorCode + ": " + reason
		}
		if reason == "" {
			reason = se.Body
		}
		return &broker.RejectedError{Reason: reason}
	}
	return err
}
