package rpc

import (
	"net/http"

	"byobmarket/native/market"
	"byobmarket/native/nft"
	"byobmarket/native/token"
)

type marketCreateItemParams struct {
	URI   string `json:"uri"`
	Owner string `json:"owner"`
}

type marketListParams struct {
	Caller string `json:"caller"`
	ItemID uint64 `json:"itemId"`
	Price  string `json:"price"`
}

type marketItemParams struct {
	Caller string `json:"caller"`
	ItemID uint64 `json:"itemId"`
}

type marketBidParams struct {
	Caller string `json:"caller"`
	ItemID uint64 `json:"itemId"`
	Amount string `json:"amount"`
}

type marketOrderParams struct {
	ItemID uint64 `json:"itemId"`
}

type orderJSON struct {
	ItemID     uint64  `json:"itemId"`
	Seller     string  `json:"seller"`
	Price      string  `json:"price"`
	Kind       string  `json:"kind"`
	Active     bool    `json:"active"`
	CreatedAt  uint64  `json:"createdAt"`
	EndTime    *uint64 `json:"endTime,omitempty"`
	HighBidder *string `json:"highBidder,omitempty"`
	BidCount   *uint32 `json:"bidCount,omitempty"`
}

type tokenInfoJSON struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals,omitempty"`
}

func marshalOrder(order *market.Order) orderJSON {
	out := orderJSON{
		ItemID:    order.ItemID,
		Seller:    formatAddress(order.Seller),
		Price:     order.Price.String(),
		Kind:      order.Kind.String(),
		Active:    order.Active,
		CreatedAt: order.CreatedAt,
	}
	if order.Kind == market.KindAuction {
		endTime := order.EndTime
		bidCount := order.BidCount
		out.EndTime = &endTime
		out.BidCount = &bidCount
		if order.HasBidder {
			bidder := formatAddress(order.HighBidder)
			out.HighBidder = &bidder
		}
	}
	return out
}

func (s *Server) marketHandler(method string) func(http.ResponseWriter, *RPCRequest) error {
	switch method {
	case "market_createItem":
		return s.handleMarketCreateItem
	case "market_listItem":
		return s.handleMarketListItem
	case "market_buyItem":
		return s.handleMarketBuyItem
	case "market_cancel":
		return s.handleMarketCancel
	case "market_listItemOnAuction":
		return s.handleMarketListItemOnAuction
	case "market_makeBid":
		return s.handleMarketMakeBid
	case "market_finishAuction":
		return s.handleMarketFinishAuction
	case "market_cancelAuction":
		return s.handleMarketCancelAuction
	case "market_getOrder":
		return s.handleMarketGetOrder
	case "market_paymentToken":
		return s.handleMarketPaymentToken
	case "market_nftToken":
		return s.handleMarketNFTToken
	}
	return nil
}

func (s *Server) handleMarketCreateItem(w http.ResponseWriter, req *RPCRequest) error {
	var params marketCreateItemParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	owner, err := parseAddress("owner", params.Owner)
	if err != nil {
		return err
	}
	id, err := s.engine.CreateItem(params.URI, owner)
	if err != nil {
		return err
	}
	writeResult(w, req.ID, map[string]uint64{"itemId": id})
	return nil
}

func (s *Server) handleMarketListItem(w http.ResponseWriter, req *RPCRequest) error {
	var params marketListParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return err
	}
	price, err := parseAmount("price", params.Price)
	if err != nil {
		return err
	}
	if err := s.engine.ListItem(caller, params.ItemID, price); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleMarketBuyItem(w http.ResponseWriter, req *RPCRequest) error {
	var params marketItemParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return err
	}
	if err := s.engine.BuyItem(caller, params.ItemID); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleMarketCancel(w http.ResponseWriter, req *RPCRequest) error {
	var params marketItemParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return err
	}
	if err := s.engine.Cancel(caller, params.ItemID); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleMarketListItemOnAuction(w http.ResponseWriter, req *RPCRequest) error {
	var params marketListParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return err
	}
	minPrice, err := parseAmount("price", params.Price)
	if err != nil {
		return err
	}
	if err := s.engine.ListItemOnAuction(caller, params.ItemID, minPrice); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleMarketMakeBid(w http.ResponseWriter, req *RPCRequest) error {
	var params marketBidParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return err
	}
	if err := s.engine.MakeBid(caller, params.ItemID, amount); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleMarketFinishAuction(w http.ResponseWriter, req *RPCRequest) error {
	var params marketItemParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return err
	}
	if err := s.engine.FinishAuction(caller, params.ItemID); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleMarketCancelAuction(w http.ResponseWriter, req *RPCRequest) error {
	var params marketItemParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return err
	}
	if err := s.engine.CancelAuction(caller, params.ItemID); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleMarketGetOrder(w http.ResponseWriter, req *RPCRequest) error {
	var params marketOrderParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	order, ok, err := s.engine.GetOrder(params.ItemID)
	if err != nil {
		return err
	}
	if !ok {
		writeResult(w, req.ID, nil)
		return nil
	}
	writeResult(w, req.ID, marshalOrder(order))
	return nil
}

func (s *Server) handleMarketPaymentToken(w http.ResponseWriter, req *RPCRequest) error {
	writeResult(w, req.ID, tokenInfoJSON{Name: token.Name, Symbol: token.Symbol, Decimals: token.Decimals})
	return nil
}

func (s *Server) handleMarketNFTToken(w http.ResponseWriter, req *RPCRequest) error {
	writeResult(w, req.ID, tokenInfoJSON{Name: nft.Name, Symbol: nft.Symbol})
	return nil
}
