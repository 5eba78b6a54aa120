package rpc

import (
	"net/http"
)

type tokenAccountParams struct {
	Address string `json:"address"`
}

type tokenAllowanceParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

type tokenTransferParams struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenApproveParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type tokenTransferFromParams struct {
	Caller string `json:"caller"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenSupplyParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) tokenHandler(method string) func(http.ResponseWriter, *RPCRequest) error {
	switch method {
	case "token_balanceOf":
		return s.handleTokenBalanceOf
	case "token_totalSupply":
		return s.handleTokenTotalSupply
	case "token_allowance":
		return s.handleTokenAllowance
	case "token_transfer":
		return s.handleTokenTransfer
	case "token_transferFrom":
		return s.handleTokenTransferFrom
	case "token_approve":
		return s.handleTokenApprove
	case "token_increaseAllowance":
		return s.handleTokenIncreaseAllowance
	case "token_decreaseAllowance":
		return s.handleTokenDecreaseAllowance
	case "token_mint":
		return s.handleTokenMint
	case "token_burn":
		return s.handleTokenBurn
	}
	return nil
}

func (s *Server) handleTokenBalanceOf(w http.ResponseWriter, req *RPCRequest) error {
	var params tokenAccountParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	addr, err := parseAddress("address", params.Address)
	if err != nil {
		return err
	}
	balance, err := s.engine.PaymentToken().BalanceOf(addr)
	if err != nil {
		return err
	}
	writeResult(w, req.ID, balance.String())
	return nil
}

func (s *Server) handleTokenTotalSupply(w http.ResponseWriter, req *RPCRequest) error {
	supply, err := s.engine.PaymentToken().TotalSupply()
	if err != nil {
		return err
	}
	writeResult(w, req.ID, supply.String())
	return nil
}

func (s *Server) handleTokenAllowance(w http.ResponseWriter, req *RPCRequest) error {
	var params tokenAllowanceParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	owner, err := parseAddress("owner", params.Owner)
	if err != nil {
		return err
	}
	spender, err := parseAddress("spender", params.Spender)
	if err != nil {
		return err
	}
	allowance, err := s.engine.PaymentToken().Allowance(owner, spender)
	if err != nil {
		return err
	}
	writeResult(w, req.ID, allowance.String())
	return nil
}

func (s *Server) handleTokenTransfer(w http.ResponseWriter, req *RPCRequest) error {
	var params tokenTransferParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	from, err := parseAddress("from", params.From)
	if err != nil {
		return err
	}
	to, err := parseAddress("to", params.To)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return err
	}
	if err := s.engine.PaymentToken().Transfer(from, to, amount); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleTokenTransferFrom(w http.ResponseWriter, req *RPCRequest) error {
	var params tokenTransferFromParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return err
	}
	from, err := parseAddress("from", params.From)
	if err != nil {
		return err
	}
	to, err := parseAddress("to", params.To)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return err
	}
	if err := s.engine.PaymentToken().TransferFrom(caller, from, to, amount); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleTokenApprove(w http.ResponseWriter, req *RPCRequest) error {
	var params tokenApproveParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	owner, err := parseAddress("owner", params.Owner)
	if err != nil {
		return err
	}
	spender, err := parseAddress("spender", params.Spender)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return err
	}
	if err := s.engine.PaymentToken().Approve(owner, spender, amount); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleTokenIncreaseAllowance(w http.ResponseWriter, req *RPCRequest) error {
	var params tokenApproveParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	owner, err := parseAddress("owner", params.Owner)
	if err != nil {
		return err
	}
	spender, err := parseAddress("spender", params.Spender)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return err
	}
	if err := s.engine.PaymentToken().IncreaseAllowance(owner, spender, amount); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleTokenDecreaseAllowance(w http.ResponseWriter, req *RPCRequest) error {
	var params tokenApproveParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	owner, err := parseAddress("owner", params.Owner)
	if err != nil {
		return err
	}
	spender, err := parseAddress("spender", params.Spender)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return err
	}
	if err := s.engine.PaymentToken().DecreaseAllowance(owner, spender, amount); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleTokenMint(w http.ResponseWriter, req *RPCRequest) error {
	var params tokenSupplyParams
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
	if err := s.engine.PaymentToken().Mint(caller, amount); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleTokenBurn(w http.ResponseWriter, req *RPCRequest) error {
	var params tokenSupplyParams
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
	if err := s.engine.PaymentToken().Burn(caller, amount); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}
