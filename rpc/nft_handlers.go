package rpc

import (
	"net/http"
)

type nftItemParams struct {
	ItemID uint64 `json:"itemId"`
}

type nftAccountParams struct {
	Address string `json:"address"`
}

type nftApproveParams struct {
	Caller  string `json:"caller"`
	ItemID  uint64 `json:"itemId"`
	Spender string `json:"spender"`
}

type nftTransferParams struct {
	Caller string `json:"caller"`
	From   string `json:"from"`
	To     string `json:"to"`
	ItemID uint64 `json:"itemId"`
}

func (s *Server) nftHandler(method string) func(http.ResponseWriter, *RPCRequest) error {
	switch method {
	case "nft_ownerOf":
		return s.handleNFTOwnerOf
	case "nft_balanceOf":
		return s.handleNFTBalanceOf
	case "nft_tokenURI":
		return s.handleNFTTokenURI
	case "nft_getApproved":
		return s.handleNFTGetApproved
	case "nft_approve":
		return s.handleNFTApprove
	case "nft_transferFrom":
		return s.handleNFTTransferFrom
	}
	return nil
}

func (s *Server) handleNFTOwnerOf(w http.ResponseWriter, req *RPCRequest) error {
	var params nftItemParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	owner, err := s.engine.NFTToken().OwnerOf(params.ItemID)
	if err != nil {
		return err
	}
	writeResult(w, req.ID, formatAddress(owner))
	return nil
}

func (s *Server) handleNFTBalanceOf(w http.ResponseWriter, req *RPCRequest) error {
	var params nftAccountParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	addr, err := parseAddress("address", params.Address)
	if err != nil {
		return err
	}
	balance, err := s.engine.NFTToken().BalanceOf(addr)
	if err != nil {
		return err
	}
	writeResult(w, req.ID, balance)
	return nil
}

func (s *Server) handleNFTTokenURI(w http.ResponseWriter, req *RPCRequest) error {
	var params nftItemParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	uri, err := s.engine.NFTToken().TokenURI(params.ItemID)
	if err != nil {
		return err
	}
	writeResult(w, req.ID, uri)
	return nil
}

func (s *Server) handleNFTGetApproved(w http.ResponseWriter, req *RPCRequest) error {
	var params nftItemParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	spender, err := s.engine.NFTToken().GetApproved(params.ItemID)
	if err != nil {
		return err
	}
	writeResult(w, req.ID, formatAddress(spender))
	return nil
}

func (s *Server) handleNFTApprove(w http.ResponseWriter, req *RPCRequest) error {
	var params nftApproveParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return err
	}
	spender, err := parseAddress("spender", params.Spender)
	if err != nil {
		return err
	}
	if err := s.engine.NFTToken().Approve(caller, params.ItemID, spender); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}

func (s *Server) handleNFTTransferFrom(w http.ResponseWriter, req *RPCRequest) error {
	var params nftTransferParams
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
	if err := s.engine.NFTToken().TransferFrom(caller, from, to, params.ItemID); err != nil {
		return err
	}
	writeResult(w, req.ID, true)
	return nil
}
