package service

import (
	"context"

	"github.com/scanvault/api/internal/client"
	"github.com/scanvault/api/internal/model"
)

// AccountService exposes vendor account information
type AccountService struct {
	vendor client.Vendor
}

func NewAccountService(vendor client.Vendor) *AccountService {
	return &AccountService{vendor: vendor}
}

// Balance returns the remaining vendor credit
func (s *AccountService) Balance(ctx context.Context) (*model.BalanceResponse, error) {
	res, err := s.vendor.GetBalance(ctx)
	if err != nil {
		return nil, err
	}
	return &model.BalanceResponse{Balance: res.Balance}, nil
}
