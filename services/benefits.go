package services

import (
	"context"
	"fmt"

	"tree-tracker/benefits"
	"tree-tracker/models"
	"tree-tracker/utils"
)

// Calculator fetches benefit estimates for a complete request.
type Calculator interface {
	Calculate(ctx context.Context, req models.BenefitsRequest) (*models.BenefitRecord, []byte, error)
}

// AddressSource supplies the session's resolved address, or nil.
type AddressSource interface {
	Address() *models.ResolvedAddress
}

// BenefitsService runs the calculate-benefits flow of the add-tree form.
type BenefitsService struct {
	forms      *FormService
	calculator Calculator
	logger     *utils.Logger
}

// NewBenefitsService creates a BenefitsService.
func NewBenefitsService(forms *FormService, calc Calculator, logger *utils.Logger) *BenefitsService {
	return &BenefitsService{forms: forms, calculator: calc, logger: logger}
}

// Calculate uses the address already resolved by src. It never waits for
// resolution: without an address it fails with benefits.ErrAddressUnresolved.
func (s *BenefitsService) Calculate(ctx context.Context, form models.TreeForm, src AddressSource) (*models.BenefitRecord, error) {
	var addr *models.ResolvedAddress
	if src != nil {
		addr = src.Address()
	}
	return s.CalculateAt(ctx, form, addr)
}

// CalculateAt computes the benefits of form at addr.
func (s *BenefitsService) CalculateAt(ctx context.Context, form models.TreeForm, addr *models.ResolvedAddress) (*models.BenefitRecord, error) {
	if form.Species == nil && form.SpeciesID != "" {
		if sp, ok := s.forms.catalog.LookupByID(form.SpeciesID); ok {
			form.Species = &sp
		}
	}

	req, err := benefits.Build(form, addr)
	if err != nil {
		return nil, err
	}

	rec, _, err := s.calculator.Calculate(ctx, req)
	if err != nil {
		s.logger.Warn("[benefits] Calculation for %s failed: %v", req.SpeciesCode, err)
		return nil, fmt.Errorf("benefits: calculate %s: %w", req.SpeciesCode, err)
	}
	s.logger.Info("[benefits] %s dbh=%s → CO2 %s (%s), runoff %s (%s)",
		req.SpeciesCode, req.DBH,
		rec.CO2Sequestered(), rec.CO2SequesteredValue(),
		rec.RunoffAvoided(), rec.RunoffAvoidedValue())
	return rec, nil
}
