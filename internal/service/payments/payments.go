package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/domain/services"
	"wbuilder/internal/policy"
)

// paymentService implements the PaymentService interface
type paymentService struct {
	purchaseRepo repositories.PurchaseRepository
	ledger       services.CreditLedger
	txManager    repositories.TransactionManager
	policy       *policy.Policy
	logger       *slog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	purchaseRepo repositories.PurchaseRepository,
	ledger services.CreditLedger,
	txManager repositories.TransactionManager,
	pol *policy.Policy,
	logger *slog.Logger,
) services.PaymentService {
	return &paymentService{
		purchaseRepo: purchaseRepo,
		ledger:       ledger,
		txManager:    txManager,
		policy:       pol,
		logger:       logger,
	}
}

// Plans returns the purchasable credit bundles
func (s *paymentService) Plans() []models.Plan {
	return s.policy.Plans
}

// CreatePurchase records a pending purchase for a plan
func (s *paymentService) CreatePurchase(ctx context.Context, userID, planID string) (*models.Purchase, error) {
	planID = strings.TrimSpace(planID)
	err := validation.Validate(planID,
		validation.Required,
		validation.By(func(value interface{}) error {
			if _, ok := s.policy.Plan(value.(string)); !ok {
				return fmt.Errorf("unknown plan %q", value)
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: plan_id: %v", domain.ErrValidation, err)
	}

	plan, _ := s.policy.Plan(planID)
	purchase := &models.Purchase{
		UserID:  userID,
		PlanID:  plan.ID,
		Amount:  plan.Amount,
		Credits: plan.Credits,
	}
	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, err
	}

	s.logger.Info("purchase created",
		"purchase_id", purchase.ID,
		"user_id", userID,
		"plan_id", plan.ID,
		"credits", plan.Credits,
	)
	return purchase, nil
}

// ConfirmPurchase marks the purchase paid and grants its credits in the same
// transaction. Confirming an already paid purchase changes nothing.
func (s *paymentService) ConfirmPurchase(ctx context.Context, purchaseID string) (*models.Purchase, error) {
	if strings.TrimSpace(purchaseID) == "" {
		return nil, fmt.Errorf("%w: purchase_id is required", domain.ErrValidation)
	}

	var granted bool
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		purchase, err := s.purchaseRepo.Get(ctx, purchaseID)
		if err != nil {
			return err
		}
		granted, err = s.purchaseRepo.MarkPaid(ctx, purchaseID)
		if err != nil || !granted {
			return err
		}
		_, err = s.ledger.Credit(ctx, purchase.UserID, purchase.Credits, "purchase:"+purchase.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	purchase, err := s.purchaseRepo.Get(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if granted {
		s.logger.Info("purchase confirmed",
			"purchase_id", purchase.ID,
			"user_id", purchase.UserID,
			"credits", purchase.Credits,
		)
	} else {
		s.logger.Debug("purchase already confirmed", "purchase_id", purchase.ID)
	}
	return purchase, nil
}
