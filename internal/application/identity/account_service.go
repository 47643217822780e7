package identity

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/infrastructure/event"
	"github.com/cos/backend/internal/infrastructure/telemetry"
)

// AccountService opens accounts and serves customer profiles
type AccountService struct {
	customers identity.CustomerRepository
	locker    shared.KeyLocker
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(
	customers identity.CustomerRepository,
	locker shared.KeyLocker,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		customers: customers,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
	}
}

// Register opens an account. Checks run in order: duplicate id, password
// policy, profile, security answer. The new customer starts with zero failed
// logins and no session.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*CustomerInfo, error) {
	id := strings.TrimSpace(input.ID)
	ctx, span := telemetry.StartServiceSpan(ctx, "account", "register")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, id)

	unlock := s.locker.Lock(id)
	defer unlock()

	if id != "" {
		exists, err := s.customers.ExistsByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if exists {
			s.logger.Info("Registration rejected, id taken", zap.String("customer_id", id))
			return nil, identity.ErrDuplicateID
		}
	}

	customer, err := identity.NewCustomer(identity.Registration{
		ID:             id,
		Secret:         input.Secret,
		Name:           input.Name,
		Address:        input.Address,
		Instrument:     input.Instrument(),
		ChallengeIndex: input.ChallengeIndex,
		Answer:         input.ChallengeAnswer,
	})
	if err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) {
			s.logger.Info("Registration rejected", zap.String("customer_id", id), zap.String("code", de.Code))
		}
		return nil, err
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := event.PublishPending(ctx, s.publisher, customer); err != nil {
		s.logger.Warn("Failed to publish registration events", zap.String("customer_id", id), zap.Error(err))
	}

	s.logger.Info("Customer registered", zap.String("customer_id", id))
	info := ToCustomerInfo(customer)
	return &info, nil
}

// GetProfile returns the public view of a customer
func (s *AccountService) GetProfile(ctx context.Context, customerID string) (*CustomerInfo, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	info := ToCustomerInfo(customer)
	return &info, nil
}

// ChallengeQuestions lists the security questions, indexed as Register expects
func (s *AccountService) ChallengeQuestions() []string {
	out := make([]string, len(identity.ChallengeQuestions))
	copy(out, identity.ChallengeQuestions)
	return out
}
