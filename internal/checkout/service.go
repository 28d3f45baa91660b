package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/example/cottonstyle/internal/apperr"
	"github.com/example/cottonstyle/internal/logging"
	"github.com/example/cottonstyle/internal/models"
	"github.com/example/cottonstyle/internal/pricing"
	"github.com/example/cottonstyle/internal/repository"
	"github.com/example/cottonstyle/internal/services"
)

// ErrCouponNotFound is returned when no coupon has the entered code.
var ErrCouponNotFound = apperr.NotFound("coupon code doesn't exist")

// ErrSubmitInProgress is returned while another submit for the same
// checkout is talking to the payment gateway.
var ErrSubmitInProgress = apperr.Conflict("payment for this checkout is already in progress")

const (
	submitLockTTL = time.Minute
	// a charging claim older than this is considered abandoned
	chargeClaimTTL = 5 * time.Minute
)

type CouponFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AddressBook interface {
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.UserAddress, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ClaimForCharge(ctx context.Context, id uuid.UUID, at, staleBefore time.Time) (*models.Order, error)
	ReleaseClaim(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkPaid(ctx context.Context, id uuid.UUID, confirmation string, at time.Time) (*models.Order, error)
}

type PaymentGateway interface {
	Charge(ctx context.Context, req services.ChargeRequest) (string, error)
}

type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event services.OrderPlaced) error
}

type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, order services.OrderNotification) error
}

// Deps are the collaborators of Service. Addresses, Events and Notifier
// may be nil.
type Deps struct {
	Drafts    Store
	Coupons   CouponFinder
	Users     UserFinder
	Addresses AddressBook
	Orders    OrderStore
	Gateway   PaymentGateway
	Events    OrderEventPublisher
	Notifier  Notifier
	Currency  string
	Now       func() time.Time
}

// Service drives a user's checkout from cart to paid order.
type Service struct {
	deps   Deps
	now    func() time.Time
	logger *log.Entry
}

func NewService(deps Deps) *Service {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Currency == "" {
		deps.Currency = "INR"
	}
	return &Service{
		deps:   deps,
		now:    now,
		logger: logging.Component("checkout"),
	}
}

// Start replaces any existing draft with a fresh one for items.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, items []pricing.CartItem, quote pricing.Quote) (*Draft, error) {
	if err := pricing.ValidateCart(items); err != nil {
		return nil, err
	}
	draft := newDraft(userID.String(), items, quote, s.now())
	if err := s.deps.Drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("start checkout: %w", err)
	}
	return draft, nil
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Draft, error) {
	draft, err := s.deps.Drafts.Get(ctx, userID.String())
	if errors.Is(err, ErrDraftNotFound) {
		return nil, apperr.NotFound("no checkout in progress")
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout: %w", err)
	}
	return draft, nil
}

// SetAddress stores a complete shipping address. An incomplete one is
// rejected and the draft is left as it was.
func (s *Service) SetAddress(ctx context.Context, userID uuid.UUID, addr ShippingAddress) (*Draft, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	draft, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	draft.Address = &addr
	draft.edited(s.now())
	if err := s.deps.Drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save address: %w", err)
	}
	return draft, nil
}

// UseSavedAddress copies one of the user's saved addresses onto the draft.
// The saved address must be complete like any other.
func (s *Service) UseSavedAddress(ctx context.Context, userID, addressID uuid.UUID) (*Draft, error) {
	if s.deps.Addresses == nil {
		return nil, apperr.NotFound("saved address not found")
	}
	saved, err := s.deps.Addresses.FindForUser(ctx, userID, addressID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("saved address not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find saved address: %w", err)
	}
	return s.SetAddress(ctx, userID, AddressFromSaved(saved))
}

// ApplyCoupon validates code against the draft cart and replaces any
// previously applied coupon. On failure the draft is unchanged.
func (s *Service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*Draft, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation("coupon code is required")
	}
	draft, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	coupon, err := s.deps.Coupons.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find coupon: %w", err)
	}

	discount, err := pricing.ApplyCoupon(draft.Items, pricing.Coupon{
		Code:   coupon.Code,
		ShopID: coupon.ShopID.String(),
		Value:  coupon.Value,
	})
	if err != nil {
		return nil, err
	}

	draft.Coupon = &AppliedCoupon{
		Code:     coupon.Code,
		ShopID:   coupon.ShopID.String(),
		Value:    coupon.Value,
		Discount: discount,
	}
	draft.edited(s.now())
	if err := s.deps.Drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save coupon: %w", err)
	}
	return draft, nil
}

func (s *Service) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*Draft, error) {
	draft, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if draft.Coupon == nil {
		return draft, nil
	}

	draft.Coupon = nil
	draft.edited(s.now())
	if err := s.deps.Drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("remove coupon: %w", err)
	}
	return draft, nil
}

// Abandon drops the user's draft. It is not an error when none exists.
func (s *Service) Abandon(ctx context.Context, userID uuid.UUID) error {
	if err := s.deps.Drafts.Delete(ctx, userID.String()); err != nil {
		return fmt.Errorf("abandon checkout: %w", err)
	}
	return nil
}

// Receipt is the outcome of a successful submit.
type Receipt struct {
	State  State          `json:"state"`
	Order  *models.Order  `json:"order"`
	Totals pricing.Totals `json:"totals"`
}

// Submit takes payment for the draft. A pending order is persisted first
// and reused by retries, so a failed charge can be retried without
// creating a second order. Submits for one user are serialized, and the
// order is claimed before charging so the gateway is called at most once
// per successful payment.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID) (*Receipt, error) {
	unlock, err := s.deps.Drafts.Lock(ctx, userID.String(), submitLockTTL)
	if errors.Is(err, ErrLocked) {
		return nil, ErrSubmitInProgress
	}
	if err != nil {
		return nil, err
	}
	defer unlock()

	draft, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !draft.AddressComplete() {
		return nil, apperr.Validation("please choose your delivery address")
	}

	order, err := s.pendingOrder(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	logger := s.logger.WithFields(log.Fields{"user": userID, "order": order.OrderNumber})

	if order.Status == models.OrderStatusPaid {
		// paid by an earlier submit that could not clean up its draft
		s.dropDraft(ctx, logger, userID)
		return &Receipt{State: StateSubmitted, Order: order, Totals: draft.Totals()}, nil
	}

	now := s.now()
	claimed, err := s.deps.Orders.ClaimForCharge(ctx, order.ID, now, now.Add(-chargeClaimTTL))
	if errors.Is(err, repository.ErrStateConflict) {
		return nil, ErrSubmitInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("claim order: %w", err)
	}

	confirmation, err := s.deps.Gateway.Charge(ctx, s.chargeRequest(ctx, userID, claimed))
	if err != nil {
		logger.WithError(err).Warn("payment failed")
		if relErr := s.deps.Orders.ReleaseClaim(context.WithoutCancel(ctx), order.ID, s.now()); relErr != nil {
			logger.WithError(relErr).Error("release order claim")
		}
		return nil, apperr.Transport("payment failed, please try again", err)
	}

	paid, err := s.deps.Orders.MarkPaid(ctx, order.ID, confirmation, s.now())
	if err != nil {
		logger.WithError(err).WithField("confirmation", confirmation).Error("charged but order not marked paid")
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	s.dropDraft(ctx, logger, userID)
	s.announce(ctx, logger, paid)

	logger.Info("order placed")
	return &Receipt{State: StateSubmitted, Order: paid, Totals: draft.Totals()}, nil
}

func (s *Service) dropDraft(ctx context.Context, logger *log.Entry, userID uuid.UUID) {
	if err := s.deps.Drafts.Delete(ctx, userID.String()); err != nil {
		logger.WithError(err).Error("delete submitted draft")
	}
}

// pendingOrder returns the order for the current payment attempt,
// creating and recording it on the draft when there is none.
func (s *Service) pendingOrder(ctx context.Context, userID uuid.UUID, draft *Draft) (*models.Order, error) {
	if draft.PendingOrderID != nil {
		order, err := s.deps.Orders.FindByID(ctx, *draft.PendingOrderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load pending order: %w", err)
		}
	}

	now := s.now()
	order := buildOrder(userID, draft, s.deps.Currency, now)
	if err := s.deps.Orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	draft.PendingOrderID = &order.ID
	draft.State = StateReadyForPayment
	draft.UpdatedAt = now
	if err := s.deps.Drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save checkout: %w", err)
	}
	return order, nil
}

func buildOrder(userID uuid.UUID, draft *Draft, currency string, now time.Time) *models.Order {
	totals := draft.Totals()
	order := &models.Order{
		UserID:              userID,
		OrderNumber:         generateOrderNumber(now),
		Status:              models.OrderStatusPending,
		PlacedAt:            now,
		Subtotal:            totals.Subtotal,
		ProductDiscount:     totals.ProductDiscount,
		DeliveryFee:         totals.DeliveryFee,
		Tax:                 totals.Tax,
		OverallProductPrice: totals.OverallProductPrice,
		CouponDiscount:      totals.CouponDiscount,
		TotalAmount:         totals.GrandTotal,
		Currency:            currency,
		Address1:            draft.Address.Address1,
		Address2:            draft.Address.Address2,
		ZipCode:             draft.Address.ZipCode,
		Country:             draft.Address.Country,
		City:                draft.Address.City,
	}
	if draft.Coupon != nil {
		order.CouponCode = draft.Coupon.Code
	}
	for _, item := range draft.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.ProductID,
			ShopID:      item.ShopID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   pricing.Round(item.DiscountPrice),
			LineTotal:   pricing.Round(item.LineTotal()),
		})
	}
	return order
}

func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("#%d-%s", now.Unix()%1000000, strings.ToUpper(uuid.NewString()[:6]))
}

func (s *Service) chargeRequest(ctx context.Context, userID uuid.UUID, order *models.Order) services.ChargeRequest {
	req := services.ChargeRequest{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Address1:    order.Address1,
		Address2:    order.Address2,
		ZipCode:     order.ZipCode,
		Country:     order.Country,
		City:        order.City,
	}
	if user := s.lookupUser(ctx, userID); user != nil {
		req.Email = user.Email
	}
	return req
}

func (s *Service) lookupUser(ctx context.Context, userID uuid.UUID) *models.User {
	if s.deps.Users == nil {
		return nil
	}
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user", userID).Warn("lookup user")
		return nil
	}
	return user
}

// announce publishes the order event and notifies the admins. The order
// is already paid, so failures are logged and not returned.
func (s *Service) announce(ctx context.Context, logger *log.Entry, order *models.Order) {
	if s.deps.Events != nil {
		event := services.OrderPlaced{
			OrderID:        order.ID.String(),
			OrderNumber:    order.OrderNumber,
			UserID:         order.UserID.String(),
			CouponCode:     order.CouponCode,
			CouponDiscount: order.CouponDiscount,
			TotalAmount:    order.TotalAmount,
			Currency:       order.Currency,
		}
		if order.PaidAt != nil {
			event.PaidAt = *order.PaidAt
		}
		for _, item := range order.Items {
			event.Items = append(event.Items, services.OrderPlacedItem{
				ProductID: item.ProductID,
				ShopID:    item.ShopID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		if err := s.deps.Events.PublishOrderPlaced(ctx, event); err != nil {
			logger.WithError(err).Error("publish order placed")
		}
	}

	if s.deps.Notifier != nil {
		note := services.OrderNotification{
			OrderID:        order.ID.String(),
			OrderNumber:    order.OrderNumber,
			CouponCode:     order.CouponCode,
			CouponDiscount: order.CouponDiscount,
			TotalAmount:    order.TotalAmount,
			Currency:       order.Currency,
			City:           order.City,
			Country:        order.Country,
			Confirmation:   order.PaymentConfirmation,
		}
		if user := s.lookupUser(ctx, order.UserID); user != nil {
			note.UserName = user.Name
			note.UserEmail = user.Email
		}
		for _, item := range order.Items {
			note.Items = append(note.Items, services.OrderItemNotification{
				Name:     item.ProductName,
				Quantity: item.Quantity,
				Price:    item.UnitPrice,
			})
		}
		if err := s.deps.Notifier.NotifyOrderPlaced(ctx, note); err != nil {
			logger.WithError(err).Warn("notify admins")
		}
	}
}
