// Package application 结算编排
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/musicstore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/musicstore/internal/catalog/domain"
	"github.com/wyfcoding/musicstore/internal/checkout/domain"
	orderdomain "github.com/wyfcoding/musicstore/internal/order/domain"
	paymentdomain "github.com/wyfcoding/musicstore/internal/payment/domain"
	userdomain "github.com/wyfcoding/musicstore/internal/user/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// ProductReader 读取实时商品
type ProductReader interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*catalogdomain.Product, error)
}

// ProfileReader 读取配送地址
type ProfileReader interface {
	ShippingAddress(ctx context.Context, userID string) (userdomain.Address, error)
}

// OrderWriter 幂等写入订单
type OrderWriter interface {
	Create(ctx context.Context, order *orderdomain.Order) error
}

// EventPublisher 事件发布
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Config 编排参数
type Config struct {
	Currency        string
	StepTimeout     time.Duration
	PersistAttempts uint
	PersistBackoff  time.Duration
	LockTTL         time.Duration
}

const (
	// maxPersistBackoff 持久化重试的最大间隔
	maxPersistBackoff = 5 * time.Second
	// fixedSteps 除持久化外带超时的步骤数：地址、库存、预留、付款，以及清空购物车与两次事件发布
	fixedSteps = 7
)

// RunBudget 单次结算的最长耗时，结算锁有效期必须大于它
func (c Config) RunBudget() time.Duration {
	return c.withDefaults().runBudget()
}

func (c Config) runBudget() time.Duration {
	budget := time.Duration(uint(fixedSteps)+c.PersistAttempts) * c.StepTimeout
	wait := c.PersistBackoff
	for i := uint(1); i < c.PersistAttempts; i++ {
		// 随机化系数 0.5，单次等待不超过当前间隔的 1.5 倍
		budget += wait + wait/2
		wait = min(wait+wait/2, maxPersistBackoff)
	}
	return budget
}

func (c Config) withDefaults() Config {
	if c.Currency == "" {
		c.Currency = "jpy"
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = 10 * time.Second
	}
	if c.PersistAttempts == 0 {
		c.PersistAttempts = 3
	}
	if c.PersistBackoff <= 0 {
		c.PersistBackoff = 200 * time.Millisecond
	}
	if budget := c.runBudget(); c.LockTTL <= budget {
		c.LockTTL = budget + c.StepTimeout
	}
	return c
}

// Command 结算请求
type Command struct {
	UserID        string
	PaymentMethod string
	Confirmed     bool
	Cart          domain.Cart
}

// Orchestrator 结算编排器
type Orchestrator struct {
	products  ProductReader
	stock     catalogdomain.StockLedger
	profiles  ProfileReader
	orders    OrderWriter
	gateway   paymentdomain.Gateway
	locker    domain.Locker
	publisher EventPublisher
	recorder  domain.Recorder
	cfg       Config
	newID     func() string
	now       func() time.Time
}

// Deps 编排器依赖，Locker、Publisher、Recorder 可为 nil
type Deps struct {
	Products  ProductReader
	Stock     catalogdomain.StockLedger
	Profiles  ProfileReader
	Orders    OrderWriter
	Gateway   paymentdomain.Gateway
	Locker    domain.Locker
	Publisher EventPublisher
	Recorder  domain.Recorder
}

// NewOrchestrator 创建结算编排器
func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	return &Orchestrator{
		products:  deps.Products,
		stock:     deps.Stock,
		profiles:  deps.Profiles,
		orders:    deps.Orders,
		gateway:   deps.Gateway,
		locker:    deps.Locker,
		publisher: deps.Publisher,
		recorder:  deps.Recorder,
		cfg:       cfg.withDefaults(),
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// run 单次结算的运行上下文
type run struct {
	co       *domain.Checkout
	method   string
	lines    []domain.LineItem
	stock    []catalogdomain.StockLine
	total    int64
	shipping orderdomain.ShippingAddress
	auth     *paymentdomain.Authorization
	order    *orderdomain.Order
}

// Checkout 执行一次结算，失败时返回 *domain.Failure
func (o *Orchestrator) Checkout(ctx context.Context, cmd Command) (*domain.Result, error) {
	co := domain.NewCheckout(o.newID(), cmd.UserID)
	r := &run{co: co, method: strings.TrimSpace(cmd.PaymentMethod)}
	defer logger.LogDuration(ctx, "checkout run finished", "checkout_id", co.ID, "user_id", cmd.UserID)()

	if f := o.validate(co, cmd); f != nil {
		return nil, o.finish(ctx, r, f)
	}
	r.lines = cmd.Cart.Items()
	r.total = domain.Total(r.lines)

	lockKey := "checkout:lock:" + cmd.UserID
	if o.locker != nil {
		token, ok, err := o.locker.Acquire(ctx, lockKey, o.cfg.LockTTL)
		if err != nil {
			return nil, o.finish(ctx, r, co.Fail(domain.KindUnknown, "checkout lock unavailable", err))
		}
		if !ok {
			return nil, o.finish(ctx, r, co.Fail(domain.KindInProgress, "checkout already in progress", nil))
		}
		defer func() {
			if err := o.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
				logger.Warn(ctx, "failed to release checkout lock", "user_id", cmd.UserID, "error", err)
			}
		}()
	}

	if f := o.loadShipping(ctx, r); f != nil {
		return nil, o.finish(ctx, r, f)
	}
	if f := o.checkStock(ctx, r); f != nil {
		return nil, o.finish(ctx, r, f)
	}
	if f := o.reserve(ctx, r); f != nil {
		return nil, o.finish(ctx, r, f)
	}
	if f := o.authorize(ctx, r); f != nil {
		return nil, o.finish(ctx, r, f)
	}

	// 付款已发出，后续步骤不再跟随调用方取消
	detached := context.WithoutCancel(ctx)
	if f := o.persist(detached, r); f != nil {
		return nil, o.finish(detached, r, f)
	}
	if err := co.Advance(domain.StateCompleted); err != nil {
		return nil, o.finish(detached, r, co.Fail(domain.KindUnknown, "state machine rejected completion", err))
	}
	o.complete(detached, r, cmd.Cart)
	_ = o.finish(detached, r, nil)

	return &domain.Result{
		OrderID:     r.order.ID,
		TotalAmount: r.total,
		Redirect:    domain.RedirectConfirm,
		Trace:       co.Trace,
	}, nil
}

func (o *Orchestrator) validate(co *domain.Checkout, cmd Command) *domain.Failure {
	switch {
	case strings.TrimSpace(cmd.UserID) == "":
		return co.Fail(domain.KindAuth, "sign-in required", nil)
	case cmd.Cart == nil || len(cmd.Cart.Items()) == 0:
		return co.Fail(domain.KindValidation, "cart is empty", nil)
	case strings.TrimSpace(cmd.PaymentMethod) == "":
		return co.Fail(domain.KindValidation, "payment method is required", nil)
	case !cmd.Confirmed:
		return co.Fail(domain.KindValidation, "order must be confirmed", nil)
	}
	for _, l := range cmd.Cart.Items() {
		if l.Quantity <= 0 || l.Price <= 0 {
			return co.Fail(domain.KindValidation, fmt.Sprintf("invalid cart line %s", l.ProductID), nil)
		}
	}
	return nil
}

func (o *Orchestrator) loadShipping(ctx context.Context, r *run) *domain.Failure {
	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	addr, err := o.profiles.ShippingAddress(stepCtx, r.co.UserID)
	if errors.Is(err, userdomain.ErrProfileNotFound) {
		return r.co.Fail(domain.KindValidation, "shipping profile is required", err)
	}
	if err != nil {
		return r.co.Fail(domain.KindUnknown, "failed to read profile", err)
	}
	r.shipping = orderdomain.ShippingAddress{
		PostalCode:  addr.PostalCode,
		Prefecture:  addr.Prefecture,
		City:        addr.City,
		AddressLine: addr.AddressLine,
	}
	return nil
}

func (o *Orchestrator) checkStock(ctx context.Context, r *run) *domain.Failure {
	co := r.co
	if err := co.Advance(domain.StateStockChecking); err != nil {
		return co.Fail(domain.KindUnknown, "state machine rejected stock check", err)
	}
	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	ids := make([]string, 0, len(r.lines))
	for _, l := range r.lines {
		ids = append(ids, l.ProductID)
	}
	products, err := o.products.GetByIDs(stepCtx, ids)
	if err != nil {
		return co.Fail(domain.KindUnknown, "failed to read catalog", err)
	}

	requested := make([]catalogdomain.StockLine, 0, len(r.lines))
	for _, l := range r.lines {
		requested = append(requested, catalogdomain.StockLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	r.stock = catalogdomain.NormalizeLines(requested)

	for _, l := range r.lines {
		p, ok := products[l.ProductID]
		if !ok || p == nil {
			return co.Fail(domain.KindInsufficientStock, fmt.Sprintf("product %s is no longer available", l.ProductID), nil)
		}
		if p.Price != l.Price {
			return co.Fail(domain.KindValidation, fmt.Sprintf("price changed for %s", p.Name), nil)
		}
	}
	for _, s := range r.stock {
		if p := products[s.ProductID]; !p.HasStock(s.Quantity) {
			return co.Fail(domain.KindInsufficientStock, fmt.Sprintf("insufficient stock for %s", p.Name), nil)
		}
	}
	return nil
}

func (o *Orchestrator) reserve(ctx context.Context, r *run) *domain.Failure {
	co := r.co
	if err := co.Advance(domain.StateReserving); err != nil {
		return co.Fail(domain.KindUnknown, "state machine rejected reservation", err)
	}
	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	if err := o.stock.Reserve(stepCtx, r.stock); err != nil {
		var short *catalogdomain.InsufficientStockError
		if errors.As(err, &short) {
			if o.recorder != nil {
				o.recorder.RecordReservationFailure()
			}
			return co.Fail(domain.KindInsufficientStock, fmt.Sprintf("insufficient stock for product %s", short.ProductID), err)
		}
		return co.Fail(domain.KindUnknown, "failed to reserve stock", err)
	}
	return nil
}

func (o *Orchestrator) authorize(ctx context.Context, r *run) *domain.Failure {
	co := r.co
	if err := co.Advance(domain.StateAuthorizingPayment); err != nil {
		o.release(context.WithoutCancel(ctx), r)
		return co.Fail(domain.KindUnknown, "state machine rejected payment", err)
	}

	amount, err := paymentdomain.ToMinorUnits(decimal.NewFromInt(r.total), o.cfg.Currency)
	if err != nil {
		o.release(context.WithoutCancel(ctx), r)
		return co.Fail(domain.KindValidation, "invalid order amount", err)
	}
	req := paymentdomain.AuthorizeRequest{
		Amount:         amount,
		Currency:       o.cfg.Currency,
		PaymentMethod:  r.method,
		IdempotencyKey: co.ID,
		Metadata:       map[string]string{"checkout_id": co.ID, "user_id": co.UserID},
	}

	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()
	start := time.Now()
	auth, err := o.gateway.Authorize(stepCtx, req)
	elapsed := time.Since(start)

	switch {
	case err == nil && auth.Succeeded():
		o.recordPayment("succeeded", elapsed)
		r.auth = auth
		return nil
	case err == nil:
		status := "unknown"
		if auth != nil {
			status = auth.Status
		}
		o.recordPayment("declined", elapsed)
		o.release(context.WithoutCancel(ctx), r)
		return co.Fail(domain.KindPaymentDeclined, fmt.Sprintf("payment not completed (status %s)", status), nil)
	case paymentdomain.IsDeclined(err):
		var declined *paymentdomain.DeclinedError
		errors.As(err, &declined)
		o.recordPayment("declined", elapsed)
		o.release(context.WithoutCancel(ctx), r)
		return co.Fail(domain.KindPaymentDeclined, declined.Message, err)
	case paymentdomain.IsUnavailable(err) && ctx.Err() == nil:
		o.recordPayment("unavailable", elapsed)
		o.release(context.WithoutCancel(ctx), r)
		return co.Fail(domain.KindPaymentDeclined, "payment could not be processed, please try again", err)
	default:
		o.recordPayment("error", elapsed)
		o.release(context.WithoutCancel(ctx), r)
		return co.Fail(domain.KindUnknown, "payment failed", err)
	}
}

func (o *Orchestrator) persist(ctx context.Context, r *run) *domain.Failure {
	co := r.co
	if err := co.Advance(domain.StatePersisting); err != nil {
		o.compensate(ctx, r)
		return co.Fail(domain.KindUnknown, "state machine rejected persistence", err)
	}

	items := make([]orderdomain.LineItem, 0, len(r.lines))
	for _, l := range r.lines {
		items = append(items, orderdomain.LineItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			ImageURL:  l.ImageURL,
		})
	}
	order, err := orderdomain.NewOrder(co.ID, co.UserID, items, r.shipping, r.auth.IntentID, o.now())
	if err != nil {
		o.compensate(ctx, r)
		return co.Fail(domain.KindPersistence, "failed to build order", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = o.cfg.PersistBackoff
	policy.MaxInterval = maxPersistBackoff
	write := func() (struct{}, error) {
		stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
		defer cancel()
		return struct{}{}, o.orders.Create(stepCtx, order)
	}
	if _, err := backoff.Retry(ctx, write,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(o.cfg.PersistAttempts),
	); err != nil {
		logger.Error(ctx, "order persistence failed after retries", "checkout_id", co.ID, "error", err)
		o.compensate(ctx, r)
		return co.Fail(domain.KindPersistence, "failed to save order", err)
	}
	r.order = order
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, r *run, cart domain.Cart) {
	clearCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	err := cart.Clear(clearCtx)
	cancel()
	if err != nil {
		logger.Warn(ctx, "failed to clear cart", "checkout_id", r.co.ID, "error", err)
	}
	if o.publisher != nil {
		o.publish(ctx, orderdomain.TopicOrderCreated, r.order.ID, orderdomain.NewOrderCreatedEvent(r.order))
		if err == nil {
			o.publish(ctx, cartdomain.TopicCartCleared, r.co.UserID, cartdomain.CartClearedEvent{
				OwnerID:   r.co.UserID,
				Reason:    "checkout " + r.co.ID,
				Timestamp: o.now(),
			})
		}
	}
	logger.Info(ctx, "checkout completed", "order_id", r.order.ID, "user_id", r.co.UserID, "total", r.total)
}

func (o *Orchestrator) publish(ctx context.Context, topic, key string, event any) {
	pubCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()
	if err := o.publisher.Publish(pubCtx, topic, key, event); err != nil {
		logger.Warn(ctx, "failed to publish event", "topic", topic, "key", key, "error", err)
	}
}

// compensate 退款并释放库存
func (o *Orchestrator) compensate(ctx context.Context, r *run) {
	if r.auth != nil {
		stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
		err := o.gateway.Refund(stepCtx, r.auth.IntentID, "refund-"+r.co.ID)
		cancel()
		o.recordCompensation("refund", err)
		if err != nil {
			logger.Error(ctx, "refund failed, manual action required",
				"checkout_id", r.co.ID, "payment_intent_id", r.auth.IntentID, "error", err)
		}
	}
	o.release(ctx, r)
}

func (o *Orchestrator) release(ctx context.Context, r *run) {
	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()
	err := o.stock.Release(stepCtx, r.stock)
	o.recordCompensation("release", err)
	if err != nil {
		logger.Error(ctx, "failed to release reserved stock", "checkout_id", r.co.ID, "error", err)
	}
}

func (o *Orchestrator) finish(ctx context.Context, r *run, f *domain.Failure) error {
	if o.recorder != nil {
		kind := ""
		if f != nil {
			kind = string(f.Kind)
		}
		o.recorder.RecordCheckout(string(r.co.State), kind)
	}
	if f == nil {
		return nil
	}
	logger.Warn(ctx, "checkout failed",
		"checkout_id", r.co.ID, "user_id", r.co.UserID,
		"kind", string(f.Kind), "state", string(f.State), "message", f.Message)
	return f
}

func (o *Orchestrator) recordPayment(outcome string, d time.Duration) {
	if o.recorder != nil {
		o.recorder.RecordPayment(outcome, d)
	}
}

func (o *Orchestrator) recordCompensation(action string, err error) {
	if o.recorder != nil {
		o.recorder.RecordCompensation(action, err)
	}
}
