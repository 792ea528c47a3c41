// Package domain 结算流程的状态机与失败分类
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/pkg/fsm"
)

// State 结算状态
type State string

const (
	StateIdle               State = "Idle"
	StateStockChecking      State = "StockChecking"
	StateReserving          State = "Reserving"
	StateAuthorizingPayment State = "AuthorizingPayment"
	StatePersisting         State = "Persisting"
	StateCompleted          State = "Completed"
	StateFailed             State = "Failed"
)

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// FailureKind 失败分类
type FailureKind string

const (
	KindValidation        FailureKind = "Validation"
	KindInsufficientStock FailureKind = "InsufficientStock"
	KindPaymentDeclined   FailureKind = "PaymentDeclined"
	KindPersistence       FailureKind = "Persistence"
	KindAuth              FailureKind = "Auth"
	KindInProgress        FailureKind = "InProgress"
	KindUnknown           FailureKind = "Unknown"
)

// ErrIllegalTransition 非法状态迁移
var ErrIllegalTransition = errors.New("illegal checkout transition")

// Failure 结算失败，State 为失败发生时所处的状态
type Failure struct {
	Kind    FailureKind
	State   State
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("checkout failed in %s (%s): %s: %v", f.State, f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("checkout failed in %s (%s): %s", f.State, f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf 取出错误的失败分类，非 Failure 视为 Unknown
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// 结算事件
const (
	EventCheckStock fsm.Event = "CHECK_STOCK"
	EventReserve    fsm.Event = "RESERVE"
	EventAuthorize  fsm.Event = "AUTHORIZE"
	EventPersist    fsm.Event = "PERSIST"
	EventComplete   fsm.Event = "COMPLETE"
	EventFail       fsm.Event = "FAIL"
)

var transitions = []fsm.Transition{
	{From: fsm.State(StateIdle), Event: EventCheckStock, To: fsm.State(StateStockChecking)},
	{From: fsm.State(StateStockChecking), Event: EventReserve, To: fsm.State(StateReserving)},
	{From: fsm.State(StateReserving), Event: EventAuthorize, To: fsm.State(StateAuthorizingPayment)},
	{From: fsm.State(StateAuthorizingPayment), Event: EventPersist, To: fsm.State(StatePersisting)},
	{From: fsm.State(StatePersisting), Event: EventComplete, To: fsm.State(StateCompleted)},
}

var nonTerminal = []State{StateIdle, StateStockChecking, StateReserving, StateAuthorizingPayment, StatePersisting}

// CanTransition 判断迁移是否合法，任何非终止状态都可以进入 Failed
func CanTransition(from, to State) bool {
	if to == StateFailed {
		return !from.Terminal()
	}
	_, ok := eventFor(from, to)
	return ok
}

func eventFor(from, to State) (fsm.Event, bool) {
	for _, t := range transitions {
		if t.From == fsm.State(from) && t.To == fsm.State(to) {
			return t.Event, true
		}
	}
	return "", false
}

// Step 一次状态迁移记录
type Step struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Checkout 单次结算运行
type Checkout struct {
	ID      string
	UserID  string
	State   State
	Failure *Failure
	Trace   []Step
	now     func() time.Time
	fsm     *fsm.Machine
}

// NewCheckout 创建处于 Idle 的结算
func NewCheckout(id, userID string) *Checkout {
	c := &Checkout{ID: id, UserID: userID, State: StateIdle, now: time.Now}
	c.initFSM()
	return c
}

func (c *Checkout) initFSM() {
	m := fsm.NewMachine(fsm.State(c.State))
	for _, t := range transitions {
		m.AddTransition(t.From, t.Event, t.To)
		m.AddHandler(t.From, t.To, c.record)
	}
	for _, s := range nonTerminal {
		m.AddTransition(fsm.State(s), EventFail, fsm.State(StateFailed))
		m.AddHandler(fsm.State(s), fsm.State(StateFailed), c.recordFailure)
	}
	c.fsm = m
}

func (c *Checkout) record(_ context.Context, from, to fsm.State, _ ...any) error {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	c.Trace = append(c.Trace, Step{From: State(from), To: State(to), At: now()})
	return nil
}

func (c *Checkout) recordFailure(ctx context.Context, from, to fsm.State, args ...any) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: failure detail missing", ErrIllegalTransition)
	}
	f, ok := args[0].(*Failure)
	if !ok || f == nil {
		return fmt.Errorf("%w: failure detail missing", ErrIllegalTransition)
	}
	c.Failure = f
	return c.record(ctx, from, to)
}

// Advance 迁移到下一个状态
func (c *Checkout) Advance(to State) error {
	if to == StateFailed {
		return fmt.Errorf("%w: use Fail to enter %s", ErrIllegalTransition, StateFailed)
	}
	event, ok := eventFor(c.State, to)
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.State, to)
	}
	return c.trigger(event)
}

// Fail 以指定分类进入 Failed，返回记录的 Failure
func (c *Checkout) Fail(kind FailureKind, message string, cause error) *Failure {
	f := &Failure{Kind: kind, State: c.State, Message: message, Err: cause}
	if c.State.Terminal() {
		// 已终止的运行保留原来的结果
		if c.Failure != nil {
			return c.Failure
		}
		return f
	}
	_ = c.trigger(EventFail, f)
	return f
}

func (c *Checkout) trigger(event fsm.Event, args ...any) error {
	if c.fsm == nil {
		c.initFSM()
	}
	if err := c.fsm.Trigger(context.Background(), event, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalTransition, err)
	}
	c.State = State(c.fsm.Current())
	return nil
}

// States 迁移轨迹中依次经过的状态
func (c *Checkout) States() []State {
	out := make([]State, 0, len(c.Trace)+1)
	out = append(out, StateIdle)
	for _, s := range c.Trace {
		out = append(out, s.To)
	}
	return out
}
