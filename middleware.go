package bankledger

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

type Middleware func(Service) Service

// Chain wraps svc so that the first middleware is the outermost.
func Chain(svc Service, mws ...Middleware) Service {
	for i := len(mws) - 1; i >= 0; i-- {
		svc = mws[i](svc)
	}
	return svc
}

//
// Logging middleware
//

// loggingMiddleware records the outcome of every call. The ledger core never
// logs; operator visibility of failures is provided here.
type loggingMiddleware struct {
	next Service
	log  *zerolog.Logger
}

var (
	_ Service = (*loggingMiddleware)(nil)
)

func NewLoggingMiddleware(log *zerolog.Logger) Middleware {
	return func(next Service) Service {
		return &loggingMiddleware{
			next: next,
			log:  log,
		}
	}
}

func (l *loggingMiddleware) event(err error) *zerolog.Event {
	switch {
	case err == nil:
		return l.log.Debug()
	case IsBusinessError(err):
		return l.log.Warn().Err(err)
	default:
		return l.log.Error().Err(err)
	}
}

func (l *loggingMiddleware) OpenAccount(req OpenAccountReq) (cust *Customer, err error) {
	defer func(start time.Time) {
		userID, acctNum := req.Identity.UserID, ""
		if cust != nil {
			userID, acctNum = cust.UserID, cust.AccountNumber
		}
		l.event(err).
			Str("method", "open_account").
			Str("user_id", userID).
			Str("account", acctNum).
			Stringer("amount", req.InitialDeposit).
			Dur("took", time.Since(start)).
			Msg("open account")
	}(time.Now())
	return l.next.OpenAccount(req)
}

func (l *loggingMiddleware) Deposit(req ChargeReq) (bal *decimal.Decimal, err error) {
	defer func(start time.Time) {
		l.event(err).
			Str("method", "deposit").
			Str("user_id", req.UserID).
			Stringer("amount", req.Amount).
			Dur("took", time.Since(start)).
			Msg("deposit")
	}(time.Now())
	return l.next.Deposit(req)
}

func (l *loggingMiddleware) Withdraw(req ChargeReq) (bal *decimal.Decimal, err error) {
	defer func(start time.Time) {
		l.event(err).
			Str("method", "withdraw").
			Str("user_id", req.UserID).
			Stringer("amount", req.Amount).
			Dur("took", time.Since(start)).
			Msg("withdraw")
	}(time.Now())
	return l.next.Withdraw(req)
}

func (l *loggingMiddleware) Balance(req BalanceReq) (bal *decimal.Decimal, err error) {
	defer func() {
		l.event(err).Str("method", "balance").Str("user_id", req.UserID).Msg("balance")
	}()
	return l.next.Balance(req)
}

func (l *loggingMiddleware) Lookup(token string) (cust *Customer, err error) {
	defer func() {
		l.event(err).Str("method", "lookup").Str("token", token).Msg("lookup")
	}()
	return l.next.Lookup(token)
}

func (l *loggingMiddleware) History(req HistoryReq) (seq iter.Seq2[LedgerEntry, error], err error) {
	defer func() {
		l.event(err).Str("method", "history").Str("user_id", req.UserID).Msg("history")
	}()
	return l.next.History(req)
}

func (l *loggingMiddleware) Statement(w io.Writer, req StatementReq) (err error) {
	defer func() {
		l.event(err).Str("method", "statement").Str("user_id", req.UserID).Msg("statement")
	}()
	return l.next.Statement(w, req)
}

func (l *loggingMiddleware) Snapshot(req SnapshotReq) (err error) {
	defer func() {
		l.event(err).Str("method", "snapshot").Str("user_id", req.UserID).Msg("snapshot")
	}()
	return l.next.Snapshot(req)
}

//
// Rate limiting middlewares
//

// limitMiddleware limits the number of in-flight requests to the service by using
// a weighted semaphore, i.e., x/sync/semaphore.Semaphore with an acquisition timeout.
// Callers that cannot get a token in time receive ErrOverloaded; the ledger core
// itself never times out, this only sheds load before work is admitted.
type limitMiddleware struct {
	next   Service
	limits *ServiceLimits
}

var (
	_ Service = (*limitMiddleware)(nil)
)

type ServiceLimits struct {
	OpenAccount *semaphore.Weighted
	Deposit     *semaphore.Weighted
	Withdraw    *semaphore.Weighted
	Balance     *semaphore.Weighted
	Statement   *semaphore.Weighted
	Timeout     time.Duration
}

// NewServiceLimits gives every limited method its own budget of n tokens.
func NewServiceLimits(n int64, timeout time.Duration) *ServiceLimits {
	return &ServiceLimits{
		OpenAccount: semaphore.NewWeighted(n),
		Deposit:     semaphore.NewWeighted(n),
		Withdraw:    semaphore.NewWeighted(n),
		Balance:     semaphore.NewWeighted(n),
		Statement:   semaphore.NewWeighted(n),
		Timeout:     timeout,
	}
}

func NewLimitMiddleware(limits *ServiceLimits) Middleware {
	return func(next Service) Service {
		return &limitMiddleware{
			next:   next,
			limits: limits,
		}
	}
}

func (l *limitMiddleware) acquire(sem *semaphore.Weighted) (func(), error) {
	if l.limits.Timeout <= 0 {
		if !sem.TryAcquire(1) {
			return nil, ErrOverloaded
		}
		return func() { sem.Release(1) }, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.limits.Timeout)
	defer cancel()
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, ErrOverloaded
	}
	return func() { sem.Release(1) }, nil
}

func (l *limitMiddleware) OpenAccount(req OpenAccountReq) (*Customer, error) {
	release, err := l.acquire(l.limits.OpenAccount)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.OpenAccount(req)
}

func (l *limitMiddleware) Deposit(req ChargeReq) (*decimal.Decimal, error) {
	release, err := l.acquire(l.limits.Deposit)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Deposit(req)
}

func (l *limitMiddleware) Withdraw(req ChargeReq) (*decimal.Decimal, error) {
	release, err := l.acquire(l.limits.Withdraw)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Withdraw(req)
}

func (l *limitMiddleware) Balance(req BalanceReq) (*decimal.Decimal, error) {
	release, err := l.acquire(l.limits.Balance)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Balance(req)
}

func (l *limitMiddleware) Lookup(token string) (*Customer, error) {
	return l.next.Lookup(token)
}

func (l *limitMiddleware) History(req HistoryReq) (iter.Seq2[LedgerEntry, error], error) {
	return l.next.History(req)
}

func (l *limitMiddleware) Statement(w io.Writer, req StatementReq) error {
	release, err := l.acquire(l.limits.Statement)
	if err != nil {
		return err
	}
	defer release()
	return l.next.Statement(w, req)
}

func (l *limitMiddleware) Snapshot(req SnapshotReq) error {
	return l.next.Snapshot(req)
}

type ServiceBreaker struct {
	OpenAccount *gobreaker.TwoStepCircuitBreaker[*Customer]
	Deposit     *gobreaker.TwoStepCircuitBreaker[*decimal.Decimal]
	Withdraw    *gobreaker.TwoStepCircuitBreaker[*decimal.Decimal]
}

// NewServiceBreaker trips a method's breaker after maxFailures consecutive
// infrastructure failures and keeps it open for openTimeout. Business errors
// such as insufficient funds count as successes.
func NewServiceBreaker(maxFailures uint32, openTimeout time.Duration, log *zerolog.Logger) *ServiceBreaker {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if log != nil {
					log.Warn().
						Str("breaker", name).
						Stringer("from", from).
						Stringer("to", to).
						Msg("circuit breaker state change")
				}
			},
		}
	}
	return &ServiceBreaker{
		OpenAccount: gobreaker.NewTwoStepCircuitBreaker[*Customer](settings("open_account")),
		Deposit:     gobreaker.NewTwoStepCircuitBreaker[*decimal.Decimal](settings("deposit")),
		Withdraw:    gobreaker.NewTwoStepCircuitBreaker[*decimal.Decimal](settings("withdraw")),
	}
}

// circuitBreakMiddleware is a middleware that implements the circuit breaker pattern.
// It guards the mutating methods: when the transaction log keeps failing, further
// balance changes are refused with ErrUnavailable instead of being attempted and
// rolled back one by one.
type circuitBreakMiddleware struct {
	next  Service
	brkrs *ServiceBreaker
}

var (
	_ Service = (*circuitBreakMiddleware)(nil)
)

func NewCircuitBreakMiddleware(brkrs *ServiceBreaker) Middleware {
	return func(next Service) Service {
		return &circuitBreakMiddleware{
			next:  next,
			brkrs: brkrs,
		}
	}
}

func breakerOutcome(err error) bool {
	return err == nil || IsBusinessError(err)
}

func (c *circuitBreakMiddleware) OpenAccount(req OpenAccountReq) (*Customer, error) {
	done, err := c.brkrs.OpenAccount.Allow()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	cust, err := c.next.OpenAccount(req)
	done(breakerOutcome(err))
	return cust, err
}

func (c *circuitBreakMiddleware) Deposit(req ChargeReq) (*decimal.Decimal, error) {
	done, err := c.brkrs.Deposit.Allow()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	bal, err := c.next.Deposit(req)
	done(breakerOutcome(err))
	return bal, err
}

func (c *circuitBreakMiddleware) Withdraw(req ChargeReq) (*decimal.Decimal, error) {
	done, err := c.brkrs.Withdraw.Allow()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	bal, err := c.next.Withdraw(req)
	done(breakerOutcome(err))
	return bal, err
}

func (c *circuitBreakMiddleware) Balance(req BalanceReq) (*decimal.Decimal, error) {
	return c.next.Balance(req)
}

func (c *circuitBreakMiddleware) Lookup(token string) (*Customer, error) {
	return c.next.Lookup(token)
}

func (c *circuitBreakMiddleware) History(req HistoryReq) (iter.Seq2[LedgerEntry, error], error) {
	return c.next.History(req)
}

func (c *circuitBreakMiddleware) Statement(w io.Writer, req StatementReq) error {
	return c.next.Statement(w, req)
}

func (c *circuitBreakMiddleware) Snapshot(req SnapshotReq) error {
	return c.next.Snapshot(req)
}
