package bankledger_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arhyth/bankledger"
	"github.com/arhyth/bankledger/mocks"
)

type tracingService struct {
	bankledger.Service
	name  string
	trace *[]string
}

func (t *tracingService) Balance(req bankledger.BalanceReq) (*decimal.Decimal, error) {
	*t.trace = append(*t.trace, t.name)
	return t.Service.Balance(req)
}

func tracing(name string, trace *[]string) bankledger.Middleware {
	return func(next bankledger.Service) bankledger.Service {
		return &tracingService{Service: next, name: name, trace: trace}
	}
}

func TestChain(t *testing.T) {
	as := assert.New(t)
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	bal := dec("10")
	svc.EXPECT().Balance(bankledger.BalanceReq{UserID: "u1"}).Return(&bal, nil)

	var trace []string
	chained := bankledger.Chain(svc, tracing("outer", &trace), tracing("inner", &trace))
	got, err := chained.Balance(bankledger.BalanceReq{UserID: "u1"})
	as.NoError(err)
	as.Equal(&bal, got)
	as.Equal([]string{"outer", "inner"}, trace)
}

func TestLimitMiddleware(t *testing.T) {
	t.Run("returns ErrOverloaded when every token is taken", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		limited := bankledger.NewLimitMiddleware(bankledger.NewServiceLimits(1, 0))(svc)

		entered := make(chan struct{})
		release := make(chan struct{})
		bal := dec("1")
		svc.EXPECT().
			Deposit(gomock.Any()).
			DoAndReturn(func(bankledger.ChargeReq) (*decimal.Decimal, error) {
				close(entered)
				<-release
				return &bal, nil
			}).
			Times(1)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := limited.Deposit(bankledger.ChargeReq{UserID: "u1", Amount: dec("1")})
			as.NoError(err)
			as.Equal(&bal, got)
		}()
		<-entered

		got, err := limited.Deposit(bankledger.ChargeReq{UserID: "u1", Amount: dec("1")})
		as.Nil(got)
		as.ErrorIs(err, bankledger.ErrOverloaded)

		close(release)
		wg.Wait()
	})

	t.Run("admits a waiting call once a token frees up within the timeout", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		limited := bankledger.NewLimitMiddleware(bankledger.NewServiceLimits(1, 5*time.Second))(svc)

		entered := make(chan struct{}, 1)
		bal := dec("1")
		svc.EXPECT().
			Withdraw(gomock.Any()).
			DoAndReturn(func(bankledger.ChargeReq) (*decimal.Decimal, error) {
				entered <- struct{}{}
				time.Sleep(20 * time.Millisecond)
				return &bal, nil
			}).
			Times(2)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := limited.Withdraw(bankledger.ChargeReq{UserID: "u1", Amount: dec("1")})
			as.NoError(err)
		}()
		<-entered

		_, err := limited.Withdraw(bankledger.ChargeReq{UserID: "u1", Amount: dec("1")})
		as.NoError(err)
		wg.Wait()
	})

	t.Run("does not limit lookups", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		limits := bankledger.NewServiceLimits(1, 0)
		limited := bankledger.NewLimitMiddleware(limits)(svc)
		as.True(limits.Balance.TryAcquire(1))
		defer limits.Balance.Release(1)

		svc.EXPECT().Lookup("u1").Return(&bankledger.Customer{AccountNumber: "ACC1"}, nil)
		cust, err := limited.Lookup("u1")
		as.NoError(err)
		as.Equal("ACC1", cust.AccountNumber)

		_, err = limited.Balance(bankledger.BalanceReq{UserID: "u1"})
		as.ErrorIs(err, bankledger.ErrOverloaded)
	})
}

func TestCircuitBreakMiddleware(t *testing.T) {
	persistFail := bankledger.ErrPersistence{Op: "deposit", Err: errDisk}

	t.Run("refuses calls with ErrUnavailable after consecutive persistence failures", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		brkrs := bankledger.NewServiceBreaker(2, time.Minute, nil)
		guarded := bankledger.NewCircuitBreakMiddleware(brkrs)(svc)

		svc.EXPECT().Deposit(gomock.Any()).Return(nil, persistFail).Times(2)
		for i := 0; i < 2; i++ {
			_, err := guarded.Deposit(bankledger.ChargeReq{UserID: "u1", Amount: dec("5")})
			as.ErrorAs(err, &bankledger.ErrPersistence{})
		}

		bal, err := guarded.Deposit(bankledger.ChargeReq{UserID: "u1", Amount: dec("5")})
		as.Nil(bal)
		as.ErrorIs(err, bankledger.ErrUnavailable)
	})

	t.Run("does not count business errors as failures", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		brkrs := bankledger.NewServiceBreaker(2, time.Minute, nil)
		guarded := bankledger.NewCircuitBreakMiddleware(brkrs)(svc)

		isf := bankledger.ErrInsufficientFunds{Balance: dec("1"), Amount: dec("5")}
		svc.EXPECT().Withdraw(gomock.Any()).Return(nil, isf).Times(5)
		for i := 0; i < 5; i++ {
			_, err := guarded.Withdraw(bankledger.ChargeReq{UserID: "u1", Amount: dec("5")})
			as.ErrorAs(err, &bankledger.ErrInsufficientFunds{})
		}
	})

	t.Run("lets a trial call through after the open timeout", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		brkrs := bankledger.NewServiceBreaker(1, 20*time.Millisecond, nil)
		guarded := bankledger.NewCircuitBreakMiddleware(brkrs)(svc)

		cust := &bankledger.Customer{AccountNumber: "ACC1"}
		gomock.InOrder(
			svc.EXPECT().OpenAccount(gomock.Any()).Return(nil, persistFail),
			svc.EXPECT().OpenAccount(gomock.Any()).Return(cust, nil),
		)
		_, err := guarded.OpenAccount(openReq("u1", "Rahim", "1"))
		as.ErrorAs(err, &bankledger.ErrPersistence{})
		_, err = guarded.OpenAccount(openReq("u1", "Rahim", "1"))
		as.ErrorIs(err, bankledger.ErrUnavailable)

		time.Sleep(50 * time.Millisecond)
		got, err := guarded.OpenAccount(openReq("u1", "Rahim", "1"))
		as.NoError(err)
		as.Equal(cust, got)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	newLogged := func(tt *testing.T) (*mocks.MockService, bankledger.Service, *bytes.Buffer) {
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		buf := new(bytes.Buffer)
		logger := zerolog.New(buf).Level(zerolog.DebugLevel)
		return svc, bankledger.NewLoggingMiddleware(&logger)(svc), buf
	}

	t.Run("passes results through and logs success at debug", func(tt *testing.T) {
		as := assert.New(tt)
		svc, logged, buf := newLogged(tt)
		bal := dec("15")
		svc.EXPECT().Deposit(gomock.Any()).Return(&bal, nil)

		got, err := logged.Deposit(bankledger.ChargeReq{UserID: "u1", Amount: dec("5")})
		as.NoError(err)
		as.Equal(&bal, got)
		as.Contains(buf.String(), `"level":"debug"`)
		as.Contains(buf.String(), `"method":"deposit"`)
		as.Contains(buf.String(), `"amount":"5"`)
	})

	t.Run("logs business errors at warn", func(tt *testing.T) {
		as := assert.New(tt)
		svc, logged, buf := newLogged(tt)
		svc.EXPECT().Withdraw(gomock.Any()).Return(nil, bankledger.ErrInsufficientFunds{Balance: dec("1"), Amount: dec("5")})

		_, err := logged.Withdraw(bankledger.ChargeReq{UserID: "u1", Amount: dec("5")})
		as.ErrorAs(err, &bankledger.ErrInsufficientFunds{})
		as.Contains(buf.String(), `"level":"warn"`)
		as.Contains(buf.String(), `"method":"withdraw"`)
	})

	t.Run("logs persistence failures at error", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc, logged, buf := newLogged(tt)
		svc.EXPECT().OpenAccount(gomock.Any()).Return(nil, bankledger.ErrPersistence{Op: "open", Err: errDisk})

		cust, err := logged.OpenAccount(openReq("u9", "Rahim", "1"))
		as.Nil(cust)
		reqrd.Error(err)
		as.Contains(buf.String(), `"level":"error"`)
		as.Contains(buf.String(), `"user_id":"u9"`)
		as.Contains(buf.String(), errDisk.Error())
	})
}
