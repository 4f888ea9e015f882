package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/flightsurety/internal/audit/domain"
	auditrepo "github.com/smallbiznis/flightsurety/internal/audit/repository"
	auditservice "github.com/smallbiznis/flightsurety/internal/audit/service"
	"github.com/smallbiznis/flightsurety/internal/clock"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/events"
	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"github.com/smallbiznis/flightsurety/internal/ledger/repository"
	"github.com/smallbiznis/flightsurety/internal/sequencer"
	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
	walletrepo "github.com/smallbiznis/flightsurety/internal/wallet/repository"
	walletservice "github.com/smallbiznis/flightsurety/internal/wallet/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const unit = int64(10_000_000_000)

var (
	owner      = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	treasury   = common.HexToAddress("0x0000000000000000000000000000000000007ea5")
	controller = common.HexToAddress("0x000000000000000000000000000000000000c0de")
	firstAir   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	secondAir  = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	passenger  = common.HexToAddress("0x000000000000000000000000000000000000beef")
	stranger   = common.HexToAddress("0x0000000000000000000000000000000000005a5a")
	rejecting  = common.HexToAddress("0x000000000000000000000000000000000000dead")
)

type harness struct {
	svc    *Service
	db     *gorm.DB
	wallet walletdomain.Service
	hub    *events.Hub
	clock  *clock.FakeClock
}

type option func(*Params)

func withValueTransfer(vt domain.ValueTransfer) option {
	return func(p *Params) { p.Wallet = vt }
}

func setup(t *testing.T, opts ...option) *harness {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	models := append(domain.Models(),
		&events.Event{},
		&auditdomain.AuditLog{},
		&walletdomain.Account{},
		&walletdomain.Transfer{},
		&walletdomain.TransferLine{},
	)
	require.NoError(t, db.AutoMigrate(models...))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	cfg := config.Config{}
	cfg.Contract.RejectedRecipients = []string{rejecting.Hex()}
	wallet := walletservice.NewService(walletservice.Params{
		DB:     db,
		Log:    log,
		GenID:  node,
		Repo:   walletrepo.Provide(),
		Clock:  clk,
		Config: cfg,
	})
	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  auditrepo.Provide(),
		Clock: clk,
	})
	hub := events.NewHub()

	params := Params{
		DB:   db,
		Log:  log,
		Repo: repository.Provide(),
		Settings: domain.Settings{
			Owner:            owner,
			Treasury:         treasury,
			Controller:       controller,
			FirstAirline:     firstAir,
			FirstAirlineName: "Founding Air",
		},
		Policy:     config.NewStaticPolicyHolder(config.DefaultPolicy()),
		Wallet:     wallet,
		Sequencer:  sequencer.NewLocal(nil),
		Outbox:     events.NewOutbox(node),
		Clock:      clk,
		Dispatcher: events.NewDispatcher(hub, log),
		AuditSvc:   audit,
	}
	for _, opt := range opts {
		opt(&params)
	}

	svc := NewService(params).(*Service)
	require.NoError(t, svc.Bootstrap(context.Background()))
	return &harness{svc: svc, db: db, wallet: wallet, hub: hub, clock: clk}
}

func call(from common.Address) domain.Call {
	return domain.Call{From: from}
}

func pay(from common.Address, value int64) domain.Call {
	return domain.Call{From: from, Value: value}
}

func (h *harness) deposit(t *testing.T, addr common.Address, amount int64) {
	t.Helper()
	_, err := h.wallet.Deposit(context.Background(), addr, amount)
	require.NoError(t, err)
}

func (h *harness) eventNames(t *testing.T) []events.Name {
	t.Helper()
	res, err := h.svc.ListEvents(context.Background(), domain.ListEventsRequest{})
	require.NoError(t, err)
	names := make([]events.Name, 0, len(res.Events))
	for _, e := range res.Events {
		names = append(names, e.Name)
	}
	return names
}

func TestBootstrapIsIdempotent(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	require.NoError(t, h.svc.Bootstrap(ctx))

	operational, err := h.svc.IsOperational(ctx)
	require.NoError(t, err)
	assert.True(t, operational)

	for _, addr := range []common.Address{owner, controller, firstAir} {
		ok, err := h.svc.IsAuthorizedCaller(ctx, addr)
		require.NoError(t, err)
		assert.True(t, ok, addr.Hex())
	}

	airline, err := h.svc.GetAirline(ctx, firstAir)
	require.NoError(t, err)
	assert.True(t, airline.IsRegistered)
	assert.False(t, airline.IsFunded)
	assert.Equal(t, "Founding Air", airline.Name)

	registry, err := h.svc.MultiSigAirlines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{firstAir}, registry)

	var authorized int64
	require.NoError(t, h.db.Model(&domain.AuthorizedCaller{}).Count(&authorized).Error)
	assert.Equal(t, int64(3), authorized)
}

func TestAuthorizationRoundTrip(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	require.NoError(t, h.svc.AuthorizeCaller(ctx, call(owner), stranger))
	ok, err := h.svc.IsAuthorizedCaller(ctx, stranger)
	require.NoError(t, err)
	assert.True(t, ok)

	err = h.svc.AuthorizeCaller(ctx, call(owner), stranger)
	assert.ErrorIs(t, err, domain.ErrAlreadyAuthorized)

	require.NoError(t, h.svc.DeauthorizeCaller(ctx, call(owner), stranger))
	ok, err = h.svc.IsAuthorizedCaller(ctx, stranger)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeauthorizeIsIdempotent(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, h.svc.DeauthorizeCaller(ctx, call(owner), stranger))
		ok, err := h.svc.IsAuthorizedCaller(ctx, stranger)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	names := h.eventNames(t)
	deauthorized := 0
	for _, n := range names {
		if n == events.ContractDeauthorized {
			deauthorized++
		}
	}
	assert.Equal(t, 2, deauthorized)
}

func TestAuthorizeRequiresAuthorizedCaller(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	err := h.svc.AuthorizeCaller(ctx, call(stranger), secondAir)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	err = h.svc.AuthorizeCaller(ctx, call(owner), common.Address{})
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)

	err = h.svc.DeauthorizeCaller(ctx, call(stranger), owner)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthorizeWritesAuditLog(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	require.NoError(t, h.svc.AuthorizeCaller(ctx, call(owner), stranger))

	var entry auditdomain.AuditLog
	require.NoError(t, h.db.Where("action = ? AND target_id = ?", "caller.authorize", stranger.Hex()).Take(&entry).Error)
	assert.Equal(t, owner.Hex(), entry.Metadata["authorized_by"])
}

func TestRegisterAirline(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	ok, err := h.svc.RegisterAirline(ctx, call(firstAir), secondAir, "Second Air")
	require.NoError(t, err)
	assert.True(t, ok)

	registered, err := h.svc.IsAirline(ctx, secondAir)
	require.NoError(t, err)
	assert.True(t, registered)

	airline, err := h.svc.GetAirline(ctx, secondAir)
	require.NoError(t, err)
	assert.False(t, airline.IsFunded)

	_, err = h.svc.RegisterAirline(ctx, call(firstAir), secondAir, "Second Air")
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)

	_, err = h.svc.RegisterAirline(ctx, call(stranger), stranger, "Nope")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.svc.RegisterAirline(ctx, call(firstAir), common.Address{}, "Zero")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)

	registry, err := h.svc.MultiSigAirlines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{firstAir, secondAir}, registry)

	_, err = h.svc.GetAirline(ctx, stranger)
	assert.ErrorIs(t, err, domain.ErrNoSuchAirline)
}

func TestRegisterKeepsEarlierFunding(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	h.deposit(t, secondAir, unit)
	require.NoError(t, h.svc.Fund(ctx, pay(secondAir, unit), secondAir, 0))

	_, err := h.svc.RegisterAirline(ctx, call(firstAir), secondAir, "Second Air")
	require.NoError(t, err)

	airline, err := h.svc.GetAirline(ctx, secondAir)
	require.NoError(t, err)
	assert.True(t, airline.IsRegistered)
	assert.True(t, airline.IsFunded)
	assert.Equal(t, unit, airline.Funds)
}

func TestFundingExclusivity(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	h.deposit(t, firstAir, 3*unit)

	err := h.svc.Fund(ctx, pay(firstAir, unit-1), firstAir, 0)
	assert.ErrorIs(t, err, domain.ErrWrongAmount)
	err = h.svc.Fund(ctx, pay(firstAir, unit), firstAir, unit+1)
	assert.ErrorIs(t, err, domain.ErrWrongAmount)

	require.NoError(t, h.svc.Fund(ctx, pay(firstAir, unit), firstAir, unit))

	err = h.svc.Fund(ctx, pay(firstAir, unit), firstAir, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadyFunded)
	err = h.svc.Fund(ctx, pay(firstAir, 2*unit), firstAir, 0)
	assert.ErrorIs(t, err, domain.ErrWrongAmount)

	funds, err := h.svc.CheckFunds(ctx, firstAir)
	require.NoError(t, err)
	assert.Equal(t, unit, funds)

	funded, err := h.svc.GetNumOfFundedAirlines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{firstAir}, funded)

	balance, err := h.wallet.Balance(ctx, treasury)
	require.NoError(t, err)
	assert.Equal(t, unit, balance)
	balance, err = h.wallet.Balance(ctx, firstAir)
	require.NoError(t, err)
	assert.Equal(t, 2*unit, balance)
}

func TestFundWithoutBalanceRollsBack(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	err := h.svc.Fund(ctx, pay(firstAir, unit), firstAir, 0)
	assert.ErrorIs(t, err, walletdomain.ErrInsufficientBalance)

	_, err = h.svc.CheckFunds(ctx, firstAir)
	assert.ErrorIs(t, err, domain.ErrNotFunded)
	assert.NotContains(t, h.eventNames(t), events.FundedByAirline)
}

func TestCheckFundsRequiresFunded(t *testing.T) {
	h := setup(t)
	_, err := h.svc.CheckFunds(context.Background(), stranger)
	assert.ErrorIs(t, err, domain.ErrNotFunded)
}

func TestResetAirlineFunding(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	h.deposit(t, firstAir, 2*unit)
	require.NoError(t, h.svc.Fund(ctx, pay(firstAir, unit), firstAir, 0))

	err := h.svc.ResetAirlineFunding(ctx, call(firstAir), firstAir)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, h.svc.ResetAirlineFunding(ctx, call(owner), firstAir))
	_, err = h.svc.CheckFunds(ctx, firstAir)
	assert.ErrorIs(t, err, domain.ErrNotFunded)
	funded, err := h.svc.GetNumOfFundedAirlines(ctx)
	require.NoError(t, err)
	assert.Empty(t, funded)

	require.NoError(t, h.svc.Fund(ctx, pay(firstAir, unit), firstAir, 0))
	funds, err := h.svc.CheckFunds(ctx, firstAir)
	require.NoError(t, err)
	assert.Equal(t, unit, funds)

	err = h.svc.ResetAirlineFunding(ctx, call(owner), stranger)
	assert.ErrorIs(t, err, domain.ErrNoSuchAirline)
}

func TestBuyOverwritesInsurance(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	h.deposit(t, passenger, 1_000)

	_, err := h.svc.InsuranceQuery(ctx, passenger)
	assert.ErrorIs(t, err, domain.ErrNoSuchInsurance)

	require.NoError(t, h.svc.Buy(ctx, pay(passenger, 100), passenger, "ND1309"))
	require.NoError(t, h.svc.Buy(ctx, pay(passenger, 200), passenger, "ND1310"))

	view, err := h.svc.InsuranceQuery(ctx, passenger)
	require.NoError(t, err)
	assert.Equal(t, "ND1310", view.Flight)
	assert.Equal(t, int64(200), view.Amount)

	err = h.svc.Buy(ctx, pay(passenger, 0), passenger, "ND1309")
	assert.ErrorIs(t, err, domain.ErrZeroValue)
	err = h.svc.Buy(ctx, pay(passenger, 10), common.Address{}, "ND1309")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)

	balance, err := h.wallet.Balance(ctx, treasury)
	require.NoError(t, err)
	assert.Equal(t, int64(300), balance)

	res, err := h.svc.ListEvents(ctx, domain.ListEventsRequest{Name: string(events.InsuranceBought)})
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "200", res.Events[1].Attr("amount"))
	assert.Equal(t, "ND1310", res.Events[1].Attr("flight"))
}

func TestCreditComputation(t *testing.T) {
	cases := []struct {
		premium int64
		credit  int64
	}{
		{premium: 1_000_000_000, credit: 1_500_000_000},
		{premium: 1, credit: 1},
		{premium: 3, credit: 4},
		{premium: 7, credit: 10},
	}

	h := setup(t)
	ctx := context.Background()
	h.deposit(t, passenger, 2_000_000_000)

	for _, tc := range cases {
		require.NoError(t, h.svc.Buy(ctx, pay(passenger, tc.premium), passenger, "ND1309"))
		credit, err := h.svc.CreditInsurees(ctx, call(stranger), passenger)
		require.NoError(t, err)
		assert.Equal(t, tc.credit, credit, "premium %d", tc.premium)

		pending, err := h.svc.PendingCreditQuery(ctx, passenger)
		require.NoError(t, err)
		assert.Equal(t, tc.credit, pending)
	}
}

func TestMultiplyCreditOverflow(t *testing.T) {
	_, err := multiplyCredit(math.MaxInt64/3+1, 3, 2)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)

	credit, err := multiplyCredit(math.MaxInt64/3, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64/3*3/2), credit)
}

func TestCreditRequiresInsurance(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	_, err := h.svc.CreditInsurees(ctx, call(owner), passenger)
	assert.ErrorIs(t, err, domain.ErrNoSuchInsurance)

	_, err = h.svc.PendingCreditQuery(ctx, passenger)
	assert.ErrorIs(t, err, domain.ErrNoSuchInsurance)
}

func TestPendingCreditWithoutCreditIsZero(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	h.deposit(t, passenger, 100)
	require.NoError(t, h.svc.Buy(ctx, pay(passenger, 100), passenger, "ND1309"))

	pending, err := h.svc.PendingCreditQuery(ctx, passenger)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestPayAtMostOnce(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	h.deposit(t, passenger, 100)
	h.deposit(t, treasury, 1_000)

	require.NoError(t, h.svc.Buy(ctx, pay(passenger, 100), passenger, "ND1309"))
	_, err := h.svc.CreditInsurees(ctx, call(owner), passenger)
	require.NoError(t, err)

	paid, err := h.svc.Pay(ctx, call(passenger))
	require.NoError(t, err)
	assert.Equal(t, int64(150), paid)

	_, err = h.svc.Pay(ctx, call(passenger))
	assert.ErrorIs(t, err, domain.ErrZeroCredit)

	balance, err := h.wallet.Balance(ctx, passenger)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	pending, err := h.svc.PendingCreditQuery(ctx, passenger)
	require.NoError(t, err)
	assert.Zero(t, pending)

	_, err = h.svc.Pay(ctx, call(stranger))
	assert.ErrorIs(t, err, domain.ErrNoSuchInsurance)
}

func TestPayRollsBackWhenRecipientRejects(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	h.deposit(t, rejecting, 100)
	h.deposit(t, treasury, 1_000)

	require.NoError(t, h.svc.Buy(ctx, pay(rejecting, 100), rejecting, "ND1309"))
	_, err := h.svc.CreditInsurees(ctx, call(owner), rejecting)
	require.NoError(t, err)

	_, err = h.svc.Pay(ctx, call(rejecting))
	assert.ErrorIs(t, err, walletdomain.ErrRecipientRejected)

	pending, err := h.svc.PendingCreditQuery(ctx, rejecting)
	require.NoError(t, err)
	assert.Equal(t, int64(150), pending)
	assert.NotContains(t, h.eventNames(t), events.InsurancePayoutPaid)
}

type mockTransfer struct {
	mock.Mock
}

func (m *mockTransfer) Transfer(ctx context.Context, tx *gorm.DB, from, to common.Address, amount int64, memo string) error {
	args := m.Called(ctx, tx, from, to, amount, memo)
	return args.Error(0)
}

func TestPayZeroesCreditBeforeTransfer(t *testing.T) {
	transfers := &mockTransfer{}
	h := setup(t, withValueTransfer(transfers))
	ctx := context.Background()

	transfers.On("Transfer", mock.Anything, mock.Anything, passenger, treasury, int64(100), mock.Anything).
		Return(nil).Once()

	creditDuringTransfer := int64(-1)
	transfers.On("Transfer", mock.Anything, mock.Anything, treasury, passenger, int64(150), mock.Anything).
		Run(func(args mock.Arguments) {
			tx := args.Get(1).(*gorm.DB)
			credit, err := repository.Provide().GetCredit(ctx, tx, passenger.Hex())
			require.NoError(t, err)
			creditDuringTransfer = credit
		}).
		Return(errors.New("transfer failed")).Once()

	require.NoError(t, h.svc.Buy(ctx, pay(passenger, 100), passenger, "ND1309"))
	_, err := h.svc.CreditInsurees(ctx, call(owner), passenger)
	require.NoError(t, err)

	_, err = h.svc.Pay(ctx, call(passenger))
	require.Error(t, err)
	assert.Zero(t, creditDuringTransfer)

	pending, err := h.svc.PendingCreditQuery(ctx, passenger)
	require.NoError(t, err)
	assert.Equal(t, int64(150), pending)
	transfers.AssertExpectations(t)
}

func TestFlights(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	ts := uint64(1_700_000_000)
	key := h.svc.DeriveFlightKey(secondAir, "ND1309", ts)

	view, err := h.svc.GetRegisteredFlight(ctx, key)
	require.NoError(t, err)
	assert.False(t, view.Registered)
	assert.Equal(t, common.Address{}, view.Airline)

	_, err = h.svc.SetFlightStatus(ctx, call(owner), key, domain.StatusOnTime)
	assert.ErrorIs(t, err, domain.ErrNoSuchFlight)

	require.NoError(t, h.svc.RegisterFlight(ctx, call(secondAir), domain.StatusUnknown, ts, secondAir, key))
	registered, err := h.svc.IsFlightRegistered(ctx, key)
	require.NoError(t, err)
	assert.True(t, registered)

	status, err := h.svc.SetFlightStatus(ctx, call(secondAir), key, domain.StatusLateAirline)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLateAirline, status)

	_, err = h.svc.SetFlightStatus(ctx, call(stranger), key, domain.StatusOnTime)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.svc.SetFlightStatus(ctx, call(owner), key, domain.StatusLateWeather)
	require.NoError(t, err)

	view, err = h.svc.GetRegisteredFlight(ctx, key)
	require.NoError(t, err)
	assert.True(t, view.Registered)
	assert.Equal(t, domain.StatusLateWeather, view.StatusCode)
	assert.Equal(t, ts, view.Timestamp)
	assert.Equal(t, secondAir, view.Airline)
}

func TestRegisterFlightRejectsUnstorableTimestamp(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	ts := uint64(math.MaxInt64) + 1
	key := h.svc.DeriveFlightKey(secondAir, "ND1309", ts)

	err := h.svc.RegisterFlight(ctx, call(secondAir), domain.StatusUnknown, ts, secondAir, key)
	require.ErrorIs(t, err, domain.ErrInvalidTimestamp)
	assert.True(t, domain.IsRejection(err))

	registered, err := h.svc.IsFlightRegistered(ctx, key)
	require.NoError(t, err)
	assert.False(t, registered)

	ts = domain.MaxFlightTimestamp
	key = h.svc.DeriveFlightKey(secondAir, "ND1309", ts)
	require.NoError(t, h.svc.RegisterFlight(ctx, call(secondAir), domain.StatusUnknown, ts, secondAir, key))
	view, err := h.svc.GetRegisteredFlight(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, ts, view.Timestamp)
}

func TestOperationalGate(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	h.deposit(t, passenger, 1_000)
	h.deposit(t, secondAir, unit)
	require.NoError(t, h.svc.Buy(ctx, pay(passenger, 100), passenger, "ND1309"))
	key := h.svc.DeriveFlightKey(firstAir, "ND1309", 1)
	require.NoError(t, h.svc.RegisterFlight(ctx, call(firstAir), 0, 1, firstAir, key))

	err := h.svc.SetOperatingStatus(ctx, call(firstAir), false)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	require.NoError(t, h.svc.SetOperatingStatus(ctx, call(owner), false))

	ops := map[string]func() error{
		"authorize_caller": func() error { return h.svc.AuthorizeCaller(ctx, call(owner), stranger) },
		"deauthorize_caller": func() error {
			return h.svc.DeauthorizeCaller(ctx, call(owner), stranger)
		},
		"register_airline": func() error {
			_, err := h.svc.RegisterAirline(ctx, call(firstAir), secondAir, "Second Air")
			return err
		},
		"fund": func() error { return h.svc.Fund(ctx, pay(secondAir, unit), secondAir, 0) },
		"buy":  func() error { return h.svc.Buy(ctx, pay(passenger, 100), passenger, "ND1309") },
		"credit_insurees": func() error {
			_, err := h.svc.CreditInsurees(ctx, call(owner), passenger)
			return err
		},
		"pay": func() error {
			_, err := h.svc.Pay(ctx, call(passenger))
			return err
		},
		"register_flight": func() error { return h.svc.RegisterFlight(ctx, call(firstAir), 0, 1, firstAir, key) },
		"set_flight_status": func() error {
			_, err := h.svc.SetFlightStatus(ctx, call(firstAir), key, domain.StatusOnTime)
			return err
		},
		"reset_airline_funding": func() error { return h.svc.ResetAirlineFunding(ctx, call(owner), firstAir) },
	}
	for name, op := range ops {
		assert.ErrorIs(t, op(), domain.ErrNotOperational, name)
	}

	require.NoError(t, h.svc.SetOperatingStatus(ctx, call(owner), true))

	require.NoError(t, h.svc.AuthorizeCaller(ctx, call(owner), stranger))
	require.NoError(t, h.svc.Fund(ctx, pay(secondAir, unit), secondAir, 0))
	_, err = h.svc.RegisterAirline(ctx, call(firstAir), secondAir, "Second Air")
	require.NoError(t, err)
	require.NoError(t, h.svc.Buy(ctx, pay(passenger, 100), passenger, "ND1309"))
	_, err = h.svc.CreditInsurees(ctx, call(owner), passenger)
	require.NoError(t, err)
	_, err = h.svc.SetFlightStatus(ctx, call(firstAir), key, domain.StatusOnTime)
	require.NoError(t, err)
}

func TestRejectedOperationEmitsNothing(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	sub, _, err := h.hub.Subscribe(events.AllEvents)
	require.NoError(t, err)
	defer sub.Close()

	before := len(h.eventNames(t))
	assert.Error(t, h.svc.AuthorizeCaller(ctx, call(stranger), secondAir))
	assert.Len(t, h.eventNames(t), before)

	require.NoError(t, h.svc.AuthorizeCaller(ctx, call(owner), secondAir))
	select {
	case e := <-sub.Events():
		assert.Equal(t, events.ContractAuthorized, e.Name)
		assert.Equal(t, secondAir.Hex(), e.Attr("address"))
	case <-time.After(time.Second):
		t.Fatal("expected committed event to reach the hub")
	}
}

func TestListEventsPaginates(t *testing.T) {
	h := setup(t)
	ctx := context.Background()

	total := len(h.eventNames(t))
	require.Greater(t, total, 2)

	first, err := h.svc.ListEvents(ctx, domain.ListEventsRequest{})
	require.NoError(t, err)
	require.Len(t, first.Events, total)
	assert.False(t, first.HasMore)

	req := domain.ListEventsRequest{}
	req.PageSize = 2
	page, err := h.svc.ListEvents(ctx, req)
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	req.PageToken = page.NextPageToken
	next, err := h.svc.ListEvents(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, next.Events)
	assert.Equal(t, first.Events[2].Seq, next.Events[0].Seq)

	req.PageToken = "%%%"
	_, err = h.svc.ListEvents(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
