package server

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/gorilla/websocket"
	auditdomain "github.com/smallbiznis/flightsurety/internal/audit/domain"
	auditrepo "github.com/smallbiznis/flightsurety/internal/audit/repository"
	auditservice "github.com/smallbiznis/flightsurety/internal/audit/service"
	"github.com/smallbiznis/flightsurety/internal/callerauth"
	"github.com/smallbiznis/flightsurety/internal/clock"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/events"
	governancedomain "github.com/smallbiznis/flightsurety/internal/governance/domain"
	governanceservice "github.com/smallbiznis/flightsurety/internal/governance/service"
	"github.com/smallbiznis/flightsurety/internal/governance/tally"
	ledgerdomain "github.com/smallbiznis/flightsurety/internal/ledger/domain"
	ledgerrepo "github.com/smallbiznis/flightsurety/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/flightsurety/internal/ledger/service"
	"github.com/smallbiznis/flightsurety/internal/observability"
	"github.com/smallbiznis/flightsurety/internal/ratelimit"
	"github.com/smallbiznis/flightsurety/internal/sequencer"
	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
	walletrepo "github.com/smallbiznis/flightsurety/internal/wallet/repository"
	walletservice "github.com/smallbiznis/flightsurety/internal/wallet/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ownerKey     = mustKey("00000000000000000000000000000000000000000000000000000000000000f0")
	firstAirKey  = mustKey("00000000000000000000000000000000000000000000000000000000000000a1")
	secondAirKey = mustKey("00000000000000000000000000000000000000000000000000000000000000a2")
	passengerKey = mustKey("000000000000000000000000000000000000000000000000000000000000beef")
	strangerKey  = mustKey("0000000000000000000000000000000000000000000000000000000000005a5a")

	owner      = crypto.PubkeyToAddress(ownerKey.PublicKey)
	treasury   = common.HexToAddress("0x0000000000000000000000000000000000007ea5")
	controller = common.HexToAddress("0x000000000000000000000000000000000000c0de")
	firstAir   = crypto.PubkeyToAddress(firstAirKey.PublicKey)
	secondAir  = crypto.PubkeyToAddress(secondAirKey.PublicKey)
	passenger  = crypto.PubkeyToAddress(passengerKey.PublicKey)
	stranger   = crypto.PubkeyToAddress(strangerKey.PublicKey)

	signingKeys = map[common.Address]*ecdsa.PrivateKey{
		owner:     ownerKey,
		firstAir:  firstAirKey,
		secondAir: secondAirKey,
		passenger: passengerKey,
		stranger:  strangerKey,
	}
)

func mustKey(hexKey string) *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		panic(err)
	}
	return key
}

type testServer struct {
	*Server
	clock *clock.FakeClock
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:server_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	models := append(ledgerdomain.Models(),
		&events.Event{},
		&auditdomain.AuditLog{},
		&walletdomain.Account{},
		&walletdomain.Transfer{},
		&walletdomain.TransferLine{},
	)
	require.NoError(t, db.AutoMigrate(models...))

	cfg := config.Config{
		Environment:      "test",
		DevFaucetEnabled: true,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	seq := sequencer.NewLocal(nil)
	policy := config.NewStaticPolicyHolder(config.DefaultPolicy())
	hub := events.NewHub()
	settings := ledgerdomain.Settings{
		Owner:            owner,
		Treasury:         treasury,
		Controller:       controller,
		FirstAirline:     firstAir,
		FirstAirlineName: "Airline One",
	}

	wallet := walletservice.NewService(walletservice.Params{
		DB:     db,
		Log:    log,
		GenID:  node,
		Repo:   walletrepo.Provide(),
		Clock:  clk,
		Config: cfg,
	})
	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  auditrepo.Provide(),
		Clock: clk,
	})
	store := ledgerservice.NewService(ledgerservice.Params{
		DB:         db,
		Log:        log,
		Repo:       ledgerrepo.Provide(),
		Settings:   settings,
		Policy:     policy,
		Wallet:     wallet,
		Sequencer:  seq,
		Outbox:     events.NewOutbox(node),
		Clock:      clk,
		Dispatcher: events.NewDispatcher(hub, log),
		AuditSvc:   auditSvc,
	})
	require.NoError(t, store.Bootstrap(context.Background()))

	gov := governanceservice.NewService(governanceservice.Params{
		Log:       log,
		Store:     store,
		Settings:  settings,
		Tally:     tally.NewMemory(),
		Sequencer: seq,
		Policy:    policy,
	})

	limiter, err := ratelimit.NewCallerLimiter(cfg, nil)
	require.NoError(t, err)

	srv := NewServer(ServerParams{
		Gin:        NewEngine(observability.Config{}, nil),
		Cfg:        cfg,
		Store:      store,
		Governance: gov,
		WalletSvc:  wallet,
		AuditSvc:   auditSvc,
		Hub:        hub,
		Verifier:   callerauth.NewVerifier(clk, time.Minute, nil),
		Limiter:    limiter,
	})
	return &testServer{Server: srv, clock: clk}
}

// do sends a request signed by caller's key. Each signed request advances the
// clock a second so identical calls carry distinct timestamps.
func do(t *testing.T, srv *testServer, method, path string, caller *common.Address, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(method, path, body)
	if caller != nil {
		key, ok := signingKeys[*caller]
		require.True(t, ok, "no signing key for %s", caller.Hex())
		srv.clock.Advance(time.Second)
		signRequest(t, req, *caller, key, []byte(body), srv.clock.Now().Unix())
	}
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)
	return resp
}

func newRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func signRequest(t *testing.T, req *http.Request, claimed common.Address, key *ecdsa.PrivateKey, body []byte, timestamp int64) {
	t.Helper()
	sig, err := callerauth.Sign(key, callerauth.Request{
		Method:    req.Method,
		URI:       req.URL.RequestURI(),
		Body:      body,
		Timestamp: timestamp,
	})
	require.NoError(t, err)
	req.Header.Set(callerauth.HeaderAddress, claimed.Hex())
	req.Header.Set(callerauth.HeaderSignature, hexutil.Encode(sig))
	req.Header.Set(callerauth.HeaderTimestamp, strconv.FormatInt(timestamp, 10))
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func errorType(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, resp).Error.Type
}

type amountBody struct {
	Amount      int64  `json:"amount"`
	AmountEther string `json:"amount_ether"`
}

// fundFirstAirline deposits ten ether for the first airline and funds it.
func fundFirstAirline(t *testing.T, srv *testServer) {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/v1/wallets/"+firstAir.Hex()+"/deposit", nil, `{"value_ether":"10"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resp = do(t, srv, http.MethodPost, "/v1/airlines/"+firstAir.Hex()+"/fund", &firstAir, `{"value_ether":"10"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestMutationRequiresCaller(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/v1/payouts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "missing_caller", errorType(t, resp))

	req := httptest.NewRequest(http.MethodPost, "/v1/payouts", nil)
	req.Header.Set(callerauth.HeaderAddress, "not-an-address")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorType(t, rec))
}

func TestForgedCallerRejected(t *testing.T) {
	srv := newTestServer(t)
	send := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Engine().ServeHTTP(rec, req)
		return rec
	}
	now := srv.clock.Now().Unix()

	// Bare address header.
	req := newRequest(http.MethodPut, "/v1/operational", `{"operational":false}`)
	req.Header.Set(callerauth.HeaderAddress, owner.Hex())
	resp := send(req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "missing_signature", errorType(t, resp))

	// Signed by a different key.
	req = newRequest(http.MethodPut, "/v1/operational", `{"operational":false}`)
	signRequest(t, req, owner, strangerKey, []byte(`{"operational":false}`), now)
	resp = send(req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "caller_mismatch", errorType(t, resp))

	// Body swapped after signing.
	req = newRequest(http.MethodPut, "/v1/operational", `{"operational":false}`)
	signRequest(t, req, owner, ownerKey, []byte(`{"operational":true}`), now)
	resp = send(req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "caller_mismatch", errorType(t, resp))

	// Signed for another path.
	req = newRequest(http.MethodPost, "/v1/insurance", `{"flight":"ND1309","value":1,"beneficiary":"`+stranger.Hex()+`"}`)
	signRequest(t, req, passenger, passengerKey, []byte(`{"flight":"ND1309","value":1,"beneficiary":"`+stranger.Hex()+`"}`), now)
	req.URL.Path = "/v1/payouts"
	resp = send(req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Outside the accepted window.
	req = newRequest(http.MethodPut, "/v1/operational", `{"operational":false}`)
	signRequest(t, req, owner, ownerKey, []byte(`{"operational":false}`), now-int64(time.Hour/time.Second))
	resp = send(req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "stale_timestamp", errorType(t, resp))

	req = newRequest(http.MethodPut, "/v1/operational", `{"operational":false}`)
	req.Header.Set(callerauth.HeaderAddress, owner.Hex())
	req.Header.Set(callerauth.HeaderSignature, "0x1234")
	req.Header.Set(callerauth.HeaderTimestamp, strconv.FormatInt(now, 10))
	resp = send(req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "invalid_signature", errorType(t, resp))

	resp = do(t, srv, http.MethodGet, "/v1/operational", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, decode[map[string]bool](t, resp)["operational"])
}

func TestReplayedRequestRejected(t *testing.T) {
	srv := newTestServer(t)
	body := `{"operational":false}`
	now := srv.clock.Now().Unix()

	first := newRequest(http.MethodPut, "/v1/operational", body)
	signRequest(t, first, owner, ownerKey, []byte(body), now)
	replay := newRequest(http.MethodPut, "/v1/operational", body)
	replay.Header = first.Header.Clone()

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, replay)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "replayed_signature", errorType(t, rec))
}

func TestCallerSpendsOwnBalance(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/v1/wallets/"+passenger.Hex()+"/deposit", nil, `{"value_ether":"1"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	body := `{"flight":"ND1309","value_ether":"1","beneficiary":"` + stranger.Hex() + `"}`
	resp = do(t, srv, http.MethodPost, "/v1/insurance", &stranger, body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "insufficient_balance", errorType(t, resp))

	resp = do(t, srv, http.MethodGet, "/v1/wallets/"+passenger.Hex(), nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	balance := decode[struct {
		Balance amountBody `json:"balance"`
	}](t, resp)
	assert.Equal(t, "1", balance.Balance.AmountEther)
}

func TestOperatingStatus(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/v1/operational", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, decode[map[string]bool](t, resp)["operational"])

	resp = do(t, srv, http.MethodPut, "/v1/operational", &stranger, `{"operational":false}`)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "unauthorized", errorType(t, resp))

	resp = do(t, srv, http.MethodPut, "/v1/operational", &owner, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, srv, http.MethodPut, "/v1/operational", &owner, `{"operational":false}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = do(t, srv, http.MethodPost, "/v1/insurance", &passenger, `{"flight":"ND1309","value":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "not_operational", errorType(t, resp))

	resp = do(t, srv, http.MethodPut, "/v1/operational", &owner, `{"operational":true}`)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthorizedCallers(t *testing.T) {
	srv := newTestServer(t)
	path := "/v1/callers/" + secondAir.Hex()

	resp := do(t, srv, http.MethodPost, path, &stranger, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = do(t, srv, http.MethodPost, path, &owner, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = do(t, srv, http.MethodPost, path, &owner, "")
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "already_authorized", errorType(t, resp))

	resp = do(t, srv, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, decode[map[string]any](t, resp)["authorized"])

	resp = do(t, srv, http.MethodDelete, path, &owner, "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = do(t, srv, http.MethodGet, path, nil, "")
	assert.Equal(t, false, decode[map[string]any](t, resp)["authorized"])

	resp = do(t, srv, http.MethodGet, "/v1/callers/0x1234", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAirlineRegistrationAndFunding(t *testing.T) {
	srv := newTestServer(t)
	body := `{"address":"` + secondAir.Hex() + `","name":"Airline Two"}`

	resp := do(t, srv, http.MethodPost, "/v1/airlines", &firstAir, body)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "not_funded", errorType(t, resp))

	fundFirstAirline(t, srv)

	resp = do(t, srv, http.MethodGet, "/v1/airlines/"+firstAir.Hex()+"/funds", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	funds := decode[struct {
		Funds amountBody `json:"funds"`
	}](t, resp)
	assert.Equal(t, int64(10_000_000_000), funds.Funds.Amount)
	assert.Equal(t, "10", funds.Funds.AmountEther)

	resp = do(t, srv, http.MethodPost, "/v1/airlines/"+firstAir.Hex()+"/fund", &firstAir, `{"value_ether":"10"}`)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "already_funded", errorType(t, resp))

	resp = do(t, srv, http.MethodPost, "/v1/airlines", &firstAir, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	result := decode[governancedomain.RegistrationResult](t, resp)
	assert.True(t, result.Registered)
	assert.Equal(t, governancedomain.PathDirect, result.Path)

	resp = do(t, srv, http.MethodPost, "/v1/airlines", &firstAir, body)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "already_registered", errorType(t, resp))

	resp = do(t, srv, http.MethodGet, "/v1/airlines/"+secondAir.Hex(), nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	airline := decode[ledgerdomain.AirlineView](t, resp)
	assert.Equal(t, "Airline Two", airline.Name)
	assert.True(t, airline.IsRegistered)
	assert.False(t, airline.IsFunded)

	resp = do(t, srv, http.MethodGet, "/v1/multisig", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, resp)["count"])

	resp = do(t, srv, http.MethodGet, "/v1/funded-airlines", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, resp)["count"])

	resp = do(t, srv, http.MethodGet, "/v1/airlines/"+stranger.Hex(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "no_such_airline", errorType(t, resp))
}

func TestFundingWrongAmount(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/v1/wallets/"+firstAir.Hex()+"/deposit", nil, `{"value_ether":"20"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = do(t, srv, http.MethodPost, "/v1/airlines/"+firstAir.Hex()+"/fund", &firstAir, `{"value_ether":"5"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "wrong_amount", errorType(t, resp))

	resp = do(t, srv, http.MethodPost, "/v1/airlines/"+firstAir.Hex()+"/fund", &firstAir, `{"value":1,"value_ether":"1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestInsuranceLifecycle(t *testing.T) {
	srv := newTestServer(t)
	fundFirstAirline(t, srv)

	resp := do(t, srv, http.MethodPost, "/v1/wallets/"+passenger.Hex()+"/deposit", nil, `{"value_ether":"1"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = do(t, srv, http.MethodPost, "/v1/insurance/"+passenger.Hex()+"/credit", &firstAir, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "no_such_insurance", errorType(t, resp))

	resp = do(t, srv, http.MethodPost, "/v1/insurance", &passenger, `{"flight":"ND1309","value_ether":"1"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	bought := decode[insuranceResponse](t, resp)
	assert.Equal(t, passenger, bought.Beneficiary)
	assert.Equal(t, "ND1309", bought.Flight)
	assert.Equal(t, int64(1_000_000_000), bought.Amount)

	resp = do(t, srv, http.MethodPost, "/v1/insurance/"+passenger.Hex()+"/credit", &firstAir, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	credited := decode[struct {
		Credit amountBody `json:"credit"`
	}](t, resp)
	assert.Equal(t, int64(1_500_000_000), credited.Credit.Amount)
	assert.Equal(t, "1.5", credited.Credit.AmountEther)

	resp = do(t, srv, http.MethodGet, "/v1/insurance/"+passenger.Hex()+"/credit", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = do(t, srv, http.MethodPost, "/v1/payouts", &passenger, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	paid := decode[struct {
		Paid amountBody `json:"paid"`
	}](t, resp)
	assert.Equal(t, int64(1_500_000_000), paid.Paid.Amount)

	resp = do(t, srv, http.MethodPost, "/v1/payouts", &passenger, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "zero_credit", errorType(t, resp))

	resp = do(t, srv, http.MethodGet, "/v1/wallets/"+passenger.Hex(), nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	balance := decode[struct {
		Balance amountBody `json:"balance"`
	}](t, resp)
	assert.Equal(t, "1.5", balance.Balance.AmountEther)

	resp = do(t, srv, http.MethodGet, "/v1/wallets/"+passenger.Hex()+"/transfers?limit=10", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	lines := decode[struct {
		Data []walletdomain.TransferLine `json:"data"`
	}](t, resp)
	assert.Len(t, lines.Data, 3)
}

func TestBuyWithoutBalance(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/v1/insurance", &passenger, `{"flight":"ND1309","value_ether":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "insufficient_balance", errorType(t, resp))

	resp = do(t, srv, http.MethodGet, "/v1/insurance/"+passenger.Hex(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, srv, http.MethodPost, "/v1/insurance", &passenger, `{"flight":"ND1309"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "zero_value", errorType(t, resp))
}

func TestFlights(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/v1/flight-keys?airline="+firstAir.Hex()+"&flight=ND1309&timestamp=1700000000", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	key := decode[map[string]any](t, resp)["key"].(string)

	body := `{"airline":"` + firstAir.Hex() + `","flight":"ND1309","timestamp":1700000000}`
	resp = do(t, srv, http.MethodPost, "/v1/flights", &firstAir, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	flight := decode[ledgerdomain.FlightView](t, resp)
	assert.Equal(t, key, flight.Key.Hex())
	assert.True(t, flight.Registered)

	resp = do(t, srv, http.MethodPut, "/v1/flights/"+key+"/status", &stranger, `{"status_code":20}`)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = do(t, srv, http.MethodPut, "/v1/flights/"+key+"/status", &firstAir, `{"status_code":20}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = do(t, srv, http.MethodGet, "/v1/flights/"+key, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, ledgerdomain.StatusLateAirline, decode[ledgerdomain.FlightView](t, resp).StatusCode)

	unknown := common.BytesToHash([]byte{0x01}).Hex()
	resp = do(t, srv, http.MethodPut, "/v1/flights/"+unknown+"/status", &firstAir, `{"status_code":20}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "no_such_flight", errorType(t, resp))

	resp = do(t, srv, http.MethodGet, "/v1/flights/0xabc", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	body = `{"airline":"` + firstAir.Hex() + `","flight":"ND1309","timestamp":9223372036854775808}`
	resp = do(t, srv, http.MethodPost, "/v1/flights", &firstAir, body)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid_timestamp", errorType(t, resp))
}

func TestVotesEndpoints(t *testing.T) {
	srv := newTestServer(t)
	path := "/v1/votes/" + secondAir.Hex()

	resp := do(t, srv, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, resp)["votes"])

	resp = do(t, srv, http.MethodDelete, path, &stranger, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = do(t, srv, http.MethodDelete, path, &owner, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestListEvents(t *testing.T) {
	srv := newTestServer(t)
	fundFirstAirline(t, srv)

	resp := do(t, srv, http.MethodGet, "/v1/events?page_size=1", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	page := decode[struct {
		Data     []events.Event `json:"data"`
		PageInfo struct {
			NextPageToken string `json:"next_page_token"`
			HasMore       bool   `json:"has_more"`
		} `json:"page_info"`
	}](t, resp)
	require.Len(t, page.Data, 1)
	assert.True(t, page.PageInfo.HasMore)

	resp = do(t, srv, http.MethodGet, "/v1/events?page_size=1&page_token="+page.PageInfo.NextPageToken, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	next := decode[struct {
		Data []events.Event `json:"data"`
	}](t, resp)
	require.Len(t, next.Data, 1)
	assert.Greater(t, next.Data[0].Seq, page.Data[0].Seq)

	resp = do(t, srv, http.MethodGet, "/v1/events?name=FundedByAirline", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	funded := decode[struct {
		Data []events.Event `json:"data"`
	}](t, resp)
	require.Len(t, funded.Data, 1)
	assert.Equal(t, firstAir.Hex(), funded.Data[0].Attr("airline"))

	resp = do(t, srv, http.MethodGet, "/v1/events?page_token=!!", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, srv, http.MethodGet, "/v1/events?name=NoSuchEvent", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStreamRejectsUnknownEventName(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/v1/events/live?name=random-1", "/v1/events/stream?name=random-2"} {
		resp := do(t, srv, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code, path)
		assert.Equal(t, "validation_error", errorType(t, resp))
	}
	assert.Zero(t, srv.hub.Streams())
}

func TestStreamEventsWebsocket(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/events/stream?name=InsuranceBought"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	resp := do(t, srv, http.MethodPost, "/v1/wallets/"+passenger.Hex()+"/deposit", nil, `{"value":5}`)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = do(t, srv, http.MethodPost, "/v1/insurance", &passenger, `{"flight":"ND1309","value":5}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event map[string]any
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, string(events.InsuranceBought), event["name"])
	payload := event["payload"].(map[string]any)
	assert.Equal(t, passenger.Hex(), payload["beneficiary"])
}

func TestAuditLogs(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPut, "/v1/operational", &owner, `{"operational":false}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = do(t, srv, http.MethodGet, "/v1/audit-logs?action=contract.set_operating_status", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	logs := decode[struct {
		Data []auditdomain.AuditLog `json:"data"`
	}](t, resp)
	require.Len(t, logs.Data, 1)
	require.NotNil(t, logs.Data[0].ActorID)
	assert.Equal(t, owner.Hex(), *logs.Data[0].ActorID)

	resp = do(t, srv, http.MethodGet, "/v1/audit-logs?start_at=2026-05-02&end_at=2026-05-01", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, srv, http.MethodGet, "/v1/audit-logs?start_at=yesterday", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDepositRouteDisabled(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.DevFaucetEnabled = false
	})

	resp := do(t, srv, http.MethodPost, "/v1/wallets/"+passenger.Hex()+"/deposit", nil, `{"value":5}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		typ    string
	}{
		{ledgerdomain.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{ledgerdomain.ErrNotOperational, http.StatusServiceUnavailable, "not_operational"},
		{ledgerdomain.ErrNotInitialized, http.StatusServiceUnavailable, "contract_not_initialized"},
		{governancedomain.ErrDuplicateVote, http.StatusConflict, "duplicate_vote"},
		{ledgerdomain.ErrNotFunded, http.StatusNotFound, "not_funded"},
		{ledgerdomain.ErrWrongAmount, http.StatusUnprocessableEntity, "wrong_amount"},
		{ledgerdomain.ErrInvalidAddress, http.StatusBadRequest, "invalid_address"},
		{walletdomain.ErrRecipientRejected, http.StatusUnprocessableEntity, "recipient_rejected"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{ErrMissingCaller, http.StatusUnauthorized, "missing_caller"},
		{callerauth.ErrCallerMismatch, http.StatusUnauthorized, "caller_mismatch"},
		{callerauth.ErrReplayed, http.StatusUnauthorized, "replayed_signature"},
		{ledgerdomain.ErrInvalidTimestamp, http.StatusBadRequest, "invalid_timestamp"},
		{auditdomain.ErrInvalidPageToken, http.StatusBadRequest, "validation_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.typ, payload.Type, tc.err.Error())
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	typ, code := classifyErrorForLog(ledgerdomain.ErrAlreadyFunded)
	assert.Equal(t, "rejection", typ)
	assert.Equal(t, "already_funded", code)

	typ, code = classifyErrorForLog(callerauth.ErrStaleTimestamp)
	assert.Equal(t, "auth_error", typ)
	assert.Equal(t, "stale_timestamp", code)

	typ, _ = classifyErrorForLog(errors.New("boom"))
	assert.Equal(t, "internal_error", typ)
}
