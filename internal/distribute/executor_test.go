package distribute

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/xrpl"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// recordingSubmitter captures submissions and fails configured destinations.
type recordingSubmitter struct {
	mu        sync.Mutex
	submitted []*xrpl.Payment
	accounts  []string
	failWith  map[string]error  // transport failures by destination
	rejected  map[string]string // engine result codes by destination
}

func (s *recordingSubmitter) Submit(ctx context.Context, secret, account string, p *xrpl.Payment) (*xrpl.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failWith[p.Destination]; ok {
		return nil, err
	}
	s.submitted = append(s.submitted, p)
	s.accounts = append(s.accounts, account)
	if code, ok := s.rejected[p.Destination]; ok {
		return &xrpl.SubmitResult{EngineResult: code, EngineResultMessage: "rejected"}, nil
	}
	return &xrpl.SubmitResult{EngineResult: "tesSUCCESS", Accepted: true}, nil
}

func testSeed(t *testing.T) string {
	t.Helper()
	seed, err := xrpl.EncodeSeed([]byte("0123456789abcdef"), xrpl.AlgorithmED25519)
	require.NoError(t, err)
	return seed
}

func testRows() []domain.YieldRecord {
	return []domain.YieldRecord{
		{Address: "rA", Balance: d("10"), Yield: d("100")},
		{Address: "rB", Balance: d("30"), Yield: d("300")},
		{Address: "rC", Balance: d("60"), Yield: d("600")},
	}
}

func newExecutor(t *testing.T, sub Submitter) *Executor {
	t.Helper()
	e := New(Options{
		Submitter: sub,
		Token:     domain.Issued("rIssuer", "XNT", "XNET"),
		Logger:    log.New(io.Discard, "", 0),
	})
	require.NoError(t, e.RegisterWallet(testSeed(t)))
	return e
}

func TestRun_AllSucceed(t *testing.T) {
	sub := &recordingSubmitter{}
	e := newExecutor(t, sub)

	report, err := e.Run(context.Background(), testRows())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Submitted)
	assert.Empty(t, report.Failures)

	require.Len(t, sub.submitted, 3)
	assert.Equal(t, "rA", sub.submitted[0].Destination)
	assert.True(t, sub.submitted[0].Amount.Equal(d("100")), "payments carry the yield, not the balance")

	// The sender address was derived from the ed25519 seed.
	require.NotEmpty(t, sub.accounts[0])
	require.NoError(t, xrpl.ValidateAddress(sub.accounts[0]))
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	sub := &recordingSubmitter{
		failWith: map[string]error{"rB": errors.New("connection reset")},
	}
	e := newExecutor(t, sub)

	report, err := e.Run(context.Background(), testRows())
	require.NoError(t, err)

	// Rows 1 and 3 went out, exactly row 2 is reported.
	assert.Equal(t, 2, report.Submitted)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "rB", report.Failures[0].Destination)
	assert.Equal(t, "300", report.Failures[0].Amount)

	require.Len(t, sub.submitted, 2)
	assert.Equal(t, "rA", sub.submitted[0].Destination)
	assert.Equal(t, "rC", sub.submitted[1].Destination)
}

func TestRun_EngineRejectionIsFailure(t *testing.T) {
	sub := &recordingSubmitter{
		rejected: map[string]string{"rC": "tecNO_DST"},
	}
	e := newExecutor(t, sub)

	report, err := e.Run(context.Background(), testRows())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Submitted)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Err.Error(), "tecNO_DST")
}

func TestRun_RequiresWallet(t *testing.T) {
	e := New(Options{Submitter: &recordingSubmitter{}, Logger: log.New(io.Discard, "", 0)})
	_, err := e.Run(context.Background(), testRows())
	require.ErrorIs(t, err, ErrNoWallet)
}

func TestRegisterWallet_WriteOnce(t *testing.T) {
	e := newExecutor(t, &recordingSubmitter{})
	err := e.RegisterWallet(testSeed(t))
	require.ErrorIs(t, err, ErrWalletSet)
}

func TestRegisterWallet_BadSeed(t *testing.T) {
	e := New(Options{Submitter: &recordingSubmitter{}, Logger: log.New(io.Discard, "", 0)})
	require.Error(t, e.RegisterWallet("garbage"))

	// A bad seed must not half-register anything.
	_, err := e.Run(context.Background(), testRows())
	require.ErrorIs(t, err, ErrNoWallet)
}

func TestWriteFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.csv")
	failures := []FailedPayment{
		{Destination: "rB", Amount: "300", Err: errors.New("down")},
		{Destination: "rD", Amount: "12.5", Err: errors.New("tecNO_DST")},
	}
	require.NoError(t, WriteFailures(path, failures))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "destination,amount\nrB,300\nrD,12.5\n", string(raw))
}

func TestRenderFailures(t *testing.T) {
	var sb strings.Builder
	RenderFailures(&sb, []FailedPayment{{Destination: "rB", Amount: "300", Err: errors.New("down")}})
	out := sb.String()
	assert.Contains(t, out, "rB")
	assert.Contains(t, out, "300")
}
