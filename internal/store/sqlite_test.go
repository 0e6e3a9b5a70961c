package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_TariffRates(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rates := []model.TariffRate{
		{UF: "SP", Concessionaria: "cpfl-paulista", Name: "CPFL Paulista", BaseRate: decimal.RequireFromString("0.78"), ReferenceDate: "2026-04-08"},
		{UF: "SP", Concessionaria: "enel-sp", Name: "Enel SP", BaseRate: decimal.RequireFromString("0.74"), ReferenceDate: "2026-07-01", IsDefault: true},
		{UF: "RJ", Concessionaria: "light", Name: "Light", BaseRate: decimal.RequireFromString("0.92"), ReferenceDate: "2026-03-15", IsDefault: true},
	}
	require.NoError(t, st.UpsertTariffRates(ctx, rates))

	got, err := st.ListTariffRates(ctx, "SP")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "enel-sp", got[0].Concessionaria, "default first")
	assert.True(t, got[0].IsDefault)
	assert.True(t, got[0].BaseRate.Equal(decimal.RequireFromString("0.74")))
	assert.False(t, got[1].IsDefault)

	// Upsert replaces.
	rates[1].BaseRate = decimal.RequireFromString("0.7512")
	rates[1].Name = "Enel Distribuição São Paulo"
	require.NoError(t, st.UpsertTariffRates(ctx, rates[1:2]))
	got, err = st.ListTariffRates(ctx, "SP")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0.7512", got[0].BaseRate.String())
	assert.Equal(t, "Enel Distribuição São Paulo", got[0].Name)

	none, err := st.ListTariffRates(ctx, "AC")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_ProposalLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := sampleProposal()
	require.NoError(t, st.CreateProposal(ctx, p))

	got, err := st.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalPending, got.Status)
	assert.True(t, got.ExpiresAt.Equal(p.ExpiresAt))
	assert.True(t, got.MonthlySavings.Equal(p.MonthlySavings))
	assert.Equal(t, model.SystemPRICE, got.Financing.System)

	got.Status = model.ProposalCancelled
	got.CancelReason = "expired"
	got.UpdatedAt = p.UpdatedAt.Add(time.Hour)
	require.NoError(t, st.UpdateProposal(ctx, got))

	again, err := st.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalCancelled, again.Status)
	assert.Equal(t, "expired", again.CancelReason)
	assert.True(t, again.UpdatedAt.Equal(got.UpdatedAt))
}

func TestSQLite_ProposalNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetProposal(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.UpdateProposal(ctx, &model.FinancingProposal{ID: "nope", Status: model.ProposalApproved})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListProposals(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := sampleProposal()
	for i, status := range []model.ProposalStatus{model.ProposalPending, model.ProposalApproved, model.ProposalPending} {
		p := *base
		p.ID = base.ID[:len(base.ID)-1] + string(rune('a'+i))
		p.Status = status
		p.CreatedAt = base.CreatedAt.Add(time.Duration(i) * time.Minute)
		require.NoError(t, st.CreateProposal(ctx, &p))
	}

	all, err := st.ListProposals(ctx, ProposalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "newest first")

	pending, err := st.ListProposals(ctx, ProposalFilter{Status: model.ProposalPending, Limit: 1})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.ProposalPending, pending[0].Status)
}

func TestOpen(t *testing.T) {
	st, err := Open(context.Background(), config.StoreConfig{})
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = Open(context.Background(), config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.NoError(t, st.Close())

	_, err = Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "mysql"`)
}
