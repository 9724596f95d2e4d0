package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorTable_ForIsTotal(t *testing.T) {
	table := DefaultSectorTable()

	ke := table.For("ke")
	require.Len(t, ke, 3)
	assert.Equal(t, "Agriculture", ke[0].Name)

	other := table.For("GH")
	assert.Equal(t, table[DefaultSectorKey], other)

	assert.NotNil(t, SectorTable{}.For("KE"))
	assert.Empty(t, SectorTable{}.For("KE"))
}

func TestSectorTable_ForReturnsCopy(t *testing.T) {
	table := DefaultSectorTable()
	s := table.For("KE")
	s[0].Name = "changed"
	assert.Equal(t, "Agriculture", table["KE"][0].Name)
}

func TestDeriveSectors(t *testing.T) {
	gdp := 100e9
	out := DeriveSectors([]SectorShare{{Name: "Agriculture", Contribution: 25}}, &gdp)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Value)
	assert.InDelta(t, 25.0, *out[0].Value, 1e-9)

	out = DeriveSectors([]SectorShare{{Name: "Agriculture", Contribution: 25}}, nil)
	assert.Nil(t, out[0].Value)
	assert.Equal(t, 25.0, out[0].Contribution)
}

func TestUpstreamError_IsUnavailable(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := error(&UpstreamError{Source: "restcountries", Err: cause})

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "restcountries")

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 0, ue.Status)

	assert.ErrorIs(t, &UpstreamError{Source: "x", Status: 502}, ErrUpstreamUnavailable)
}

func TestOutcome_Ptr(t *testing.T) {
	assert.Nil(t, Absent[float64]().Ptr())
	assert.Nil(t, FailedWith[float64](errors.New("boom")).Ptr())
	p := Found(1.5).Ptr()
	require.NotNil(t, p)
	assert.Equal(t, 1.5, *p)
}
