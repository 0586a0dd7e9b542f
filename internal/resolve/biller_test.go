package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testBillers() []BillerCandidate {
	return []BillerCandidate{
		{ID: "biller_1", Nickname: "City Power", Category: "electricity"},
		{ID: "biller_2", Nickname: "Metro Water", Category: "water"},
		{ID: "biller_3", Nickname: "Power & Gas Co", Category: "gas"},
	}
}

func TestResolveBillerExactNickname(t *testing.T) {
	res, err := ResolveBiller("city power", testBillers())
	require.NoError(t, err)
	require.Equal(t, BillerMatched, res.Outcome)
	require.Equal(t, "biller_1", res.Match.ID)
}

func TestResolveBillerSubstring(t *testing.T) {
	res, err := ResolveBiller("water", testBillers())
	require.NoError(t, err)
	require.Equal(t, BillerMatched, res.Outcome)
	require.Equal(t, "biller_2", res.Match.ID)
}

func TestResolveBillerSubstringAmbiguous(t *testing.T) {
	res, err := ResolveBiller("power", testBillers())
	require.NoError(t, err)
	require.Equal(t, BillerAmbiguous, res.Outcome)
	require.Equal(t, []BillerOption{
		{ID: "biller_1", Nickname: "City Power"},
		{ID: "biller_3", Nickname: "Power & Gas Co"},
	}, res.Options)
}

func TestResolveBillerExactBeatsSubstring(t *testing.T) {
	// One exact hit resolves even when other nicknames contain the query.
	candidates := []BillerCandidate{
		{ID: "b1", Nickname: "Power"},
		{ID: "b2", Nickname: "City Power"},
	}
	res, err := ResolveBiller("power", candidates)
	require.NoError(t, err)
	require.Equal(t, BillerMatched, res.Outcome)
	require.Equal(t, "b1", res.Match.ID)
}

func TestResolveBillerExactAmbiguous(t *testing.T) {
	candidates := []BillerCandidate{
		{ID: "b1", Nickname: "Internet"},
		{ID: "b2", Nickname: "internet"},
	}
	res, err := ResolveBiller("Internet", candidates)
	require.NoError(t, err)
	require.Equal(t, BillerAmbiguous, res.Outcome)
	require.Len(t, res.Options, 2)
}

func TestResolveBillerNotFound(t *testing.T) {
	res, err := ResolveBiller("landline", testBillers())
	require.NoError(t, err)
	require.Equal(t, BillerNotFound, res.Outcome)

	res, err = ResolveBiller("power", nil)
	require.NoError(t, err)
	require.Equal(t, BillerNotFound, res.Outcome)
}

func TestResolveBillerEmptyQuery(t *testing.T) {
	// A blank reference is a caller mistake, not a failed search.
	_, err := ResolveBiller("", testBillers())
	require.ErrorIs(t, err, ErrEmptyQuery)

	_, err = ResolveBiller("   ", testBillers())
	require.ErrorIs(t, err, ErrEmptyQuery)
}
