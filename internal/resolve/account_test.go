package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testAccounts() []AccountCandidate {
	return []AccountCandidate{
		{ID: "acc_current_001", Type: "Current", Nickname: ""},
		{ID: "acc_savings_001", Type: "Savings", Nickname: "My Main Savings"},
		{ID: "acc_savings_002", Type: "Savings", Nickname: "Holiday Fund"},
	}
}

func TestResolveAccountExactNickname(t *testing.T) {
	got, err := ResolveAccount("My Main Savings", testAccounts())
	require.NoError(t, err)
	require.Equal(t, "acc_savings_001", got.ID)
}

func TestResolveAccountNicknameBeatsScoring(t *testing.T) {
	// A nickname that happens to mention another account's type must still
	// win via the exact-nickname path.
	candidates := []AccountCandidate{
		{ID: "a1", Type: "Current"},
		{ID: "a2", Type: "Savings", Nickname: "current favourite"},
	}
	got, err := ResolveAccount("Current Favourite", candidates)
	require.NoError(t, err)
	require.Equal(t, "a2", got.ID)
}

func TestResolveAccountSynonym(t *testing.T) {
	for _, ref := range []string{"checking", "checking account", "my checking", "my checking acc"} {
		got, err := ResolveAccount(ref, testAccounts())
		require.NoError(t, err, "reference %q", ref)
		require.Equal(t, "acc_current_001", got.ID, "reference %q", ref)
	}
}

func TestResolveAccountTypeScoring(t *testing.T) {
	got, err := ResolveAccount("my savings account", testAccounts())
	require.NoError(t, err)
	require.Equal(t, "acc_savings_001", got.ID)
}

func TestResolveAccountTypeSubstring(t *testing.T) {
	got, err := ResolveAccount("the savings one", testAccounts())
	require.NoError(t, err)
	require.Equal(t, "acc_savings_001", got.ID)
}

func TestResolveAccountExactID(t *testing.T) {
	got, err := ResolveAccount("acc_current_001", testAccounts())
	require.NoError(t, err)
	require.Equal(t, "acc_current_001", got.ID)
}

func TestResolveAccountTieKeepsFirstSeen(t *testing.T) {
	candidates := []AccountCandidate{
		{ID: "s1", Type: "Savings"},
		{ID: "s2", Type: "Savings"},
	}
	got, err := ResolveAccount("savings", candidates)
	require.NoError(t, err)
	require.Equal(t, "s1", got.ID)
}

func TestResolveAccountBelowThreshold(t *testing.T) {
	// A bare substring-id hit scores 2, which does not clear the threshold.
	candidates := []AccountCandidate{{ID: "777", Type: "Current"}}
	_, err := ResolveAccount("777 and some words", candidates)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveAccountNotFound(t *testing.T) {
	_, err := ResolveAccount("xyz-nonexistent", testAccounts())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveAccountEmptyQuery(t *testing.T) {
	_, err := ResolveAccount("   ", testAccounts())
	require.ErrorIs(t, err, ErrEmptyQuery)

	// All stop words strips to nothing; must not be treated as a match.
	_, err = ResolveAccount("my account", testAccounts())
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestResolveAccountNoCandidates(t *testing.T) {
	_, err := ResolveAccount("savings", nil)
	require.ErrorIs(t, err, ErrNotFound)
}
