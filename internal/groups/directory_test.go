package groups

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbaranov/ledgerbot/internal/logging"
)

func newTestDirectory(t *testing.T, adminIDs ...int64) *Directory {
	t.Helper()
	path := filepath.Join(t.TempDir(), "groups.yaml")
	return NewDirectory(NewStorage(path, logging.NewMockLogger()), adminIDs, logging.NewMockLogger())
}

func TestCreateGroup(t *testing.T) {
	dir := newTestDirectory(t)

	group, err := dir.CreateGroup(100, "Семейный бюджет")
	require.NoError(t, err)
	assert.Equal(t, "Семейный бюджет", group.Title)
	assert.Equal(t, int64(100), group.OwnerID)
	assert.Equal(t, []int64{100}, group.Members)
	assert.Len(t, group.InviteCode, inviteCodeLength)

	// Membership is exclusive: a second group for the same user must fail.
	_, err = dir.CreateGroup(100, "Другой бюджет")
	assert.ErrorIs(t, err, ErrAlreadyInGroup)
}

func TestJoinByCode(t *testing.T) {
	dir := newTestDirectory(t)
	group, err := dir.CreateGroup(100, "Семейный бюджет")
	require.NoError(t, err)

	t.Run("joins by valid code", func(t *testing.T) {
		joined, err := dir.JoinByCode(200, group.InviteCode)
		require.NoError(t, err)
		assert.True(t, joined.HasMember(200))

		stored, err := dir.GroupOf(200)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.ElementsMatch(t, []int64{100, 200}, stored.Members)
	})

	t.Run("rejoining own group is a no-op", func(t *testing.T) {
		joined, err := dir.JoinByCode(200, group.InviteCode)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{100, 200}, joined.Members)
	})

	t.Run("member of another group cannot join", func(t *testing.T) {
		other := newTestDirectory(t)
		first, err := other.CreateGroup(300, "Первая")
		require.NoError(t, err)
		second, err := other.CreateGroup(400, "Вторая")
		require.NoError(t, err)

		_, err = other.JoinByCode(300, second.InviteCode)
		assert.ErrorIs(t, err, ErrAlreadyInGroup)

		// First group is unchanged.
		stored, err := other.GroupOf(300)
		require.NoError(t, err)
		assert.Equal(t, first.Title, stored.Title)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := dir.JoinByCode(500, "NOPE1234")
		assert.ErrorIs(t, err, ErrUnknownCode)
	})

	t.Run("empty code never matches", func(t *testing.T) {
		_, err := dir.JoinByCode(500, "")
		assert.ErrorIs(t, err, ErrUnknownCode)
	})
}

func TestLeave(t *testing.T) {
	t.Run("member leaves, group survives", func(t *testing.T) {
		dir := newTestDirectory(t)
		group, err := dir.CreateGroup(100, "Бюджет")
		require.NoError(t, err)
		_, err = dir.JoinByCode(200, group.InviteCode)
		require.NoError(t, err)

		outcome, err := dir.Leave(200)
		require.NoError(t, err)
		assert.Equal(t, LeaveLeft, outcome)

		stored, err := dir.GroupOf(100)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, []int64{100}, stored.Members)
	})

	t.Run("owner leaves, group is deleted", func(t *testing.T) {
		dir := newTestDirectory(t)
		group, err := dir.CreateGroup(100, "Бюджет")
		require.NoError(t, err)
		_, err = dir.JoinByCode(200, group.InviteCode)
		require.NoError(t, err)

		outcome, err := dir.Leave(100)
		require.NoError(t, err)
		assert.Equal(t, LeaveGroupDeleted, outcome)

		stored, err := dir.GroupOf(200)
		require.NoError(t, err)
		assert.Nil(t, stored, "remaining members lose the group too")
	})

	t.Run("not in any group", func(t *testing.T) {
		dir := newTestDirectory(t)
		outcome, err := dir.Leave(999)
		require.NoError(t, err)
		assert.Equal(t, LeaveNotInGroup, outcome)
	})
}

func TestRegenerateInviteCode(t *testing.T) {
	dir := newTestDirectory(t)
	group, err := dir.CreateGroup(100, "Бюджет")
	require.NoError(t, err)
	_, err = dir.JoinByCode(200, group.InviteCode)
	require.NoError(t, err)
	oldCode := group.InviteCode

	t.Run("only the owner rotates", func(t *testing.T) {
		_, err := dir.RegenerateInviteCode(200)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("old code stops working", func(t *testing.T) {
		newCode, err := dir.RegenerateInviteCode(100)
		require.NoError(t, err)
		assert.NotEqual(t, oldCode, newCode)

		_, err = dir.JoinByCode(300, oldCode)
		assert.ErrorIs(t, err, ErrUnknownCode)

		joined, err := dir.JoinByCode(300, newCode)
		require.NoError(t, err)
		assert.True(t, joined.HasMember(300))
	})

	t.Run("outsider cannot rotate", func(t *testing.T) {
		_, err := dir.RegenerateInviteCode(999)
		assert.ErrorIs(t, err, ErrNotInGroup)
	})
}

func TestBindSpreadsheet(t *testing.T) {
	dir := newTestDirectory(t)

	err := dir.BindSpreadsheet(100, "sheet-id")
	assert.ErrorIs(t, err, ErrNotInGroup)

	_, err = dir.CreateGroup(100, "Бюджет")
	require.NoError(t, err)

	_, err = dir.SpreadsheetFor(100)
	assert.ErrorIs(t, err, ErrNoSpreadsheet)

	require.NoError(t, dir.BindSpreadsheet(100, "sheet-id"))
	id, err := dir.SpreadsheetFor(100)
	require.NoError(t, err)
	assert.Equal(t, "sheet-id", id)
}

func TestAuthCodes(t *testing.T) {
	dir := newTestDirectory(t, 1)

	t.Run("only admins mint", func(t *testing.T) {
		_, err := dir.MintAuthCode(100)
		assert.Error(t, err)
	})

	t.Run("code works exactly once", func(t *testing.T) {
		code, err := dir.MintAuthCode(1)
		require.NoError(t, err)
		require.Len(t, code, authCodeLength)

		require.NoError(t, dir.RedeemAuthCode(100, code))
		ok, err := dir.IsAuthorised(100)
		require.NoError(t, err)
		assert.True(t, ok)

		err = dir.RedeemAuthCode(200, code)
		assert.ErrorIs(t, err, ErrUnknownCode)
		ok, err = dir.IsAuthorised(200)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("claimed code is recorded against the user", func(t *testing.T) {
		code, err := dir.MintAuthCode(1)
		require.NoError(t, err)
		require.NoError(t, dir.RedeemAuthCode(300, code))

		doc, err := dir.storage.Load()
		require.NoError(t, err)
		assert.Equal(t, int64(300), doc.AuthorisedUsers[code],
			"claimed code must survive as a key in authorised_users")
		assert.NotContains(t, doc.AuthCodes, code)

		// Redeeming one's own claimed code again stays a success.
		require.NoError(t, dir.RedeemAuthCode(300, code))

		// But it never authorises anyone else.
		assert.ErrorIs(t, dir.RedeemAuthCode(400, code), ErrUnknownCode)
	})

	t.Run("empty code never redeems", func(t *testing.T) {
		assert.ErrorIs(t, dir.RedeemAuthCode(500, ""), ErrUnknownCode)
	})

	t.Run("admins are always authorised", func(t *testing.T) {
		ok, err := dir.IsAuthorised(1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, dir.IsAdmin(1))
		assert.False(t, dir.IsAdmin(100))
	})
}

func TestStorageCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o600))

	storage := NewStorage(path, logging.NewMockLogger())
	doc, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Groups)
	assert.NotNil(t, doc.AuthorisedUsers)
}

func TestStoragePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "groups.yaml")
	log := logging.NewMockLogger()

	first := NewDirectory(NewStorage(path, log), nil, log)
	group, err := first.CreateGroup(100, "Бюджет")
	require.NoError(t, err)
	require.NoError(t, first.BindSpreadsheet(100, "sheet-id"))

	second := NewDirectory(NewStorage(path, log), nil, log)
	stored, err := second.GroupOf(100)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, group.InviteCode, stored.InviteCode)
	assert.Equal(t, "sheet-id", stored.SpreadsheetID)
}
