package verify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communitybot/entity"
)

type fakeOracle struct {
	status string
	err    error
	chatId int64
	userId int64
}

func (o *fakeOracle) ChatMemberStatus(_ context.Context, chatId, userId int64) (string, error) {
	o.chatId = chatId
	o.userId = userId
	if o.err != nil {
		return "", o.err
	}
	return o.status, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckNormalizesStatus(t *testing.T) {
	cases := []struct {
		raw      string
		want     entity.MembershipStatus
		verified bool
	}{
		{"member", entity.StatusMember, true},
		{"administrator", entity.StatusAdministrator, true},
		{"creator", entity.StatusCreator, true},
		{"left", entity.StatusLeft, false},
		{"kicked", entity.StatusKicked, false},
		{"restricted", entity.StatusRestricted, false},
		{"something-new", entity.StatusUnknown, false},
	}

	for _, tc := range cases {
		oracle := &fakeOracle{status: tc.raw}
		service := New(oracle, -100200, testLogger())

		status, err := service.Check(context.Background(), 55)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, status, tc.raw)
		assert.Equal(t, tc.verified, status.IsVerified(), tc.raw)
	}
}

func TestCheckQueriesConfiguredChannel(t *testing.T) {
	oracle := &fakeOracle{status: "member"}
	service := New(oracle, -100200, testLogger())

	_, err := service.Check(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, int64(-100200), oracle.chatId)
	assert.Equal(t, int64(55), oracle.userId)
}

func TestCheckTransportFailure(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("context deadline exceeded")}
	service := New(oracle, -100200, testLogger())

	_, err := service.Check(context.Background(), 55)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrOracleUnavailable),
		"transport failure must not read as not-a-member")
}
