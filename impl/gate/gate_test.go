package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communitybot/entity"
	"communitybot/internal/store"
)

const (
	gatedGroup  = int64(-100500)
	otherGroup  = int64(-100999)
	channelName = "@testchannel"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentMessage struct {
	chatId int64
	text   string
}

type restrictionCall struct {
	groupId int64
	userId  int64
	canPost bool
}

type actionsRecorder struct {
	mu           sync.Mutex
	messages     []sentMessage
	restrictions []restrictionCall
	restrictErr  error
}

func (a *actionsRecorder) SendMessage(_ context.Context, chatId int64, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, sentMessage{chatId: chatId, text: text})
	return nil
}

func (a *actionsRecorder) SetRestriction(_ context.Context, groupId, userId int64, canPost bool) error {
	if a.restrictErr != nil {
		return a.restrictErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.restrictions = append(a.restrictions, restrictionCall{groupId: groupId, userId: userId, canPost: canPost})
	return nil
}

type fakeVerifier struct {
	status entity.MembershipStatus
	err    error
	calls  int
}

func (v *fakeVerifier) Check(_ context.Context, _ int64) (entity.MembershipStatus, error) {
	v.calls++
	if v.err != nil {
		return entity.StatusUnknown, v.err
	}
	return v.status, nil
}

func newTestGate(verifier *fakeVerifier) (*Gate, *store.Memory, *actionsRecorder) {
	mem := store.NewMemory()
	actions := &actionsRecorder{}
	g := New(mem, gatedGroup, channelName, testLogger())
	g.SetActions(actions)
	g.SetVerifier(verifier)
	return g, mem, actions
}

func TestOnJoinGatedGroup(t *testing.T) {
	g, mem, actions := newTestGate(&fakeVerifier{})
	ctx := context.Background()

	require.NoError(t, g.OnJoin(ctx, gatedGroup, 55, "alice"))

	restricted, err := g.Restricted(ctx, 55)
	require.NoError(t, err)
	assert.True(t, restricted)

	val, ok, err := mem.Get(ctx, "restricted:-100500:55")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "-100500", val, "record stores the group id")

	require.Len(t, actions.restrictions, 1)
	assert.Equal(t, restrictionCall{groupId: gatedGroup, userId: 55, canPost: false}, actions.restrictions[0])

	require.Len(t, actions.messages, 1)
	assert.Equal(t, gatedGroup, actions.messages[0].chatId)
	assert.Contains(t, actions.messages[0].text, "@alice")
	assert.Contains(t, actions.messages[0].text, channelName)
}

func TestOnJoinOtherGroupIgnored(t *testing.T) {
	g, _, actions := newTestGate(&fakeVerifier{})
	ctx := context.Background()

	require.NoError(t, g.OnJoin(ctx, otherGroup, 55, "alice"))

	restricted, err := g.Restricted(ctx, 55)
	require.NoError(t, err)
	assert.False(t, restricted)
	assert.Empty(t, actions.restrictions)
	assert.Empty(t, actions.messages)
}

func TestOnVerifyWithoutRestriction(t *testing.T) {
	verifier := &fakeVerifier{status: entity.StatusMember}
	g, _, actions := newTestGate(verifier)
	ctx := context.Background()

	outcome, err := g.OnVerify(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotNeeded, outcome)
	assert.Equal(t, 0, verifier.calls, "no restriction means no oracle query")
	assert.Empty(t, actions.restrictions)
}

func TestOnVerifyNotMember(t *testing.T) {
	verifier := &fakeVerifier{status: entity.StatusLeft}
	g, _, actions := newTestGate(verifier)
	ctx := context.Background()

	require.NoError(t, g.OnJoin(ctx, gatedGroup, 55, "alice"))
	muteCalls := len(actions.restrictions)

	outcome, err := g.OnVerify(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotMember, outcome)

	restricted, err := g.Restricted(ctx, 55)
	require.NoError(t, err)
	assert.True(t, restricted, "restriction stays until membership is confirmed")
	assert.Len(t, actions.restrictions, muteCalls, "no unmute issued")
}

func TestOnVerifyMember(t *testing.T) {
	verifier := &fakeVerifier{status: entity.StatusLeft}
	g, _, actions := newTestGate(verifier)
	ctx := context.Background()

	require.NoError(t, g.OnJoin(ctx, gatedGroup, 55, "alice"))

	// First attempt: user has not joined the channel yet.
	outcome, err := g.OnVerify(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotMember, outcome)

	// User joins the channel, second attempt succeeds.
	verifier.status = entity.StatusMember
	outcome, err = g.OnVerify(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, outcome)

	restricted, err := g.Restricted(ctx, 55)
	require.NoError(t, err)
	assert.False(t, restricted)

	last := actions.restrictions[len(actions.restrictions)-1]
	assert.Equal(t, restrictionCall{groupId: gatedGroup, userId: 55, canPost: true}, last)
}

func TestOnVerifyAdminAndCreatorCount(t *testing.T) {
	for _, status := range []entity.MembershipStatus{entity.StatusAdministrator, entity.StatusCreator} {
		verifier := &fakeVerifier{status: status}
		g, _, _ := newTestGate(verifier)
		ctx := context.Background()

		require.NoError(t, g.OnJoin(ctx, gatedGroup, 55, "alice"))

		outcome, err := g.OnVerify(ctx, 55)
		require.NoError(t, err)
		assert.Equal(t, OutcomeVerified, outcome, "status %s", status)
	}
}

func TestOnVerifyOracleFailure(t *testing.T) {
	verifier := &fakeVerifier{err: entity.ErrOracleUnavailable}
	g, _, actions := newTestGate(verifier)
	ctx := context.Background()

	require.NoError(t, g.OnJoin(ctx, gatedGroup, 55, "alice"))
	muteCalls := len(actions.restrictions)

	_, err := g.OnVerify(ctx, 55)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrOracleUnavailable))

	restricted, err := g.Restricted(ctx, 55)
	require.NoError(t, err)
	assert.True(t, restricted, "oracle failure leaves state untouched")
	assert.Len(t, actions.restrictions, muteCalls)

	// Retry after the oracle recovers.
	verifier.err = nil
	verifier.status = entity.StatusMember
	outcome, err := g.OnVerify(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, outcome)
}

func TestOnVerifyUnmuteFailureKeepsRecord(t *testing.T) {
	verifier := &fakeVerifier{status: entity.StatusMember}
	g, _, actions := newTestGate(verifier)
	ctx := context.Background()

	require.NoError(t, g.OnJoin(ctx, gatedGroup, 55, "alice"))

	actions.restrictErr = errors.New("api timeout")
	_, err := g.OnVerify(ctx, 55)
	require.Error(t, err)

	restricted, err := g.Restricted(ctx, 55)
	require.NoError(t, err)
	assert.True(t, restricted, "failed unmute must keep the record so the user can retry")
}
