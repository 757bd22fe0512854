package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMembershipStatus(t *testing.T) {
	assert.Equal(t, StatusCreator, ParseMembershipStatus("creator"))
	assert.Equal(t, StatusAdministrator, ParseMembershipStatus("administrator"))
	assert.Equal(t, StatusMember, ParseMembershipStatus("member"))
	assert.Equal(t, StatusRestricted, ParseMembershipStatus("restricted"))
	assert.Equal(t, StatusLeft, ParseMembershipStatus("left"))
	assert.Equal(t, StatusKicked, ParseMembershipStatus("kicked"))
	assert.Equal(t, StatusUnknown, ParseMembershipStatus(""))
	assert.Equal(t, StatusUnknown, ParseMembershipStatus("banned"))
}

func TestIsVerified(t *testing.T) {
	verified := []MembershipStatus{StatusCreator, StatusAdministrator, StatusMember}
	for _, s := range verified {
		assert.True(t, s.IsVerified(), s.String())
	}

	notVerified := []MembershipStatus{StatusRestricted, StatusLeft, StatusKicked, StatusUnknown}
	for _, s := range notVerified {
		assert.False(t, s.IsVerified(), s.String())
	}
}
