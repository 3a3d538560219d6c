package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/org-membership-api/internal/dto"
	apierrors "github.com/yukikurage/org-membership-api/internal/errors"
	"github.com/yukikurage/org-membership-api/internal/models"
)

// MembershipHandlerTestSuite exercises the membership endpoints through the router
type MembershipHandlerTestSuite struct {
	suite.Suite
	env apiTestEnv

	owner        *models.User
	ownerCookies []*http.Cookie
	org          *models.Organization
}

// SetupTest runs before each test
func (suite *MembershipHandlerTestSuite) SetupTest() {
	suite.env = setupAPITestEnv(suite.T())
	suite.owner, suite.ownerCookies = suite.env.signupAndLogin(suite.T(), "Owner", "owner@example.com")
	suite.org = suite.env.createOrganization(suite.T(), "Acme", suite.owner)
}

func (suite *MembershipHandlerTestSuite) membershipsURL() string {
	return "/api/organizations/" + suite.org.ID + "/memberships"
}

func (suite *MembershipHandlerTestSuite) membershipURL(id uint64) string {
	return fmt.Sprintf("%s/%d", suite.membershipsURL(), id)
}

func (suite *MembershipHandlerTestSuite) ownerMembershipID() uint64 {
	return suite.org.Memberships[0].ID
}

func (suite *MembershipHandlerTestSuite) requireErrorCode(code string, body []byte) {
	var apiErr apierrors.APIError
	suite.Require().NoError(json.Unmarshal(body, &apiErr))
	suite.Equal(code, apiErr.Code)
}

func (suite *MembershipHandlerTestSuite) TestCreateMembership_NewUser() {
	w := suite.env.do(suite.T(), http.MethodPost, suite.membershipsURL(), map[string]string{
		"email": "invitee@example.com",
	}, suite.ownerCookies)
	suite.Require().Equal(http.StatusCreated, w.Code)

	var response dto.MembershipDTO
	decodeJSON(suite.T(), w, &response)
	suite.Equal(models.RoleMember, response.Role)
	suite.Equal(suite.org.ID, response.OrganizationID)
	suite.Require().NotNil(response.Organization)
	suite.Equal("Acme", response.Organization.Name)

	var users int64
	suite.Require().NoError(suite.env.db.Model(&models.User{}).Count(&users).Error)
	suite.Equal(int64(2), users)

	suite.Require().Len(suite.env.emails.messages, 1)
	suite.Equal("invitee@example.com", suite.env.emails.messages[0].ToAddress)
	suite.Equal("https://app.example.com/organization/"+suite.org.ID, suite.env.emails.messages[0].Variables["link"])
}

func (suite *MembershipHandlerTestSuite) TestCreateMembership_Validation() {
	w := suite.env.do(suite.T(), http.MethodPost, suite.membershipsURL(), map[string]string{
		"email": "not-an-email",
	}, suite.ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(suite.T(), http.MethodPost, suite.membershipsURL(), map[string]string{
		"email": "invitee@example.com",
		"role":  "SUPERUSER",
	}, suite.ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(suite.T(), http.MethodPost, suite.membershipsURL(), map[string]string{
		"email": "owner@example.com",
	}, suite.ownerCookies)
	suite.Equal(http.StatusConflict, w.Code)
	suite.requireErrorCode(apierrors.ErrCodeAlreadyExists, w.Body.Bytes())
}

func (suite *MembershipHandlerTestSuite) TestCreateMembership_MemberForbidden() {
	member, memberCookies := suite.env.signupAndLogin(suite.T(), "Member", "member@example.com")
	suite.env.addMembership(suite.T(), suite.org, member, models.RoleMember)

	w := suite.env.do(suite.T(), http.MethodPost, suite.membershipsURL(), map[string]string{
		"email": "invitee@example.com",
	}, memberCookies)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Empty(suite.env.emails.messages)
}

func (suite *MembershipHandlerTestSuite) TestOwnerChanges_AdminForbidden() {
	admin, adminCookies := suite.env.signupAndLogin(suite.T(), "Admin", "admin@example.com")
	suite.env.addMembership(suite.T(), suite.org, admin, models.RoleAdmin)

	w := suite.env.do(suite.T(), http.MethodPost, suite.membershipsURL(), map[string]string{
		"email": "invitee@example.com",
		"role":  string(models.RoleOwner),
	}, adminCookies)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.requireErrorCode(apierrors.ErrCodeForbidden, w.Body.Bytes())
	suite.Empty(suite.env.emails.messages)

	w = suite.env.do(suite.T(), http.MethodPatch, suite.membershipURL(suite.ownerMembershipID()), map[string]string{
		"role": string(models.RoleMember),
	}, adminCookies)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.do(suite.T(), http.MethodDelete, suite.membershipURL(suite.ownerMembershipID()), nil, adminCookies)
	suite.Equal(http.StatusForbidden, w.Code)

	var owner models.Membership
	suite.Require().NoError(suite.env.db.First(&owner, suite.ownerMembershipID()).Error)
	suite.Equal(models.RoleOwner, owner.Role)
}

func (suite *MembershipHandlerTestSuite) TestListMemberships() {
	member, memberCookies := suite.env.signupAndLogin(suite.T(), "Member", "member@example.com")
	added := suite.env.addMembership(suite.T(), suite.org, member, models.RoleMember)

	w := suite.env.do(suite.T(), http.MethodGet, suite.membershipsURL()+"?page=1&pageSize=1", nil, memberCookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.MembershipListResponse
	decodeJSON(suite.T(), w, &response)
	suite.Require().Len(response.Records, 1)
	suite.Equal(added.ID, response.Records[0].ID)
	suite.Require().NotNil(response.Records[0].User)
	suite.Equal("member@example.com", response.Records[0].User.Email)
	suite.Equal(int64(2), response.Pagination.TotalCount)
	suite.Equal(2, response.Pagination.TotalPages)
	suite.Equal(1, response.Pagination.PageSize)
}

func (suite *MembershipHandlerTestSuite) TestGetMembership_CrossTenant() {
	otherOwner, _ := suite.env.signupAndLogin(suite.T(), "Other", "other@example.com")
	otherOrg := suite.env.createOrganization(suite.T(), "Globex", otherOwner)

	w := suite.env.do(suite.T(), http.MethodGet, suite.membershipURL(otherOrg.Memberships[0].ID), nil, suite.ownerCookies)
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.requireErrorCode(apierrors.ErrCodeUnauthorizedResource, w.Body.Bytes())

	w = suite.env.do(suite.T(), http.MethodGet, suite.membershipURL(999999), nil, suite.ownerCookies)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.requireErrorCode(apierrors.ErrCodeMembershipNotFound, w.Body.Bytes())

	w = suite.env.do(suite.T(), http.MethodGet, suite.membershipsURL()+"/abc", nil, suite.ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *MembershipHandlerTestSuite) TestUpdateMembership_SoleOwner() {
	w := suite.env.do(suite.T(), http.MethodPatch, suite.membershipURL(suite.ownerMembershipID()), map[string]string{
		"role": "ADMIN",
	}, suite.ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.requireErrorCode(apierrors.ErrCodeCannotUpdateRoleSoleOwner, w.Body.Bytes())
}

func (suite *MembershipHandlerTestSuite) TestUpdateMembership_Promote() {
	member, _ := suite.env.signupAndLogin(suite.T(), "Member", "member@example.com")
	added := suite.env.addMembership(suite.T(), suite.org, member, models.RoleMember)

	w := suite.env.do(suite.T(), http.MethodPatch, suite.membershipURL(added.ID), map[string]string{
		"role": "OWNER",
	}, suite.ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.MembershipDTO
	decodeJSON(suite.T(), w, &response)
	assert.Equal(suite.T(), models.RoleOwner, response.Role)

	w = suite.env.do(suite.T(), http.MethodPatch, suite.membershipURL(suite.ownerMembershipID()), map[string]string{
		"role": "MEMBER",
	}, suite.ownerCookies)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *MembershipHandlerTestSuite) TestDeleteMembership_SoleMember() {
	w := suite.env.do(suite.T(), http.MethodDelete, suite.membershipURL(suite.ownerMembershipID()), nil, suite.ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.requireErrorCode(apierrors.ErrCodeCannotDeleteSoleMember, w.Body.Bytes())
}

func (suite *MembershipHandlerTestSuite) TestDeleteMembership_SoleOwner() {
	member, _ := suite.env.signupAndLogin(suite.T(), "Member", "member@example.com")
	suite.env.addMembership(suite.T(), suite.org, member, models.RoleMember)

	w := suite.env.do(suite.T(), http.MethodDelete, suite.membershipURL(suite.ownerMembershipID()), nil, suite.ownerCookies)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.requireErrorCode(apierrors.ErrCodeCannotDeleteSoleOwner, w.Body.Bytes())
}

func (suite *MembershipHandlerTestSuite) TestDeleteMembership_Member() {
	member, _ := suite.env.signupAndLogin(suite.T(), "Member", "member@example.com")
	added := suite.env.addMembership(suite.T(), suite.org, member, models.RoleMember)

	w := suite.env.do(suite.T(), http.MethodDelete, suite.membershipURL(added.ID), nil, suite.ownerCookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.MembershipDTO
	decodeJSON(suite.T(), w, &response)
	suite.Equal(added.ID, response.ID)

	w = suite.env.do(suite.T(), http.MethodGet, suite.membershipURL(added.ID), nil, suite.ownerCookies)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestMembershipHandlerTestSuite runs the test suite
func TestMembershipHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MembershipHandlerTestSuite))
}
