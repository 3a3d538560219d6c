package handlers

import (
	"context"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/database"
	"github.com/yukikurage/org-membership-api/internal/logging"
	"github.com/yukikurage/org-membership-api/internal/mailer"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"github.com/yukikurage/org-membership-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "supersecret"

type recordingQueue struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (q *recordingQueue) Enqueue(msg mailer.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return true
}

type apiTestEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	authService *services.AuthService
	orgService  *services.OrganizationService
	emails      *recordingQueue
}

func setupAPITestEnv(t *testing.T) apiTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.AutoMigrate(db))

	log := logging.Discard()
	orgRepo := repository.NewOrganizationRepository(db)
	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)

	authService := services.NewAuthService(userRepo)
	orgService := services.NewOrganizationService(orgRepo, log)
	emails := &recordingQueue{}
	membershipService := services.NewMembershipService(services.MembershipServiceDeps{
		MembershipRepo: membershipRepo,
		OrgRepo:        orgRepo,
		UserRepo:       userRepo,
		Users:          authService,
		Emails:         emails,
		FrontendURL:    "https://app.example.com",
		Logger:         log,
	})

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	Routes{
		Auth:           NewAuthHandler(authService),
		Organizations:  NewOrganizationHandler(orgService),
		Memberships:    NewMembershipHandler(membershipService),
		OrgRepo:        orgRepo,
		MembershipRepo: membershipRepo,
	}.Register(r)

	return apiTestEnv{
		db:          db,
		router:      r,
		authService: authService,
		orgService:  orgService,
		emails:      emails,
	}
}

// do sends a request through the router, encoding payload as JSON when non-nil.
func (env apiTestEnv) do(t *testing.T, method, url string, payload interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// signupAndLogin registers a user with a password and returns its session cookies.
func (env apiTestEnv) signupAndLogin(t *testing.T, name, email string) (*models.User, []*http.Cookie) {
	t.Helper()

	user, err := env.authService.Signup(context.Background(), services.SignupInput{
		Name:     name,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
	return user, cookies
}

func (env apiTestEnv) createOrganization(t *testing.T, name string, owner *models.User) *models.Organization {
	t.Helper()
	org, err := env.orgService.Create(context.Background(), owner.ID, services.CreateOrganizationInput{Name: name})
	require.NoError(t, err)
	return org
}

func (env apiTestEnv) addMembership(t *testing.T, org *models.Organization, user *models.User, role models.Role) *models.Membership {
	t.Helper()
	membership := &models.Membership{OrganizationID: org.ID, UserID: user.ID, Role: role}
	require.NoError(t, env.db.Create(membership).Error)
	return membership
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
