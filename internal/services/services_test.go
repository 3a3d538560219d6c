package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/org-membership-api/internal/database"
	"github.com/yukikurage/org-membership-api/internal/logging"
	"github.com/yukikurage/org-membership-api/internal/mailer"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testFrontendURL = "https://app.example.com"

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

type serviceTestEnv struct {
	ctx               context.Context
	db                *gorm.DB
	authService       *AuthService
	orgService        *OrganizationService
	membershipService *MembershipService
	emails            *recordingQueue
}

func setupServiceTestEnv(t *testing.T) serviceTestEnv {
	t.Helper()
	// every connection to :memory: is a separate database
	return newServiceTestEnv(t, ":memory:", 1)
}

// setupSharedServiceTestEnv backs the services with a sqlite file and a pool of
// connections, so transactions from different goroutines really overlap.
func setupSharedServiceTestEnv(t *testing.T) serviceTestEnv {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "membership.db") + "?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL"
	return newServiceTestEnv(t, dsn, 8)
}

func newServiceTestEnv(t *testing.T, dsn string, maxOpenConns int) serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.AutoMigrate(db))

	log := logging.Discard()
	orgRepo := repository.NewOrganizationRepository(db)
	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)

	authService := NewAuthService(userRepo)
	orgService := NewOrganizationService(orgRepo, log)
	emails := &recordingQueue{}
	membershipService := NewMembershipService(MembershipServiceDeps{
		MembershipRepo: membershipRepo,
		OrgRepo:        orgRepo,
		UserRepo:       userRepo,
		Users:          authService,
		Emails:         emails,
		FrontendURL:    testFrontendURL,
		Logger:         log,
	})

	return serviceTestEnv{
		ctx:               context.Background(),
		db:                db,
		authService:       authService,
		orgService:        orgService,
		membershipService: membershipService,
		emails:            emails,
	}
}

func (env serviceTestEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := env.authService.SignupByEmail(env.ctx, "127.0.0.1", email)
	require.NoError(t, err)
	return user
}

func (env serviceTestEnv) createOrganization(t *testing.T, name string, owner *models.User) *models.Organization {
	t.Helper()
	org, err := env.orgService.Create(env.ctx, owner.ID, CreateOrganizationInput{Name: name})
	require.NoError(t, err)
	return org
}

// addMember invites email with role and returns the membership.
func (env serviceTestEnv) addMember(t *testing.T, org *models.Organization, email string, role models.Role) *models.Membership {
	t.Helper()
	membership, err := env.membershipService.Create(env.ctx, CreateMembershipInput{
		OrganizationID: org.ID,
		IPAddress:      "127.0.0.1",
		Email:          email,
		Role:           &role,
		ActorRole:      models.RoleOwner,
	})
	require.NoError(t, err)
	return membership
}

// requireOrganizationInvariants asserts the organization keeps at least one
// member and at least one owner.
func (env serviceTestEnv) requireOrganizationInvariants(t *testing.T, orgID string) {
	t.Helper()

	var members, owners int64
	require.NoError(t, env.db.Model(&models.Membership{}).Where("organization_id = ?", orgID).Count(&members).Error)
	require.NoError(t, env.db.Model(&models.Membership{}).Where("organization_id = ? AND role = ?", orgID, models.RoleOwner).Count(&owners).Error)
	require.GreaterOrEqual(t, members, int64(1))
	require.GreaterOrEqual(t, owners, int64(1))
}

func rolePtr(r models.Role) *models.Role {
	return &r
}

func strPtr(s string) *string {
	return &s
}

// runConcurrently starts every fn at the same time and collects their errors in order.
func runConcurrently(fns ...func() error) []error {
	errs := make([]error, len(fns))
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}()
	}
	close(start)
	wg.Wait()

	return errs
}
